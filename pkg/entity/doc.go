// Package entity builds typed, validating records from runtime metadata.
//
// A Field holds one value of a closed set of kinds selected by the metadata
// type name. An Entity groups the fields of one record and answers
// permission questions for a user passed to each call. Entities never hold a
// user and never perform I/O.
package entity
