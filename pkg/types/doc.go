// Package types defines the metadata records, identity types, the Transport
// contract and the standard errors shared by the hrentities packages.
//
// Metadata arrives from the HR platform as JSON and is decoded into
// EntityMetadata and FieldMetadata. Those records are immutable once loaded;
// pkg/entity builds typed, validating Entity values from them.
package types
