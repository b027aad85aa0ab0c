// Package metacache provides second-level stores for entity metadata shared
// between manager instances: Redis for fleets of processes and a SQLite file
// for a single machine. Entries are raw metadata documents scoped by
// instance code and expire after a TTL.
package metacache
