// Package searchdex turns a declarative schema into the operational artifacts
// for a search-capable record store: an index definition, typed query
// builders, and a result parser that maps raw store replies back into typed
// records.
//
// The core pipeline is pure and schema-driven. A schema document (YAML, JSON
// or an in-memory mapping) becomes an immutable schema.IndexSchema; the
// schema compiles to FT.CREATE arguments; query values from the query package
// compile to FT.SEARCH strings with bound binary parameters; raw replies
// decode back into Documents using the field types the schema declares.
// Everything below the SearchIndex façade is free of shared mutable state and
// safe for concurrent use.
//
// Store access goes through the StoreClient interface. A rueidis-backed
// implementation is bundled, but any command executor works.
package searchdex
