// Package sqlitestore provides an sdfdata.Store persisted in a SQLite
// database.
//
// The store keeps a complete in-memory copy of the layer data, loaded at
// Open, and writes every mutation through to the database before applying
// it in memory. Field values are stored as text using textfmt.FieldCodec.
package sqlitestore
