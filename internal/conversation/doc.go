// Package conversation holds the conversation record, the analysis
// document stored in its file_data, and the stores that persist it.
//
// Two Repository implementations exist: GormRepository over the
// relational conversations table, and FileRepository over any
// storage.Storage backend. Service adds validation, tracing and event
// publication on top of either.
//
// Reads are lenient. Missing or mistyped fragment fields decode to zero
// values or documented defaults; only a file_data value that is not a
// JSON object is rejected.
package conversation
