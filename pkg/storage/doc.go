// Package storage persists tracker state as a single JSON document.
//
// The in-memory tracker is keyed by state; the document is keyed by subject.
// Each record carries one subject and only the states it occupies:
//
//	[
//	  {"item": "a", "state": {"foo": null}},
//	  {"item": "b", "state": {"bar": {"key": "value"}}}
//	]
//
// Keeping every state of a subject in one record means a document can be
// split by subject without ever separating a subject from its states.
//
// Adapters satisfy tracker.Storage:
//
//	Save(ctx, subjects, partitions) error
//	Load(ctx) (iter.Seq2[K, map[string]V], error)
//
// JSONFile writes the document to a path; Memory keeps the encoded bytes and
// is meant for tests and examples. Non-primitive subjects or payloads either
// marshal through encoding/json directly or go through a Codec.
package storage
