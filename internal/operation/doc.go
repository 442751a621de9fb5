// Package operation contains the in-memory status tracking for long-running
// background operations: the status record types (one per operation kind)
// and the concurrency-safe store clients poll through.
//
// Records form a tagged union: every kind embeds the common Status header
// (id, kind, state, percent, timestamps) and adds its own fields. The store
// is generic over the Record interface and never inspects kind-specific
// data; readers recover the concrete kind with a type assertion.
//
// A record's lifecycle is owned by exactly one writer, the executor running
// the operation. The store clones records on both Set and TryGet, so
// concurrent readers can never observe a partially written record.
package operation
