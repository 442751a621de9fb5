// Package api contains the HTTP handlers: the non-blocking submission
// endpoints for bulk import and comparison, the polling and cancellation
// endpoints for operations, and the document read/revise endpoints.
//
// Submission handlers do as little as possible synchronously: validate,
// stage, seed a Queued status record, enqueue, respond 202. Everything else
// happens in the background and is observed through the progress endpoints.
package api
