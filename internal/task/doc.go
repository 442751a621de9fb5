// Package task contains the background execution machinery: the Task
// interface, the Runner that owns the bounded queue and worker pool, and the
// executors for the two operation kinds.
//
// The Runner derives every task's context from its own base context, never
// from the HTTP request that submitted it, so a client disconnecting after
// submission does not abort the work. Cancellation happens through the
// Runner's registry of per-operation cancel functions.
//
// Executors are the single writers of their status records. They publish a
// fresh snapshot to the operation store after every transition, and the
// Runner's error handler acts as a backstop that marks a record failed if an
// executor dies without reaching a terminal state.
package task
