// Package events defines operation lifecycle events and the emitter that
// fans them out to registered handlers. Executors publish an event on every
// state transition; consumers (metrics, logging) subscribe without the
// executor knowing about them.
package events
