// Package domain contains the core entities of the document workspace:
// documents, their versions, and the result payloads produced by the
// asynchronous import and comparison operations. Domain types validate
// themselves and carry no persistence or transport concerns.
package domain
