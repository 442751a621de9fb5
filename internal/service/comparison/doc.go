// Package comparison implements the document comparison workflow: it loads
// the two most recent versions of a document and asks the generation layer
// to produce a structured description of what changed between them.
package comparison
