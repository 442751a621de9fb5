// Package bulkimport implements the document bulk import workflow: staged
// upload files are parsed, persisted as documents with an initial version,
// and reported back through progress callbacks. The package knows nothing
// about HTTP or about operation records; the import executor wires its
// callbacks to the status record.
package bulkimport
