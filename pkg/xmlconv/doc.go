// Package xmlconv converts a reference-free JSON Schema document into an XML
// document whose element structure mirrors the schema's object, array, and
// property nesting.
//
// The converter does not resolve references. Handing it a document that
// still contains $ref pointers is a contract violation, reported before any
// output is produced.
package xmlconv
