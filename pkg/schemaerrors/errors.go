package schemaerrors

import (
	"errors"
	"fmt"
)

var (
	// ErrWrite indicates an error occurred while writing.
	ErrWrite = errors.New("write")

	// ErrWriteFile indicates an error occurred while writing a file.
	ErrWriteFile = fmt.Errorf("file: %w", ErrWrite)

	// ErrDocumentNotFound indicates a referenced schema document wasn't found
	// in the available documents.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrDuplicateDocument indicates two schema documents share the same name.
	ErrDuplicateDocument = errors.New("duplicate document name")

	// ErrTargetNotFound indicates a reference fragment doesn't resolve inside
	// its target document.
	ErrTargetNotFound = errors.New("reference target not found")

	// ErrRefCycle indicates a reference chain revisits a locator that is
	// still being resolved.
	ErrRefCycle = errors.New("reference cycle")

	// ErrUnresolvedRef indicates a document still contains reference pointers
	// where none are allowed.
	ErrUnresolvedRef = errors.New("unresolved reference")

	// ErrSectionNotFound indicates a requested section wasn't found in the
	// schema.
	ErrSectionNotFound = errors.New("section not found")

	// ErrInvalidFormat indicates an unexpected or invalid format was
	// encountered.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrJSONMarshal indicates an error occurred while marshaling JSON.
	ErrJSONMarshal = errors.New("marshal JSON")
)
