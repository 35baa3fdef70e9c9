package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schemakit/schemakit/pkg/schemaerrors"
)

// writeFile writes data through a temp file in the destination directory and
// renames it into place, so a failed run never leaves a torn output file.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".schemakit-*")
	if err != nil {
		return fmt.Errorf("%w: %q: %w", schemaerrors.ErrWriteFile, path, err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return fmt.Errorf("%w: %q: %w", schemaerrors.ErrWriteFile, path, err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("%w: %q: %w", schemaerrors.ErrWriteFile, path, err)
	}

	if err := os.Chmod(tmpName, 0o644); err != nil { //nolint:gosec // Output documents are world-readable.
		_ = os.Remove(tmpName)

		return fmt.Errorf("%w: %q: %w", schemaerrors.ErrWriteFile, path, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("%w: %q: %w", schemaerrors.ErrWriteFile, path, err)
	}

	return nil
}
