package upload

import (
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"
)

// StagePath returns a collision-free staging path for an inbound file,
// keeping the original extension so the degraded (non-normalized) path still
// declares something sensible.
func StagePath(dir, originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return filepath.Join(dir, "upload-"+ulid.Make().String()+ext)
}
