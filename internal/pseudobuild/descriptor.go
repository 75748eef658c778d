package pseudobuild

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// BundleDescriptor is the sidecar persisted next to a concatenated
// ("outFile" + prepend) bundle, recording where this project's own
// contribution begins within the bundle (spec §3, §6).
type BundleDescriptor struct {
	OriginalOffset int64 `json:"originalOffset"`
	TotalLength    int64 `json:"totalLength"`
}

// DescriptorPath returns the sidecar path for a bundle file: its basename
// with the ".js" extension replaced by ".bundle_info" (spec §6).
func DescriptorPath(outFile string) string {
	ext := filepath.Ext(outFile)
	return strings.TrimSuffix(outFile, ext) + ".bundle_info"
}

// LoadDescriptor reads and parses a sidecar file. Returns nil, nil if the
// file does not exist — callers treat that as "cannot pseudo-build".
func LoadDescriptor(path string) (*BundleDescriptor, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var d BundleDescriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing bundle descriptor %s: %w", path, err)
	}
	return &d, nil
}

// SaveDescriptor writes d to path atomically (temp file + rename), the same
// idiom the teacher package used for its own on-disk cache.
func SaveDescriptor(path string, d *BundleDescriptor) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling bundle descriptor: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing bundle descriptor temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming bundle descriptor into place: %w", err)
	}
	return nil
}
