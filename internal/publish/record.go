package publish

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tessro/artwall/internal/core"
)

// WriteRecord overwrites the shared update record at path.
//
// The file is rewritten in place rather than replaced, so a watch on the
// file itself keeps firing. Readers may see a partial write and are
// expected to retry on the next notification.
func WriteRecord(path string, u *core.Update) error {
	data, err := json.MarshalIndent(u, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode update record: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create record directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write update record: %w", err)
	}
	return nil
}

// StartArgs encodes the four positional display parameters: image path,
// colors, track info and audio features (or null).
func StartArgs(u *core.Update) ([]string, error) {
	colors, err := json.Marshal(u.Colors)
	if err != nil {
		return nil, fmt.Errorf("failed to encode colors: %w", err)
	}
	info, err := json.Marshal(u.TrackInfo)
	if err != nil {
		return nil, fmt.Errorf("failed to encode track info: %w", err)
	}
	features, err := json.Marshal(u.AudioFeatures)
	if err != nil {
		return nil, fmt.Errorf("failed to encode audio features: %w", err)
	}

	return []string{u.ImagePath, string(colors), string(info), string(features)}, nil
}
