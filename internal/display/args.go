package display

import (
	"encoding/json"
	"fmt"

	"github.com/tessro/artwall/internal/core"
	awerrors "github.com/tessro/artwall/internal/errors"
)

// ParseStartArgs decodes the four positional start parameters: image
// path, colors, track info and audio features (JSON, or null).
func ParseStartArgs(args []string) (*core.Update, error) {
	if len(args) != 4 {
		return nil, fmt.Errorf("%w: got %d of 4", awerrors.ErrDisplayArgs, len(args))
	}

	u := &core.Update{ImagePath: args[0]}
	if err := json.Unmarshal([]byte(args[1]), &u.Colors); err != nil {
		return nil, fmt.Errorf("%w: colors: %v", awerrors.ErrDisplayArgs, err)
	}
	if err := json.Unmarshal([]byte(args[2]), &u.TrackInfo); err != nil {
		return nil, fmt.Errorf("%w: track info: %v", awerrors.ErrDisplayArgs, err)
	}
	if args[3] != "" {
		if err := json.Unmarshal([]byte(args[3]), &u.AudioFeatures); err != nil {
			return nil, fmt.Errorf("%w: audio features: %v", awerrors.ErrDisplayArgs, err)
		}
	}

	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", awerrors.ErrDisplayArgs, err)
	}
	return u, nil
}
