package audiomix

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/liyanghua/xhs-video-tool/internal/logging"
	"github.com/liyanghua/xhs-video-tool/internal/services"
	"github.com/liyanghua/xhs-video-tool/internal/timeline"
)

// Background is the optional music bed. Absence is an ordinary branch.
type Background struct {
	Present bool
	Reason  string
	Track   timeline.BackgroundTrack
}

// Repeats returns how many copies of an original clip are concatenated to
// cover required seconds.
func Repeats(original, required float64) int {
	if original <= 0 || original >= required {
		return 1
	}
	return int(math.Ceil(required / original))
}

// PlanBackground describes the processed bed for a clip of the given length.
func PlanBackground(path string, original, required float64) timeline.BackgroundTrack {
	return timeline.BackgroundTrack{
		Path:             path,
		OriginalDuration: original,
		RequiredDuration: required,
		Repeats:          Repeats(original, required),
		Attenuation:      BackgroundGain,
	}
}

// ResolveBackground decides whether a bed is mixed. An unset path or a
// missing file is skipped; an existing file that cannot be probed is an asset
// error.
func (m *Mixer) ResolveBackground(ctx context.Context, path string, required float64) (Background, error) {
	logger := logging.WithContext(ctx, m.logger)
	path = strings.TrimSpace(path)
	if path == "" {
		logger.Info("background music skipped",
			logging.String(logging.FieldEventType, "background_skipped"),
			logging.String("reason", "not configured"),
		)
		return Background{Reason: "not configured"}, nil
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		logger.Info("background music skipped",
			logging.String(logging.FieldEventType, "background_skipped"),
			logging.String("reason", "file not found"),
			logging.String("background_path", path),
		)
		return Background{Reason: "file not found"}, nil
	}

	media, err := m.prober.Probe(ctx, path)
	if err != nil {
		return Background{}, services.Wrap(services.ErrAsset, Stage, "probe background", path, err)
	}
	if media.Duration <= 0 {
		return Background{}, services.Wrap(services.ErrAsset, Stage, "probe background", fmt.Sprintf("%s has no duration", path), nil)
	}
	track := PlanBackground(path, media.Duration, required)
	logger.Info("background music planned", logging.Args(append(logging.MediaAttrs(media),
		logging.String(logging.FieldEventType, "background_planned"),
		logging.String("background_path", path),
		logging.Int("background_repeats", track.Repeats),
		logging.Seconds("looped_duration", track.LoopedDuration()),
		logging.Seconds("required_duration", track.RequiredDuration),
		logging.Float64("background_gain", track.Attenuation),
	)...)...)
	return Background{Present: true, Track: track}, nil
}
