package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"coursecast/config"
)

// Prober reports the duration of an audio asset in seconds.
type Prober interface {
	ProbeDuration(ctx context.Context, url string) (float64, error)
}

// FFmpegProber probes remote audio with ffprobe. Narration files live on a
// media CDN, so the asset reference is always a plain URL.
type FFmpegProber struct{}

type probeFormat struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ProbeDuration runs ffprobe against the URL and parses format.duration.
func (FFmpegProber) ProbeDuration(ctx context.Context, url string) (float64, error) {
	out, err := ffmpeg.ProbeWithTimeout(url, config.ProbeTimeout, nil)
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	var pf probeFormat
	if err := json.Unmarshal([]byte(out), &pf); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	seconds, err := strconv.ParseFloat(pf.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe returned no duration: %w", err)
	}
	if seconds <= 0 {
		return 0, fmt.Errorf("ffprobe returned non-positive duration %f", seconds)
	}

	return seconds, nil
}
