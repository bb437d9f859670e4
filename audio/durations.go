package audio

import (
	"context"
	"math"
	"sync"

	"coursecast/config"
	"coursecast/logger"
	"coursecast/types"
)

// Resolver converts a slide set into per-slide playback durations in frames.
// Resolution is total: a slide without audio, or whose probe fails, gets the
// default duration rather than an error.
type Resolver struct {
	prober    Prober
	frameRate int
	log       *logger.Logger
}

// NewResolver creates a resolver for the given frame rate. A zero frameRate
// falls back to the canonical rate.
func NewResolver(prober Prober, frameRate int, log *logger.Logger) *Resolver {
	if frameRate <= 0 {
		frameRate = config.FrameRate
	}
	return &Resolver{prober: prober, frameRate: frameRate, log: log}
}

// Resolve probes every slide's audio concurrently and returns a fresh
// DurationMap once all slides have resolved. One slow asset delays the map
// but cannot corrupt it.
func (r *Resolver) Resolve(ctx context.Context, slides []types.Slide) types.DurationMap {
	durations := make(types.DurationMap, len(slides))
	if len(slides) == 0 {
		return durations
	}

	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, slide := range slides {
		wg.Add(1)
		go func(s types.Slide) {
			defer wg.Done()
			frames := r.resolveOne(ctx, s)
			mu.Lock()
			durations[s.SlideID] = frames
			mu.Unlock()
		}(slide)
	}

	wg.Wait()
	return durations
}

func (r *Resolver) resolveOne(ctx context.Context, slide types.Slide) int {
	if slide.AudioFileURL == "" {
		return r.defaultFrames()
	}

	seconds, err := r.prober.ProbeDuration(ctx, slide.AudioFileURL)
	if err != nil {
		r.log.Warn("audio probe failed, using default duration",
			"slide", slide.SlideID, "error", err)
		return r.defaultFrames()
	}

	frames := int(math.Round(seconds * float64(r.frameRate)))
	if frames < 1 {
		frames = 1
	}
	return frames
}

func (r *Resolver) defaultFrames() int {
	return r.frameRate * config.DefaultSlideSeconds
}
