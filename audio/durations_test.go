package audio

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"coursecast/logger"
	"coursecast/types"
)

type fakeProber struct {
	durations map[string]float64
	failures  map[string]bool
}

func (f *fakeProber) ProbeDuration(_ context.Context, url string) (float64, error) {
	if f.failures[url] {
		return 0, errors.New("asset unreachable")
	}
	if d, ok := f.durations[url]; ok {
		return d, nil
	}
	return 0, errors.New("unknown asset")
}

func newTestResolver(prober Prober) *Resolver {
	return NewResolver(prober, 30, logger.NewNop())
}

func TestResolveEmptySlides(t *testing.T) {
	r := newTestResolver(&fakeProber{})

	m := r.Resolve(context.Background(), nil)
	assert.NotNil(t, m)
	assert.Empty(t, m)
}

func TestResolveSlideWithoutAudioGetsDefault(t *testing.T) {
	r := newTestResolver(&fakeProber{})
	slides := []types.Slide{{SlideID: "s1"}}

	m := r.Resolve(context.Background(), slides)
	assert.Equal(t, 30*6, m["s1"])
}

func TestResolveProbeFailureFallsBack(t *testing.T) {
	prober := &fakeProber{failures: map[string]bool{"https://cdn/a.mp3": true}}
	r := newTestResolver(prober)
	slides := []types.Slide{{SlideID: "s1", AudioFileURL: "https://cdn/a.mp3"}}

	m := r.Resolve(context.Background(), slides)
	assert.Equal(t, 180, m["s1"])
}

func TestResolveRoundsProbedSeconds(t *testing.T) {
	prober := &fakeProber{durations: map[string]float64{
		"https://cdn/a.mp3": 2.3,
		"https://cdn/b.mp3": 0.001,
	}}
	r := newTestResolver(prober)
	slides := []types.Slide{
		{SlideID: "a", AudioFileURL: "https://cdn/a.mp3"},
		{SlideID: "b", AudioFileURL: "https://cdn/b.mp3"},
	}

	m := r.Resolve(context.Background(), slides)
	assert.Equal(t, 69, m["a"]) // round(2.3 * 30)
	assert.Equal(t, 1, m["b"]) // never below one frame
}

func TestResolveMixedSetResolvesEverySlide(t *testing.T) {
	prober := &fakeProber{
		durations: map[string]float64{"https://cdn/ok.mp3": 4.0},
		failures:  map[string]bool{"https://cdn/bad.mp3": true},
	}
	r := newTestResolver(prober)
	slides := []types.Slide{
		{SlideID: "ok", AudioFileURL: "https://cdn/ok.mp3"},
		{SlideID: "bad", AudioFileURL: "https://cdn/bad.mp3"},
		{SlideID: "silent"},
	}

	m := r.Resolve(context.Background(), slides)
	assert.Len(t, m, 3)
	assert.Equal(t, 120, m["ok"])
	assert.Equal(t, 180, m["bad"])
	assert.Equal(t, 180, m["silent"])
}
