package config

import "time"

// Playback Constants
const (
	// FrameRate is the canonical playback frame rate in frames per second
	FrameRate = 30

	// DefaultSlideSeconds is the narration floor for slides with no usable audio
	DefaultSlideSeconds = 6

	// DefaultSlideFrames is the per-slide duration used whenever a slide has no
	// resolved audio duration. Derived from the frame rate so the duration
	// resolver and the timeline composer can never disagree.
	DefaultSlideFrames = FrameRate * DefaultSlideSeconds
)

// Timeout Constants
const (
	// GenerationTimeout bounds a single content generation request.
	// Generation is minutes-scale on the backend, so this is deliberately long.
	GenerationTimeout = 5 * time.Minute

	// FetchTimeout bounds course fetches and listings
	FetchTimeout = 15 * time.Second

	// ProbeTimeout bounds a single audio duration probe
	ProbeTimeout = 10 * time.Second
)

// Cache Constants
const (
	// CourseCacheTTL is how long a single course payload stays cached
	CourseCacheTTL = time.Hour

	// CourseListCacheTTL is shorter because a user's course list changes often
	CourseListCacheTTL = 5 * time.Minute
)
