package timeline

import (
	"coursecast/config"
	"coursecast/types"
)

// Position describes what a player should show at a given frame.
type Position struct {
	Slide           types.Slide
	SlideIndex      int
	LocalFrame      int
	SlideDuration   int
	SlideStartFrame int
}

// SlideDuration reads a slide's duration from the map, falling back to the
// shared default when the entry is missing or non-positive. Everything that
// turns slides into frame spans goes through this one function.
func SlideDuration(s types.Slide, durations types.DurationMap) int {
	if d, ok := durations[s.SlideID]; ok && d > 0 {
		return d
	}
	return config.DefaultSlideFrames
}

// TotalDuration returns the frame count of the whole slide sequence.
func TotalDuration(slides []types.Slide, durations types.DurationMap) int {
	total := 0
	for _, s := range slides {
		total += SlideDuration(s, durations)
	}
	return total
}

// ResolveAt maps a playback frame to the active slide. Slides partition
// [0, TotalDuration) into contiguous intervals in set order. A frame at or
// past the end of the timeline (a looping player overrunning by one, or
// momentarily stale durations) clamps to the last frame of the last slide.
//
// The caller guarantees slides is non-empty; an empty sequence yields the
// zero Position.
func ResolveAt(frame int, slides []types.Slide, durations types.DurationMap) Position {
	if len(slides) == 0 {
		return Position{}
	}
	if frame < 0 {
		frame = 0
	}

	offset := 0
	for i, s := range slides {
		d := SlideDuration(s, durations)
		if frame < offset+d {
			return Position{
				Slide:           s,
				SlideIndex:      i,
				LocalFrame:      frame - offset,
				SlideDuration:   d,
				SlideStartFrame: offset,
			}
		}
		offset += d
	}

	last := slides[len(slides)-1]
	d := SlideDuration(last, durations)
	return Position{
		Slide:           last,
		SlideIndex:      len(slides) - 1,
		LocalFrame:      d - 1,
		SlideDuration:   d,
		SlideStartFrame: offset - d,
	}
}

// ActiveCaption returns the caption text visible at the slide's local frame,
// or "" when no chunk covers that instant. Bounds are inclusive on both ends
// so a chunk ending at t=2.0 is still visible on the exact frame of t=2.0.
// If chunks overlap, the first match wins.
func ActiveCaption(slide types.Slide, localFrame int, frameRate int) string {
	if frameRate <= 0 {
		frameRate = config.FrameRate
	}

	t := float64(localFrame) / float64(frameRate)
	for _, chunk := range slide.Caption {
		if chunk.Start <= t && t <= chunk.End {
			return chunk.Text
		}
	}
	return ""
}
