package types

// Chapter is one named unit of course structure. Chapters are immutable once
// the course layout has been generated; slides are generated per chapter.
type Chapter struct {
	ChapterID    string   `json:"chapterId"`
	ChapterTitle string   `json:"chapterTitle"`
	SubContent   []string `json:"subContent,omitempty"`
}

// CourseLayout is the generated course skeleton: metadata plus the ordered
// chapter list.
type CourseLayout struct {
	CourseName        string    `json:"courseName"`
	CourseDescription string    `json:"courseDescription,omitempty"`
	Level             string    `json:"level,omitempty"`
	TotalChapters     int       `json:"totalChapters,omitempty"`
	Chapters          []Chapter `json:"chapters"`
}

// CaptionChunk is a single timed caption segment. Start and End are seconds
// from the beginning of the slide's narration audio.
type CaptionChunk struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Slide is one unit of generated course content: renderable HTML, optional
// narration audio, and timed captions. Intro slides carry no ChapterID.
type Slide struct {
	SlideID       string         `json:"slideId"`
	ChapterID     string         `json:"chapterId,omitempty"`
	SlideIndex    int            `json:"slideIndex"`
	HTML          string         `json:"html"`
	AudioFileName string         `json:"audioFileName,omitempty"`
	AudioFileURL  string         `json:"audioFileUrl,omitempty"`
	Caption       []CaptionChunk `json:"caption,omitempty"`
}

// Course is the full course payload as returned by the generation service.
// The client never mutates a course in place; a refresh replaces the whole
// value.
type Course struct {
	CourseID      string       `json:"courseId"`
	CourseName    string       `json:"courseName"`
	UserID        string       `json:"userId,omitempty"`
	UserInput     string       `json:"userInput,omitempty"`
	Type          string       `json:"type,omitempty"`
	CourseLayout  CourseLayout `json:"courseLayout"`
	IntroSlides   []Slide      `json:"courseIntroSlides,omitempty"`
	ChapterSlides []Slide      `json:"chapterContentSlide,omitempty"`
	CreatedAt     string       `json:"createdAt,omitempty"`
}

// DurationMap maps a slide ID to its playback duration in frames. It is built
// once per slide set per course load and only ever replaced wholesale.
type DurationMap map[string]int

// SlidesForChapter filters the course's chapter slides down to one chapter,
// preserving set order. Chapter slides arrive in creation order and are not
// guaranteed to be grouped by chapter.
func (c *Course) SlidesForChapter(chapterID string) []Slide {
	var slides []Slide
	for _, s := range c.ChapterSlides {
		if s.ChapterID == chapterID {
			slides = append(slides, s)
		}
	}
	return slides
}

// HasChapterSlides reports whether any slide exists for the given chapter.
func (c *Course) HasChapterSlides(chapterID string) bool {
	for _, s := range c.ChapterSlides {
		if s.ChapterID == chapterID {
			return true
		}
	}
	return false
}
