package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"coursecast/client"
	"coursecast/config"
	"coursecast/session"
	"coursecast/timeline"
	"coursecast/types"
)

// TimelineEntry is one slide's slot in the composed timeline.
type TimelineEntry struct {
	SlideID    string `json:"slideId"`
	ChapterID  string `json:"chapterId,omitempty"`
	SlideIndex int    `json:"slideIndex"`
	StartFrame int    `json:"startFrame"`
	Duration   int    `json:"durationFrames"`
}

// TimelineResponse is the playback manifest for one slide set.
type TimelineResponse struct {
	CourseID    string          `json:"courseId"`
	ChapterID   string          `json:"chapterId,omitempty"`
	FrameRate   int             `json:"frameRate"`
	TotalFrames int             `json:"totalFrames"`
	Entries     []TimelineEntry `json:"entries"`
}

// FrameResponse describes what is on screen at one frame.
type FrameResponse struct {
	SlideID         string `json:"slideId"`
	SlideIndex      int    `json:"slideIndex"`
	LocalFrame      int    `json:"localFrame"`
	SlideStartFrame int    `json:"slideStartFrame"`
	SlideDuration   int    `json:"slideDuration"`
	Caption         string `json:"caption"`
	HTML            string `json:"html"`
	AudioFileURL    string `json:"audioFileUrl,omitempty"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// handleListCourses returns the caller's courses, served from the list cache
// when one is configured.
func (s *Server) handleListCourses(c *gin.Context) {
	userEmail := c.GetHeader("x-user-email")
	if userEmail == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized: No user email provided"})
		return
	}

	ctx := c.Request.Context()
	if s.cache != nil {
		if courses := s.cache.GetList(ctx, userEmail); courses != nil {
			c.JSON(http.StatusOK, gin.H{"courses": courses})
			return
		}
	}

	courses, err := s.base.WithUser(userEmail).ListCourses(ctx)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if s.cache != nil {
		s.cache.SetList(ctx, userEmail, courses)
	}

	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

// handleReconcile loads the course for the caller, generating any missing
// content on the first load of this course identity.
func (s *Server) handleReconcile(c *gin.Context) {
	userEmail := c.GetHeader("x-user-email")
	if userEmail == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized: No user email provided"})
		return
	}

	courseID := c.Param("id")
	snap, err := s.sessionFor(userEmail).Load(c.Request.Context(), courseID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"courseId":      snap.Course.CourseID,
		"courseName":    snap.Course.CourseName,
		"introSlides":   len(snap.Course.IntroSlides),
		"chapterSlides": len(snap.Course.ChapterSlides),
	})
}

func (s *Server) handleTimeline(c *gin.Context) {
	snap, slides, durations, ok := s.playbackSet(c)
	if !ok {
		return
	}

	resp := TimelineResponse{
		CourseID:    snap.Course.CourseID,
		ChapterID:   c.Query("chapterId"),
		FrameRate:   config.FrameRate,
		TotalFrames: timeline.TotalDuration(slides, durations),
	}

	offset := 0
	for _, slide := range slides {
		d := timeline.SlideDuration(slide, durations)
		resp.Entries = append(resp.Entries, TimelineEntry{
			SlideID:    slide.SlideID,
			ChapterID:  slide.ChapterID,
			SlideIndex: slide.SlideIndex,
			StartFrame: offset,
			Duration:   d,
		})
		offset += d
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleFrame(c *gin.Context) {
	_, slides, durations, ok := s.playbackSet(c)
	if !ok {
		return
	}

	frame, err := strconv.Atoi(c.Param("n"))
	if err != nil || frame < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "frame must be a non-negative integer"})
		return
	}

	if len(slides) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "no slides generated yet"})
		return
	}

	pos := timeline.ResolveAt(frame, slides, durations)
	c.JSON(http.StatusOK, FrameResponse{
		SlideID:         pos.Slide.SlideID,
		SlideIndex:      pos.SlideIndex,
		LocalFrame:      pos.LocalFrame,
		SlideStartFrame: pos.SlideStartFrame,
		SlideDuration:   pos.SlideDuration,
		Caption:         timeline.ActiveCaption(pos.Slide, pos.LocalFrame, config.FrameRate),
		HTML:            pos.Slide.HTML,
		AudioFileURL:    pos.Slide.AudioFileURL,
	})
}

// playbackSet resolves the request to a slide set and its durations, loading
// the course if this session hasn't seen it yet. The chapterId query selects
// a chapter set; without it the intro set is used.
func (s *Server) playbackSet(c *gin.Context) (*session.Snapshot, []types.Slide, types.DurationMap, bool) {
	userEmail := c.GetHeader("x-user-email")
	if userEmail == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized: No user email provided"})
		return nil, nil, nil, false
	}

	courseID := c.Param("id")
	sess := s.sessionFor(userEmail)

	snap := sess.Current()
	if snap == nil || snap.Course.CourseID != courseID {
		loaded, err := sess.Load(c.Request.Context(), courseID)
		if err != nil {
			s.respondError(c, err)
			return nil, nil, nil, false
		}
		snap = loaded
	}

	if chapterID := c.Query("chapterId"); chapterID != "" {
		return snap, snap.Course.SlidesForChapter(chapterID), snap.ChapterDurations, true
	}
	return snap, snap.Course.IntroSlides, snap.IntroDurations, true
}

// respondError maps generation service failures onto this API's responses,
// preserving the retry-after hint for rate limits.
func (s *Server) respondError(c *gin.Context, err error) {
	var rl *client.RateLimitError
	var quota *client.QuotaExceededError
	var validation *client.ValidationError

	switch {
	case errors.Is(err, client.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"message": err.Error()})
	case errors.As(err, &quota):
		c.JSON(http.StatusForbidden, gin.H{"message": quota.Message})
	case errors.As(err, &rl):
		retryAfter := int(rl.RetryAfter.Seconds())
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "rate_limit_exceeded",
			"message":     rl.Message,
			"retry_after": retryAfter,
		})
	case errors.As(err, &validation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error(), "fields": validation.Fields})
	case errors.Is(err, session.ErrStale):
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
	default:
		s.log.Error("request failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"message": err.Error()})
	}
}
