package client

import (
	"context"
	"fmt"
	"net/http"

	"coursecast/types"
)

// LayoutRequest asks the service to generate a new course layout.
type LayoutRequest struct {
	UserInput string `json:"user_input"`
	CourseID  string `json:"course_id"`
	Type      string `json:"type"`
}

// LayoutResponse is the generated course skeleton.
type LayoutResponse struct {
	CourseID     string             `json:"courseId"`
	CourseName   string             `json:"courseName"`
	CourseLayout types.CourseLayout `json:"courseLayout"`
}

// GenerationResult reports the outcome of a content generation call. The
// service is idempotent per chapter/intro and reports Skipped when content
// already existed.
type GenerationResult struct {
	Message string `json:"message,omitempty"`
	Skipped bool   `json:"skipped,omitempty"`
}

// TaskStatus is the polling state of an async generation task.
type TaskStatus struct {
	TaskID   string `json:"taskId"`
	Status   string `json:"status"` // queued, processing, completed, failed, cancelled
	Progress *int   `json:"progress,omitempty"`
	Step     string `json:"step,omitempty"`
	Error    string `json:"error,omitempty"`
}

// EnqueuedTask is the response to an async generation submission.
type EnqueuedTask struct {
	TaskID  string `json:"taskId"`
	Status  string `json:"status"`
	PollURL string `json:"pollUrl,omitempty"`
}

// GenerateCourseLayout creates a new course from free-form user input.
func (c *Client) GenerateCourseLayout(ctx context.Context, req LayoutRequest) (*LayoutResponse, error) {
	var out LayoutResponse
	if err := c.doJSONRequest(ctx, c.genClient, http.MethodPost, "/api/generate-course-layout", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateIntro generates the course introduction slides from the layout.
func (c *Client) GenerateIntro(ctx context.Context, courseID string, layout types.CourseLayout) (*GenerationResult, error) {
	payload := map[string]interface{}{
		"courseId":     courseID,
		"courseLayout": layout,
	}

	var out GenerationResult
	if err := c.doJSONRequest(ctx, c.genClient, http.MethodPost, "/api/generate-course-intro", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateChapter generates the video content slides for one chapter.
func (c *Client) GenerateChapter(ctx context.Context, courseID string, chapter types.Chapter) (*GenerationResult, error) {
	payload := map[string]interface{}{
		"chapter":   chapter,
		"course_id": courseID,
	}

	var out GenerationResult
	if err := c.doJSONRequest(ctx, c.genClient, http.MethodPost, "/api/generate-video-content", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateChapterAsync enqueues chapter generation as a background task.
// Poll TaskStatus with the returned task ID.
func (c *Client) GenerateChapterAsync(ctx context.Context, courseID string, chapter types.Chapter) (*EnqueuedTask, error) {
	payload := map[string]interface{}{
		"chapter":   chapter,
		"course_id": courseID,
	}

	var out EnqueuedTask
	if err := c.doJSONRequest(ctx, c.fetchClient, http.MethodPost, "/api/generate-video-content-async", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCourse fetches a single course with all generated slides.
func (c *Client) GetCourse(ctx context.Context, courseID string) (*types.Course, error) {
	var out struct {
		Course types.Course `json:"course"`
	}

	path := fmt.Sprintf("/api/courses/%s", courseID)
	if err := c.doJSONRequest(ctx, c.fetchClient, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out.Course, nil
}

// ListCourses fetches all courses owned by the client's user.
func (c *Client) ListCourses(ctx context.Context) ([]types.Course, error) {
	var out struct {
		Courses []types.Course `json:"courses"`
	}

	if err := c.doJSONRequest(ctx, c.fetchClient, http.MethodGet, "/api/courses", nil, &out); err != nil {
		return nil, err
	}
	return out.Courses, nil
}

// GetTaskStatus polls an async generation task.
func (c *Client) GetTaskStatus(ctx context.Context, taskID string) (*TaskStatus, error) {
	var out TaskStatus
	path := fmt.Sprintf("/api/tasks/%s", taskID)
	if err := c.doJSONRequest(ctx, c.fetchClient, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
