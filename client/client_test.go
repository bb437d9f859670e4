package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursecast/types"
)

func TestGetCourseDecodesEnvelope(t *testing.T) {
	var gotPath, gotEmail string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotEmail = r.Header.Get("x-user-email")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"course": {
				"courseId": "abc",
				"courseLayout": {
					"courseName": "Intro to Go",
					"chapters": [{"chapterId": "c1", "chapterTitle": "Basics"}]
				},
				"courseIntroSlides": [{"slideId": "i0", "slideIndex": 0}],
				"chapterContentSlide": [{"slideId": "s0", "chapterId": "c1"}]
			}
		}`))
	}))
	defer srv.Close()

	c := New(srv.URL).WithUser("alice@example.com")
	course, err := c.GetCourse(context.Background(), "abc")

	require.NoError(t, err)
	assert.Equal(t, "/api/courses/abc", gotPath)
	assert.Equal(t, "alice@example.com", gotEmail)
	assert.Equal(t, "abc", course.CourseID)
	assert.Equal(t, "Intro to Go", course.CourseName)
	assert.Len(t, course.IntroSlides, 1)
	require.Len(t, course.ChapterSlides, 1)
	assert.Equal(t, "c1", course.ChapterSlides[0].ChapterID)
}

func TestGenerateChapterPayload(t *testing.T) {
	var got map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"message": "generated"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	res, err := c.GenerateChapter(context.Background(), "abc", chapterFixture())

	require.NoError(t, err)
	assert.Equal(t, "generated", res.Message)
	assert.Contains(t, got, "chapter")
	assert.JSONEq(t, `"abc"`, string(got["course_id"]))
}

func TestAsyncGenerationSubmitAndPoll(t *testing.T) {
	var submitted map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/generate-video-content-async":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&submitted))
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte(`{"taskId": "task-42", "status": "queued", "pollUrl": "/api/tasks/task-42"}`))
		case "/api/tasks/task-42":
			_, _ = w.Write([]byte(`{"taskId": "task-42", "status": "processing", "progress": 60, "step": "generating slides"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	task, err := c.GenerateChapterAsync(context.Background(), "abc", chapterFixture())

	require.NoError(t, err)
	assert.Equal(t, "task-42", task.TaskID)
	assert.Equal(t, "queued", task.Status)
	assert.Contains(t, submitted, "chapter")
	assert.JSONEq(t, `"abc"`, string(submitted["course_id"]))

	status, err := c.GetTaskStatus(context.Background(), task.TaskID)
	require.NoError(t, err)
	assert.Equal(t, "processing", status.Status)
	require.NotNil(t, status.Progress)
	assert.Equal(t, 60, *status.Progress)
	assert.Equal(t, "generating slides", status.Step)
}

func TestUnauthorized(t *testing.T) {
	srv := errorServer(http.StatusUnauthorized, `{"detail": "User email required"}`, nil)
	defer srv.Close()

	_, err := New(srv.URL).GetCourse(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestQuotaExceeded(t *testing.T) {
	srv := errorServer(http.StatusForbidden, `{"detail": {"message": "max-limit"}}`, nil)
	defer srv.Close()

	_, err := New(srv.URL).GenerateCourseLayout(context.Background(), LayoutRequest{UserInput: "go course"})

	var quota *QuotaExceededError
	require.ErrorAs(t, err, &quota)
	assert.Equal(t, "max-limit", quota.Message)
}

func TestRateLimitFromDetailBody(t *testing.T) {
	body := `{"detail": {"error": "rate_limit_exceeded", "message": "Too many generation requests", "retry_after": 9}}`
	srv := errorServer(http.StatusTooManyRequests, body, nil)
	defer srv.Close()

	_, err := New(srv.URL).GenerateChapter(context.Background(), "abc", chapterFixture())

	var rl *RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, 9*time.Second, rl.RetryAfter)
	assert.Equal(t, "Too many generation requests", rl.Message)
	assert.True(t, IsRateLimit(err))
}

func TestRateLimitFallsBackToHeader(t *testing.T) {
	srv := errorServer(http.StatusTooManyRequests, `rate limited`, map[string]string{"Retry-After": "12"})
	defer srv.Close()

	_, err := New(srv.URL).GenerateChapter(context.Background(), "abc", chapterFixture())

	var rl *RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, 12*time.Second, rl.RetryAfter)
}

func TestValidationErrorFields(t *testing.T) {
	body := `{"detail": [
		{"loc": ["body", "user_input"], "msg": "field required", "type": "value_error.missing"},
		{"loc": ["body", "chapter", 0, "chapterId"], "msg": "str type expected", "type": "type_error.str"}
	]}`
	srv := errorServer(http.StatusUnprocessableEntity, body, nil)
	defer srv.Close()

	_, err := New(srv.URL).GenerateCourseLayout(context.Background(), LayoutRequest{})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Fields, 2)
	assert.Equal(t, "user_input", ve.Fields[0].Field)
	assert.Equal(t, "field required", ve.Fields[0].Message)
}

func TestUnknownStatusBecomesAPIError(t *testing.T) {
	srv := errorServer(http.StatusBadGateway, `upstream down`, nil)
	defer srv.Close()

	_, err := New(srv.URL).ListCourses(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream down", apiErr.Body)
	assert.False(t, errors.Is(err, ErrUnauthorized))
}

func TestWithUserDoesNotMutateOriginal(t *testing.T) {
	base := New("http://localhost:8000")
	derived := base.WithUser("bob@example.com")

	assert.Empty(t, base.userEmail)
	assert.Equal(t, "bob@example.com", derived.userEmail)
}

func chapterFixture() types.Chapter {
	return types.Chapter{ChapterID: "c1", ChapterTitle: "Basics"}
}

func errorServer(status int, body string, headers map[string]string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for k, v := range headers {
			w.Header().Set(k, v)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}
