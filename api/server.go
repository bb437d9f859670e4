package api

import (
	"sync"

	"github.com/gin-gonic/gin"

	"coursecast/audio"
	"coursecast/cache"
	"coursecast/client"
	"coursecast/logger"
	"coursecast/notify"
	"coursecast/orchestrator"
	"coursecast/session"
)

// Server exposes the playback API: reconciling a course's generated content
// and answering timeline queries for players. Each user identity gets its own
// session so the one-reconciliation-per-course guard holds per user.
type Server struct {
	base  *client.Client
	cache *cache.CourseCache
	sink  notify.Sink
	log   *logger.Logger

	mu       sync.Mutex
	sessions map[string]*session.Session
}

// NewServer creates the playback API server. cache may be nil.
func NewServer(base *client.Client, courseCache *cache.CourseCache, sink notify.Sink, log *logger.Logger) *Server {
	return &Server{
		base:     base,
		cache:    courseCache,
		sink:     sink,
		log:      log,
		sessions: make(map[string]*session.Session),
	}
}

// Router constructs a Gin engine with registered routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	// Minimal middleware: recovery; request logging stays on the app logger
	r.Use(gin.Recovery())

	r.GET("/health", s.handleHealth)

	api := r.Group("/api")
	{
		api.GET("/courses", s.handleListCourses)
		api.POST("/courses/:id/reconcile", s.handleReconcile)
		api.GET("/courses/:id/timeline", s.handleTimeline)
		api.GET("/courses/:id/frame/:n", s.handleFrame)
	}

	return r
}

// sessionFor returns the per-user session, creating it on first use.
func (s *Server) sessionFor(userEmail string) *session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[userEmail]; ok {
		return sess
	}

	var service orchestrator.Service = s.base.WithUser(userEmail)
	if s.cache != nil {
		service = cache.WrapService(service, s.cache)
	}

	orch := orchestrator.New(service, s.sink, s.log.With("user", userEmail))
	resolver := audio.NewResolver(audio.FFmpegProber{}, 0, s.log)
	sess := session.New(service, orch, resolver, s.log)

	s.sessions[userEmail] = sess
	return sess
}
