// Package v1 exposes the interview REST API.
package v1

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/voxhire/voxhire/internal/profile"
	"github.com/voxhire/voxhire/plugin/speech"
	"github.com/voxhire/voxhire/server/interview"
	"github.com/voxhire/voxhire/server/middleware"
	"github.com/voxhire/voxhire/server/monitor"
	"github.com/voxhire/voxhire/store"
)

// APIV1Service bundles the handlers and their dependencies.
type APIV1Service struct {
	Profile   *profile.Profile
	Store     *store.Store
	Interview *interview.Service
	Speech    *speech.Service
	Registry  *monitor.Registry
	Counters  *monitor.Counters

	rateLimiter *middleware.RateLimiter
}

// NewAPIV1Service creates the API service.
func NewAPIV1Service(
	p *profile.Profile,
	st *store.Store,
	interviewService *interview.Service,
	speechService *speech.Service,
	registry *monitor.Registry,
	counters *monitor.Counters,
) *APIV1Service {
	return &APIV1Service{
		Profile:     p,
		Store:       st,
		Interview:   interviewService,
		Speech:      speechService,
		Registry:    registry,
		Counters:    counters,
		rateLimiter: middleware.NewRateLimiter(),
	}
}

// Register mounts all routes on the given Echo instance.
func (s *APIV1Service) Register(echoServer *echo.Echo) {
	group := echoServer.Group("/api/v1")
	group.Use(echomw.CORS())
	group.Use(s.countRequests)

	// Candidate-facing interview flow.
	candidate := group.Group("", middleware.Auth(s.Profile), s.rateLimiter.Middleware())
	candidate.POST("/interview/start", s.StartInterview)
	candidate.GET("/interview/question", s.GetQuestion)
	candidate.POST("/interview/answer", s.ProcessAnswer)
	candidate.POST("/interview/speech/check", s.CheckSpeech)
	candidate.GET("/interview/status", s.InterviewStatus)
	candidate.POST("/interview/report", s.GenerateReport)
	candidate.POST("/interview/reset", s.ResetInterview)
	candidate.POST("/interview/transcribe", s.Transcribe)

	// Recruiter surface.
	admin := group.Group("/admin", middleware.Auth(s.Profile))
	admin.POST("/schedules", s.CreateSchedule)
	admin.GET("/schedules", s.ListSchedules)
	admin.DELETE("/schedules/:id", s.DeleteSchedule)
	admin.POST("/jd", s.UploadJobDescription)
	admin.GET("/monitor", s.Monitor)
}

func (s *APIV1Service) countRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.Counters.CountRequest()
		err := next(c)
		if err != nil || c.Response().Status >= 500 {
			s.Counters.CountError()
		}
		return err
	}
}
