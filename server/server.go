// Package server assembles the HTTP server and its background runners.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/voxhire/voxhire/internal/profile"
	"github.com/voxhire/voxhire/plugin/ai"
	"github.com/voxhire/voxhire/plugin/speech"
	"github.com/voxhire/voxhire/plugin/vad"
	"github.com/voxhire/voxhire/plugin/vision"
	"github.com/voxhire/voxhire/server/interview"
	"github.com/voxhire/voxhire/server/monitor"
	apiv1 "github.com/voxhire/voxhire/server/router/api/v1"
	"github.com/voxhire/voxhire/server/runner/sweeper"
	"github.com/voxhire/voxhire/store"
)

// Server is the assembled voxhire service.
type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	registry   *monitor.Registry
}

// NewServer wires the AI plugins, the interview orchestrator and the HTTP
// surface together.
func NewServer(ctx context.Context, p *profile.Profile, st *store.Store) (*Server, error) {
	e := echo.New()
	e.Debug = p.IsDev()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())

	provider, err := ai.NewProvider(&ai.Config{
		BaseURL:         p.AIBaseURL,
		APIKey:          p.AIAPIKey,
		ChatModel:       p.AIChatModel,
		VisionModel:     p.AIVisionModel,
		TranscribeModel: p.AITranscribeModel,
		SpeechModel:     p.AISpeechModel,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create AI provider")
	}
	if p.IsAIEnabled() {
		if err := provider.Validate(ctx); err != nil {
			slog.Warn("AI provider validation failed, degraded features will use fallbacks", "error", err)
		}
	}

	registry := monitor.NewRegistry()
	counters := monitor.NewCounters()
	speechService := speech.NewService(provider, provider)

	var observer interview.VisualObserver
	if p.VisualEnabled {
		observer = vision.NewObserver(provider)
	}

	interviewService := interview.NewService(
		p,
		st,
		ai.NewGenerator(provider),
		ai.NewEvaluator(provider, p.EvalStrict),
		ai.NewNarrator(provider),
		ai.NewTranslator(provider),
		speechService,
		observer,
		vad.NewDetector(),
		registry,
	)

	apiService := apiv1.NewAPIV1Service(p, st, interviewService, speechService, registry, counters)
	apiService.Register(e)

	s := &Server{
		Profile:    p,
		Store:      st,
		echoServer: e,
		registry:   registry,
	}
	return s, nil
}

// Start launches the HTTP listener and the session sweeper.
func (s *Server) Start(ctx context.Context) error {
	go sweeper.NewRunner(s.Store, s.registry, s.Profile).Run(ctx)

	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	slog.Info("server started", "address", address, "mode", s.Profile.Mode)
	return s.echoServer.Start(address)
}

// Shutdown stops the HTTP server and closes the store.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shut down server", "error", errors.WithStack(err))
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", "error", errors.WithStack(err))
	}
	slog.Info("voxhire stopped properly")
}
