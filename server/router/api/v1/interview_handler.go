package v1

import (
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/voxhire/voxhire/internal/errors"
	"github.com/voxhire/voxhire/server/internal/observability"
	"github.com/voxhire/voxhire/server/interview"
	"github.com/voxhire/voxhire/server/middleware"
	"github.com/voxhire/voxhire/store"
)

// maxTranscribeBytes bounds uploaded answer audio.
const maxTranscribeBytes = 15 << 20

type startInterviewRequest struct {
	SessionRef  string `json:"session_ref"`
	JDText      string `json:"jd_text"`
	JDID        string `json:"jd_id"`
	Difficulty  string `json:"difficulty"`
	Language    string `json:"language"`
	Name        string `json:"name"`
	RollNo      string `json:"roll_no"`
	BatchNo     string `json:"batch_no"`
	Center      string `json:"center"`
	Course      string `json:"course"`
	EvalDate    string `json:"eval_date"`
	InterviewTs string `json:"interview_ts"`
}

// StartInterview begins a run for the authenticated candidate.
func (s *APIV1Service) StartInterview(c echo.Context) error {
	userID := middleware.UserIDFromEcho(c)
	reqCtx := observability.NewRequestContext(slog.Default(), "start_interview", userID)

	var req startInterviewRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	result, err := s.Interview.Start(c.Request().Context(), userID, interview.StartRequest{
		SessionRef: req.SessionRef,
		JDText:     req.JDText,
		JDID:       req.JDID,
		Difficulty: req.Difficulty,
		Language:   req.Language,
		StudentInfo: store.StudentInfo{
			Name:     req.Name,
			RollNo:   req.RollNo,
			BatchNo:  req.BatchNo,
			Center:   req.Center,
			Course:   req.Course,
			EvalDate: req.EvalDate,
		},
		InterviewTs: req.InterviewTs,
	})
	if err != nil {
		reqCtx.Error("interview start failed", err)
		return serviceError(c, err)
	}

	reqCtx.Info("interview started",
		slog.String("session_ref", result.SessionRef),
		slog.Int("questions", result.TotalQuestions),
		slog.Int64("duration_ms", reqCtx.DurationMs()))
	return c.JSON(http.StatusOK, map[string]any{
		"status":          "success",
		"session_ref":     result.SessionRef,
		"total_questions": result.TotalQuestions,
		"duration":        result.Duration,
	})
}

// GetQuestion serves the current question, voiced when synthesis is up.
func (s *APIV1Service) GetQuestion(c echo.Context) error {
	userID := middleware.UserIDFromEcho(c)
	payload, err := s.Interview.NextQuestion(c.Request().Context(), userID, c.QueryParam("session_ref"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, payload)
}

type processAnswerRequest struct {
	SessionRef   string  `json:"session_ref"`
	Answer       string  `json:"answer"`
	IsFinal      bool    `json:"is_final"`
	SpeakingTime float64 `json:"speaking_time"`
	AudioB64     string  `json:"audio"`
	FrameB64     string  `json:"frame"`
}

// ProcessAnswer ingests an answer chunk with optional audio and camera frame.
func (s *APIV1Service) ProcessAnswer(c echo.Context) error {
	userID := middleware.UserIDFromEcho(c)
	reqCtx := observability.NewRequestContext(slog.Default(), "process_answer", userID)

	var req processAnswerRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	var pcm []byte
	if req.AudioB64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.AudioB64)
		if err != nil {
			return badRequest(c, "audio must be base64 encoded")
		}
		pcm = decoded
	}

	result, err := s.Interview.ProcessAnswer(c.Request().Context(), userID, req.SessionRef, interview.AnswerRequest{
		Answer:       req.Answer,
		IsFinal:      req.IsFinal,
		SpeakingTime: req.SpeakingTime,
		AudioPCM:     pcm,
		FrameB64:     req.FrameB64,
	})
	if err != nil {
		reqCtx.Error("answer processing failed", err)
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

type checkSpeechRequest struct {
	SessionRef string `json:"session_ref"`
	AudioB64   string `json:"audio"`
}

// CheckSpeech runs voice activity detection on a monitoring clip.
func (s *APIV1Service) CheckSpeech(c echo.Context) error {
	userID := middleware.UserIDFromEcho(c)

	var req checkSpeechRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	pcm, err := base64.StdEncoding.DecodeString(req.AudioB64)
	if err != nil {
		return badRequest(c, "audio must be base64 encoded")
	}

	status, err := s.Interview.CheckSpeech(c.Request().Context(), userID, req.SessionRef, pcm)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, status)
}

// InterviewStatus reports run progress.
func (s *APIV1Service) InterviewStatus(c echo.Context) error {
	userID := middleware.UserIDFromEcho(c)
	status := s.Interview.Status(c.Request().Context(), userID, c.QueryParam("session_ref"))
	return c.JSON(http.StatusOK, status)
}

type generateReportRequest struct {
	SessionRef string `json:"session_ref"`
}

// GenerateReport assembles and persists the performance report.
func (s *APIV1Service) GenerateReport(c echo.Context) error {
	userID := middleware.UserIDFromEcho(c)
	reqCtx := observability.NewRequestContext(slog.Default(), "generate_report", userID)

	var req generateReportRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	report, err := s.Interview.GenerateReport(c.Request().Context(), userID, req.SessionRef)
	if err != nil {
		reqCtx.Error("report generation failed", err)
		return serviceError(c, err)
	}
	reqCtx.Info("report generated", slog.Int64("duration_ms", reqCtx.DurationMs()))
	return c.JSON(http.StatusOK, report)
}

// ResetInterview discards the candidate's run state.
func (s *APIV1Service) ResetInterview(c echo.Context) error {
	userID := middleware.UserIDFromEcho(c)
	s.Interview.Reset(c.Request().Context(), userID)
	return c.JSON(http.StatusOK, map[string]any{"status": "success"})
}

// Transcribe converts an uploaded audio file to text.
func (s *APIV1Service) Transcribe(c echo.Context) error {
	userID := middleware.UserIDFromEcho(c)
	reqCtx := observability.NewRequestContext(slog.Default(), "transcribe", userID)

	file, err := c.FormFile("audio")
	if err != nil {
		return badRequest(c, "audio file is required")
	}
	if file.Size > maxTranscribeBytes {
		return badRequest(c, "audio file too large")
	}

	src, err := file.Open()
	if err != nil {
		return badRequest(c, "audio file unreadable")
	}
	defer src.Close()

	text, err := s.Speech.Transcribe(c.Request().Context(), file.Filename, src, c.FormValue("language"))
	if err != nil {
		reqCtx.Error("transcription failed", err)
		return serviceError(c, errors.LLMUnavailable("transcription unavailable"))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status": "success",
		"text":   text,
	})
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, map[string]any{
		"status":  "error",
		"code":    errors.ErrCodeInvalidArgument,
		"message": message,
	})
}

// serviceError translates structured interview errors into HTTP responses.
// Unknown errors surface as 503 so clients retry rather than fail hard.
func serviceError(c echo.Context, err error) error {
	code := errors.GetCodeFromError(err, errors.ErrCodeServiceUnavailable)

	status := http.StatusServiceUnavailable
	switch code {
	case errors.ErrCodeInvalidArgument:
		status = http.StatusBadRequest
	case errors.ErrCodeUnauthorized:
		status = http.StatusUnauthorized
	case errors.ErrCodeRateLimitExceeded:
		status = http.StatusTooManyRequests
	case errors.ErrCodeSessionNotFound, errors.ErrCodeInterviewNotStarted:
		status = http.StatusConflict
	case errors.ErrCodeEvaluationFailed, errors.ErrCodeLLMUnavailable:
		status = http.StatusBadGateway
	case errors.ErrCodeTimeout:
		status = http.StatusGatewayTimeout
	}

	message := "service unavailable"
	if ie, ok := err.(*errors.InterviewError); ok {
		message = ie.Message
	}
	return c.JSON(status, map[string]any{
		"status":  "error",
		"code":    code,
		"message": message,
	})
}
