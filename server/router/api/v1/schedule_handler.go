package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/voxhire/voxhire/server/middleware"
	"github.com/voxhire/voxhire/store"
)

type createScheduleRequest struct {
	Name        string `json:"name"`
	RollNo      string `json:"roll_no"`
	BatchNo     string `json:"batch_no"`
	Center      string `json:"center"`
	Course      string `json:"course"`
	EvalDate    string `json:"eval_date"`
	InterviewTs string `json:"interview_ts"`
	Difficulty  string `json:"difficulty"`
	Language    string `json:"language"`
	JDID        string `json:"jd_id"`
}

// CreateSchedule books an interview slot for a candidate.
func (s *APIV1Service) CreateSchedule(c echo.Context) error {
	var req createScheduleRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.RollNo == "" {
		return badRequest(c, "roll_no is required")
	}
	if req.Difficulty == "" {
		return badRequest(c, "difficulty is required")
	}
	if req.JDID == "" {
		return badRequest(c, "jd_id is required")
	}

	schedule, err := s.Store.CreateSchedule(c.Request().Context(), &store.Schedule{
		Name:        req.Name,
		RollNo:      req.RollNo,
		BatchNo:     req.BatchNo,
		Center:      req.Center,
		Course:      req.Course,
		EvalDate:    req.EvalDate,
		InterviewTs: req.InterviewTs,
		Difficulty:  req.Difficulty,
		Language:    req.Language,
		JDID:        req.JDID,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":      "success",
		"schedule_id": schedule.ID,
	})
}

// ListSchedules returns schedules, optionally filtered by roll_no or status.
func (s *APIV1Service) ListSchedules(c echo.Context) error {
	find := &store.FindSchedule{}
	if rollNo := c.QueryParam("roll_no"); rollNo != "" {
		find.RollNo = &rollNo
	}
	if status := c.QueryParam("status"); status != "" {
		find.Status = &status
	}
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			find.Limit = &limit
		}
	}

	schedules, err := s.Store.ListSchedules(c.Request().Context(), find)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":    "success",
		"schedules": schedules,
	})
}

// DeleteSchedule removes a booking.
func (s *APIV1Service) DeleteSchedule(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		return badRequest(c, "invalid schedule id")
	}

	if err := s.Store.GetDriver().DeleteSchedule(c.Request().Context(), &store.DeleteSchedule{ID: int32(id)}); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "success"})
}

type uploadJDRequest struct {
	JDID string `json:"jd_id"`
	Text string `json:"text"`
}

// UploadJobDescription stores a JD document schedules can point at. A missing
// jd_id gets a generated one; re-uploading an existing id replaces the text.
func (s *APIV1Service) UploadJobDescription(c echo.Context) error {
	var req uploadJDRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Text == "" {
		return badRequest(c, "text is required")
	}
	if req.JDID == "" {
		req.JDID = shortuuid.New()
	}

	jd, err := s.Store.CreateJobDescription(c.Request().Context(), &store.JobDescription{
		JDID:    req.JDID,
		Text:    req.Text,
		AdminID: middleware.UserIDFromEcho(c),
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status": "success",
		"jd_id":  jd.JDID,
	})
}
