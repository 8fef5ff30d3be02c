package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxhire/voxhire/store"
)

func TestScheduleStore(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	jd, err := ts.CreateJobDescription(ctx, &store.JobDescription{
		JDID: "jd-1", Text: "Backend engineer, Go and SQL.", AdminID: "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, "jd-1", jd.JDID)

	// Re-uploading the same id replaces the text.
	_, err = ts.CreateJobDescription(ctx, &store.JobDescription{JDID: "jd-1", Text: "Updated JD."})
	require.NoError(t, err)
	text, err := ts.GetJobDescriptionText(ctx, "jd-1")
	require.NoError(t, err)
	assert.Equal(t, "Updated JD.", text)

	text, err = ts.GetJobDescriptionText(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, text)

	first, err := ts.CreateSchedule(ctx, &store.Schedule{
		Name: "Asha", RollNo: "R-1", Difficulty: "medium", Language: "english", JDID: "jd-1",
	})
	require.NoError(t, err)
	assert.Greater(t, first.ID, int32(0))
	assert.Equal(t, store.ScheduleStatusScheduled, first.Status)

	second, err := ts.CreateSchedule(ctx, &store.Schedule{
		Name: "Asha", RollNo: "R-1", Difficulty: "advanced", Language: "hindi", JDID: "jd-1",
	})
	require.NoError(t, err)

	latest, err := ts.LatestScheduleFor(ctx, "R-1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second.ID, latest.ID)
	assert.Equal(t, "advanced", latest.Difficulty)

	none, err := ts.LatestScheduleFor(ctx, "R-404")
	require.NoError(t, err)
	assert.Nil(t, none)

	status := store.ScheduleStatusCompleted
	require.NoError(t, ts.UpdateSchedule(ctx, &store.UpdateSchedule{ID: second.ID, Status: &status}))

	updated, err := ts.LatestScheduleFor(ctx, "R-1")
	require.NoError(t, err)
	assert.Equal(t, store.ScheduleStatusCompleted, updated.Status)

	schedules, err := ts.ListSchedules(ctx, &store.FindSchedule{})
	require.NoError(t, err)
	assert.Len(t, schedules, 2)

	require.NoError(t, ts.GetDriver().DeleteSchedule(ctx, &store.DeleteSchedule{ID: first.ID}))
	schedules, err = ts.ListSchedules(ctx, &store.FindSchedule{})
	require.NoError(t, err)
	assert.Len(t, schedules, 1)
}

func TestReportStore(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	rating, err := ts.CreateRatingRecord(ctx, &store.RatingRecord{
		RollNo: "R-1", InterviewTs: "2026-09-01 10:00:00",
		Technical: 7, Communication: 8, ProblemSolving: 6.5, TimeManagement: 7, Overall: 7.1,
	})
	require.NoError(t, err)
	assert.Greater(t, rating.ID, int32(0))

	rollNo := "R-1"
	records, err := ts.ListRatingRecords(ctx, &store.FindRatingRecord{RollNo: &rollNo})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 7.1, records[0].Overall)

	// Visual feedback upserts on (roll_no, interview_ts).
	_, err = ts.UpsertVisualFeedback(ctx, &store.VisualFeedback{
		RollNo: "R-1", InterviewTs: "2026-09-01 10:00:00", Posture: "Upright",
	})
	require.NoError(t, err)
	_, err = ts.UpsertVisualFeedback(ctx, &store.VisualFeedback{
		RollNo: "R-1", InterviewTs: "2026-09-01 10:00:00", Posture: "Slouched", Distractions: "Phone visible",
	})
	require.NoError(t, err)

	visual, err := ts.GetVisualFeedback(ctx, &store.FindVisualFeedback{RollNo: &rollNo})
	require.NoError(t, err)
	require.NotNil(t, visual)
	assert.Equal(t, "Slouched", visual.Posture)
	assert.Equal(t, "Phone visible", visual.Distractions)

	// Performance reports are insert-once per (roll_no, interview_ts).
	_, err = ts.CreatePerformanceReport(ctx, &store.PerformanceReport{
		RollNo: "R-1", InterviewTs: "2026-09-01 10:00:00", Name: "Asha", ReportHTML: "<div>first</div>",
	})
	require.NoError(t, err)
	_, err = ts.CreatePerformanceReport(ctx, &store.PerformanceReport{
		RollNo: "R-1", InterviewTs: "2026-09-01 10:00:00", Name: "Asha", ReportHTML: "<div>second</div>",
	})
	require.NoError(t, err)

	report, err := ts.GetPerformanceReport(ctx, &store.FindPerformanceReport{RollNo: &rollNo})
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, "<div>first</div>", report.ReportHTML)
}
