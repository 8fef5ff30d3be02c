package interview

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"

	"github.com/voxhire/voxhire/internal/errors"
	"github.com/voxhire/voxhire/plugin/ai"
	"github.com/voxhire/voxhire/plugin/vision"
	"github.com/voxhire/voxhire/store"
)

// visualFieldLimit bounds each persisted visual category.
const visualFieldLimit = 800

// ReportResult is the assembled performance report.
type ReportResult struct {
	Status           string             `json:"status"`
	Percentage       float64            `json:"percentage"`
	Band             string             `json:"band"`
	Average          store.Rating       `json:"average"`
	StrengthsHTML    string             `json:"strengths_html"`
	ImprovementsHTML string             `json:"improvements_html"`
	Visual           vision.Observation `json:"visual"`
	ReportHTML       string             `json:"report_html"`
}

// GenerateReport assembles the report for a finished run and persists the
// rating, visual summary and rendered document. Generation is idempotent:
// repeated calls recompute the same report and never duplicate rows.
func (s *Service) GenerateReport(ctx context.Context, userID, sessionRef string) (*ReportResult, error) {
	state := s.store.GetInterviewState(ctx, userID, sessionRef)
	if len(state.Ratings) == 0 {
		return nil, errors.InvalidArgument("no evaluated answers to report on")
	}

	avg := ai.AverageRating(state.Ratings)
	percentage := ai.OverallPercentage(avg)
	band := s.bandPolicy().Band(percentage)
	narrative := s.narrator.Compose(ctx, state.ConversationHistory, avg)

	samples := make([]string, 0, len(state.VisualFeedbackData))
	for _, sample := range state.VisualFeedbackData {
		samples = append(samples, sample.Feedback)
	}
	visual := vision.Aggregate(samples)
	visual.Posture = truncateField(visual.Posture, visualFieldLimit)
	visual.Expressions = truncateField(visual.Expressions, visualFieldLimit)
	visual.Distractions = truncateField(visual.Distractions, visualFieldLimit)

	result := &ReportResult{
		Status:           StatusSuccess,
		Percentage:       percentage,
		Band:             band,
		Average:          avg,
		StrengthsHTML:    narrative.StrengthsHTML,
		ImprovementsHTML: narrative.ImprovementsHTML,
		Visual:           visual,
		ReportHTML:       renderReportHTML(state, avg, percentage, band, narrative, visual),
	}

	if state.StudentInfo.RollNo != "" && !state.ReportGenerated {
		s.persistReport(ctx, state, avg, visual, result.ReportHTML)
	}

	if !state.ReportGenerated {
		state.ReportGenerated = true
		s.store.SaveInterviewState(ctx, userID, sessionRef, state)
	}

	return result, nil
}

func (s *Service) bandPolicy() ai.BandPolicy {
	policy := ai.BandPolicy{
		VeryGood: s.profile.BandVeryGood,
		Good:     s.profile.BandGood,
		Average:  s.profile.BandAverage,
	}
	if policy.VeryGood == 0 && policy.Good == 0 && policy.Average == 0 {
		return ai.DefaultBandPolicy()
	}
	return policy
}

// persistReport writes the rating, visual and report rows. Failures are
// logged and the report is still returned to the caller.
func (s *Service) persistReport(ctx context.Context, state *store.InterviewState, avg store.Rating, visual vision.Observation, reportHTML string) {
	info := state.StudentInfo

	if _, err := s.store.CreateRatingRecord(ctx, &store.RatingRecord{
		RollNo:         info.RollNo,
		InterviewTs:    state.InterviewTs,
		Technical:      avg.Technical,
		Communication:  avg.Communication,
		ProblemSolving: avg.ProblemSolving,
		TimeManagement: avg.TimeManagement,
		Overall:        avg.Overall,
	}); err != nil {
		slog.Warn("rating record persist failed", "roll_no", info.RollNo, "error", err)
	}

	if _, err := s.store.UpsertVisualFeedback(ctx, &store.VisualFeedback{
		RollNo:       info.RollNo,
		InterviewTs:  state.InterviewTs,
		Posture:      visual.Posture,
		Expressions:  visual.Expressions,
		Distractions: visual.Distractions,
	}); err != nil {
		slog.Warn("visual feedback persist failed", "roll_no", info.RollNo, "error", err)
	}

	if _, err := s.store.CreatePerformanceReport(ctx, &store.PerformanceReport{
		RollNo:      info.RollNo,
		InterviewTs: state.InterviewTs,
		Name:        info.Name,
		BatchNo:     info.BatchNo,
		Center:      info.Center,
		Course:      info.Course,
		EvalDate:    info.EvalDate,
		ReportHTML:  reportHTML,
	}); err != nil {
		slog.Warn("performance report persist failed", "roll_no", info.RollNo, "error", err)
	}
}

var reportTmpl = template.Must(template.New("report").Parse(`<div class="performance-report">
<h2>Interview Performance Report</h2>
<table class="candidate">
<tr><th>Name</th><td>{{.Name}}</td></tr>
<tr><th>Roll No</th><td>{{.RollNo}}</td></tr>
<tr><th>Batch</th><td>{{.BatchNo}}</td></tr>
<tr><th>Center</th><td>{{.Center}}</td></tr>
<tr><th>Course</th><td>{{.Course}}</td></tr>
<tr><th>Date</th><td>{{.EvalDate}}</td></tr>
</table>
<h3>Overall: {{printf "%.1f" .Percentage}}% ({{.Band}})</h3>
<table class="scores">
<tr><th>Technical</th><td>{{printf "%.1f" .Avg.Technical}}</td></tr>
<tr><th>Communication</th><td>{{printf "%.1f" .Avg.Communication}}</td></tr>
<tr><th>Problem Solving</th><td>{{printf "%.1f" .Avg.ProblemSolving}}</td></tr>
<tr><th>Time Management</th><td>{{printf "%.1f" .Avg.TimeManagement}}</td></tr>
</table>
<h3>Strengths</h3>
{{.Strengths}}
<h3>Areas for Improvement</h3>
{{.Improvements}}
<h3>On-Camera Presence</h3>
<ul>
<li>Posture: {{.Posture}}</li>
<li>Expressions: {{.Expressions}}</li>
<li>Distractions: {{.Distractions}}</li>
</ul>
</div>
`))

func renderReportHTML(state *store.InterviewState, avg store.Rating, percentage float64, band string, narrative ai.Narrative, visual vision.Observation) string {
	data := struct {
		Name, RollNo, BatchNo, Center, Course, EvalDate string
		Percentage                                      float64
		Band                                            string
		Avg                                             store.Rating
		Strengths, Improvements                         template.HTML
		Posture, Expressions, Distractions              string
	}{
		Name:         state.StudentInfo.Name,
		RollNo:       state.StudentInfo.RollNo,
		BatchNo:      state.StudentInfo.BatchNo,
		Center:       state.StudentInfo.Center,
		Course:       state.StudentInfo.Course,
		EvalDate:     state.StudentInfo.EvalDate,
		Percentage:   percentage,
		Band:         band,
		Avg:          avg,
		Strengths:    template.HTML(narrative.StrengthsHTML),
		Improvements: template.HTML(narrative.ImprovementsHTML),
		Posture:      visual.Posture,
		Expressions:  visual.Expressions,
		Distractions: visual.Distractions,
	}

	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, data); err != nil {
		slog.Error("report render failed", "error", err)
		return ""
	}
	return buf.String()
}

func truncateField(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
