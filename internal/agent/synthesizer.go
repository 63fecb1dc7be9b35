package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rahul/deepdive/internal/llm"
	"github.com/rahul/deepdive/internal/observability"
)

// ErrReportNotSaved is returned alongside a report whose body was generated
// but could not be written.
var ErrReportNotSaved = errors.New("report generated but not saved")

// Synthesizer turns a finished plan into the final report and writes it.
type Synthesizer struct {
	LLM       Completer
	Prompts   *PromptManager
	Writer    ReportWriter
	Observer  observability.Observer
	MaxTokens int
	Now       func() time.Time
}

// Synthesize makes one completion over every completed step and persists the
// result. A model failure still yields a report whose body is the error text.
func (s *Synthesizer) Synthesize(ctx context.Context, runID string, plan *Plan) (Report, error) {
	maxTokens := s.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 3000
	}

	var sections []string
	for _, step := range plan.Completed() {
		sections = append(sections, fmt.Sprintf("## %s\n%s", step.Description, step.Result))
	}

	body := s.LLM.Complete(ctx, []llm.Message{
		llm.System(s.Prompts.Get(PromptReport)),
		llm.User(fmt.Sprintf("Topic: %s\nObjective: %s\n\nResearch Findings:\n%s", plan.Topic, plan.Objective, strings.Join(sections, "\n\n"))),
	}, 0.3, maxTokens).String()

	report := Report{
		RunID:       runID,
		Topic:       plan.Topic,
		Objective:   plan.Objective,
		Body:        body,
		GeneratedAt: s.now(),
	}

	var err, writeErr error
	if s.Writer != nil {
		report.Path, writeErr = s.Writer.WriteReport(plan.Topic, body, report.GeneratedAt)
		if writeErr != nil {
			report.Path = ""
			err = fmt.Errorf("%w: %v", ErrReportNotSaved, writeErr)
		}
	}

	if s.Observer != nil {
		data := observability.ReportData{Path: report.Path}
		if writeErr != nil {
			data.Error = writeErr.Error()
		}
		s.Observer.Log(observability.Event{
			Type:      observability.EventTypeReport,
			RunID:     runID,
			Data:      data,
			Timestamp: time.Now(),
		})
	}
	return report, err
}

func (s *Synthesizer) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
