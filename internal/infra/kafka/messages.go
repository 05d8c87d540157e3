package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"fixrun/internal/domain/execution"
)

const (
	messageTypeVerdict = "verdict"
	messageTypeSummary = "summary"
)

type batchEnvelope struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Language  string    `json:"language"`
	StartedAt time.Time `json:"started_at"`
}

type verdictEnvelope struct {
	Type           string        `json:"type"`
	Batch          batchEnvelope `json:"batch"`
	Fixture        string        `json:"fixture"`
	Input          string        `json:"input"`
	Expected       string        `json:"expected,omitempty"`
	Classification string        `json:"classification"`
	ExitCode       int64         `json:"exit_code"`
	DurationMs     int64         `json:"duration_ms"`
	TimedOut       bool          `json:"timed_out,omitempty"`
	Error          string        `json:"error,omitempty"`
	Timestamp      time.Time     `json:"timestamp"`
}

type summaryEnvelope struct {
	Type        string        `json:"type"`
	Batch       batchEnvelope `json:"batch"`
	Good        int           `json:"good"`
	Bad         int           `json:"bad"`
	Unknown     int           `json:"unknown"`
	Total       int           `json:"total"`
	BadFixtures []string      `json:"bad_fixtures,omitempty"`
	Timestamp   time.Time     `json:"timestamp"`
}

func makeBatchEnvelope(batch execution.Batch) batchEnvelope {
	return batchEnvelope{
		ID:        batch.ID,
		Source:    batch.SourcePath,
		Language:  string(batch.Language),
		StartedAt: batch.StartedAt.UTC(),
	}
}

func encodeVerdict(batch execution.Batch, verdict execution.Verdict) ([]byte, error) {
	payload, err := json.Marshal(verdictEnvelope{
		Type:           messageTypeVerdict,
		Batch:          makeBatchEnvelope(batch),
		Fixture:        verdict.Fixture.Name,
		Input:          verdict.Fixture.InputPath,
		Expected:       verdict.Fixture.ExpectedPath,
		Classification: string(verdict.Classification),
		ExitCode:       verdict.ExitCode,
		DurationMs:     verdict.Duration.Milliseconds(),
		TimedOut:       verdict.TimedOut,
		Error:          verdict.Error,
		Timestamp:      time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal verdict: %w", err)
	}
	return payload, nil
}

func encodeSummary(batch execution.Batch, summary execution.RunSummary) ([]byte, error) {
	payload, err := json.Marshal(summaryEnvelope{
		Type:        messageTypeSummary,
		Batch:       makeBatchEnvelope(batch),
		Good:        summary.Good,
		Bad:         summary.Bad,
		Unknown:     summary.Unknown,
		Total:       summary.Total,
		BadFixtures: summary.BadFixtures,
		Timestamp:   time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal summary: %w", err)
	}
	return payload, nil
}
