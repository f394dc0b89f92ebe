package api

import (
	"errors"
	"time"
)

type (
	// Stream identifies which operator console text box a log line targets
	Stream string

	// LogLine is one captured line of step output
	LogLine struct {
		Time   time.Time `json:"time"`
		Stream Stream    `json:"stream"`
		Text   string    `json:"text"`
	}

	// Link is an optional reference shown alongside a step in the console
	Link struct {
		URL  string `json:"url"`
		Text string `json:"text,omitempty"`
	}

	// StepMeta is a step's static metadata, resolved once at registration
	// and never mutated during a run
	StepMeta struct {
		Link        *Link  `json:"link,omitempty"`
		DisplayName string `json:"display_name"`
		Description string `json:"description"`
		Image       string `json:"image,omitempty"`
		StopOnFail  bool   `json:"stop_on_fail"`
	}

	// StepExecution is the record of one step's invocation within a run
	StepExecution struct {
		StartedAt time.Time `json:"started_at,omitzero"`
		EndedAt   time.Time `json:"ended_at,omitzero"`
		StepID    StepID    `json:"step_id"`
		Meta      StepMeta  `json:"meta"`
		Outcome   Outcome   `json:"outcome"`
		Logs      []LogLine `json:"logs,omitempty"`
	}
)

const (
	StreamOut Stream = "out"
	StreamErr Stream = "err"
)

var (
	ErrStepIDEmpty      = errors.New("step ID empty")
	ErrDisplayNameEmpty = errors.New("display name empty")
	ErrLinkURLEmpty     = errors.New("link URL empty")
	ErrInvalidStream    = errors.New("invalid stream")
)

// Resolve fills metadata defaults for a step identifier: the display
// name derives from the identifier unless overridden, the description
// defaults to the display name, and stop-on-fail is already expected to be
// set by the registry (default true)
func (m StepMeta) Resolve(id StepID) StepMeta {
	res := m
	if res.DisplayName == "" {
		res.DisplayName = DisplayNameFor(id)
	}
	if res.Description == "" {
		res.Description = res.DisplayName
	}
	return res
}

// Validate checks resolved metadata for structural validity
func (m *StepMeta) Validate() error {
	if m.DisplayName == "" {
		return ErrDisplayNameEmpty
	}
	if m.Link != nil && m.Link.URL == "" {
		return ErrLinkURLEmpty
	}
	return nil
}

// ValidStream reports whether s names a known log stream
func ValidStream(s Stream) bool {
	return s == StreamOut || s == StreamErr
}
