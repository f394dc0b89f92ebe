package api

import "time"

type (
	// MessageType discriminates console protocol envelopes
	MessageType string

	// ConsoleMessage is the envelope for every engine-to-console and
	// console-to-engine message. Exactly one payload field is populated,
	// matching Type
	ConsoleMessage struct {
		Log      *LogPayload          `json:"log,omitempty"`
		Request  *InteractionRequest  `json:"request,omitempty"`
		Response *InteractionResponse `json:"response,omitempty"`
		Run      *RunEventPayload     `json:"run,omitempty"`
		Step     *StepEventPayload    `json:"step,omitempty"`
		Type     MessageType          `json:"type"`
	}

	// LogPayload is one log line routed to an operator text box
	LogPayload struct {
		Time   time.Time `json:"time"`
		Stream Stream    `json:"stream"`
		Text   string    `json:"text"`
	}

	// RunEventPayload announces run lifecycle transitions to the console
	RunEventPayload struct {
		ID      RunID   `json:"id"`
		Station string  `json:"station,omitempty"`
		Verdict Verdict `json:"verdict,omitempty"`
	}

	// StepEventPayload announces step lifecycle transitions so the console
	// can render progress, descriptions, images, and links
	StepEventPayload struct {
		Meta    *StepMeta `json:"meta,omitempty"`
		StepID  StepID    `json:"step_id"`
		Outcome *Outcome  `json:"outcome,omitempty"`
		Index   int       `json:"index"`
		Count   int       `json:"count"`
	}
)

const (
	MessageLog           MessageType = "log"
	MessageRequest       MessageType = "interaction_request"
	MessageResponse      MessageType = "interaction_response"
	MessageRunStarted    MessageType = "run_started"
	MessageRunCompleted  MessageType = "run_completed"
	MessageStepStarted   MessageType = "step_started"
	MessageStepCompleted MessageType = "step_completed"
)

type (
	// RunStartedResponse is returned when a run start succeeds
	RunStartedResponse struct {
		Message string `json:"message"`
		RunID   RunID  `json:"run_id"`
	}

	// RunDigest provides summary information about a recorded run
	RunDigest struct {
		StartedAt time.Time  `json:"started_at"`
		EndedAt   time.Time  `json:"ended_at"`
		ID        RunID      `json:"id"`
		Verdict   Verdict    `json:"verdict"`
		Stop      StopReason `json:"stop"`
		Error     string     `json:"error,omitempty"`
	}

	// RunsListResponse contains a list of run summaries
	RunsListResponse struct {
		Runs  []*RunDigest `json:"runs"`
		Count int          `json:"count"`
	}

	// HealthResponse provides service health information
	HealthResponse struct {
		Service string `json:"service"`
		Status  string `json:"status"`
		Active  bool   `json:"active_run"`
	}

	// ErrorResponse contains error details for failed requests
	ErrorResponse struct {
		Error  string `json:"error"`
		Status int    `json:"status,omitempty"`
	}
)
