// Package console implements the per-run operator interaction channel. It
// carries two independent flows: engine-to-console messages (logs, prompts,
// lifecycle events) fan out over a topic so the engine never blocks on the
// wire, and console-to-engine responses are correlated back to the exact
// pending request that issued their identifier
package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kode4food/caravan"
	"github.com/kode4food/caravan/topic"

	"github.com/hwbench/station/pkg/api"
	"github.com/hwbench/station/pkg/log"
	"github.com/hwbench/station/pkg/step"
)

type (
	// Session is one run's interaction channel. It is the engine's sole
	// suspension point: Request blocks the run worker until a correlated
	// response, cancellation, or timeout; everything else is
	// fire-and-forget
	Session struct {
		messages Topic
		prod     topic.Producer[*api.ConsoleMessage]
		pending  map[string]chan *api.InteractionResponse
		done     chan struct{}
		timeout  time.Duration
		mu       sync.Mutex
		closed   bool
	}

	// Topic is the outbound message flow consumed by console transports
	Topic = topic.Topic[*api.ConsoleMessage]

	// Consumer receives outbound console messages in publish order
	Consumer = topic.Consumer[*api.ConsoleMessage]

	// Option adjusts session behavior
	Option func(*Session)
)

var _ step.Console = (*Session)(nil)

var (
	ErrConsoleClosed  = errors.New("console closed")
	ErrRequestTimeout = errors.New("no response before timeout")
	ErrUnknownRequest = errors.New("response for unknown request")
	ErrRequestPending = errors.New("request ID already pending")
)

// WithRequestTimeout bounds every request's wait for an operator response.
// Zero, the default, waits indefinitely
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Session) {
		s.timeout = d
	}
}

// NewSession creates an interaction channel for exactly one run
func NewSession(opts ...Option) *Session {
	s := &Session{
		messages: caravan.NewTopic[*api.ConsoleMessage](),
		pending:  map[string]chan *api.InteractionResponse{},
		done:     make(chan struct{}),
	}
	s.prod = s.messages.NewProducer()
	for _, apply := range opts {
		apply(s)
	}
	return s
}

// Subscribe attaches a console transport to the outbound flow. Each
// consumer observes messages in publish order
func (s *Session) Subscribe() Consumer {
	return s.messages.NewConsumer()
}

// SendLog publishes one log line, fire-and-forget. Lines within a stream
// preserve call order; delivery never depends on an operator connection
// being alive at call time
func (s *Session) SendLog(stream api.Stream, text string) {
	s.publish(&api.ConsoleMessage{
		Type: api.MessageLog,
		Log: &api.LogPayload{
			Time:   time.Now(),
			Stream: stream,
			Text:   text,
		},
	})
}

// Announce publishes a run or step lifecycle message
func (s *Session) Announce(msg *api.ConsoleMessage) {
	s.publish(msg)
}

// Request publishes an interaction request and blocks until a correlated
// response arrives, the context is cancelled, the session timeout elapses,
// or the session closes. Every failure is an infrastructure error; a
// response naming an unknown option is a validation failure, escalated the
// same way rather than silently accepted
func (s *Session) Request(
	ctx context.Context, req *api.InteractionRequest,
) (*api.InteractionResponse, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	wait, err := s.addPending(req.ID)
	if err != nil {
		return nil, api.AsInfra(err)
	}
	defer s.removePending(req.ID)

	s.publish(&api.ConsoleMessage{
		Type:    api.MessageRequest,
		Request: req,
	})

	var timeout <-chan time.Time
	if s.timeout > 0 {
		timer := time.NewTimer(s.timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case resp := <-wait:
		if _, err := req.Resolve(resp); err != nil {
			return nil, api.AsInfra(err)
		}
		return resp, nil
	case <-timeout:
		return nil, api.AsInfra(
			fmt.Errorf("%w: %s", ErrRequestTimeout, req.ID),
		)
	case <-ctx.Done():
		return nil, api.AsInfra(ctx.Err())
	case <-s.done:
		return nil, api.AsInfra(ErrConsoleClosed)
	}
}

// Deliver routes an operator response to the pending request that issued
// its correlation ID. Responses for unknown or already-answered requests
// are rejected
func (s *Session) Deliver(resp *api.InteractionResponse) error {
	s.mu.Lock()
	wait, ok := s.pending[resp.ID]
	if ok {
		delete(s.pending, resp.ID)
	}
	s.mu.Unlock()

	if !ok {
		slog.Warn("Dropping uncorrelated console response",
			log.RequestID(resp.ID))
		return fmt.Errorf("%w: %s", ErrUnknownRequest, resp.ID)
	}
	wait <- resp
	return nil
}

// Close tears down the session, deterministically unblocking every pending
// request with a cancellation signal. Closing twice is harmless
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.pending = map[string]chan *api.InteractionResponse{}
	s.mu.Unlock()

	close(s.done)
	s.prod.Close()
}

func (s *Session) publish(msg *api.ConsoleMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.prod.Send() <- msg
}

func (s *Session) addPending(
	id string,
) (chan *api.InteractionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrConsoleClosed
	}
	if _, exists := s.pending[id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrRequestPending, id)
	}
	wait := make(chan *api.InteractionResponse, 1)
	s.pending[id] = wait
	return wait, nil
}

func (s *Session) removePending(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, id)
}
