package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alphastudio/neuralcore/pkg/logger"
	"github.com/alphastudio/neuralcore/pkg/providers"
)

// Sink receives text fragments in arrival order, exactly once each, until
// the stream reaches a terminal state. The final fragment may be an in-band
// system notice when the call failed.
type Sink func(fragment string)

// Options is the service-wide configuration. Fallback model and first-byte
// timeout are deployment knobs, not constants.
type Options struct {
	PrimaryModel  string
	FallbackModel string

	// FirstByteTimeout bounds the wait for an attempt's first fragment.
	// Zero disables the deadline. Once streaming has started no per-chunk
	// timeout applies.
	FirstByteTimeout time.Duration

	Temperature float64
	TopP        float64
}

// ChatParams describe one chat call.
type ChatParams struct {
	History           []Turn
	SystemInstruction string

	// Model overrides the configured primary when non-empty.
	Model string

	Attachment *Attachment

	// Temperature and TopP override the service defaults when non-zero.
	Temperature float64
	TopP        float64
}

// Stream outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// Stats describe a finished stream. Valid once Done is closed.
type Stats struct {
	Model        string
	FallbackUsed bool
	Fragments    int
	Chars        int
	Duration     time.Duration
	Outcome      string
}

// Stream is the handle to one in-flight chat call.
type Stream struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	closed    bool
	sink      Sink
	fragments int
	chars     int
	stats     Stats
}

// Done is closed when the call reaches a terminal state.
func (st *Stream) Done() <-chan struct{} {
	return st.done
}

// Stats returns the final stream stats. Call only after Done is closed.
func (st *Stream) Stats() Stats {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.stats
}

// Cancel aborts the in-flight request. It is idempotent, and once it
// returns the sink will not be invoked again: deliveries hold the same
// lock, so an in-flight fragment completes before Cancel's store and
// nothing passes the gate afterwards.
func (st *Stream) Cancel() {
	st.cancel()
	st.mu.Lock()
	st.closed = true
	st.mu.Unlock()
}

// deliver forwards a fragment through the cancellation gate. Returns false
// when the stream was cancelled.
func (st *Stream) deliver(fragment string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.closed {
		return false
	}
	st.fragments++
	st.chars += len(fragment)
	st.sink(fragment)
	return true
}

func (st *Stream) delivered() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.fragments
}

func (st *Stream) finish(stats Stats) {
	st.mu.Lock()
	stats.Fragments = st.fragments
	stats.Chars = st.chars
	st.stats = stats
	st.mu.Unlock()
}

// Service orchestrates streaming chat calls: normalize, build, stream,
// fall back. It holds no per-call state; concurrent calls are independent.
type Service struct {
	provider providers.StreamingProvider
	opts     Options
}

func NewService(provider providers.StreamingProvider, opts Options) *Service {
	return &Service{provider: provider, opts: opts}
}

// legacyModelAliases maps model tags still present in stored agent configs
// to the configured primary model.
var legacyModelAliases = map[string]bool{
	"gemini-flash-lite-latest": true,
	"gemini-3-pro-preview":     true,
}

func (s *Service) generationConfig(params ChatParams) GenerationConfig {
	cfg := GenerationConfig{
		Model:             params.Model,
		SystemInstruction: params.SystemInstruction,
		Temperature:       params.Temperature,
		TopP:              params.TopP,
	}
	if cfg.Model == "" || legacyModelAliases[cfg.Model] {
		cfg.Model = s.opts.PrimaryModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = s.opts.Temperature
	}
	if cfg.TopP == 0 {
		cfg.TopP = s.opts.TopP
	}
	return cfg
}

// Start begins a chat call and returns its handle without blocking.
func (s *Service) Start(ctx context.Context, params ChatParams, sink Sink) *Stream {
	ctx, cancel := context.WithCancel(ctx)
	st := &Stream{cancel: cancel, done: make(chan struct{}), sink: sink}
	go s.run(ctx, params, st)
	return st
}

// StreamChat runs a chat call to completion. Expected failures are
// reported in-band through sink, so the caller's transcript always gets
// some assistant turn; the return value is reserved for programmer errors
// and is currently always nil.
func (s *Service) StreamChat(ctx context.Context, params ChatParams, sink Sink) error {
	st := s.Start(ctx, params, sink)
	<-st.Done()
	return nil
}

func (s *Service) run(ctx context.Context, params ChatParams, st *Stream) {
	start := time.Now()
	defer close(st.done)
	defer st.cancel()

	cfg := s.generationConfig(params)
	turns := Normalize(params.History)

	// Explicit bounded attempt list: preferred, then at most one fallback
	// hop. No further retries once on the fallback model.
	models := []string{cfg.Model}
	if s.opts.FallbackModel != "" && s.opts.FallbackModel != cfg.Model {
		models = append(models, s.opts.FallbackModel)
	}

	var lastErr error
	lastModel := cfg.Model
	fallbackUsed := false

	for i, model := range models {
		err := s.attempt(ctx, model, turns, cfg, params.Attachment, st)
		if err == nil {
			st.finish(Stats{
				Model:        model,
				FallbackUsed: i > 0,
				Duration:     time.Since(start),
				Outcome:      OutcomeCompleted,
			})
			logger.InfoCF("chat", "stream completed", map[string]interface{}{
				"model":       model,
				"fallback":    i > 0,
				"fragments":   st.delivered(),
				"duration_ms": time.Since(start).Milliseconds(),
			})
			return
		}

		if ctx.Err() != nil {
			// Caller cancellation: no notice into a torn-down sink.
			st.finish(Stats{
				Model:        model,
				FallbackUsed: i > 0,
				Duration:     time.Since(start),
				Outcome:      OutcomeCancelled,
			})
			return
		}

		lastErr = err
		lastModel = model
		fallbackUsed = i > 0

		logger.WarnCF("chat", fmt.Sprintf("attempt failed on %s: %v", model, err), map[string]interface{}{
			"model":   model,
			"attempt": i + 1,
		})

		if !retryable(err) {
			break
		}
		// Once genuine output reached the sink, replaying the request
		// would duplicate content; surface the failure instead.
		if st.delivered() > 0 {
			break
		}
	}

	st.deliver(fragmentFor(lastErr))
	st.finish(Stats{
		Model:        lastModel,
		FallbackUsed: fallbackUsed,
		Duration:     time.Since(start),
		Outcome:      OutcomeFailed,
	})
}

// attempt performs a single streaming call against one model. The
// first-byte timer cancels only this attempt's context, leaving the parent
// call free to fall back.
func (s *Service) attempt(ctx context.Context, model string, turns []NormalizedTurn, cfg GenerationConfig, attachment *Attachment, st *Stream) error {
	attemptCtx, cancelAttempt := context.WithCancel(ctx)
	defer cancelAttempt()

	cfg.Model = model
	req := BuildRequest(turns, cfg, attachment)

	var timedOut atomic.Bool
	var timer *time.Timer
	if s.opts.FirstByteTimeout > 0 {
		timer = time.AfterFunc(s.opts.FirstByteTimeout, func() {
			timedOut.Store(true)
			cancelAttempt()
		})
		defer timer.Stop()
	}

	var received atomic.Int64
	err := s.provider.ChatStream(attemptCtx, req, func(delta string) {
		if delta == "" {
			return
		}
		if received.Add(1) == 1 && timer != nil {
			timer.Stop()
		}
		st.deliver(delta)
	})

	if err != nil {
		if errors.Is(err, providers.ErrNoCredentials) {
			return &ConfigError{Reason: "API credentials are not configured"}
		}
		if timedOut.Load() && received.Load() == 0 {
			return &TimeoutError{Model: model, Deadline: s.opts.FirstByteTimeout}
		}
		return err
	}

	if received.Load() == 0 {
		return &EmptyStreamError{Model: model}
	}
	return nil
}
