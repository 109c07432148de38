package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/tomdro61/shop-pilot-sub000/logging"
	"github.com/tomdro61/shop-pilot-sub000/models"
)

const (
	DefaultMaxIterations = 10
	DefaultToolTimeout   = 30 * time.Second

	maxIterationsMessage = "Reached maximum tool call iterations. Please try again with a simpler request."
	genericErrorMessage  = "Something went wrong while processing your request."
	cancelledMessage     = "The request was cancelled."
)

var ErrMaxIterations = errors.New(maxIterationsMessage)

// EventSink receives stream events in order. A sink error stops the run.
type EventSink func(models.StreamEvent) error

type ToolExecutor interface {
	Execute(ctx context.Context, name string, input map[string]any) string
}

// Orchestrator drives the model/tool loop for one request at a time. It keeps
// no conversation state between runs.
type Orchestrator struct {
	model         Model
	tools         ToolExecutor
	definitions   []ToolDefinition
	systemPrompt  func() string
	maxIterations int
	toolTimeout   time.Duration
}

type Option func(*Orchestrator)

func WithMaxIterations(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxIterations = n
		}
	}
}

func WithToolTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.toolTimeout = d
		}
	}
}

// WithSystemPrompt sets the prompt builder; it is called once per model request.
func WithSystemPrompt(build func() string) Option {
	return func(o *Orchestrator) {
		o.systemPrompt = build
	}
}

func NewOrchestrator(model Model, tools ToolExecutor, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		model:         model,
		tools:         tools,
		definitions:   Definitions(),
		systemPrompt:  func() string { return "" },
		maxIterations: DefaultMaxIterations,
		toolTimeout:   DefaultToolTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run answers the last user turn of history, streaming events to sink. The
// final event is always exactly one done. A successful run emits the updated
// history as conversation_state just before done; a failed run emits one
// error instead. The returned error is for logging only.
func (o *Orchestrator) Run(ctx context.Context, history []models.Turn, sink EventSink) (err error) {
	logger := logging.FromContext(ctx)
	guard := &terminalGuard{sink: sink, logger: logger}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("orchestration panicked", "panic", r)
			err = fmt.Errorf("orchestration panicked: %v", r)
			guard.fail(genericErrorMessage)
		}
		guard.finish()
	}()

	err = o.run(ctx, slices.Clone(history), guard)
	if err != nil && guard.sinkErr == nil {
		guard.fail(errorMessage(err))
	}
	return err
}

func (o *Orchestrator) run(ctx context.Context, history []models.Turn, guard *terminalGuard) error {
	logger := logging.FromContext(ctx)
	for iteration := 1; iteration <= o.maxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		turn, err := o.callModel(ctx, history, guard)
		if err != nil {
			return err
		}
		calls := turn.ToolCalls()
		// Adapters drop empty assistant turns when building a request, so
		// the returned state leaves them out too.
		if len(calls) > 0 || turn.PlainText() != "" {
			history = append(history, turn)
		}

		if len(calls) == 0 {
			logger.Info("conversation turn complete", "iterations", iteration, "turns", len(history))
			return guard.emit(models.ConversationStateEvent(history))
		}

		logger.Info("model requested tools", "iteration", iteration, "count", len(calls))

		results := make([]models.ToolResult, 0, len(calls))
		for _, call := range calls {
			if err := guard.emit(models.ToolStartEvent(call)); err != nil {
				return err
			}
			results = append(results, models.ToolResult{
				ToolCallID: call.ID,
				Content:    o.execute(ctx, call),
			})
			if err := guard.emit(models.ToolResultEvent(call)); err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		history = append(history, models.NewToolResultTurn(results))
	}

	logger.Warn("tool iteration cap reached", "max_iterations", o.maxIterations)
	return ErrMaxIterations
}

func (o *Orchestrator) callModel(ctx context.Context, history []models.Turn, guard *terminalGuard) (models.Turn, error) {
	stream, err := o.model.Stream(ctx, ModelRequest{
		System: o.systemPrompt(),
		Turns:  history,
		Tools:  o.definitions,
	})
	if err != nil {
		return models.Turn{}, err
	}
	defer stream.Close()

	return collect(stream, func(text string) error {
		return guard.emit(models.TextEvent(text))
	})
}

// execute runs one tool detached from request cancellation so a mutation
// that has started is allowed to finish.
func (o *Orchestrator) execute(ctx context.Context, call models.ToolCall) string {
	toolCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.toolTimeout)
	defer cancel()
	return o.tools.Execute(toolCtx, call.Name, call.Input)
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, ErrMaxIterations):
		return maxIterationsMessage
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return cancelledMessage
	case err.Error() == "":
		return genericErrorMessage
	default:
		return err.Error()
	}
}

// terminalGuard enforces the event ordering: at most one terminal event
// (error or conversation_state), then exactly one done, then nothing.
type terminalGuard struct {
	sink     EventSink
	logger   *slog.Logger
	terminal bool
	closed   bool
	sinkErr  error
}

var errStreamClosed = errors.New("event stream already closed")

func (g *terminalGuard) emit(event models.StreamEvent) error {
	if g.sinkErr != nil {
		return g.sinkErr
	}
	if g.closed {
		return errStreamClosed
	}
	if event.Type == models.EventDone {
		g.finish()
		return g.sinkErr
	}

	isTerminal := event.Type == models.EventError || event.Type == models.EventConversationState
	if g.terminal {
		if isTerminal {
			return nil
		}
		return errStreamClosed
	}

	if err := g.sink(event); err != nil {
		g.sinkErr = err
		return err
	}
	if isTerminal {
		g.terminal = true
	}
	return nil
}

func (g *terminalGuard) fail(message string) {
	if err := g.emit(models.ErrorEvent(message)); err != nil {
		g.logger.Debug("error event not delivered", "error", err)
	}
}

func (g *terminalGuard) finish() {
	if g.closed {
		return
	}
	g.closed = true
	if err := g.sink(models.DoneEvent()); err != nil && g.sinkErr == nil {
		g.sinkErr = err
	}
}
