package biz

import (
	"context"
	"sync"

	"go.uber.org/zap"

	apperrors "github.com/lk2023060901/execution-console/internal/pkg/errors"
	"github.com/lk2023060901/execution-console/internal/pkg/logger"
)

// FetchFailedMessage is shown when a failed fetch carries no message.
const FetchFailedMessage = "Failed to fetch execution"

// State of the execution page.
type State int

const (
	StateLoading State = iota
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable view of the Viewer at one point in time.
type Snapshot struct {
	State           State
	Generation      uint64
	ExecutionID     string
	Execution       *Execution
	SystemPrompt    string
	HasSystemPrompt bool
	Messages        []Message
	Error           string
}

// Viewer holds the fetch lifecycle of a single execution page.
//
// Every load starts a new generation and cancels the previous in-flight
// request; completions from older generations are dropped.
type Viewer struct {
	repo ExecutionRepo
	log  *logger.Logger

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	snap   Snapshot
}

func NewViewer(repo ExecutionRepo, log *logger.Logger) *Viewer {
	if log == nil {
		log = logger.L()
	}
	return &Viewer{
		repo: repo,
		log:  log.Named("viewer"),
		snap: Snapshot{State: StateLoading},
	}
}

// Begin starts a new generation for id. The returned context is cancelled
// when a later generation begins.
func (v *Viewer) Begin(ctx context.Context, id string) (context.Context, uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.cancel != nil {
		v.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	v.gen++

	v.snap = Snapshot{
		State:       StateLoading,
		Generation:  v.gen,
		ExecutionID: id,
	}
	return logger.WithExecutionID(ctx, id), v.gen
}

// Complete records the outcome of generation gen. It returns false when gen
// is stale and the result was dropped.
func (v *Viewer) Complete(gen uint64, exec *Execution, err error) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if gen != v.gen {
		v.log.Debug("dropping stale execution fetch",
			zap.Uint64("generation", gen),
			zap.Uint64("current", v.gen),
		)
		return false
	}
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}

	if err == nil && exec == nil {
		err = apperrors.New(apperrors.ErrExecutionNotFound)
	}

	next := Snapshot{Generation: gen, ExecutionID: v.snap.ExecutionID}
	if err != nil {
		v.log.Warn("fetch execution failed",
			zap.String("execution_id", next.ExecutionID),
			zap.Error(err),
		)
		next.State = StateError
		next.Error = apperrors.UserMessage(err, FetchFailedMessage)
		v.snap = next
		return true
	}

	next.State = StateReady
	next.Execution = exec
	next.SystemPrompt, next.HasSystemPrompt = ResolveSystemPrompt(exec)
	next.Messages = DisplayMessages(exec.InputMessages)
	v.snap = next
	return true
}

// Fetch performs the request for a generation started with Begin.
func (v *Viewer) Fetch(ctx context.Context, id string) (*Execution, error) {
	return v.repo.Get(ctx, id)
}

// Load runs a full fetch for id and returns the resulting snapshot.
func (v *Viewer) Load(ctx context.Context, id string) Snapshot {
	ctx, gen := v.Begin(ctx, id)
	exec, err := v.Fetch(ctx, id)
	v.Complete(gen, exec, err)
	return v.Snapshot()
}

// Snapshot returns the current state.
func (v *Viewer) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.snap
}

// Close cancels any in-flight fetch.
func (v *Viewer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
}
