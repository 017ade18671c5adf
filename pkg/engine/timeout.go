package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chazu/voxfield/pkg/graph"
)

// DefaultTimeout is the limit for a single evaluation unless the engine is
// built with WithTimeout.
const DefaultTimeout = 5 * time.Second

// ErrTimeout is returned when an evaluation runs past the engine timeout.
var ErrTimeout = errors.New("engine: evaluation timed out")

// evalResult carries one evaluation's outcome from its goroutine.
type evalResult struct {
	graph  *graph.SceneGraph
	errors []EvalError
	err    error
}

// await returns the result sent on ch, or an error once ctx is done or
// timeout elapses. ch must be buffered: on timeout the evaluating goroutine
// keeps running and its late result is dropped into the buffer.
func await(ctx context.Context, ch <-chan evalResult, timeout time.Duration) (*graph.SceneGraph, []EvalError, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case res := <-ch:
		return res.graph, res.errors, res.err
	case <-expired:
		return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	case <-ctx.Done():
		return nil, nil, fmt.Errorf("evaluation cancelled: %w", ctx.Err())
	}
}
