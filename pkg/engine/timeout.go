package engine

import (
	"fmt"
	"time"

	"github.com/rogelgarcia/buildfab/pkg/facade"
)

// EvalTimeout is the hard limit for a single evaluation.
const EvalTimeout = 5 * time.Second

// evalResult carries one evaluation's outcome from the interpreter
// goroutine back to the caller.
type evalResult struct {
	building *facade.Building
	errors   []EvalError
	err      error
}

// await blocks until the interpreter goroutine reports, the timeout
// expires, or a newer Evaluate call supersedes this one. A timed-out or
// superseded goroutine keeps running until its interpreter returns; the
// generation check makes sure its late result is dropped instead of being
// handed to the wrong caller.
func (e *Engine) await(ch <-chan evalResult, gen uint64) (*facade.Building, []EvalError, error) {
	deadline := time.NewTimer(EvalTimeout)
	defer deadline.Stop()

	select {
	case res := <-ch:
		if e.generation.Load() != gen {
			return nil, nil, fmt.Errorf("evaluation superseded by newer request")
		}
		return res.building, res.errors, res.err

	case <-deadline.C:
		return nil, nil, fmt.Errorf("evaluation timed out after %s", EvalTimeout)
	}
}
