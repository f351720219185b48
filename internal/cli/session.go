package cli

import (
	"github.com/roach88/fusionscope/internal/inspect"
	"github.com/roach88/fusionscope/internal/runtime"
	"github.com/roach88/fusionscope/internal/workload"
)

// session is a runtime with a workload replayed into it.
type session struct {
	workload  *workload.Workload
	result    *workload.Result
	runtime   *runtime.Runtime
	inspector *inspect.Inspector
}

// loadSession loads the workload at path and replays it into a fresh
// runtime.
func (o *RootOptions) loadSession(path string) (*session, error) {
	w, err := workload.Load(path)
	if err != nil {
		return nil, &ExitError{Code: ExitCommandError, ErrCode: ErrCodeWorkload, Message: "failed to load workload", Err: err}
	}

	rt := runtime.New(runtime.WithLogger(o.logger()))
	res, err := workload.Apply(rt, w, o.logger())
	if err != nil {
		return nil, WrapExitError(ExitFailure, "failed to apply workload", err)
	}
	o.logger().Debug("session ready",
		"workload", w.Name,
		"streams", len(rt.StreamIDs()),
		"plans", len(rt.Plans()))

	return &session{
		workload:  w,
		result:    res,
		runtime:   rt,
		inspector: inspect.New(rt, rt),
	}, nil
}
