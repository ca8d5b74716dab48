package agent

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/hupe1980/agentforest/core"
	"github.com/hupe1980/agentforest/logging"
	"github.com/hupe1980/agentforest/metrics"
	"github.com/hupe1980/agentforest/tool"
)

// toolExecutor runs the tool calls of one assistant turn. It must:
//   - Produce exactly one result per incoming call, in call order
//   - Never panic (recover and report an error result)
//   - Respect ctx cancellation for calls not yet started
type toolExecutor struct {
	agent       string
	tools       *tool.Registry
	maxParallel int
	logger      logging.Logger
	recorder    metrics.Recorder
}

func (e *toolExecutor) execute(ctx context.Context, iteration int, calls []core.ToolCall) []tool.Result {
	n := len(calls)
	results := make([]tool.Result, n)

	if n == 0 {
		return results
	}

	maxPar := e.maxParallel
	if maxPar > n {
		maxPar = n
	}

	batchStart := time.Now()

	// Fast path: sequential execution inline.
	if maxPar <= 1 {
		for i, call := range calls {
			results[i] = e.executeSingle(ctx, iteration, call)
		}
	} else {
		var wg sync.WaitGroup

		sem := make(chan struct{}, maxPar)

		for i := range calls {
			wg.Add(1)
			sem <- struct{}{}

			go func(idx int, call core.ToolCall) {
				defer wg.Done()
				defer func() { <-sem }()

				results[idx] = e.executeSingle(ctx, iteration, call)
			}(i, calls[i])
		}

		wg.Wait()
	}

	e.logger.Debug(
		"agent.tools.batch.complete",
		"count", n,
		"parallelism", maxPar,
		"duration_ms", time.Since(batchStart).Milliseconds(),
	)

	return results
}

func (e *toolExecutor) executeSingle(ctx context.Context, iteration int, call core.ToolCall) (res tool.Result) {
	if err := ctx.Err(); err != nil {
		return tool.Result{Output: fmt.Sprintf("tool %s not executed: %v", call.Name, err), Err: err}
	}

	toolCtx := core.NewToolContext(ctx, e.agent, call.ID, e.logger).WithIteration(iteration)

	start := time.Now()

	defer func() { // panic safety
		if r := recover(); r != nil {
			e.logger.Error("agent.tool.panic", "tool", call.Name, "recover", r, "stack", string(debug.Stack()))
			res = tool.Result{Output: fmt.Sprintf("tool %s panicked: %v", call.Name, r)}
		}

		dur := time.Since(start)

		e.recorder.ObserveToolCall(e.agent, call.Name, res.Success, dur)
		e.logger.Info(
			"agent.tool.executed",
			"tool", call.Name,
			"tool_call_id", call.ID,
			"duration_ms", dur.Milliseconds(),
			"error", !res.Success,
		)
	}()

	return e.tools.Execute(toolCtx, call.Name, call.Arguments)
}
