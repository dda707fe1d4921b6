package runner

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/scpi-protocol/scpi-go/internal/testharness/engine"
	"github.com/scpi-protocol/scpi-go/internal/testharness/loader"
	"github.com/scpi-protocol/scpi-go/pkg/inspect"
	"github.com/scpi-protocol/scpi-go/pkg/wire"
)

// registerHandlers wires the step actions to the session.
func (r *Runner) registerHandlers() {
	r.engine.RegisterHandler(ActionSend, r.handleSend)
	r.engine.RegisterHandler(ActionQuery, r.handleQuery)
	r.engine.RegisterHandler(ActionErrors, r.handleErrors)
	r.engine.RegisterHandler(ActionIdentify, r.handleIdentify)
	r.engine.RegisterHandler(ActionHeaders, r.handleHeaders)
	r.engine.RegisterHandler(ActionReset, r.handleReset)
	r.engine.RegisterHandler(ActionWait, r.handleWait)
}

// lineParam returns the interpolated program message of a step.
func lineParam(step *loader.Step, state *engine.ExecutionState) (string, error) {
	params := engine.InterpolateParams(step.Params, state)
	line, ok := params[ParamLine].(string)
	if !ok || strings.TrimSpace(line) == "" {
		return "", errors.New("missing line parameter")
	}
	return line, nil
}

func (r *Runner) handleSend(ctx context.Context, step *loader.Step, state *engine.ExecutionState) (map[string]any, error) {
	line, err := lineParam(step, state)
	if err != nil {
		return nil, err
	}
	if err := r.session.Send(ctx, line); err != nil {
		return nil, err
	}
	return map[string]any{KeySent: line}, nil
}

// handleQuery sends a query and exposes the response as text, as its
// values across all response units and, when the first value is numeric,
// as a number.
func (r *Runner) handleQuery(ctx context.Context, step *loader.Step, state *engine.ExecutionState) (map[string]any, error) {
	line, err := lineParam(step, state)
	if err != nil {
		return nil, err
	}
	resp, err := r.session.Query(ctx, line)
	if err != nil {
		return nil, err
	}
	return responseOutputs(resp), nil
}

func responseOutputs(resp string) map[string]any {
	out := map[string]any{engine.KeyResponse: resp}
	var values []string
	for _, unit := range wire.SplitMessage(resp) {
		v, err := wire.SplitValues(unit)
		if err != nil {
			return out
		}
		values = append(values, v...)
	}
	out[engine.KeyValues] = values
	if len(values) > 0 {
		if f, err := strconv.ParseFloat(strings.TrimSpace(values[0]), 64); err == nil {
			out[engine.KeyValue] = f
		}
	}
	return out
}

// handleErrors drains the error queue.
func (r *Runner) handleErrors(ctx context.Context, _ *loader.Step, _ *engine.ExecutionState) (map[string]any, error) {
	entries, err := r.remote.Errors(ctx)
	if err != nil {
		return nil, err
	}
	return errorOutputs(entries), nil
}

func errorOutputs(entries []inspect.ErrorEntry) map[string]any {
	codes := make([]int, 0, len(entries))
	msgs := make([]string, 0, len(entries))
	for _, e := range entries {
		codes = append(codes, e.Code)
		msgs = append(msgs, e.Description)
	}
	first := wire.CodeNoError
	if len(codes) > 0 {
		first = codes[0]
	}
	return map[string]any{
		engine.KeyErrorCode:     first,
		engine.KeyErrorCodes:    codes,
		engine.KeyErrorCount:    len(codes),
		engine.KeyErrorMessages: msgs,
	}
}

func (r *Runner) handleIdentify(ctx context.Context, _ *loader.Step, _ *engine.ExecutionState) (map[string]any, error) {
	id, err := r.remote.Identify(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		engine.KeyResponse: id.String(),
		KeyManufacturer:    id.Manufacturer,
		KeyModel:           id.Model,
		KeySerial:          id.Serial,
		KeyFirmware:        id.Firmware,
	}, nil
}

func (r *Runner) handleHeaders(ctx context.Context, _ *loader.Step, _ *engine.ExecutionState) (map[string]any, error) {
	headers, err := r.remote.Headers(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		engine.KeyResponse: strings.Join(headers, "\n"),
		engine.KeyValues:   headers,
		KeyHeaderCount:     len(headers),
	}, nil
}

func (r *Runner) handleReset(ctx context.Context, _ *loader.Step, _ *engine.ExecutionState) (map[string]any, error) {
	if err := r.session.Send(ctx, resetLine); err != nil {
		return nil, err
	}
	return map[string]any{KeySent: resetLine}, nil
}

func (r *Runner) handleWait(ctx context.Context, step *loader.Step, state *engine.ExecutionState) (map[string]any, error) {
	d := engine.StepDuration(engine.InterpolateParams(step.Params, state))
	if d <= 0 {
		return nil, fmt.Errorf("wait needs %s or duration_seconds", ParamDurationMs)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(d):
	}
	return map[string]any{KeyWaited: d.String()}, nil
}
