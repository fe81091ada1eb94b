// pkg/stacks/memory.go
package stacks

import (
	"context"
	"encoding/json"

	"stratus/pkg/errs"
)

type memReader struct {
	byStack map[string]map[string]string
}

// NewMemoryReader builds a reader over a fixed stack -> outputs map,
// for dev and tests.
func NewMemoryReader(byStack map[string]map[string]string) Reader {
	if byStack == nil {
		byStack = map[string]map[string]string{}
	}
	return &memReader{byStack: byStack}
}

// NewMemoryReaderFromJSON parses a seed of the form
// {"stackName": {"OutputKey": "value"}} (the STACK_OUTPUTS_JSON env
// format).
func NewMemoryReaderFromJSON(seed string) (Reader, error) {
	byStack := map[string]map[string]string{}
	if seed != "" {
		if err := json.Unmarshal([]byte(seed), &byStack); err != nil {
			return nil, errs.Wrap(err, errs.ConfigInvalid, "parsing stack outputs seed")
		}
	}
	return &memReader{byStack: byStack}, nil
}

func (m *memReader) GetOutputs(ctx context.Context, stackName string) (map[string]string, error) {
	outs, ok := m.byStack[stackName]
	if !ok {
		return nil, errs.New(errs.StackNotFound, "stack %q", stackName)
	}
	if len(outs) == 0 {
		return nil, errs.New(errs.StackHasNoOutputs, "stack %q has no outputs", stackName)
	}
	return outs, nil
}
