// internal/policy/gate.go
package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/open-policy-agent/opa/rego"

	"stratus/pkg/resolve"
)

// Gate evaluates an optional rego module against a resolved document
// before it is published. Deny rules live at data.stratus.deny; a
// missing or empty module means allow.
type Gate struct {
	module string
}

func NewGate(module string) *Gate {
	return &Gate{module: module}
}

// NewGateFromFile loads the module from path; an empty path yields an
// always-allow gate.
func NewGateFromFile(path string) (*Gate, error) {
	if path == "" {
		return &Gate{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy %s: %w", path, err)
	}
	return &Gate{module: string(raw)}, nil
}

// Check returns an error listing every deny reason, or nil when the
// document passes.
func (g *Gate) Check(ctx context.Context, doc resolve.Document) error {
	if strings.TrimSpace(g.module) == "" {
		return nil
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var input any
	if err := json.Unmarshal(raw, &input); err != nil {
		return err
	}
	r := rego.New(
		rego.Query("data.stratus.deny"),
		rego.Module("stratus.rego", g.module),
		rego.Input(input),
	)
	rs, err := r.Eval(ctx)
	if err != nil {
		return fmt.Errorf("policy eval: %w", err)
	}
	var reasons []string
	for _, result := range rs {
		for _, expr := range result.Expressions {
			if list, ok := expr.Value.([]any); ok {
				for _, v := range list {
					reasons = append(reasons, fmt.Sprint(v))
				}
			}
		}
	}
	if len(reasons) > 0 {
		return fmt.Errorf("policy denied deployment: %s", strings.Join(reasons, "; "))
	}
	return nil
}
