// pkg/resolve/composer.go
package resolve

import (
	"stratus/pkg/config"
	"stratus/pkg/errs"
)

// SystemInfo is the slice of SystemConfig the composer needs.
type SystemInfo struct {
	SystemKey    string
	SystemSuffix string
	Environment  string
	Region       string
}

// ComposeTenant merges the system-level resolved map with the tenant's
// own behaviors (tenant wins on path collision) and builds the tenant's
// entry. systemBehaviors is cloned, never mutated.
func ComposeTenant(sys SystemInfo, systemBehaviors map[string]Behavior, tenantKey string, tenant *config.TenantConfig, outputs map[string]string) (Entry, error) {
	switch {
	case systemBehaviors == nil:
		return Entry{}, errs.New(errs.NullArgument, "tenant %q: system behaviors not supplied", tenantKey)
	case tenant == nil:
		return Entry{}, errs.New(errs.NullArgument, "tenant %q: tenant config not supplied", tenantKey)
	case outputs == nil:
		return Entry{}, errs.New(errs.NullArgument, "tenant %q: stack outputs not supplied", tenantKey)
	}

	own, err := ResolveSet(PlaceholderTenant, sys.Environment, sys.Region, tenant.Behaviors, outputs, LevelTenant)
	if err != nil {
		return Entry{}, errs.Wrap(err, "", "composing tenant %q", tenantKey)
	}

	merged := make(map[string]Behavior, len(systemBehaviors)+len(own))
	for p, b := range systemBehaviors {
		merged[p] = b
	}
	for p, b := range own {
		merged[p] = b
	}

	ts := tenant.TenantSuffix
	if ts == "" {
		ts = PlaceholderSystem
	}
	return Entry{
		Environment:  sys.Environment,
		Region:       sys.Region,
		SystemKey:    sys.SystemKey,
		TenantKey:    tenantKey,
		SystemSuffix: sys.SystemSuffix,
		TenantSuffix: ts,
		Behaviors:    behaviorList(merged),
	}, nil
}

// ComposeSubtenant overlays the subtenant's own behaviors on the parent
// tenant's already-merged map. The base is the flattened parent entry,
// not a separate system/tenant split.
func ComposeSubtenant(parent Entry, subtenantKey string, sub *config.SubtenantConfig, outputs map[string]string) (Entry, error) {
	switch {
	case sub == nil:
		return Entry{}, errs.New(errs.NullArgument, "subtenant %q: subtenant config not supplied", subtenantKey)
	case outputs == nil:
		return Entry{}, errs.New(errs.NullArgument, "subtenant %q: stack outputs not supplied", subtenantKey)
	}

	own, err := ResolveSet(PlaceholderSubtenant, parent.Environment, parent.Region, sub.Behaviors, outputs, LevelSubtenant)
	if err != nil {
		return Entry{}, errs.Wrap(err, "", "composing subtenant %q", subtenantKey)
	}

	merged := behaviorMap(parent.Behaviors)
	for p, b := range own {
		merged[p] = b
	}

	sts := sub.SubTenantSuffix
	if sts == "" {
		sts = PlaceholderTenant
	}
	e := parent
	e.SubtenantKey = subtenantKey
	e.SubtenantSuffix = sts
	e.Behaviors = behaviorList(merged)
	return e, nil
}
