// pkg/resolve/walker.go
package resolve

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"stratus/pkg/config"
	"stratus/pkg/errs"
)

// StackOutputReader supplies exported outputs of a deployed stack.
// Retry/timeout policy belongs to the implementation, not here.
type StackOutputReader interface {
	GetOutputs(ctx context.Context, stackName string) (map[string]string, error)
}

// Walker builds per-tenant domain documents from the loaded config and
// live stack outputs. It holds no mutable state across calls.
type Walker struct {
	cfg    *config.SystemConfig
	stacks StackOutputReader
	log    *zap.SugaredLogger
}

func NewWalker(cfg *config.SystemConfig, stacks StackOutputReader, log *zap.SugaredLogger) *Walker {
	return &Walker{cfg: cfg, stacks: stacks, log: log}
}

// BuildTenantDocument walks system -> tenant -> subtenants for one
// tenant and returns the domain-keyed document.
//
// Stack outputs are fetched once and shared read-only across the whole
// build, so every entry reflects one consistent snapshot. A failure
// composing any entry aborts the build; no partial document is emitted.
func (w *Walker) BuildTenantDocument(ctx context.Context, tenantKey string) (Document, error) {
	tenant, ok := w.cfg.Tenants[tenantKey]
	if !ok {
		return nil, errs.New(errs.UnknownTenant, "tenant %q not found (known: %s)", tenantKey, strings.Join(w.knownTenants(), ", "))
	}

	outputs, err := w.stacks.GetOutputs(ctx, w.cfg.ServiceStackName())
	if err != nil {
		return nil, errs.Wrap(err, "", "fetching outputs of %s", w.cfg.ServiceStackName())
	}

	sys := SystemInfo{
		SystemKey:    w.cfg.SystemKey,
		SystemSuffix: w.cfg.SystemSuffix,
		Environment:  w.cfg.Environment,
		Region:       w.cfg.Region,
	}

	systemBehaviors, err := ResolveSet(PlaceholderSystem, sys.Environment, sys.Region, w.cfg.Behaviors, outputs, LevelSystem)
	if err != nil {
		return nil, errs.Wrap(err, "", "resolving system behaviors")
	}

	doc := Document{}
	tenantEntry, err := ComposeTenant(sys, systemBehaviors, tenantKey, &tenant, outputs)
	if err != nil {
		return nil, err
	}
	doc[tenant.RootDomain] = tenantEntry

	for subKey, sub := range tenant.SubTenants {
		sub := sub
		subEntry, err := ComposeSubtenant(tenantEntry, subKey, &sub, outputs)
		if err != nil {
			return nil, errs.Wrap(err, "", "tenant %q", tenantKey)
		}
		doc[sub.Subdomain+"."+tenant.RootDomain] = subEntry
	}

	if w.log != nil {
		w.log.Debugw("built tenant document", "tenant", tenantKey, "domains", len(doc))
	}
	return doc, nil
}

// BuildAllDocuments builds and merges the documents of every tenant in
// the config, in sorted key order.
func (w *Walker) BuildAllDocuments(ctx context.Context) (Document, error) {
	doc := Document{}
	for _, key := range w.knownTenants() {
		part, err := w.BuildTenantDocument(ctx, key)
		if err != nil {
			return nil, err
		}
		for domain, e := range part {
			doc[domain] = e
		}
	}
	return doc, nil
}

func (w *Walker) knownTenants() []string {
	keys := make([]string, 0, len(w.cfg.Tenants))
	for k := range w.cfg.Tenants {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
