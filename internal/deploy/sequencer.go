// internal/deploy/sequencer.go
package deploy

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"stratus/internal/audit"
	"stratus/internal/policy"
	"stratus/pkg/config"
	"stratus/pkg/kvs"
	"stratus/pkg/provision"
	"stratus/pkg/resolve"
)

// baseStackOrder is the fixed dependency order of the shared stacks.
// Tenant stacks follow, one per tenant key.
var baseStackOrder = []string{
	"resources",
	"system",
	"policies",
	"service",
	"auths",
	"perms",
}

// StackDeployer pushes one stack. Packaging and template mechanics
// (sam/cdk shell-outs) live behind this interface.
type StackDeployer interface {
	Deploy(ctx context.Context, stackName string) error
}

// Sequencer drives a full deployment: stacks in dependency order, then
// resource provisioning, a policy gate, and the KVS publish.
type Sequencer struct {
	cfg      *config.SystemConfig
	deployer StackDeployer
	walker   *resolve.Walker
	prov     *provision.Provisioner
	sink     kvs.Sink
	gate     *policy.Gate
	store    audit.Store
	log      *zap.SugaredLogger
}

func NewSequencer(cfg *config.SystemConfig, deployer StackDeployer, walker *resolve.Walker, prov *provision.Provisioner, sink kvs.Sink, gate *policy.Gate, store audit.Store, log *zap.SugaredLogger) *Sequencer {
	return &Sequencer{cfg: cfg, deployer: deployer, walker: walker, prov: prov, sink: sink, gate: gate, store: store, log: log}
}

// Run executes the whole sequence. The tenantKey restricts the tenant
// stack and document to one tenant; empty means all tenants.
func (s *Sequencer) Run(ctx context.Context, tenantKey string) (audit.Run, error) {
	run := audit.Run{
		ID:        uuid.NewString(),
		TenantKey: tenantKey,
		StartedAt: time.Now().UTC(),
	}
	err := s.run(ctx, tenantKey, &run)
	run.FinishedAt = time.Now().UTC()
	if err != nil {
		run.Status = "failed"
	} else {
		run.Status = "succeeded"
	}
	if s.store != nil {
		if rerr := s.store.RecordRun(ctx, run); rerr != nil && s.log != nil {
			s.log.Warnw("recording deploy run", "run", run.ID, "err", rerr)
		}
	}
	return run, err
}

func (s *Sequencer) run(ctx context.Context, tenantKey string, run *audit.Run) error {
	for _, part := range s.stackParts(tenantKey) {
		name := s.cfg.StackName(part)
		if err := s.step(ctx, run, "deploy:"+name, func() error {
			return s.deployer.Deploy(ctx, name)
		}); err != nil {
			return err
		}
	}

	var doc resolve.Document
	if err := s.step(ctx, run, "resolve", func() error {
		var err error
		if tenantKey != "" {
			doc, err = s.walker.BuildTenantDocument(ctx, tenantKey)
		} else {
			doc, err = s.walker.BuildAllDocuments(ctx)
		}
		return err
	}); err != nil {
		return err
	}

	raw, err := doc.Marshal()
	if err != nil {
		return err
	}
	hash := sha256.Sum256(raw)
	run.DocumentHash = hex.EncodeToString(hash[:])
	publishNeeded := !s.alreadyPublished(ctx, tenantKey, run.DocumentHash)

	if s.gate != nil {
		if err := s.step(ctx, run, "policy", func() error {
			return s.gate.Check(ctx, doc)
		}); err != nil {
			return err
		}
	}

	if s.prov != nil {
		if err := s.step(ctx, run, "provision", func() error {
			for _, domain := range sortedDomains(doc) {
				if err := s.prov.EnsureEntry(ctx, doc[domain]); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			return err
		}
	}

	if !publishNeeded {
		if s.log != nil {
			s.log.Infow("document unchanged since last successful run, skipping publish",
				"run", run.ID, "documentHash", run.DocumentHash)
		}
		return nil
	}
	return s.step(ctx, run, "publish", func() error {
		return kvs.Publish(ctx, s.sink, doc)
	})
}

// alreadyPublished reports whether the most recent recorded run for the
// same tenant selection succeeded with an identical document hash, in
// which case the KVS already holds these entries.
func (s *Sequencer) alreadyPublished(ctx context.Context, tenantKey, hash string) bool {
	if s.store == nil {
		return false
	}
	runs, err := s.store.ListRuns(ctx, 1)
	if err != nil || len(runs) == 0 {
		return false
	}
	last := runs[0]
	return last.Status == "succeeded" && last.TenantKey == tenantKey && last.DocumentHash == hash
}

func (s *Sequencer) stackParts(tenantKey string) []string {
	parts := append([]string{}, baseStackOrder...)
	if tenantKey != "" {
		return append(parts, "tenant-"+tenantKey)
	}
	keys := make([]string, 0, len(s.cfg.Tenants))
	for k := range s.cfg.Tenants {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, "tenant-"+k)
	}
	return parts
}

func (s *Sequencer) step(ctx context.Context, run *audit.Run, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	res := audit.StepResult{Name: name, Status: "ok", Duration: time.Since(start)}
	if err != nil {
		res.Status = "failed"
		res.Error = err.Error()
	}
	run.Steps = append(run.Steps, res)
	if s.log != nil {
		if err != nil {
			s.log.Errorw("deploy step failed", "run", run.ID, "step", name, "err", err)
		} else {
			s.log.Infow("deploy step", "run", run.ID, "step", name, "took", res.Duration)
		}
	}
	return err
}

func sortedDomains(doc resolve.Document) []string {
	out := make([]string, 0, len(doc))
	for d := range doc {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
