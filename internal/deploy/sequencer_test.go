package deploy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"stratus/internal/audit"
	"stratus/pkg/config"
	"stratus/pkg/kvs"
	"stratus/pkg/resolve"
	"stratus/pkg/stacks"
)

type recordingDeployer struct {
	stacks []string
	failOn string
}

func (d *recordingDeployer) Deploy(ctx context.Context, stackName string) error {
	d.stacks = append(d.stacks, stackName)
	if d.failOn != "" && stackName == d.failOn {
		return errors.New("boom")
	}
	return nil
}

type countingSink struct{ puts int }

func (s *countingSink) Put(ctx context.Context, key string, value []byte) error {
	s.puts++
	return nil
}

func seqConfig() *config.SystemConfig {
	return &config.SystemConfig{
		SystemKey:    "acme",
		SystemSuffix: "x1",
		Environment:  "dev",
		Region:       "us-east-1",
		Behaviors: config.BehaviorSet{
			Assets: []config.AssetBehavior{{Path: "/static"}},
		},
		Tenants: map[string]config.TenantConfig{
			"t1": {RootDomain: "t1.com"},
			"t2": {RootDomain: "t2.com"},
		},
	}
}

func newSequencer(cfg *config.SystemConfig, d StackDeployer, sink kvs.Sink, store audit.Store) *Sequencer {
	reader := stacks.NewMemoryReader(map[string]map[string]string{
		"acmex1---service": {"Anything": "here"},
	})
	walker := resolve.NewWalker(cfg, reader, nil)
	return NewSequencer(cfg, d, walker, nil, sink, nil, store, nil)
}

func TestRunDeploysStacksInOrder(t *testing.T) {
	d := &recordingDeployer{}
	sink := &countingSink{}
	store := audit.NewMemoryStore()

	run, err := newSequencer(seqConfig(), d, sink, store).Run(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, "succeeded", run.Status)
	require.NotEmpty(t, run.DocumentHash)

	require.Equal(t, []string{
		"acmex1---resources",
		"acmex1---system",
		"acmex1---policies",
		"acmex1---service",
		"acmex1---auths",
		"acmex1---perms",
		"acmex1---tenant-t1",
		"acmex1---tenant-t2",
	}, d.stacks)
	require.Equal(t, 2, sink.puts)

	runs, err := store.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, run.ID, runs[0].ID)
}

func TestRunSingleTenant(t *testing.T) {
	d := &recordingDeployer{}
	sink := &countingSink{}

	run, err := newSequencer(seqConfig(), d, sink, audit.NewMemoryStore()).Run(context.Background(), "t1")
	require.NoError(t, err)
	require.Equal(t, "t1", run.TenantKey)
	require.Equal(t, "acmex1---tenant-t1", d.stacks[len(d.stacks)-1])
	require.NotContains(t, d.stacks, "acmex1---tenant-t2")
	require.Equal(t, 1, sink.puts)
}

func TestRunSkipsPublishWhenDocumentUnchanged(t *testing.T) {
	sink := &countingSink{}
	store := audit.NewMemoryStore()
	seq := newSequencer(seqConfig(), &recordingDeployer{}, sink, store)

	_, err := seq.Run(context.Background(), "t1")
	require.NoError(t, err)
	require.Equal(t, 1, sink.puts)

	run, err := seq.Run(context.Background(), "t1")
	require.NoError(t, err)
	require.Equal(t, "succeeded", run.Status)
	require.Equal(t, 1, sink.puts, "identical document is not re-published")

	// A different tenant selection publishes again.
	_, err = seq.Run(context.Background(), "t2")
	require.NoError(t, err)
	require.Equal(t, 2, sink.puts)
}

func TestRunStackFailureAbortsBeforePublish(t *testing.T) {
	d := &recordingDeployer{failOn: "acmex1---policies"}
	sink := &countingSink{}
	store := audit.NewMemoryStore()

	run, err := newSequencer(seqConfig(), d, sink, store).Run(context.Background(), "t1")
	require.Error(t, err)
	require.Equal(t, "failed", run.Status)
	require.Zero(t, sink.puts)

	last := run.Steps[len(run.Steps)-1]
	require.Equal(t, "deploy:acmex1---policies", last.Name)
	require.Equal(t, "failed", last.Status)
	require.Contains(t, last.Error, "boom")

	// Failed runs are recorded too.
	runs, err := store.ListRuns(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, "failed", runs[0].Status)
}

func TestRunResolveFailureRecorded(t *testing.T) {
	cfg := seqConfig()
	cfg.Behaviors.APIs = []config.APIBehavior{{Path: "/api", APIName: "Missing"}}

	sink := &countingSink{}
	run, err := newSequencer(cfg, &recordingDeployer{}, sink, audit.NewMemoryStore()).Run(context.Background(), "t1")
	require.Error(t, err)
	require.Equal(t, "failed", run.Status)
	require.Zero(t, sink.puts)
	require.Equal(t, "resolve", run.Steps[len(run.Steps)-1].Name)
}
