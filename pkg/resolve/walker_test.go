package resolve

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"stratus/pkg/config"
	"stratus/pkg/errs"
)

type fakeReader struct {
	outputs map[string]map[string]string
	calls   int
}

func (f *fakeReader) GetOutputs(ctx context.Context, stackName string) (map[string]string, error) {
	f.calls++
	outs, ok := f.outputs[stackName]
	if !ok {
		return nil, errs.New(errs.StackNotFound, "stack %q", stackName)
	}
	return outs, nil
}

func testConfig() *config.SystemConfig {
	return &config.SystemConfig{
		SystemKey:    "acme",
		SystemSuffix: "x1",
		Environment:  "dev",
		Region:       "us-east-1",
		Behaviors: config.BehaviorSet{
			Assets: []config.AssetBehavior{{Path: "/static"}},
		},
		Tenants: map[string]config.TenantConfig{
			"t1": {
				RootDomain: "t1.com",
				Behaviors: config.BehaviorSet{
					APIs: []config.APIBehavior{{Path: "/api", APIName: "Public"}},
				},
				SubTenants: map[string]config.SubtenantConfig{
					"s1": {
						Subdomain: "store",
						Behaviors: config.BehaviorSet{
							Assets: []config.AssetBehavior{{Path: "/img"}},
						},
					},
				},
			},
		},
	}
}

func TestBuildTenantDocumentEndToEnd(t *testing.T) {
	reader := &fakeReader{outputs: map[string]map[string]string{
		"acmex1---service": {"PublicId": "abc"},
	}}
	w := NewWalker(testConfig(), reader, nil)

	doc, err := w.BuildTenantDocument(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, doc, 2)
	require.Contains(t, doc, "t1.com")
	require.Contains(t, doc, "store.t1.com")

	e := doc["t1.com"]
	require.Equal(t, "{ss}", e.TenantSuffix)

	raw, err := json.Marshal(e)
	require.NoError(t, err)
	var wire struct {
		Behaviors [][]any `json:"behaviors"`
		TS        string  `json:"ts"`
	}
	require.NoError(t, json.Unmarshal(raw, &wire))
	require.Equal(t, "{ss}", wire.TS)
	require.Contains(t, wire.Behaviors, []any{"/api", "api", "abc", "us-east-1", "dev"})
	require.Contains(t, wire.Behaviors, []any{"/static", "assets", "{ss}", "us-east-1", float64(0)})

	// The outputs snapshot is fetched once for the whole build.
	require.Equal(t, 1, reader.calls)
}

func TestBuildTenantDocumentSubtenantEntry(t *testing.T) {
	reader := &fakeReader{outputs: map[string]map[string]string{
		"acmex1---service": {"PublicId": "abc"},
	}}
	doc, err := NewWalker(testConfig(), reader, nil).BuildTenantDocument(context.Background(), "t1")
	require.NoError(t, err)

	e := doc["store.t1.com"]
	require.Equal(t, "s1", e.SubtenantKey)
	require.Equal(t, "{ts}", e.SubtenantSuffix)
	byPath := behaviorMap(e.Behaviors)
	require.Len(t, byPath, 3)
	require.Equal(t, LevelSubtenant, byPath["/img"].Level)
	require.Equal(t, LevelSystem, byPath["/static"].Level)
}

func TestBuildTenantDocumentUnknownTenant(t *testing.T) {
	reader := &fakeReader{outputs: map[string]map[string]string{}}
	_, err := NewWalker(testConfig(), reader, nil).BuildTenantDocument(context.Background(), "nope")
	require.True(t, errs.Is(err, errs.UnknownTenant))
	require.Contains(t, err.Error(), "t1", "known keys listed for diagnostics")
	require.Zero(t, reader.calls, "no stack fetch for an unknown tenant")
}

func TestBuildTenantDocumentAllOrNothing(t *testing.T) {
	cfg := testConfig()
	tenant := cfg.Tenants["t1"]
	tenant.SubTenants["bad"] = config.SubtenantConfig{
		Subdomain: "bad",
		Behaviors: config.BehaviorSet{
			APIs: []config.APIBehavior{{Path: "/x", APIName: "Missing"}},
		},
	}
	cfg.Tenants["t1"] = tenant

	reader := &fakeReader{outputs: map[string]map[string]string{
		"acmex1---service": {"PublicId": "abc"},
	}}
	doc, err := NewWalker(cfg, reader, nil).BuildTenantDocument(context.Background(), "t1")
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.MissingStackOutput))
	require.Nil(t, doc, "no partial document")
}

func TestBuildTenantDocumentStackFailurePropagates(t *testing.T) {
	reader := &fakeReader{outputs: map[string]map[string]string{}}
	_, err := NewWalker(testConfig(), reader, nil).BuildTenantDocument(context.Background(), "t1")
	require.True(t, errs.Is(err, errs.StackNotFound))
}

func TestDocumentDeterministic(t *testing.T) {
	reader := &fakeReader{outputs: map[string]map[string]string{
		"acmex1---service": {"PublicId": "abc"},
	}}
	w := NewWalker(testConfig(), reader, nil)

	a, err := w.BuildTenantDocument(context.Background(), "t1")
	require.NoError(t, err)
	b, err := w.BuildTenantDocument(context.Background(), "t1")
	require.NoError(t, err)

	rawA, err := a.Marshal()
	require.NoError(t, err)
	rawB, err := b.Marshal()
	require.NoError(t, err)
	require.Equal(t, rawA, rawB)
}

// Entries produced from representative configs must stay inside the
// KVS value cap with headroom for growth.
func TestEntrySizeWithinKVSLimit(t *testing.T) {
	cfg := testConfig()
	tenant := cfg.Tenants["t1"]
	tenant.Behaviors.Assets = []config.AssetBehavior{
		{Path: "/static"}, {Path: "/media"}, {Path: "/downloads"},
	}
	tenant.Behaviors.WebApps = []config.WebAppBehavior{
		{Path: "/app", AppName: "console"}, {Path: "/admin", AppName: "backoffice"},
	}
	cfg.Tenants["t1"] = tenant

	reader := &fakeReader{outputs: map[string]map[string]string{
		"acmex1---service": {"PublicId": "a1b2c3d4e5"},
	}}
	doc, err := NewWalker(cfg, reader, nil).BuildTenantDocument(context.Background(), "t1")
	require.NoError(t, err)
	for domain, e := range doc {
		raw, err := e.Marshal()
		require.NoError(t, err, "entry for %s", domain)
		require.LessOrEqual(t, len(raw), MaxEntryBytes)
	}
}
