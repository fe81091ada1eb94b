package resolve

import (
	"testing"

	"github.com/stretchr/testify/require"

	"stratus/pkg/config"
	"stratus/pkg/errs"
)

var testSys = SystemInfo{
	SystemKey:    "acme",
	SystemSuffix: "x1",
	Environment:  "dev",
	Region:       "us-east-1",
}

func systemBehaviors(t *testing.T) map[string]Behavior {
	t.Helper()
	m, err := ResolveSet(PlaceholderSystem, testSys.Environment, testSys.Region, config.BehaviorSet{
		Assets: []config.AssetBehavior{{Path: "/static"}},
	}, map[string]string{}, LevelSystem)
	require.NoError(t, err)
	return m
}

func TestComposeTenantInheritsSystemUnchanged(t *testing.T) {
	sys := systemBehaviors(t)
	e, err := ComposeTenant(testSys, sys, "t1", &config.TenantConfig{RootDomain: "t1.com"}, map[string]string{})
	require.NoError(t, err)
	require.Equal(t, behaviorList(sys), e.Behaviors)
	// The base map is cloned, not shared.
	e.Behaviors[0].Suffix = "mutated"
	require.Equal(t, "{ss}", sys["/static"].Suffix)
}

func TestComposeTenantOverridesOnPathCollision(t *testing.T) {
	sys := systemBehaviors(t)
	tc := &config.TenantConfig{
		RootDomain: "t1.com",
		Behaviors: config.BehaviorSet{
			Assets: []config.AssetBehavior{{Path: "/static", Suffix: "own"}},
		},
	}
	e, err := ComposeTenant(testSys, sys, "t1", tc, map[string]string{})
	require.NoError(t, err)
	require.Len(t, e.Behaviors, 1)
	require.Equal(t, "own", e.Behaviors[0].Suffix)
	require.Equal(t, LevelTenant, e.Behaviors[0].Level)
}

func TestComposeTenantSuffixPlaceholder(t *testing.T) {
	sys := systemBehaviors(t)

	e, err := ComposeTenant(testSys, sys, "t1", &config.TenantConfig{RootDomain: "t1.com"}, map[string]string{})
	require.NoError(t, err)
	require.Equal(t, "{ss}", e.TenantSuffix)

	e, err = ComposeTenant(testSys, sys, "t1", &config.TenantConfig{RootDomain: "t1.com", TenantSuffix: "abc123"}, map[string]string{})
	require.NoError(t, err)
	require.Equal(t, "abc123", e.TenantSuffix)
}

func TestComposeTenantNullArguments(t *testing.T) {
	tc := &config.TenantConfig{RootDomain: "t1.com"}

	_, err := ComposeTenant(testSys, nil, "t1", tc, map[string]string{})
	require.True(t, errs.Is(err, errs.NullArgument))
	require.Contains(t, err.Error(), "system behaviors")

	_, err = ComposeTenant(testSys, map[string]Behavior{}, "t1", nil, map[string]string{})
	require.True(t, errs.Is(err, errs.NullArgument))
	require.Contains(t, err.Error(), "tenant config")

	_, err = ComposeTenant(testSys, map[string]Behavior{}, "t1", tc, nil)
	require.True(t, errs.Is(err, errs.NullArgument))
	require.Contains(t, err.Error(), "stack outputs")
}

func TestComposeTenantWrapsResolutionFailure(t *testing.T) {
	tc := &config.TenantConfig{
		RootDomain: "t1.com",
		Behaviors: config.BehaviorSet{
			APIs: []config.APIBehavior{{Path: "/api", APIName: "Gone"}},
		},
	}
	_, err := ComposeTenant(testSys, systemBehaviors(t), "t1", tc, map[string]string{})
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.MissingStackOutput))
	require.Contains(t, err.Error(), `tenant "t1"`)
}

func TestComposeSubtenantOverlaysParent(t *testing.T) {
	sys := systemBehaviors(t)
	parent, err := ComposeTenant(testSys, sys, "t1", &config.TenantConfig{
		RootDomain: "t1.com",
		Behaviors: config.BehaviorSet{
			WebApps: []config.WebAppBehavior{{Path: "/app", AppName: "console"}},
		},
	}, map[string]string{})
	require.NoError(t, err)

	sc := &config.SubtenantConfig{
		Subdomain: "store",
		Behaviors: config.BehaviorSet{
			Assets: []config.AssetBehavior{{Path: "/app", Suffix: "sub"}},
		},
	}
	e, err := ComposeSubtenant(parent, "s1", sc, map[string]string{})
	require.NoError(t, err)

	require.Equal(t, "s1", e.SubtenantKey)
	require.Equal(t, "{ts}", e.SubtenantSuffix)

	byPath := behaviorMap(e.Behaviors)
	require.Len(t, byPath, 2)
	// Subtenant behavior replaced the tenant's /app entry.
	require.Equal(t, KindAssets, byPath["/app"].Kind)
	require.Equal(t, LevelSubtenant, byPath["/app"].Level)
	// Inherited system behavior untouched.
	require.Equal(t, "{ss}", byPath["/static"].Suffix)

	// Parent entry not mutated by the overlay.
	require.Len(t, parent.Behaviors, 2)
	require.Equal(t, KindWebApp, behaviorMap(parent.Behaviors)["/app"].Kind)
}

func TestComposeSubtenantSuffixOverride(t *testing.T) {
	parent, err := ComposeTenant(testSys, systemBehaviors(t), "t1", &config.TenantConfig{RootDomain: "t1.com"}, map[string]string{})
	require.NoError(t, err)

	e, err := ComposeSubtenant(parent, "s1", &config.SubtenantConfig{Subdomain: "store", SubTenantSuffix: "z9"}, map[string]string{})
	require.NoError(t, err)
	require.Equal(t, "z9", e.SubtenantSuffix)
}

func TestComposeSubtenantNullArguments(t *testing.T) {
	parent := Entry{TenantKey: "t1"}

	_, err := ComposeSubtenant(parent, "s1", nil, map[string]string{})
	require.True(t, errs.Is(err, errs.NullArgument))

	_, err = ComposeSubtenant(parent, "s1", &config.SubtenantConfig{Subdomain: "store"}, nil)
	require.True(t, errs.Is(err, errs.NullArgument))
}
