// pkg/resolve/resolver.go
package resolve

import (
	"stratus/pkg/config"
	"stratus/pkg/errs"
)

// ResolveSet flattens one level's raw behavior set into a path-keyed
// map. Processing order is assets, then web apps, then APIs; a later
// entry sharing a path overwrites an earlier one (last-write-wins, not
// a validation error; the loader lints collisions separately).
//
// suffixPlaceholder is the deferred-suffix token for this level
// ({ss}/{ts}/{sts}); it is used whenever an entry does not declare its
// own suffix. Region defaults the same way against the call's region.
// level is stamped on asset/webapp tuples; API tuples stamp the
// environment instead.
//
// The API id comes from outputs["<ApiName>Id"]; an absent key fails the
// whole call with MissingStackOutput, returning no partial map.
func ResolveSet(suffixPlaceholder, environment, region string, set config.BehaviorSet, outputs map[string]string, level Level) (map[string]Behavior, error) {
	out := make(map[string]Behavior, len(set.Assets)+len(set.WebApps)+len(set.APIs))

	def := func(v, fallback string) string {
		if v != "" {
			return v
		}
		return fallback
	}

	for _, a := range set.Assets {
		out[a.Path] = Behavior{
			Path:   a.Path,
			Kind:   KindAssets,
			Suffix: def(a.Suffix, suffixPlaceholder),
			Region: def(a.Region, region),
			Level:  level,
		}
	}
	for _, w := range set.WebApps {
		out[w.Path] = Behavior{
			Path:    w.Path,
			Kind:    KindWebApp,
			AppName: w.AppName,
			Suffix:  def(w.Suffix, suffixPlaceholder),
			Region:  def(w.Region, region),
			Level:   level,
		}
	}
	for _, a := range set.APIs {
		id, ok := outputs[a.APIName+"Id"]
		if !ok {
			return nil, errs.New(errs.MissingStackOutput, "api %q: output %q not found in service stack", a.APIName, a.APIName+"Id")
		}
		out[a.Path] = Behavior{
			Path:        a.Path,
			Kind:        KindAPI,
			APIID:       id,
			Region:      def(a.Region, region),
			Environment: environment,
		}
	}
	return out, nil
}
