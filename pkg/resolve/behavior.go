// pkg/resolve/behavior.go
package resolve

import (
	"encoding/json"
	"fmt"
)

// Level is the ordinal depth in the system/tenant/subtenant hierarchy.
type Level int

const (
	LevelSystem    Level = 0
	LevelTenant    Level = 1
	LevelSubtenant Level = 2
)

// Suffix placeholders preserved verbatim in the output payload. The
// edge routing function substitutes the real suffix at request time, so
// resolution must not expand these eagerly.
const (
	PlaceholderSystem    = "{ss}"
	PlaceholderTenant    = "{ts}"
	PlaceholderSubtenant = "{sts}"
)

type Kind string

const (
	KindAssets Kind = "assets"
	KindWebApp Kind = "webapp"
	KindAPI    Kind = "api"
)

// Behavior is one resolved routing rule. Internally a tagged union;
// on the wire a flat positional array:
//
//	assets: [path, "assets", suffix, region, level]
//	webapp: [path, "webapp", appName, suffix, region, level]
//	api:    [path, "api", apiId, region, environment]
//
// API tuples carry the environment where asset/webapp tuples carry the
// level. API identity is environment-scoped, not domain-level-scoped;
// the asymmetry is part of the wire contract with the edge function.
type Behavior struct {
	Path string
	Kind Kind

	// assets / webapp
	Suffix string
	Level  Level

	// webapp only
	AppName string

	// api only
	APIID       string
	Environment string

	// all kinds
	Region string
}

func (b Behavior) MarshalJSON() ([]byte, error) {
	var tuple []any
	switch b.Kind {
	case KindAssets:
		tuple = []any{b.Path, string(b.Kind), b.Suffix, b.Region, int(b.Level)}
	case KindWebApp:
		tuple = []any{b.Path, string(b.Kind), b.AppName, b.Suffix, b.Region, int(b.Level)}
	case KindAPI:
		tuple = []any{b.Path, string(b.Kind), b.APIID, b.Region, b.Environment}
	default:
		return nil, fmt.Errorf("behavior %q: unknown kind %q", b.Path, b.Kind)
	}
	return json.Marshal(tuple)
}

func (b *Behavior) UnmarshalJSON(data []byte) error {
	var tuple []any
	if err := json.Unmarshal(data, &tuple); err != nil {
		return err
	}
	if len(tuple) < 2 {
		return fmt.Errorf("behavior tuple too short: %d elements", len(tuple))
	}
	path, _ := tuple[0].(string)
	kind, _ := tuple[1].(string)
	str := func(i int) string {
		if i < len(tuple) {
			s, _ := tuple[i].(string)
			return s
		}
		return ""
	}
	lvl := func(i int) Level {
		if i < len(tuple) {
			if f, ok := tuple[i].(float64); ok {
				return Level(int(f))
			}
		}
		return LevelSystem
	}
	switch Kind(kind) {
	case KindAssets:
		*b = Behavior{Path: path, Kind: KindAssets, Suffix: str(2), Region: str(3), Level: lvl(4)}
	case KindWebApp:
		*b = Behavior{Path: path, Kind: KindWebApp, AppName: str(2), Suffix: str(3), Region: str(4), Level: lvl(5)}
	case KindAPI:
		*b = Behavior{Path: path, Kind: KindAPI, APIID: str(2), Region: str(3), Environment: str(4)}
	default:
		return fmt.Errorf("behavior %q: unknown kind %q", path, kind)
	}
	return nil
}
