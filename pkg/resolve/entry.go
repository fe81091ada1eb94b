// pkg/resolve/entry.go
package resolve

import (
	"encoding/json"
	"sort"

	"stratus/pkg/errs"
)

// MaxEntryBytes is the CloudFront KeyValueStore value-size limit. An
// entry that serializes past it is rejected, never truncated.
const MaxEntryBytes = 1024

// Entry is the flattened per-domain configuration pushed to the KVS.
// Field names are the wire contract with the edge routing function.
type Entry struct {
	Environment     string     `json:"env"`
	Region          string     `json:"region"`
	SystemKey       string     `json:"systemKey"`
	TenantKey       string     `json:"tenantKey"`
	SubtenantKey    string     `json:"subtenantKey,omitempty"`
	SystemSuffix    string     `json:"ss"`
	TenantSuffix    string     `json:"ts"`
	SubtenantSuffix string     `json:"sts,omitempty"`
	Behaviors       []Behavior `json:"behaviors"`
}

// Level is the entry's own depth: subtenant when SubtenantKey is set,
// tenant otherwise.
func (e Entry) Level() Level {
	if e.SubtenantKey != "" {
		return LevelSubtenant
	}
	return LevelTenant
}

// ResolveSuffix expands a deferred suffix token against the entry,
// following the fallback chain {sts} -> {ts} -> {ss}. Non-placeholder
// values pass through untouched.
func (e Entry) ResolveSuffix(raw string) string {
	for i := 0; i < 3; i++ {
		switch raw {
		case PlaceholderSubtenant:
			raw = e.SubtenantSuffix
		case PlaceholderTenant:
			raw = e.TenantSuffix
		case PlaceholderSystem:
			return e.SystemSuffix
		default:
			return raw
		}
	}
	return raw
}

// Marshal serializes the entry and enforces the KVS value-size cap.
func (e Entry) Marshal() ([]byte, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	if len(raw) > MaxEntryBytes {
		domain := e.TenantKey
		if e.SubtenantKey != "" {
			domain += "/" + e.SubtenantKey
		}
		return nil, errs.New(errs.PayloadTooLarge, "entry for %s is %d bytes (limit %d)", domain, len(raw), MaxEntryBytes)
	}
	return raw, nil
}

// behaviorList flattens a path-keyed map into a path-sorted slice so a
// fixed input always yields the same document bytes.
func behaviorList(m map[string]Behavior) []Behavior {
	out := make([]Behavior, 0, len(m))
	for _, b := range m {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// behaviorMap rebuilds the path-keyed view of an entry's behaviors,
// used as the overlay base when composing a subtenant.
func behaviorMap(list []Behavior) map[string]Behavior {
	out := make(map[string]Behavior, len(list))
	for _, b := range list {
		out[b.Path] = b
	}
	return out
}

// Document maps fully-qualified domains to their entries.
type Document map[string]Entry

// Marshal serializes the whole document, checking every entry against
// the per-value cap first.
func (d Document) Marshal() ([]byte, error) {
	for _, e := range d {
		if _, err := e.Marshal(); err != nil {
			return nil, err
		}
	}
	return json.Marshal(d)
}
