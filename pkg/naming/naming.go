// pkg/naming/naming.go
package naming

import (
	"regexp"
	"strings"

	"stratus/pkg/resolve"
)

// NameKind distinguishes the resource class a derived name refers to.
type NameKind string

const (
	KindBucket NameKind = "s3-bucket"
	KindTable  NameKind = "dynamodb-table"
)

// Name is one derived resource name, consumed by the provisioner.
type Name struct {
	Kind  NameKind `json:"kind"`
	Value string   `json:"value"`
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// slug lowercases and dashes a path or app name into a label usable in
// bucket/table names.
func slug(s string) string {
	s = nonAlnum.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "-")
}

// AssetNames derives the resource names an entry needs provisioned.
// Only behaviors whose level matches the entry's own level count:
// inherited system/tenant behaviors were provisioned with their owner
// and are not re-provisioned per child domain. Deferred suffix tokens
// are expanded here because real resources need real names.
//
// The result is cheap to recompute and carries no side effects; callers
// may re-derive it freely.
func AssetNames(e resolve.Entry) []Name {
	level := e.Level()
	var out []Name
	for _, b := range e.Behaviors {
		if b.Level != level {
			continue
		}
		var label string
		switch b.Kind {
		case resolve.KindAssets:
			label = slug(b.Path)
			if label == "" {
				label = "root"
			}
		case resolve.KindWebApp:
			label = slug(b.AppName)
		default:
			continue
		}
		out = append(out, Name{Kind: KindBucket, Value: BucketName(e, label, b.Suffix)})
	}
	return out
}

// BucketName assembles a bucket name from the entry's key fields, a
// behavior label and the behavior's (possibly deferred) suffix.
func BucketName(e resolve.Entry, label, suffix string) string {
	parts := []string{e.SystemKey, e.TenantKey}
	if e.SubtenantKey != "" {
		parts = append(parts, e.SubtenantKey)
	}
	parts = append(parts, label)
	if s := slug(e.ResolveSuffix(suffix)); s != "" {
		parts = append(parts, s)
	}
	return slug(strings.Join(parts, "-"))
}

// TableName derives the entry's DynamoDB table name.
func TableName(e resolve.Entry) Name {
	parts := []string{e.SystemKey, e.TenantKey}
	if e.SubtenantKey != "" {
		parts = append(parts, e.SubtenantKey)
	}
	parts = append(parts, "data")
	if s := slug(e.ResolveSuffix(entrySuffix(e))); s != "" {
		parts = append(parts, s)
	}
	return Name{Kind: KindTable, Value: strings.Join(parts, "-")}
}

// AllNames is AssetNames plus the entry's table name.
func AllNames(e resolve.Entry) []Name {
	return append(AssetNames(e), TableName(e))
}

// entrySuffix picks the deferred token owned by the entry's own level.
func entrySuffix(e resolve.Entry) string {
	if e.SubtenantKey != "" {
		return resolve.PlaceholderSubtenant
	}
	return resolve.PlaceholderTenant
}
