// pkg/config/model.go
package config

import (
	"strings"

	"stratus/pkg/errs"
)

// SystemConfig is the root document (stratus.yaml). It is loaded once
// per run and treated as immutable for the run's duration.
type SystemConfig struct {
	SystemKey    string                  `yaml:"systemKey"`
	SystemSuffix string                  `yaml:"systemSuffix"`
	Environment  string                  `yaml:"environment"`
	Region       string                  `yaml:"region"`
	Profile      string                  `yaml:"profile"`
	Behaviors    BehaviorSet             `yaml:"behaviors"`
	Tenants      map[string]TenantConfig `yaml:"tenants"`
}

type TenantConfig struct {
	RootDomain        string                     `yaml:"rootDomain"`
	HostedZoneID      string                     `yaml:"hostedZoneId"`
	AcmCertificateArn string                     `yaml:"acmCertificateArn"`
	TenantSuffix      string                     `yaml:"tenantSuffix"`
	Behaviors         BehaviorSet                `yaml:"behaviors"`
	SubTenants        map[string]SubtenantConfig `yaml:"subTenants"`
}

type SubtenantConfig struct {
	Subdomain       string      `yaml:"subdomain"`
	SubTenantSuffix string      `yaml:"subTenantSuffix"`
	Behaviors       BehaviorSet `yaml:"behaviors"`
}

// BehaviorSet holds the raw routing rules declared at one level of the
// hierarchy. Paths are prefix keys; suffix/region default to the
// enclosing level's values when empty.
type BehaviorSet struct {
	Assets  []AssetBehavior  `yaml:"assets"`
	WebApps []WebAppBehavior `yaml:"webApps"`
	APIs    []APIBehavior    `yaml:"apis"`
}

type AssetBehavior struct {
	Path   string `yaml:"path"`
	Suffix string `yaml:"suffix"`
	Region string `yaml:"region"`
}

type WebAppBehavior struct {
	Path    string `yaml:"path"`
	AppName string `yaml:"appName"`
	Suffix  string `yaml:"suffix"`
	Region  string `yaml:"region"`
}

type APIBehavior struct {
	Path    string `yaml:"path"`
	APIName string `yaml:"apiName"`
	Region  string `yaml:"region"`
}

// Empty reports whether the set declares no behaviors at all.
func (s BehaviorSet) Empty() bool {
	return len(s.Assets) == 0 && len(s.WebApps) == 0 && len(s.APIs) == 0
}

// StackName derives the CloudFormation stack name for one part of the
// deployment (resources, system, policies, service, auths, perms,
// tenant-<key>).
func (c *SystemConfig) StackName(part string) string {
	return c.SystemKey + c.SystemSuffix + "---" + part
}

// ServiceStackName is the stack whose outputs feed behavior resolution
// (API ids, KVS ARN).
func (c *SystemConfig) ServiceStackName() string {
	return c.StackName("service")
}

// Validate checks required fields. Collision linting is separate
// (Collisions) because cross-list path reuse is legal, just suspicious.
func (c *SystemConfig) Validate() error {
	if strings.TrimSpace(c.SystemKey) == "" {
		return errs.New(errs.ConfigInvalid, "systemKey is required")
	}
	if strings.TrimSpace(c.Environment) == "" {
		return errs.New(errs.ConfigInvalid, "environment is required")
	}
	if strings.TrimSpace(c.Region) == "" {
		return errs.New(errs.ConfigInvalid, "region is required")
	}
	if err := c.Behaviors.validate("system"); err != nil {
		return err
	}
	for key, t := range c.Tenants {
		if strings.TrimSpace(key) == "" {
			return errs.New(errs.ConfigInvalid, "tenant with empty key")
		}
		if strings.TrimSpace(t.RootDomain) == "" {
			return errs.New(errs.ConfigInvalid, "tenant %q: rootDomain is required", key)
		}
		if err := t.Behaviors.validate("tenant " + key); err != nil {
			return err
		}
		for subKey, st := range t.SubTenants {
			if strings.TrimSpace(subKey) == "" {
				return errs.New(errs.ConfigInvalid, "tenant %q: subtenant with empty key", key)
			}
			if strings.TrimSpace(st.Subdomain) == "" {
				return errs.New(errs.ConfigInvalid, "tenant %q subtenant %q: subdomain is required", key, subKey)
			}
			if err := st.Behaviors.validate("tenant " + key + " subtenant " + subKey); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s BehaviorSet) validate(where string) error {
	for _, a := range s.Assets {
		if strings.TrimSpace(a.Path) == "" {
			return errs.New(errs.ConfigInvalid, "%s: asset behavior with empty path", where)
		}
	}
	for _, w := range s.WebApps {
		if strings.TrimSpace(w.Path) == "" {
			return errs.New(errs.ConfigInvalid, "%s: web app behavior with empty path", where)
		}
		if strings.TrimSpace(w.AppName) == "" {
			return errs.New(errs.ConfigInvalid, "%s: web app behavior %q: appName is required", where, w.Path)
		}
	}
	for _, a := range s.APIs {
		if strings.TrimSpace(a.Path) == "" {
			return errs.New(errs.ConfigInvalid, "%s: api behavior with empty path", where)
		}
		if strings.TrimSpace(a.APIName) == "" {
			return errs.New(errs.ConfigInvalid, "%s: api behavior %q: apiName is required", where, a.Path)
		}
	}
	return nil
}

// Collisions returns the paths claimed by more than one behavior entry
// within the set. Resolution keeps last-write-wins (assets, then web
// apps, then APIs); the loader logs these so config authors notice.
func (s BehaviorSet) Collisions() []string {
	seen := map[string]int{}
	for _, a := range s.Assets {
		seen[a.Path]++
	}
	for _, w := range s.WebApps {
		seen[w.Path]++
	}
	for _, a := range s.APIs {
		seen[a.Path]++
	}
	var out []string
	for p, n := range seen {
		if n > 1 {
			out = append(out, p)
		}
	}
	return out
}

// CheckRegion enforces that the document's region matches the region
// bound to the active credential profile. A mismatch deploys stacks in
// one region while naming resources for another, so it is fatal.
func (c *SystemConfig) CheckRegion(activeRegion string) error {
	if activeRegion != "" && activeRegion != c.Region {
		return errs.New(errs.ConfigInvalid,
			"region %q in config does not match active profile region %q", c.Region, activeRegion)
	}
	return nil
}
