// pkg/config/loader.go
package config

import (
	"errors"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"stratus/pkg/errs"
)

// FileName is the fixed name of the system configuration document,
// located by searching upward from the working directory.
const FileName = "stratus.yaml"

// Find walks from dir toward the filesystem root looking for FileName.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", errs.Wrap(err, errs.ConfigNotFound, "resolving search dir")
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", errs.Wrap(err, errs.ConfigNotFound, "checking %s", candidate)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errs.New(errs.ConfigNotFound, "no %s found in %s or any parent directory", FileName, dir)
		}
		dir = parent
	}
}

// Load reads and validates the document at path.
func Load(path string, log *zap.SugaredLogger) (*SystemConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errs.Wrap(err, errs.ConfigNotFound, "reading %s", path)
		}
		return nil, errs.Wrap(err, errs.ConfigInvalid, "reading %s", path)
	}
	var cfg SystemConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, errs.Wrap(err, errs.ConfigInvalid, "parsing %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	lintCollisions(&cfg, log)
	return &cfg, nil
}

// LoadFrom locates the document starting at dir and loads it.
func LoadFrom(dir string, log *zap.SugaredLogger) (*SystemConfig, error) {
	path, err := Find(dir)
	if err != nil {
		return nil, err
	}
	return Load(path, log)
}

func lintCollisions(cfg *SystemConfig, log *zap.SugaredLogger) {
	if log == nil {
		return
	}
	warn := func(where string, paths []string) {
		for _, p := range paths {
			log.Warnw("behavior path claimed by multiple entries; last one wins",
				"where", where, "path", p)
		}
	}
	warn("system", cfg.Behaviors.Collisions())
	for key, t := range cfg.Tenants {
		warn("tenant "+key, t.Behaviors.Collisions())
		for subKey, st := range t.SubTenants {
			warn("tenant "+key+" subtenant "+subKey, st.Behaviors.Collisions())
		}
	}
}
