// internal/configapi/app.go
package configapi

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"stratus/pkg/config"
	"stratus/pkg/resolve"
)

// App is the read-only config service: it serves resolved tenant
// documents and derived resource names over HTTP.
type App struct {
	log      *zap.SugaredLogger
	settings config.Settings
	cfg      *config.SystemConfig
	walker   *resolve.Walker
	rdb      *redis.Client

	mu    sync.RWMutex
	local map[string]cachedDoc
}

type cachedDoc struct {
	loadedAt time.Time
	doc      resolve.Document
}

func New(log *zap.SugaredLogger, settings config.Settings, cfg *config.SystemConfig, walker *resolve.Walker, rdb *redis.Client) *App {
	return &App{
		log:      log,
		settings: settings,
		cfg:      cfg,
		walker:   walker,
		rdb:      rdb,
		local:    map[string]cachedDoc{},
	}
}

// document returns the resolved document for a tenant, cached for the
// configured TTL (redis when available, in-process map otherwise).
func (a *App) document(ctx context.Context, tenantKey string) (resolve.Document, error) {
	ttl := a.settings.DocumentTTL
	if a.rdb != nil {
		raw, err := a.rdb.Get(ctx, "stratus:doc:"+tenantKey).Bytes()
		if err == nil {
			var doc resolve.Document
			if jerr := json.Unmarshal(raw, &doc); jerr == nil {
				return doc, nil
			}
		}
	} else {
		a.mu.RLock()
		c, ok := a.local[tenantKey]
		a.mu.RUnlock()
		if ok && time.Since(c.loadedAt) < ttl {
			return c.doc, nil
		}
	}

	doc, err := a.walker.BuildTenantDocument(ctx, tenantKey)
	if err != nil {
		return nil, err
	}

	if a.rdb != nil {
		if raw, err := json.Marshal(doc); err == nil {
			if err := a.rdb.Set(ctx, "stratus:doc:"+tenantKey, raw, ttl).Err(); err != nil {
				a.log.Warnw("caching document", "tenant", tenantKey, "err", err)
			}
		}
	} else {
		a.mu.Lock()
		a.local[tenantKey] = cachedDoc{loadedAt: time.Now(), doc: doc}
		a.mu.Unlock()
	}
	return doc, nil
}
