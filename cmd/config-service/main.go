// cmd/config-service/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudformation"

	"stratus/internal/configapi"
	"stratus/pkg/awsx"
	"stratus/pkg/config"
	"stratus/pkg/db"
	"stratus/pkg/logger"
	"stratus/pkg/resolve"
	"stratus/pkg/stacks"
)

func main() {
	// 1. Load process settings & initialize structured logger.
	settings := config.LoadSettings()
	appLog := logger.New(settings.Env)

	// 2. Load and validate the system document.
	cfg, err := config.LoadFrom(".", appLog)
	if err != nil {
		appLog.Fatalw("loading system config", "err", err)
	}

	// 3. Stack-output reader: seeded in-memory when STACK_OUTPUTS_JSON
	// is set (offline/dev), CloudFormation otherwise.
	var reader stacks.Reader
	if settings.StackOutputsSeed != "" {
		reader, err = stacks.NewMemoryReaderFromJSON(settings.StackOutputsSeed)
		if err != nil {
			appLog.Fatalw("parsing stack outputs seed", "err", err)
		}
	} else {
		awsCfg, err := awsx.Load(context.Background(), cfg.Profile, "")
		if err != nil {
			appLog.Fatalw("loading aws config", "err", err)
		}
		if err := cfg.CheckRegion(awsCfg.Region); err != nil {
			appLog.Fatalw("region check", "err", err)
		}
		reader = stacks.NewCloudFormationReader(cloudformation.NewFromConfig(awsCfg), appLog)
	}

	// 4. Resolution walker and optional redis document cache.
	walker := resolve.NewWalker(cfg, reader, appLog)
	rdb := db.MustRedis(settings, appLog)

	app := configapi.New(appLog, settings, cfg, walker, rdb)

	// 5. Start the HTTP server asynchronously.
	httpServer := &http.Server{Addr: settings.HTTPAddr, Handler: app.Handler()}
	go func() {
		appLog.Infow("config-service listening", "addr", settings.HTTPAddr, "system", cfg.SystemKey)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatalw("ListenAndServe", "err", err)
		}
	}()

	// 6. Wait for termination signal, then shut down gracefully.
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM)
	<-stopCh

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
	fmt.Println("config-service stopped")
}
