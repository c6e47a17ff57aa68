// Command abgleich-monitor runs the store monitor's checks once and
// exits. Failed checks are logged through the monitor's notification
// path and do not affect the exit code; only a misconfigured dispatcher
// or an unusable configuration exits non-zero. Intended to run from
// cron alongside the reconciliation tool.
package main

import (
	"context"
	"flag"
	"net"
	"net/url"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kylerisse/abgleich/pkg/config"
	"github.com/kylerisse/abgleich/pkg/store"
	"github.com/kylerisse/abgleich/pkg/storemon"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := flag.NewFlagSet("abgleich-monitor", flag.ExitOnError)
	configPath := flags.String("config", "abgleich.toml", "path to the configuration file")
	verbose := flags.Bool("verbose", false, "enable debug logging")
	flags.Parse(args)

	logger := logrus.New()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Errorf("Failed to load configuration: %v", err)
		return 2
	}

	ctx := context.Background()

	engineStore, err := store.NewEngineStore(ctx, cfg.Engine, logger)
	if err != nil {
		logger.Errorf("Failed to connect to engine repository: %v", err)
		return 2
	}
	defer engineStore.Close()

	mirrorStore, err := store.NewMirrorStore(ctx, cfg.Mirror, logger)
	if err != nil {
		logger.Errorf("Failed to connect to mirror store: %v", err)
		return 2
	}
	defer mirrorStore.Close()

	mon, err := storemon.New(engineStore, mirrorStore, storeHosts(cfg), logger)
	if err != nil {
		logger.Errorf("Failed to build store monitor: %v", err)
		return 2
	}

	if err := mon.CheckAll(); err != nil {
		logger.Errorf("Monitor dispatch failed: %v", err)
		return 1
	}
	return 0
}

// storeHosts extracts the hostnames of both stores for the DNS check.
// Hosts that cannot be determined are simply omitted.
func storeHosts(cfg *config.Config) []string {
	var hosts []string

	if h := engineHost(cfg.Engine.DSN); h != "" {
		hosts = append(hosts, h)
	}
	if h, _, err := net.SplitHostPort(cfg.Mirror.Addr); err == nil && h != "" {
		hosts = append(hosts, h)
	} else if cfg.Mirror.Addr != "" {
		hosts = append(hosts, cfg.Mirror.Addr)
	}

	return hosts
}

// engineHost pulls the host out of a lib/pq DSN, either URL form or
// key=value form.
func engineHost(dsn string) string {
	if strings.Contains(dsn, "://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return ""
		}
		return u.Hostname()
	}
	for _, kv := range strings.Fields(dsn) {
		if v, ok := strings.CutPrefix(kv, "host="); ok {
			return v
		}
	}
	return ""
}
