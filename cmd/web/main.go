// cmd/web/main.go
//
// Pressroom – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Load env vars (jail-wide file → .env fallback).
//
//  2. Install the Vault secret source when VAULT_ADDR is set, so
//     `vault:`-prefixed config values resolve during Load.
//
//  3. Load and validate configuration.
//
//  4. Start daily rotating logger (tees to console when running in a TTY).
//
//  5. Open the global control-plane DB and log the active-tenant count.
//
//  6. Wire stores, slug allocator, publishing pipeline, alias client,
//     endpoint resolver, and the lazy tenant cache.
//
//  7. Build the chi router, wrap it with ForceHTTPS when configured, and
//     serve with hardened timeouts.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/yanizio/pressroom/internal/alias"
	"github.com/yanizio/pressroom/internal/config"
	"github.com/yanizio/pressroom/internal/content"
	"github.com/yanizio/pressroom/internal/database"
	"github.com/yanizio/pressroom/internal/endpoint"
	"github.com/yanizio/pressroom/internal/logger"
	"github.com/yanizio/pressroom/internal/middleware"
	"github.com/yanizio/pressroom/internal/publish"
	"github.com/yanizio/pressroom/internal/server"
	"github.com/yanizio/pressroom/internal/slug"
	"github.com/yanizio/pressroom/internal/tenant"
	"github.com/yanizio/pressroom/internal/vault"
)

const serverEnvPath = "/usr/local/etc/pressroom/global.env"

// loadEnv prefers the jail-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

func main() {
	ctx := context.Background()

	//
	// ── 1.  Secrets and configuration ───────────────────────────────────
	//
	if os.Getenv("VAULT_ADDR") != "" {
		cli, err := vault.New(ctx)
		if err != nil {
			log.Fatalf("vault client: %v", err)
		}
		config.SetSecretSource(cli.Resolve)
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logOut, err := logger.New(cfg.Paths.Root, runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}

	//
	// ── 2.  Global DB connect ───────────────────────────────────────────
	//
	dsn := cfg.Database.GlobalDSN
	if strings.Contains(dsn, "%s") {
		dsn = fmt.Sprintf(dsn, cfg.Database.GlobalPassword)
	}
	logOut.Info("connecting to global DB …")
	globalDB, err := database.Open(dsn)
	if err != nil {
		logOut.Fatalf("connect global DB: %v", err)
	}
	defer globalDB.Close()
	logOut.Info("global DB online")

	// Log active-tenant count as an early sanity check.
	var active int
	_ = globalDB.Get(&active, `
	    SELECT COUNT(*) FROM tenant
	    WHERE suspended_at IS NULL AND deleted_at IS NULL`)
	logOut.Infof("%d active tenant(s) found", active)

	//
	// ── 3.  Domain wiring ───────────────────────────────────────────────
	//
	repo := tenant.NewRepository(globalDB)
	cache := tenant.NewCache(repo, tenant.IdleTTL, tenant.MaxEntries)
	defer cache.Close()

	automation := content.NewAutomationStore(globalDB)
	blog := content.NewBlogStore(globalDB)
	allocator := slug.NewAllocator(automation, blog)
	pipeline := publish.New(repo, automation, allocator)

	aliasClient := alias.NewClient(cfg.Provider.BaseURL, cfg.Provider.Token, nil)

	resolver := endpoint.New(endpoint.Config{
		Origin:        cfg.Endpoint.Origin,
		OverrideBases: cfg.Endpoint.OverrideBases,
		DeployedBase:  cfg.Endpoint.DeployedBase,
		ProbeTimeout:  time.Duration(cfg.Endpoint.ProbeTimeoutMS) * time.Millisecond,
	})

	//
	// ── 4.  HTTP surface ────────────────────────────────────────────────
	//
	handler := server.Router(server.Deps{
		Tenants:  repo,
		Cache:    cache,
		Alias:    aliasClient,
		SiteID:   cfg.Provider.SiteID,
		Pipeline: pipeline,
		Posts:    automation,
		Funcs:    resolver,
	})
	if cfg.HTTP.ForceHTTPS {
		handler = middleware.ForceHTTPS(cache, handler)
	}

	srv := server.New(cfg.HTTP.ListenAddr, handler)
	logOut.Infow("listening", "addr", cfg.HTTP.ListenAddr)
	if err := srv.ListenAndServe(); err != nil {
		logOut.Fatalf("server: %v", err)
	}
}
