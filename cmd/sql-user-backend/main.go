package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/blesswinsamuel/sql-user-backend/internal/backend"
	"github.com/blesswinsamuel/sql-user-backend/internal/cache"
	"github.com/blesswinsamuel/sql-user-backend/internal/config"
	"github.com/blesswinsamuel/sql-user-backend/internal/ldapserver"
	"github.com/blesswinsamuel/sql-user-backend/internal/logger"
	"github.com/blesswinsamuel/sql-user-backend/internal/platform"
	"github.com/blesswinsamuel/sql-user-backend/internal/properties"
	"github.com/blesswinsamuel/sql-user-backend/internal/query"
	"github.com/blesswinsamuel/sql-user-backend/internal/repository"
	"github.com/blesswinsamuel/sql-user-backend/internal/server"
)

func main() {
	// Parse options
	cfg, err := config.ParseConfig(nil)
	if err != nil {
		log := logger.NewLogger(zerolog.DebugLevel.String())
		log.Fatal().Err(err).Msg("failed to parse config")
	}

	// Setup logger
	log := logger.NewLogger(cfg.LogLevel)

	// Perform config validation
	cfg.Validate()

	file, err := platform.NewFileConfig(cfg.PropertiesFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load properties file")
	}
	store := platform.NewScopedConfig(file, cfg.Domain)

	var c cache.Cache = cache.Null{}
	if v, _ := store.GetAppValue(properties.OptUseCache); v == properties.TrueValue {
		c = cache.NewMemory(log)
	}

	props := properties.Load(store, c, log)
	data := query.NewDataAccess(props, query.NewProvider(props), log)
	data.UseSystemStore(platform.EnvSystem{})
	defer data.Close()

	users := backend.NewUserBackend(
		log, c, props,
		repository.NewUserRepository(data),
		platform.NewMemoryUserConfig(),
	)
	groups := backend.NewGroupBackend(log, c, props, repository.NewGroupRepository(data))

	if !users.IsConfigured() {
		log.Warn().Msg("backend is not configured yet, logins will fail until the settings are saved")
	}

	ldapSrv, err := ldapserver.NewLdapServer(users, groups, ldapserver.Config{
		BindUsername: cfg.BindUsername,
		BindPassword: cfg.BindPassword,
		BaseDN:       cfg.BaseDN,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init ldap server")
	}

	go func() {
		if err := ldapSrv.Start(cfg.Host, cfg.LDAPPort); err != nil {
			log.Fatal().Err(err).Msg("failed to start ldap server")
		}
	}()
	defer ldapSrv.Stop()

	// Settings changes regenerate the statements and drop the stale
	// connection so the next query dials with the new credentials.
	reload := func() {
		data.SetProvider(query.NewProvider(props))
		if err := data.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close database connection")
		}
		c.Clear()
	}

	// Build handler
	srv := server.NewServer(cfg, log, props, c, data, platform.IdentityTranslator{}, reload)

	// Start
	go srv.Start()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	log.Info().Msg("server started")
	<-ctx.Done()
	log.Info().Msg("server stopping")
}
