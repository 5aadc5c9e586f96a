package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/stegverse/cfp-tickets/internal/clicklog"
	"github.com/stegverse/cfp-tickets/internal/config"
	"github.com/stegverse/cfp-tickets/internal/database"
	"github.com/stegverse/cfp-tickets/internal/handler"
	"github.com/stegverse/cfp-tickets/internal/logger"
	"github.com/stegverse/cfp-tickets/internal/metrics"
	"github.com/stegverse/cfp-tickets/internal/middleware"
	"github.com/stegverse/cfp-tickets/internal/model"
	"github.com/stegverse/cfp-tickets/internal/partnerize"
	"github.com/stegverse/cfp-tickets/internal/provider"
	"github.com/stegverse/cfp-tickets/internal/queue"
	"github.com/stegverse/cfp-tickets/internal/repository"
	"github.com/stegverse/cfp-tickets/internal/router"
	"github.com/stegverse/cfp-tickets/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := config.NewRedisClient()
	kv := repository.NewKVStore(rdb)
	if err := kv.Set(ctx, handler.BootKey, strconv.FormatInt(time.Now().Unix(), 10)); err != nil {
		log.Warn().Err(err).Msg("boot stamp not stored")
	}
	flags := &repository.FlagRepo{KV: kv}

	var db *sql.DB
	if cfg.DatabaseEnabled() {
		var err error
		db, err = database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			log.Fatal().Err(err).Msg("mysql connect failed")
		}
		defer db.Close()
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("mysql migrate failed")
		}
	} else {
		log.Info().Msg("DB_* not set: inventory lookup and click archive disabled")
	}

	httpClient := provider.NewHTTPClient(cfg.UpstreamTimeout)
	builders, searchers := providers(cfg, httpClient)

	svc := &service.TicketService{
		Builders:     builders,
		Clicks:       clicklog.NewAggregator(cfg.ClickLogCapacity),
		Experiment:   service.ExperimentDefaults(cfg.Experiment),
		Flags:        flags,
		ClickBaseURL: cfg.PublicBaseURL,
	}
	var clicks *repository.ClickRepo
	if db != nil {
		svc.Inventory = repository.NewSeatBlockRepo(db)
		clicks = repository.NewClickRepo(db)
		svc.Archive = clicks
	}
	if cfg.RabbitURL != "" {
		pub := queue.NewPublisher(cfg.RabbitURL)
		defer pub.Close()
		svc.Publisher = pub

		if cfg.ConsumerEnabled {
			consumer := &queue.Consumer{URL: cfg.RabbitURL, LogDir: cfg.ClickLogDir}
			if clicks != nil {
				consumer.Archive = clicks
			}
			go func() {
				if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Error().Err(err).Msg("click consumer stopped")
				}
			}()
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.IPExtractor = middleware.IPExtractor(cfg.TrustedProxies)
	e.Use(echomw.Recover())
	e.Use(middleware.AccessLog())

	router.Register(e, router.Deps{
		Health:  &handler.HealthHandler{ServiceID: cfg.ServiceID, Env: cfg.Env, KV: kv},
		Tickets: &handler.TicketHandler{Svc: svc},
		Events: &handler.EventsHandler{Search: &provider.EventSearch{
			Searchers: searchers,
			OnFailure: func(p model.Provider, _ error) {
				metrics.UpstreamErrors.WithLabelValues(string(p)).Inc()
			},
		}},
		Ops: &handler.OpsHandler{Flags: flags, KV: kv},
		Partnerize: &handler.PartnerizeHandler{Client: &partnerize.Client{
			BaseURL:    cfg.Partnerize.BaseURL,
			AppKey:     cfg.Partnerize.AppKey,
			UserAPIKey: cfg.Partnerize.UserAPIKey,
			HTTP:       httpClient,
		}},
		JWTSecret: cfg.JWTSecret,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     config.LoadCacheConfig(),
		Redis:     rdb,
	})

	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("env", cfg.Env).Strs("providers", cfg.Providers).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}

// providers builds the link builders and event searchers of the
// marketplaces listed in TICKET_PROVIDERS, in that order.
func providers(cfg config.Config, client *http.Client) ([]provider.URLBuilder, []provider.EventSearcher) {
	var (
		builders  []provider.URLBuilder
		searchers []provider.EventSearcher
	)
	seen := map[model.Provider]bool{}
	for _, name := range cfg.Providers {
		p, ok := model.ParseProvider(name)
		if !ok || !p.IsVariant() {
			log.Warn().Str("provider", name).Msg("TICKET_PROVIDERS: unknown provider ignored")
			continue
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		switch p {
		case model.ProviderSeatGeek:
			builders = append(builders, provider.SeatGeekLinks{BaseURL: cfg.SeatGeek.WebBase, AffiliateCode: cfg.SeatGeek.AffiliateCode})
			searchers = append(searchers, provider.SeatGeekEvents{BaseURL: cfg.SeatGeek.APIBase, ClientID: cfg.SeatGeek.Credential, Client: client})
		case model.ProviderStubHub:
			builders = append(builders, provider.StubHubLinks{BaseURL: cfg.StubHub.WebBase, AffiliateCode: cfg.StubHub.AffiliateCode})
			searchers = append(searchers, provider.StubHubEvents{BaseURL: cfg.StubHub.APIBase, AccessToken: cfg.StubHub.Credential, Client: client})
		}
	}
	return builders, searchers
}
