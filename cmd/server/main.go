package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"solmeme-pipeline/internal/adapters"
	"solmeme-pipeline/internal/api"
	"solmeme-pipeline/internal/config"
	"solmeme-pipeline/internal/domain"
	"solmeme-pipeline/internal/enrichment"
	"solmeme-pipeline/internal/intake"
	"solmeme-pipeline/internal/marketdata"
	"solmeme-pipeline/internal/papertrading"
	"solmeme-pipeline/internal/pipeline"
	"solmeme-pipeline/internal/ratecache"
	"solmeme-pipeline/internal/repository"
	"solmeme-pipeline/internal/scoring"
	"solmeme-pipeline/internal/service"
	"solmeme-pipeline/internal/socketfabric"
	"solmeme-pipeline/internal/telemetry"
	"solmeme-pipeline/internal/websocket"
	"solmeme-pipeline/pkg/retry"
	"solmeme-pipeline/pkg/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// envelope mirrors the upstream's { room, content } frame shape, shared
// with internal/marketdata's room demultiplexing.
type envelope struct {
	Room    string          `json:"room"`
	Content json.RawMessage `json:"content"`
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := utils.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	db, err := initDatabase(cfg)
	if err != nil {
		logger.Fatalw("failed to connect to database", "err", err)
	}
	defer db.Close()
	logger.Info("connected to database")

	candidateRepo := repository.NewCandidateRepository(db)
	decisionRepo := repository.NewDecisionRepository(db)
	tradeRepo := repository.NewTradeRepository(db)
	denylistRepo := repository.NewDenylistRepository(db)
	denylistService := service.NewDenylistService(denylistRepo)

	bus := telemetry.New(cfg.Pipeline.TelemetryBufferSize, logger.Named("telemetry"))
	defer bus.Close()

	hub := websocket.NewHub()
	go hub.Run()

	stop := make(chan struct{})

	// Dashboard bridge: every PipelineEvent published to the bus is
	// fanned out to connected dashboard clients over the websocket Hub.
	dashboardSub := bus.Subscribe()
	go func() {
		for ev := range dashboardSub.Events {
			hub.BroadcastEvent(ev)
		}
	}()

	// Persistence bridge: decisions and closed trades are durably
	// recorded as they flow through the bus, independent of the
	// dashboard's possibly-lossy delivery. Subscribed here so no events
	// are missed; started below once the Market Data Router it
	// deactivates closed addresses on exists.
	persistSub := bus.Subscribe()

	clock := pipeline.SystemClock{}

	fabric := socketfabric.New(logger.Named("socketfabric"))

	scoringEngine := scoring.New(scoring.DefaultThresholds()).WithDenylist(denylistService)

	ptCfg := papertrading.DefaultConfig()
	ptCfg.MaxOpenPositions = cfg.Pipeline.MaxOpenPositions
	ptCfg.StopLossPct = cfg.Pipeline.StopLossPct
	ptCfg.TakeProfitPct = cfg.Pipeline.TakeProfitPct
	ptCfg.TrailingDrawdownPct = cfg.Pipeline.TrailingDrawdownPct
	ptCfg.MaxHold = cfg.Pipeline.MaxHoldDuration
	tradingEngine := papertrading.New(ptCfg, decimal.NewFromFloat(cfg.Pipeline.StartingCashUsd), clock, logger.Named("papertrading"), bus.Publish)
	go tradingEngine.Run(stop)

	upstreamHandle := fabric.GetSharedConnection(cfg.Pipeline.UpstreamFeedURL, socketfabric.DefaultOptions())
	defer upstreamHandle.Close()

	router := marketdata.New(upstreamHandle, tradingEngine.OnTick, 64, logger.Named("marketdata"))
	router.Start(256)
	defer router.Stop()

	go persistEvents(persistSub, decisionRepo, tradeRepo, router, logger.Named("persist"))

	cache := ratecache.New()
	limiter := ratecache.NewProviderLimiter(cache, 5*time.Minute)
	for name, rps := range cfg.Providers.RateRPS {
		limiter.Configure(name, rps, rps)
	}

	providers := buildProviders(cfg, router, limiter)
	orchestrator := enrichment.New(providers, enrichment.Config{Deadline: cfg.Pipeline.EnrichDeadline}, cache, limiter)

	deduper := intake.New(intake.Options{
		Window:                cfg.Pipeline.DedupWindow,
		MaxConcurrentAnalyses: cfg.Pipeline.MaxConcurrentAnalyses,
		QueueCapacity:         cfg.Pipeline.IntakeQueueCapacity,
	}, clock)

	// One worker per concurrency slot, draining the Deduper's queue and
	// running each candidate through enrichment, scoring, and (when the
	// Scoring Engine recommends a buy) opening a simulated position.
	for i := 0; i < cfg.Pipeline.MaxConcurrentAnalyses; i++ {
		go enrichmentWorker(deduper, orchestrator, scoringEngine, tradingEngine, router, bus, stop)
	}

	go subscribeUpstream(upstreamHandle, candidateRepo, deduper, tradingEngine, bus, logger.Named("intake"))
	if cfg.Pipeline.WhaleFeedURL != "" {
		whaleHandle := fabric.GetSharedConnection(cfg.Pipeline.WhaleFeedURL, socketfabric.DefaultOptions())
		defer whaleHandle.Close()
		go subscribeWhaleFeed(whaleHandle, logger.Named("whale"))
	}

	if cfg.Pipeline.SnapshotPath != "" {
		writer, err := repository.NewSnapshotWriter(cfg.Pipeline.SnapshotPath)
		if err != nil {
			logger.Errorw("failed to open snapshot writer", "err", err)
		} else {
			interval := cfg.Pipeline.SnapshotInterval
			if interval <= 0 {
				interval = time.Minute
			}
			go writer.RunPeriodic(interval, tradingEngine.Snapshot, stop)
		}
	}

	deps := &api.Dependencies{
		Portfolio:  tradingEngine,
		Candidates: candidateRepo,
		Decisions:  decisionRepo,
		Trades:     tradeRepo,
		Denylist:   denylistService,
		Hub:        hub,
	}
	router2 := api.SetupRoutes(deps)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router2,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infow("starting server", "addr", server.Addr)
		var serveErr error
		if cfg.Server.UseHTTPS {
			serveErr = server.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile)
		} else {
			serveErr = server.ListenAndServe()
		}
		if serveErr != nil && serveErr != http.ErrServerClosed {
			logger.Fatalw("server failed", "err", serveErr)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	close(stop)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatalw("server forced to shutdown", "err", err)
	}
	logger.Info("server exited")
}

// buildProviders assembles the Enrichment Orchestrator's provider set:
// the local Momentum provider (always available, fed by the Market
// Data Router's buffered price history) plus one generic HTTPProvider
// per externally-configured endpoint. A provider whose base URL is not
// set via its SOLMEME_<NAME>_PROVIDER_URL env var is skipped rather
// than registered against an empty template.
func buildProviders(cfg *config.Config, router *marketdata.Router, limiter *ratecache.ProviderLimiter) []enrichment.Provider {
	providers := []enrichment.Provider{
		&enrichment.MomentumProvider{Series: router},
	}

	type providerSpec struct {
		name   domain.Provider
		envVar string
		decode func([]byte) (interface{}, error)
	}

	specs := []providerSpec{
		{domain.ProviderSecurity, "SOLMEME_SECURITY_PROVIDER_URL", decodeSecurityFragment},
		{domain.ProviderMarket, "SOLMEME_MARKET_PROVIDER_URL", decodeMarketFragment},
		{domain.ProviderHolders, "SOLMEME_HOLDERS_PROVIDER_URL", decodeTradersFragment},
		{domain.ProviderFlowDistribution, "SOLMEME_FLOW_PROVIDER_URL", decodeFlowFragment},
	}

	for _, spec := range specs {
		tmpl := os.Getenv(spec.envVar)
		if tmpl == "" || !strings.Contains(tmpl, "%s") {
			continue
		}
		limiter.Configure(string(spec.name), 5, 5)
		providers = append(providers, &enrichment.HTTPProvider{
			ProviderName: string(spec.name),
			URLTemplate:  tmpl,
			Decode:       spec.decode,
			RetryConfig:  retry.NetworkConfig(),
		})
	}

	_ = cfg
	return providers
}

func decodeSecurityFragment(body []byte) (interface{}, error) {
	var frag domain.SecurityFragment
	if err := json.Unmarshal(body, &frag); err != nil {
		return nil, err
	}
	return frag, nil
}

func decodeMarketFragment(body []byte) (interface{}, error) {
	var frag domain.MarketFragment
	if err := json.Unmarshal(body, &frag); err != nil {
		return nil, err
	}
	return frag, nil
}

func decodeTradersFragment(body []byte) (interface{}, error) {
	var frag domain.TradersFragment
	if err := json.Unmarshal(body, &frag); err != nil {
		return nil, err
	}
	return frag, nil
}

func decodeFlowFragment(body []byte) (interface{}, error) {
	var frag domain.FlowFragment
	if err := json.Unmarshal(body, &frag); err != nil {
		return nil, err
	}
	return frag, nil
}

// subscribeUpstream demultiplexes the shared upstream connection's
// non-price rooms (§4.2): "new_pairs" feeds Token Intake directly,
// "surge-updates" feeds it too per §4.3's submit(NewToken |
// SurgeUpdate) contract, the "jito-bribe-fee"/"sol-priority-fee" rooms
// are published on the bus as FeeUpdate events, and every other room is
// ignored.
func subscribeUpstream(handle *socketfabric.Handle, candidateRepo *repository.CandidateRepository, deduper *intake.Deduper, tradingEngine *papertrading.Engine, bus *telemetry.Bus, logger *zap.SugaredLogger) {
	sub := handle.Subscribe(256)
	defer sub.Close()

	for d := range sub.Deliveries {
		var env envelope
		if err := json.Unmarshal(d.Raw, &env); err != nil {
			continue
		}

		switch {
		case env.Room == "new_pairs":
			token, err := adapters.ParseNewPairs(env.Content)
			if err != nil {
				logger.Debugw("new_pairs decode failed", "err", err)
				continue
			}
			candidate := newTokenToCandidate(token)
			if err := candidateRepo.Create(&candidate); err != nil {
				logger.Warnw("failed to persist candidate", "address", candidate.Address, "err", err)
			}
			bus.Publish(domain.PipelineEvent{Type: domain.EventNewCandidate, Ts: time.Now(), Candidate: &candidate})
			deduper.Submit(candidate.Address, candidate.Symbol, candidate.Source)

		case env.Room == "surge-updates":
			update, err := adapters.ParseSurgeUpdate(env.Content)
			if err != nil {
				logger.Debugw("surge-updates decode failed", "err", err)
				continue
			}
			switch reason := deduper.Submit(update.Address, update.Symbol, domain.SourceSurgeUpdate); reason {
			case intake.DropNone:
				candidate := domain.TokenCandidate{
					Address:     update.Address,
					Symbol:      update.Symbol,
					FirstSeenAt: time.Now(),
					Source:      domain.SourceSurgeUpdate,
				}
				if update.PriceUsd != nil {
					candidate.InitialPriceUsd = update.PriceUsd
				}
				if err := candidateRepo.Create(&candidate); err != nil {
					logger.Warnw("failed to persist candidate", "address", candidate.Address, "err", err)
				}
				bus.Publish(domain.PipelineEvent{Type: domain.EventNewCandidate, Ts: time.Now(), Candidate: &candidate})

			case intake.DropDedup:
				// §4.3 edge case: a SurgeUpdate for an address already
				// analyzed is a market event, not a new analysis - feed
				// its price straight to the Paper-Trading Engine rather
				// than re-submitting for enrichment.
				if update.PriceUsd != nil {
					tradingEngine.OnTick(domain.MarketTick{
						Address:  update.Address,
						PriceUsd: decimal.NewFromFloat(*update.PriceUsd),
						Ts:       update.Ts,
					})
				}

			case intake.DropOverload:
				logger.Debugw("surge update dropped", "address", update.Address, "reason", reason)
			}

		case env.Room == "jito-bribe-fee" || env.Room == "sol-priority-fee":
			kind := domain.FeeKindJitoBribe
			if env.Room == "sol-priority-fee" {
				kind = domain.FeeKindSolPriority
			}
			fee, err := adapters.ParseFeeUpdate(env.Content, kind)
			if err != nil {
				continue
			}
			bus.Publish(domain.PipelineEvent{Type: domain.EventFeeUpdate, Ts: time.Now(), Fee: &fee})
		}
	}
}

func subscribeWhaleFeed(handle *socketfabric.Handle, logger *zap.SugaredLogger) {
	sub := handle.Subscribe(256)
	defer sub.Close()

	for d := range sub.Deliveries {
		trades, errs := adapters.ParseWhaleTrades(d.Raw)
		for _, err := range errs {
			logger.Debugw("whale trade decode failed", "err", err)
		}
		for _, t := range trades {
			logger.Debugw("whale trade", "address", t.Address, "action", t.Action, "amount_usd", t.AmountUsd)
		}
	}
}

func newTokenToCandidate(t domain.NewToken) domain.TokenCandidate {
	c := domain.TokenCandidate{
		Address:     t.Address,
		Symbol:      t.Symbol,
		Name:        t.Name,
		FirstSeenAt: time.Now(),
		Source:      t.SourceTag,
	}
	if t.LiquidityUsd != nil {
		c.InitialLiquidityUsd = *t.LiquidityUsd
	}
	if t.PriceUsd != nil {
		c.InitialPriceUsd = t.PriceUsd
	}
	return c
}

// enrichmentWorker drains the Deduper's queue, fans each candidate out
// through the Enrichment Orchestrator and Scoring Engine, and opens a
// simulated position for any BUY/STRONG_BUY recommendation.
func enrichmentWorker(
	deduper *intake.Deduper,
	orchestrator *enrichment.Orchestrator,
	scoringEngine *scoring.Engine,
	tradingEngine *papertrading.Engine,
	router *marketdata.Router,
	bus *telemetry.Bus,
	stop <-chan struct{},
) {
	for {
		task, ok := deduper.Next(stop)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		bundle := orchestrator.Enrich(ctx, task.Address)
		cancel()
		bus.Publish(domain.PipelineEvent{Type: domain.EventEnrichmentDone, Ts: time.Now(), Bundle: &bundle})

		snapshot := tradingEngine.Snapshot()
		decision := scoringEngine.Score(bundle, snapshot.CashUsd.InexactFloat64())
		bus.Publish(domain.PipelineEvent{Type: domain.EventDecisionMade, Ts: time.Now(), Decision: &decision})

		if decision.Tradeable() {
			router.Activate(task.Address)
			tradingEngine.RequestOpen(decision, bundle.Market.PriceUsd)
		}

		deduper.OnAnalysisDone(task.Address)
	}
}

// persistEvents durably records decisions and closed trades as they
// flow through the Telemetry Bus, independent of dashboard delivery.
// It also unsubscribes the Market Data Router from a closed position's
// price room (§4.7: "subscribes/unsubscribes ... as positions open and
// close") - RequestOpen's counterpart router.Activate call is made
// inline by enrichmentWorker, but close can originate from any exit
// rule inside the Paper-Trading Engine's single writer, so this bus
// subscriber is the one place that sees every close regardless of
// which rule triggered it.
func persistEvents(sub *telemetry.Subscriber, decisionRepo *repository.DecisionRepository, tradeRepo *repository.TradeRepository, router *marketdata.Router, logger *zap.SugaredLogger) {
	for ev := range sub.Events {
		switch ev.Type {
		case domain.EventDecisionMade:
			if ev.Decision == nil {
				continue
			}
			if _, err := decisionRepo.Create(ev.Decision); err != nil {
				logger.Warnw("failed to persist decision", "address", ev.Decision.Address, "err", err)
			}
		case domain.EventTradeClosed:
			if ev.Position == nil {
				continue
			}
			if err := tradeRepo.Create(ev.Position); err != nil {
				logger.Warnw("failed to persist closed trade", "address", ev.Position.Address, "err", err)
			}
			router.Deactivate(ev.Position.Address)
		}
	}
}

// initDatabase создает подключение к базе данных
func initDatabase(cfg *config.Config) (*sql.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
