// Command replay drives the pipeline from a recorded capture instead of
// a live upstream feed (§11.1): a JSON-lines file of timestamped room
// frames is read line by line and fed through the same Token Intake,
// Scoring, and Paper-Trading components cmd/server wires up, but with a
// pipeline.FixedClock pinned to each record's timestamp instead of
// SystemClock. This lets the literal Scenario A-F walk-throughs be
// reproduced deterministically end-to-end without a socket connection
// or a database.
//
// Grounded on solana-token-lab's internal/replay.NewRunner and its
// fixed-clock pipeline.NewPhase1Pipeline(...).WithClock(fn) builder.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"solmeme-pipeline/internal/adapters"
	"solmeme-pipeline/internal/domain"
	"solmeme-pipeline/internal/intake"
	"solmeme-pipeline/internal/papertrading"
	"solmeme-pipeline/internal/pipeline"
	"solmeme-pipeline/internal/scoring"
	"solmeme-pipeline/internal/telemetry"
	"solmeme-pipeline/pkg/utils"
)

// record is one line of a capture file: an upstream room frame plus the
// timestamp the clock should be pinned to before the frame is applied.
// Unlike the live upstream's bare {room, content} envelope, a capture's
// "enrichment" room carries a whole domain.EnrichmentBundle rather than
// a single provider fragment - replay bypasses the Enrichment
// Orchestrator's provider race entirely, since there is nothing to race
// against offline, and feeds Scoring directly from the recorded bundle.
type record struct {
	Ts      time.Time       `json:"ts"`
	Room    string          `json:"room"`
	Content json.RawMessage `json:"content"`
}

func main() {
	capturePath := flag.String("capture", "", "path to a JSON-lines capture file (required)")
	startingCash := flag.Float64("starting-cash", 1000, "starting portfolio cash in USD")
	outPath := flag.String("out", "", "path to write the final portfolio snapshot as JSON (default: stdout)")
	flag.Parse()

	if *capturePath == "" {
		log.Fatal("-capture is required")
	}

	logger, err := utils.NewLogger("info", "console")
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	f, err := os.Open(*capturePath)
	if err != nil {
		logger.Fatalw("failed to open capture", "path", *capturePath, "err", err)
	}
	defer f.Close()

	clock := pipeline.NewFixedClock(time.Now())

	bus := telemetry.New(256, logger.Named("telemetry"))
	defer bus.Close()

	sub := bus.Subscribe()
	go func() {
		for ev := range sub.Events {
			logEvent(logger, ev)
		}
	}()

	scoringEngine := scoring.New(scoring.DefaultThresholds())

	ptCfg := papertrading.DefaultConfig()
	tradingEngine := papertrading.New(ptCfg, decimal.NewFromFloat(*startingCash), clock, logger.Named("papertrading"), bus.Publish)
	stop := make(chan struct{})
	go tradingEngine.Run(stop)

	deduper := intake.New(intake.DefaultOptions(), clock)

	lines, err := replayCapture(f, clock, deduper, scoringEngine, tradingEngine, bus, logger.Named("replay"))
	if err != nil {
		logger.Fatalw("replay failed", "err", err)
	}

	final := tradingEngine.Snapshot()
	close(stop)

	logger.Infow("replay complete",
		"lines", lines,
		"cash_usd", final.CashUsd.String(),
		"equity_usd", final.EquityUsd.String(),
		"trades", final.Metrics.Trades,
		"wins", final.Metrics.Wins,
		"losses", final.Metrics.Losses,
		"open_positions", len(final.OpenPositions),
	)

	if err := writeSnapshot(*outPath, final); err != nil {
		logger.Fatalw("failed to write snapshot", "err", err)
	}
}

// replayCapture reads one record per line and applies each to the
// pipeline in order, pinning clock to the record's timestamp before
// dispatch. Every dispatch is followed by a Snapshot() round-trip,
// which - because the Paper-Trading Engine's command queue is FIFO and
// single-writer - blocks until every command enqueued for that record
// has actually been applied, giving the replay a deterministic
// happens-before relationship between lines without needing any sleep
// or explicit drain API.
func replayCapture(
	r io.Reader,
	clock *pipeline.FixedClock,
	deduper *intake.Deduper,
	scoringEngine *scoring.Engine,
	tradingEngine *papertrading.Engine,
	bus *telemetry.Bus,
	logger interface {
		Debugw(string, ...interface{})
		Warnw(string, ...interface{})
	},
) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	n := 0
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		n++

		var rec record
		if err := json.Unmarshal(line, &rec); err != nil {
			logger.Warnw("skipping malformed record", "line", n, "err", err)
			continue
		}
		if !rec.Ts.IsZero() {
			clock.Set(rec.Ts)
		}

		switch {
		case rec.Room == "new_pairs":
			token, err := adapters.ParseNewPairs(rec.Content)
			if err != nil {
				logger.Warnw("new_pairs decode failed", "line", n, "err", err)
				continue
			}
			candidate := newTokenToCandidate(token, clock.Now())
			bus.Publish(domain.PipelineEvent{Type: domain.EventNewCandidate, Ts: clock.Now(), Candidate: &candidate})
			reason := deduper.Submit(candidate.Address, candidate.Symbol, candidate.Source)
			if reason != intake.DropNone {
				logger.Debugw("candidate dropped", "address", candidate.Address, "reason", reason)
			}

		case rec.Room == "enrichment":
			var bundle domain.EnrichmentBundle
			if err := json.Unmarshal(rec.Content, &bundle); err != nil {
				logger.Warnw("enrichment decode failed", "line", n, "err", err)
				continue
			}
			bus.Publish(domain.PipelineEvent{Type: domain.EventEnrichmentDone, Ts: clock.Now(), Bundle: &bundle})

			snapshot := tradingEngine.Snapshot()
			decision := scoringEngine.Score(bundle, snapshot.CashUsd.InexactFloat64())
			bus.Publish(domain.PipelineEvent{Type: domain.EventDecisionMade, Ts: clock.Now(), Decision: &decision})

			if decision.Tradeable() {
				tradingEngine.RequestOpen(decision, bundle.Market.PriceUsd)
			}
			deduper.OnAnalysisDone(bundle.Address)

		case strings.HasPrefix(rec.Room, "b-"):
			address := strings.TrimPrefix(rec.Room, "b-")
			tick, err := adapters.ParseMarketTick(address, rec.Content)
			if err != nil {
				logger.Warnw("tick decode failed", "line", n, "address", address, "err", err)
				continue
			}
			tick.Ts = clock.Now()
			tradingEngine.OnTick(tick)

		case rec.Room == "jito-bribe-fee" || rec.Room == "sol-priority-fee":
			kind := domain.FeeKindJitoBribe
			if rec.Room == "sol-priority-fee" {
				kind = domain.FeeKindSolPriority
			}
			fee, err := adapters.ParseFeeUpdate(rec.Content, kind)
			if err != nil {
				continue
			}
			bus.Publish(domain.PipelineEvent{Type: domain.EventFeeUpdate, Ts: clock.Now(), Fee: &fee})

		default:
			logger.Debugw("unhandled room", "room", rec.Room, "line", n)
			continue
		}

		// Barrier: drain the command queue before moving to the next
		// line so records are applied in strict file order.
		tradingEngine.Snapshot()
	}

	return n, scanner.Err()
}

func newTokenToCandidate(t domain.NewToken, now time.Time) domain.TokenCandidate {
	c := domain.TokenCandidate{
		Address:     t.Address,
		Symbol:      t.Symbol,
		Name:        t.Name,
		FirstSeenAt: now,
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

func logEvent(logger interface {
	Infow(string, ...interface{})
}, ev domain.PipelineEvent) {
	switch ev.Type {
	case domain.EventTradeOpened, domain.EventTradeClosed:
		if ev.Position != nil {
			logger.Infow(string(ev.Type), "address", ev.Position.Address, "reason", ev.Position.CloseReason, "pnl_usd", ev.Position.RealizedPnlUsd.String())
		}
	case domain.EventDecisionMade:
		if ev.Decision != nil {
			logger.Infow(string(ev.Type), "address", ev.Decision.Address, "recommendation", ev.Decision.Recommendation, "score", ev.Decision.Score)
		}
	default:
		logger.Infow(string(ev.Type))
	}
}

func writeSnapshot(path string, snap domain.Snapshot) error {
	out, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	out = append(out, '\n')

	if path == "" {
		_, err := os.Stdout.Write(out)
		return err
	}
	return os.WriteFile(path, out, 0o644)
}
