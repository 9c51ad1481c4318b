package papertrading

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"solmeme-pipeline/internal/domain"
	"solmeme-pipeline/internal/pipeline"
)

// command is the single-writer queue's FIFO unit (§5: "The Paper-
// Trading Engine processes its input commands in FIFO order from a
// single queue").
type command interface{ isCommand() }

type cmdOpen struct {
	decision domain.Decision
	price    decimal.Decimal
}

type cmdTick struct{ tick domain.MarketTick }

type cmdClose struct {
	address string
	reason  domain.CloseReason
}

type cmdSnapshot struct{ reply chan domain.Snapshot }

func (cmdOpen) isCommand()     {}
func (cmdTick) isCommand()     {}
func (cmdClose) isCommand()    {}
func (cmdSnapshot) isCommand() {}

// Engine is the single-writer Paper-Trading Engine: the exclusive owner
// of Portfolio. Generalizes the teacher's internal/bot/risk.go and
// internal/bot/position.go exit-check ordering (stop_loss → take_profit
// → trailing → time_exit) and internal/bot/state_machine.go's
// transition discipline, collapsed to one global writer per §5 instead
// of per-shard writers (engine.go's PairState sharding).
type Engine struct {
	cfg       Config
	portfolio *domain.Portfolio
	clock     pipeline.Clock
	log       *zap.SugaredLogger
	emit      func(domain.PipelineEvent)

	queue chan command

	addrToID map[string]string // open address -> position ID, for ticks
}

// New builds an Engine. emit is called for every PipelineEvent the
// engine produces; it must never block (the Telemetry Bus's
// subscription layer is responsible for that).
func New(cfg Config, startingCashUsd decimal.Decimal, clock pipeline.Clock, log *zap.SugaredLogger, emit func(domain.PipelineEvent)) *Engine {
	if clock == nil {
		clock = pipeline.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if emit == nil {
		emit = func(domain.PipelineEvent) {}
	}
	if cfg.CommandQueueCapacity <= 0 {
		cfg.CommandQueueCapacity = DefaultConfig().CommandQueueCapacity
	}
	return &Engine{
		cfg:       cfg,
		portfolio: domain.NewPortfolio(startingCashUsd, cfg.ClosedPositionRingMax),
		clock:     clock,
		log:       log,
		emit:      emit,
		queue:     make(chan command, cfg.CommandQueueCapacity),
		addrToID:  make(map[string]string),
	}
}

// Run drains the command queue until stop is closed. Must run on
// exactly one goroutine — this is what makes the portfolio
// single-writer.
func (e *Engine) Run(stop <-chan struct{}) {
	for {
		select {
		case cmd := <-e.queue:
			e.apply(cmd)
		case <-stop:
			return
		}
	}
}

// RequestOpen enqueues an open request; blocks only if the queue is at
// capacity (the high-water alarm named in §5 is the caller's
// responsibility to monitor via QueueDepth).
func (e *Engine) RequestOpen(decision domain.Decision, price decimal.Decimal) {
	e.queue <- cmdOpen{decision: decision, price: price}
}

// OnTick enqueues a market tick for evaluation against any open position.
func (e *Engine) OnTick(tick domain.MarketTick) {
	e.queue <- cmdTick{tick: tick}
}

// RequestClose enqueues a manual close request.
func (e *Engine) RequestClose(address string, reason domain.CloseReason) {
	e.queue <- cmdClose{address: address, reason: reason}
}

// Snapshot requests a deep-copied portfolio view from the writer and
// blocks until it is produced.
func (e *Engine) Snapshot() domain.Snapshot {
	reply := make(chan domain.Snapshot, 1)
	e.queue <- cmdSnapshot{reply: reply}
	return <-reply
}

// QueueDepth reports the current command backlog, for the high-water
// alarm named in §5.
func (e *Engine) QueueDepth() int { return len(e.queue) }

func (e *Engine) apply(cmd command) {
	switch c := cmd.(type) {
	case cmdOpen:
		e.applyOpen(c)
	case cmdTick:
		e.applyTick(c.tick)
	case cmdClose:
		e.applyClose(c.address, c.reason)
	case cmdSnapshot:
		c.reply <- e.portfolio.Snapshot()
	}
}

func (e *Engine) applyOpen(c cmdOpen) {
	d := c.decision
	if !d.Tradeable() {
		return
	}
	if len(e.portfolio.OpenPositions) >= e.cfg.MaxOpenPositions {
		return
	}

	size := d.SuggestedPositionUsd
	if size.GreaterThan(e.portfolio.CashUsd) {
		if e.portfolio.CashUsd.LessThan(decimal.NewFromFloat(e.cfg.MinTradeUsd)) {
			return
		}
		size = e.portfolio.CashUsd
	}

	entry := c.price
	if entry.IsZero() {
		entry = d.ReferencePriceUsd
	}
	if entry.IsZero() {
		return
	}

	stop := entry.Mul(decimal.NewFromFloat(1 - e.cfg.StopLossPct))
	takeProfit := entry.Mul(decimal.NewFromFloat(1 + e.cfg.TakeProfitPct))

	pos := &domain.Position{
		ID:                 fmt.Sprintf("%s-%d", d.Address, e.clock.Now().UnixNano()),
		Address:            d.Address,
		OpenedAt:           e.clock.Now(),
		EntryPriceUsd:      entry,
		SizeUsd:            size,
		StopPriceUsd:       stop,
		TakeProfitPriceUsd: takeProfit,
		TrailingHighUsd:    entry,
		Status:             domain.PositionOpen,
		LastPriceUsd:       entry,
		LastUpdateAt:       e.clock.Now(),
	}

	e.portfolio.CashUsd = e.portfolio.CashUsd.Sub(size)
	e.portfolio.OpenPositions[pos.ID] = pos
	e.addrToID[pos.Address] = pos.ID
	e.portfolio.RecomputeEquity()

	e.log.Infow("position opened", "address", pos.Address, "size", size.String(), "entry", entry.String())
	e.emit(domain.PipelineEvent{Type: domain.EventTradeOpened, Ts: e.clock.Now(), Position: pos})
}

func (e *Engine) applyTick(tick domain.MarketTick) {
	id, ok := e.addrToID[tick.Address]
	if !ok {
		return
	}
	pos, ok := e.portfolio.OpenPositions[id]
	if !ok || !IsOpen(pos.Status) {
		return
	}

	pos.LastPriceUsd = tick.PriceUsd
	pos.LastUpdateAt = e.clock.Now()
	if tick.PriceUsd.GreaterThan(pos.TrailingHighUsd) {
		pos.TrailingHighUsd = tick.PriceUsd
	}
	e.portfolio.RecomputeEquity()

	if reason, shouldClose := e.evaluateExit(pos); shouldClose {
		e.applyClose(pos.Address, reason)
	}
}

// evaluateExit applies §4.6's exit-rule order: stop_loss, take_profit,
// trailing, time_exit — the same priority order as the teacher's
// internal/bot/position.go checkExitConditions.
func (e *Engine) evaluateExit(pos *domain.Position) (domain.CloseReason, bool) {
	price := pos.LastPriceUsd
	if price.LessThanOrEqual(pos.StopPriceUsd) {
		return domain.CloseReasonStopLoss, true
	}
	if price.GreaterThanOrEqual(pos.TakeProfitPriceUsd) {
		return domain.CloseReasonTakeProfit, true
	}
	trailingStop := pos.TrailingHighUsd.Mul(decimal.NewFromFloat(1 - e.cfg.TrailingDrawdownPct))
	if price.LessThanOrEqual(trailingStop) {
		return domain.CloseReasonTrailing, true
	}
	age := e.clock.Now().Sub(pos.OpenedAt)
	if age >= e.cfg.MaxHold {
		return domain.CloseReasonTimeExit, true
	}
	return "", false
}

func (e *Engine) applyClose(address string, reason domain.CloseReason) {
	id, ok := e.addrToID[address]
	if !ok {
		return
	}
	pos, ok := e.portfolio.OpenPositions[id]
	if !ok {
		return
	}
	if !CanTransition(pos.Status, domain.PositionClosing) {
		e.emit(domain.PipelineEvent{Type: domain.EventError, Ts: e.clock.Now(), Err: &domain.PipelineError{
			Kind: string(pipeline.KindInvariant), Detail: "invalid close transition", Address: address,
		}})
		return
	}
	pos.Status = domain.PositionClosing

	realizedPnl := pos.SizeUsd.Mul(pos.LastPriceUsd.Sub(pos.EntryPriceUsd)).Div(pos.EntryPriceUsd)

	e.portfolio.CashUsd = e.portfolio.CashUsd.Add(pos.SizeUsd).Add(realizedPnl)
	pos.RealizedPnlUsd = realizedPnl
	pos.CloseReason = reason
	pos.Status = domain.PositionClosed

	delete(e.portfolio.OpenPositions, id)
	delete(e.addrToID, address)
	e.portfolio.Metrics.Trades++
	if realizedPnl.IsPositive() {
		e.portfolio.Metrics.Wins++
	} else if realizedPnl.IsNegative() {
		e.portfolio.Metrics.Losses++
	}
	e.portfolio.RecomputeEquity()
	closedCopy := *pos
	e.portfolio.PushClosed(closedCopy)

	e.log.Infow("position closed", "address", address, "reason", reason, "pnl", realizedPnl.String())
	e.emit(domain.PipelineEvent{Type: domain.EventTradeClosed, Ts: e.clock.Now(), Position: &closedCopy})
}
