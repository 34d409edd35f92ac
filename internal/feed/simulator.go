// Package feed provides a reference producer: a simulated market data
// feed that generates jittered price ticks and submits them through the
// same enqueue contract any external producer would use. It has no
// engine-side privilege beyond that contract.
package feed

import (
	"context"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"marketpulse/internal/config"
	"marketpulse/internal/observability"
	"marketpulse/internal/stats"
)

// Router is the subset of the engine's producer contract the simulator
// depends on.
type Router interface {
	EnqueueUpdate(u stats.PriceUpdate) error
}

// Simulator drives a set of symbols at a configured tick rate, jittering
// each symbol's last price by up to MaxJitterPercent per tick.
type Simulator struct {
	cfg    config.SimulationConfig
	router Router
	rng    *rand.Rand

	prices map[string]decimal.Decimal
}

// New creates a Simulator from cfg. It is a no-op producer if
// cfg.Enabled is false; callers should still feel free to call Run, which
// returns immediately in that case.
func New(cfg config.SimulationConfig, router Router) *Simulator {
	prices := make(map[string]decimal.Decimal, len(cfg.Symbols))
	for _, s := range cfg.Symbols {
		prices[s] = decimal.NewFromFloat(cfg.InitialPrice)
	}
	return &Simulator{
		cfg:    cfg,
		router: router,
		rng:    rand.New(rand.NewSource(1)),
		prices: prices,
	}
}

// Run ticks at cfg.TicksPerSecond, producing one update per configured
// symbol per tick, until ctx is cancelled.
func (s *Simulator) Run(ctx context.Context) {
	if !s.cfg.Enabled || s.cfg.TicksPerSecond <= 0 || len(s.cfg.Symbols) == 0 {
		return
	}

	interval := time.Second / time.Duration(s.cfg.TicksPerSecond)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Simulator) tick(ctx context.Context) {
	now := time.Now().UTC()
	for _, symbol := range s.cfg.Symbols {
		next := s.jitter(s.prices[symbol])
		s.prices[symbol] = next

		err := s.router.EnqueueUpdate(stats.PriceUpdate{Symbol: symbol, Price: next, Timestamp: now})
		if err != nil {
			observability.LogEvent(observability.WithSymbol(ctx, symbol), "warn", "simulated_feed_rejected", map[string]any{
				"reason": err.Error(),
			})
		}
	}
}

// jitter moves price by a uniformly random percentage in
// [-MaxJitterPercent, +MaxJitterPercent], floored so it never produces a
// non-positive price.
func (s *Simulator) jitter(price decimal.Decimal) decimal.Decimal {
	pct := (s.rng.Float64()*2 - 1) * s.cfg.MaxJitterPercent
	delta := price.Mul(decimal.NewFromFloat(pct)).Div(decimal.NewFromInt(100))
	next := price.Add(delta)
	if !next.IsPositive() {
		return price
	}
	return next
}
