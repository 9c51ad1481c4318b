package enrichment

import (
	"context"

	talib "github.com/markcheno/go-talib"

	"solmeme-pipeline/internal/domain"
)

// PriceSeriesSource supplies the buffered price history the Market Data
// Router accumulates for an address, oldest first.
type PriceSeriesSource interface {
	Series(address string) []float64
}

const (
	rsiPeriod  = 14
	macdFast   = 12
	macdSlow   = 26
	macdSignal = 9
	bbPeriod   = 20
)

// MomentumProvider is the one local (non-HTTP) provider, computing
// RSI/MACD/Bollinger locally from a buffered price series, grounded on
// aristath-sentinel's use of markcheno/go-talib for this class of
// indicator rather than hand-rolled math.
type MomentumProvider struct {
	Series PriceSeriesSource
}

func (p *MomentumProvider) Name() string { return string(domain.ProviderMomentum) }

func (p *MomentumProvider) Fetch(ctx context.Context, address string) (interface{}, error) {
	series := p.Series.Series(address)
	frag := domain.MomentumFragment{}

	if len(series) >= rsiPeriod+1 {
		rsi := talib.Rsi(series, rsiPeriod)
		last := rsi[len(rsi)-1]
		frag.Rsi = &last
	}

	if len(series) >= macdSlow+macdSignal {
		_, signal, _ := talib.Macd(series, macdFast, macdSlow, macdSignal)
		last := signal[len(signal)-1]
		frag.MacdSignal = &last
	}

	if len(series) >= bbPeriod {
		upper, _, lower := talib.BBands(series, bbPeriod, 2, 2, talib.SMA)
		lastPrice := series[len(series)-1]
		u, l := upper[len(upper)-1], lower[len(lower)-1]
		if u > l {
			pos := (lastPrice - l) / (u - l)
			frag.BollingerPosition = &pos
		}
	}

	return frag, nil
}
