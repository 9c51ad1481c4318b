package domain

// enrichment.go - EnrichmentBundle, the assembled output of the
// Enrichment Orchestrator's provider fan-out.

import "github.com/shopspring/decimal"

// Provider identifies one of the abstract provider roles in §4.4.
type Provider string

const (
	ProviderSecurity         Provider = "security"
	ProviderMarket           Provider = "market"
	ProviderHolders          Provider = "holders"
	ProviderCreatorHistory   Provider = "creator_history"
	ProviderFlowDistribution Provider = "flow_distribution"
	ProviderMomentum         Provider = "momentum"
)

// FailureReason enumerates the Enrichment Orchestrator's failure taxonomy.
type FailureReason string

const (
	ReasonProviderTimeout     FailureReason = "ProviderTimeout"
	ReasonProviderRateLimited FailureReason = "ProviderRateLimited"
	ReasonProviderAuthError   FailureReason = "ProviderAuthError"
	ReasonProviderDecodeError FailureReason = "ProviderDecodeError"
	ReasonProviderUnavailable FailureReason = "ProviderUnavailable"
)

// SecurityFragment is the Security/Safety provider's output.
type SecurityFragment struct {
	IsHoneypot         *bool
	IsOpenSource       *bool
	IsMintable         *bool
	TransferPausable   *bool
	SlippageModifiable *bool
	Cooldown           *bool
	CreatorRugCount    *int
}

// MarketFragment is the Market/Price/Liquidity provider's output.
type MarketFragment struct {
	PriceUsd           decimal.Decimal
	LiquidityUsd       decimal.Decimal
	Volume1h           decimal.Decimal
	Volume6h           decimal.Decimal
	Volume24h          decimal.Decimal
	PriceChange1hPct   float64
	PriceChange6hPct   float64
	PriceChange24hPct  float64
	MarketCapUsd       decimal.Decimal
	Holders            int
	HolderGrowthPerMin float64
}

// TradersFragment is the Holders/Bundlers/Snipers provider's output.
type TradersFragment struct {
	ActiveCount      int
	WhaleCount       int
	SniperCount      int
	InsiderRatio     float64
	BundlerRatio     float64
	ProfitableRatio  float64
}

// FlowFragment is the Holder-distribution/flow-analysis provider's output.
type FlowFragment struct {
	BuyFlows                  int
	SellFlows                 int
	WhaleFlows                int
	TopHolderConcentrationPct float64
}

// MomentumFragment is computed locally from a buffered price series.
type MomentumFragment struct {
	Rsi               *float64
	MacdSignal        *float64
	BollingerPosition *float64
	VolumeSpike       *bool
}

// SocialFragment records presence of community links; not a provider on
// its own, folded in from the Market/metadata fetch.
type SocialFragment struct {
	HasTwitter  bool
	HasTelegram bool
	HasWebsite  bool
}

// Completeness is a bitmap of which providers contributed a fragment.
type Completeness uint8

const (
	CompleteSecurity Completeness = 1 << iota
	CompleteMarket
	CompleteHolders
	CompleteCreatorHistory
	CompleteFlow
	CompleteMomentum
)

func (c Completeness) Has(bit Completeness) bool { return c&bit != 0 }

// EnrichmentBundle is the Enrichment Orchestrator's assembled output,
// keyed by address, consumed by Scoring.
type EnrichmentBundle struct {
	Address          string
	Security         SecurityFragment
	Market           MarketFragment
	Traders          TradersFragment
	Flow             FlowFragment
	Momentum         MomentumFragment
	Social           SocialFragment
	Completeness     Completeness
	FetchLatenciesMs map[Provider]int64
	FailureReasons   map[Provider]FailureReason
}
