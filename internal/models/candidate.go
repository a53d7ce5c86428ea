package models

import "time"

// TickerSnapshot is a raw per-symbol market snapshot for one scan cycle.
// Snapshots are created by the market data source and are immutable once
// ingested; the pipeline never persists them.
type TickerSnapshot struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Close         float64   `json:"close"`
	VWAP          float64   `json:"vwap"`
	Volume        int64     `json:"volume"`
	PrevDayVolume int64     `json:"prev_day_volume"`
	PctChange     float64   `json:"pct_change"`
	AssetType     string    `json:"asset_type,omitempty"`
	Name          string    `json:"name,omitempty"`
	Issuer        string    `json:"issuer,omitempty"`
	SharesOut     int64     `json:"shares_outstanding,omitempty"`
	HasEarnings   bool      `json:"has_earnings,omitempty"`
	DataTimestamp time.Time `json:"data_timestamp"`
}

// Feature is a single measured feature value with provenance, or an explicit
// unavailable marker. A Feature with OK=false carries no value; callers must
// never substitute a default for it.
type Feature struct {
	Value      float64   `json:"value,omitempty"`
	Source     string    `json:"source,omitempty"`
	AsOf       time.Time `json:"asof,omitempty"`
	Confidence float64   `json:"confidence,omitempty"`
	OK         bool      `json:"ok"`
	Reason     string    `json:"reason,omitempty"`
}

// Measured builds a present feature with provenance.
func Measured(value float64, source string, asOf time.Time, confidence float64) Feature {
	return Feature{Value: value, Source: source, AsOf: asOf, Confidence: confidence, OK: true}
}

// Unavailable builds an explicit missing-feature marker.
func Unavailable(reason string) Feature {
	return Feature{OK: false, Reason: reason}
}

// EnrichedCandidate is a snapshot plus computed and provider-sourced
// features. Every feature field is either measured with provenance or
// explicitly unavailable.
type EnrichedCandidate struct {
	TickerSnapshot

	RelVolume30d Feature `json:"relative_volume_30d"`
	RelVolumeTOD Feature `json:"relative_volume_tod"`

	VWAPAdherence  Feature `json:"vwap_adherence"`
	PriceVWAPRatio Feature `json:"price_vwap_ratio"`

	ATRPct Feature `json:"atr_pct"`
	RSI    Feature `json:"rsi"`

	UptrendDays      int  `json:"uptrend_days"`
	UptrendSustained bool `json:"uptrend_sustained"`

	ShortInterestPct Feature `json:"short_interest_pct"`
	BorrowStress     Feature `json:"borrow_stress_score"`
	Sentiment        Feature `json:"sentiment_score"`
	OptionsActivity  Feature `json:"options_activity_score"`

	// Explosive-path structural factors, 0-100 scale.
	FloatRotation     Feature `json:"float_rotation"`
	SqueezeFriction   Feature `json:"squeeze_friction"`
	GammaPressure     Feature `json:"gamma_pressure"`
	CatalystFreshness Feature `json:"catalyst_freshness"`

	// Hard-guard inputs.
	EffectiveSpreadBps float64 `json:"effective_spread_bps"`
	ValueTradedUSD     float64 `json:"value_traded_usd"`

	// Confidence is the fraction of expected feature groups that returned
	// real data, decayed for staleness.
	Confidence float64 `json:"confidence"`
}

// Subscore names the canonical composite scoring components.
type Subscore string

const (
	SubscoreVolumeMomentum Subscore = "volume_momentum"
	SubscoreSqueeze        Subscore = "squeeze"
	SubscoreCatalyst       Subscore = "catalyst"
	SubscoreSentiment      Subscore = "sentiment"
	SubscoreOptions        Subscore = "options"
	SubscoreTechnical      Subscore = "technical"
)

// Subscores lists the canonical components in scoring order.
var Subscores = []Subscore{
	SubscoreVolumeMomentum,
	SubscoreSqueeze,
	SubscoreCatalyst,
	SubscoreSentiment,
	SubscoreOptions,
	SubscoreTechnical,
}

// ActionTag classifies a scored candidate into an ordered tier.
type ActionTag string

const (
	ActionTradeReady ActionTag = "trade_ready"
	ActionWatchlist  ActionTag = "watchlist"
	ActionMonitor    ActionTag = "monitor"
	ActionRejected   ActionTag = "rejected"
)

// ScoredCandidate is an enriched candidate with composite scoring output.
// Subscores holds only components with real data; ActiveWeights are the
// renormalized weights over those components and always sum to 1.
type ScoredCandidate struct {
	EnrichedCandidate

	Subscores     map[Subscore]float64 `json:"subscores"`
	ActiveWeights map[Subscore]float64 `json:"active_weights"`
	Missing       []Subscore           `json:"missing,omitempty"`
	TotalScore    float64              `json:"total_score"`
	ActionTag     ActionTag            `json:"action_tag"`
	Confidence    float64              `json:"confidence"`
}

// ExplosiveTier is the elastic fallback tier a shortlist entry cleared.
type ExplosiveTier string

const (
	TierPrime   ExplosiveTier = "prime"
	TierStrong  ExplosiveTier = "strong"
	TierElastic ExplosiveTier = "elastic"
)

// ExplosiveCandidate is the restricted view ranked by the explosive
// shortlist selector.
type ExplosiveCandidate struct {
	Symbol             string        `json:"symbol"`
	Price              float64       `json:"price"`
	EGS                float64       `json:"egs"`
	SER                float64       `json:"ser"`
	Tier               ExplosiveTier `json:"tier"`
	EffectiveSpreadBps float64       `json:"effective_spread_bps"`
	ValueTradedUSD     float64       `json:"value_traded_usd"`
}
