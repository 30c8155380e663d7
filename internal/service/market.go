package service

import (
	"math"
	"time"

	"carvest-backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	riskLevels = []string{"low", "moderate", "high", "very high"}
	sentiments = []string{"bearish", "cautious", "neutral", "optimistic", "bullish"}
)

// Jitter bounds, as fractions of the value.
const (
	growthJitter   = 0.05
	volJitter      = 0.03
	indexJitter    = 0.02
	priceJitter    = 0.015
	yieldJitter    = 0.03
	seasonalJitter = 0.02
	macroJitter    = 0.02
	eventJitter    = 0.05
)

// DefaultMarketSnapshot is the sample luxury car market the analyses run on.
func DefaultMarketSnapshot() *model.MarketSnapshot {
	return &model.MarketSnapshot{
		Segments: []model.SegmentData{
			{Name: "Hypercars", GrowthRate: 12.4, Volatility: 18.5, DemandIndex: 87, SupplyIndex: 34,
				AveragePrice: 2400000, RentalYield: 9.1, RiskLevel: "high", Sentiment: "bullish", SeasonalMultiplier: 1.15},
			{Name: "Supercars", GrowthRate: 8.7, Volatility: 14.2, DemandIndex: 78, SupplyIndex: 52,
				AveragePrice: 320000, RentalYield: 8.2, RiskLevel: "moderate", Sentiment: "optimistic", SeasonalMultiplier: 1.22},
			{Name: "Luxury Sedans", GrowthRate: 4.1, Volatility: 7.8, DemandIndex: 64, SupplyIndex: 61,
				AveragePrice: 340000, RentalYield: 5.9, RiskLevel: "low", Sentiment: "neutral", SeasonalMultiplier: 0.98},
			{Name: "Electric Performance", GrowthRate: 15.8, Volatility: 21.3, DemandIndex: 82, SupplyIndex: 70,
				AveragePrice: 110000, RentalYield: 7.2, RiskLevel: "high", Sentiment: "optimistic", SeasonalMultiplier: 1.05},
			{Name: "Luxury SUVs", GrowthRate: 6.3, Volatility: 9.6, DemandIndex: 74, SupplyIndex: 58,
				AveragePrice: 180000, RentalYield: 6.5, RiskLevel: "moderate", Sentiment: "neutral", SeasonalMultiplier: 1.1},
		},
		Macro: model.MacroIndicators{
			InterestRate:       5.25,
			Inflation:          3.1,
			LuxuryIndex:        142.7,
			ConsumerConfidence: "moderate",
		},
		Events: []model.MarketEvent{
			{Name: "Monterey Car Week auctions", Date: "2025-08-14", ImpactScore: 8.5},
			{Name: "Geneva International Motor Show", Date: "2025-03-04", ImpactScore: 6.0},
			{Name: "EU luxury import tariff review", Date: "2025-06-30", ImpactScore: 7.2},
			{Name: "Summer rental peak season", Date: "2025-06-01", ImpactScore: 6.8},
		},
	}
}

// JitterSnapshot perturbs a deep copy of src and stamps it with now and a
// fresh request id. src is never modified.
func JitterSnapshot(src *model.MarketSnapshot, rng Randomizer, now time.Time) *model.MarketSnapshot {
	out := src.Clone()

	for i := range out.Segments {
		s := &out.Segments[i]
		s.GrowthRate = round2(jitter(rng, s.GrowthRate, growthJitter))
		s.Volatility = round2(jitter(rng, s.Volatility, volJitter))
		s.DemandIndex = round2(jitter(rng, s.DemandIndex, indexJitter))
		s.SupplyIndex = round2(jitter(rng, s.SupplyIndex, indexJitter))
		s.AveragePrice = math.Round(jitter(rng, s.AveragePrice, priceJitter))
		s.RentalYield = round2(jitter(rng, s.RentalYield, yieldJitter))
		s.RiskLevel = stepOrdinal(rng, riskLevels, s.RiskLevel)
		s.Sentiment = stepOrdinal(rng, sentiments, s.Sentiment)
		s.SeasonalMultiplier = round2(jitter(rng, s.SeasonalMultiplier, seasonalJitter))
	}

	out.Macro.InterestRate = round2(jitter(rng, out.Macro.InterestRate, macroJitter))
	out.Macro.Inflation = round2(jitter(rng, out.Macro.Inflation, macroJitter))
	out.Macro.LuxuryIndex = round2(jitter(rng, out.Macro.LuxuryIndex, macroJitter))
	out.Macro.ConsumerConfidence = stepOrdinal(rng, riskLevels[:3], out.Macro.ConsumerConfidence)

	for i := range out.Events {
		out.Events[i].ImpactScore = round2(jitter(rng, out.Events[i].ImpactScore, eventJitter))
	}
	rng.Shuffle(len(out.Events), func(i, j int) {
		out.Events[i], out.Events[j] = out.Events[j], out.Events[i]
	})

	ts := now
	out.RequestTimestamp = &ts
	out.RequestID = uuid.New().String()
	return out
}

// jitter returns v scaled by a uniform factor in [1-pct, 1+pct).
func jitter(rng Randomizer, v, pct float64) float64 {
	return v * (1 + (rng.Float64()*2-1)*pct)
}

// stepOrdinal moves value at most one step along scale. Values outside the
// scale are returned unchanged.
func stepOrdinal(rng Randomizer, scale []string, value string) string {
	for i, s := range scale {
		if s != value {
			continue
		}
		j := i + rng.IntN(3) - 1
		if j < 0 {
			j = 0
		}
		if j >= len(scale) {
			j = len(scale) - 1
		}
		return scale[j]
	}
	return value
}

func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
