package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Analysis types accepted by the wealth endpoint.
const (
	AnalysisRisk          = "risk"
	AnalysisOpportunity   = "opportunity"
	AnalysisPerformance   = "performance"
	AnalysisComprehensive = "comprehensive"
)

var AnalysisTypes = []string{AnalysisRisk, AnalysisOpportunity, AnalysisPerformance, AnalysisComprehensive}

func IsAnalysisType(t string) bool {
	for _, a := range AnalysisTypes {
		if a == t {
			return true
		}
	}
	return false
}

type Vehicle struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Brand           string          `json:"brand"`
	Category        string          `json:"category"`
	Year            int             `json:"year"`
	PricePerShare   decimal.Decimal `json:"pricePerShare"`
	TotalShares     int             `json:"totalShares"`
	DailyRentalRate decimal.Decimal `json:"dailyRentalRate"`
	ExpectedYield   float64         `json:"expectedYield"`
	ImageURL        string          `json:"imageUrl"`
}

type Holding struct {
	VehicleID     string          `json:"vehicleId"`
	Vehicle       string          `json:"vehicle"`
	SharesOwned   int             `json:"sharesOwned"`
	TotalShares   int             `json:"totalShares"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	CurrentValue  decimal.Decimal `json:"currentValue"`
	PurchasedAt   time.Time       `json:"purchasedAt"`
}

// Insight is the latest analysis of one type, overwritten on re-analysis.
type Insight struct {
	Result      map[string]any `json:"result"`
	GeneratedAt time.Time      `json:"generatedAt"`
}

type Portfolio struct {
	UserID         string             `json:"userId"`
	Holdings       []Holding          `json:"holdings"`
	TotalInvested  decimal.Decimal    `json:"totalInvested"`
	CurrentValue   decimal.Decimal    `json:"currentValue"`
	MarketInsights map[string]Insight `json:"marketInsights"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

// Recalculate refreshes the totals from the holdings.
func (p *Portfolio) Recalculate() {
	invested := decimal.Zero
	current := decimal.Zero
	for _, h := range p.Holdings {
		invested = invested.Add(h.PurchasePrice)
		current = current.Add(h.CurrentValue)
	}
	p.TotalInvested = invested
	p.CurrentValue = current
}

// Clone deep-copies the portfolio, including its insight map.
func (p *Portfolio) Clone() *Portfolio {
	if p == nil {
		return nil
	}
	c := *p
	c.Holdings = append([]Holding(nil), p.Holdings...)
	c.MarketInsights = make(map[string]Insight, len(p.MarketInsights))
	for k, v := range p.MarketInsights {
		c.MarketInsights[k] = v
	}
	return &c
}

type AnalyzeResponse struct {
	Success      bool           `json:"success"`
	AnalysisType string         `json:"analysisType"`
	Result       map[string]any `json:"result"`
}

// SegmentData describes one market segment of the luxury car market.
type SegmentData struct {
	Name               string  `json:"name"`
	GrowthRate         float64 `json:"growthRate"`
	Volatility         float64 `json:"volatility"`
	DemandIndex        float64 `json:"demandIndex"`
	SupplyIndex        float64 `json:"supplyIndex"`
	AveragePrice       float64 `json:"averagePrice"`
	RentalYield        float64 `json:"rentalYield"`
	RiskLevel          string  `json:"riskLevel"`
	Sentiment          string  `json:"sentiment"`
	SeasonalMultiplier float64 `json:"seasonalMultiplier"`
}

type MacroIndicators struct {
	InterestRate       float64 `json:"interestRate"`
	Inflation          float64 `json:"inflation"`
	LuxuryIndex        float64 `json:"luxuryIndex"`
	ConsumerConfidence string  `json:"consumerConfidence"`
}

type MarketEvent struct {
	Name        string  `json:"name"`
	Date        string  `json:"date"`
	ImpactScore float64 `json:"impactScore"`
}

// MarketSnapshot is the market data embedded in analysis prompts.
type MarketSnapshot struct {
	Segments         []SegmentData   `json:"segments"`
	Macro            MacroIndicators `json:"macroIndicators"`
	Events           []MarketEvent   `json:"upcomingEvents"`
	RequestTimestamp *time.Time      `json:"requestTimestamp,omitempty"`
	RequestID        string          `json:"requestId,omitempty"`
}

// Clone returns a deep copy; slices are never shared with s.
func (s *MarketSnapshot) Clone() *MarketSnapshot {
	c := *s
	c.Segments = append([]SegmentData(nil), s.Segments...)
	c.Events = append([]MarketEvent(nil), s.Events...)
	if s.RequestTimestamp != nil {
		ts := *s.RequestTimestamp
		c.RequestTimestamp = &ts
	}
	return &c
}
