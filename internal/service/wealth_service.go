package service

import (
	"context"
	"encoding/json"
	"time"

	"carvest-backend/internal/model"
	"carvest-backend/internal/storage"
	"carvest-backend/internal/utils"
	"carvest-backend/pkg/logger"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidAnalysisType = errors.New("invalid analysis type")
	ErrNoInsights          = errors.New("no insights found")
	ErrMalformedResult     = errors.New("analysis result is not valid JSON")
)

// imageListKeys names the result arrays whose vehicles get catalog images.
var imageListKeys = map[string][]string{
	model.AnalysisOpportunity:   {"opportunities", "recommendedVehicles"},
	model.AnalysisComprehensive: {"recommendedVehicles"},
}

type WealthService struct {
	portfolios storage.PortfolioStorage
	llm        model.ChatCompleter
	assembler  *PromptAssembler
	market     *model.MarketSnapshot
	now        func() time.Time
}

func NewWealthService(portfolios storage.PortfolioStorage, llm model.ChatCompleter, rng Randomizer) *WealthService {
	return &WealthService{
		portfolios: portfolios,
		llm:        llm,
		assembler:  NewPromptAssembler(rng),
		market:     DefaultMarketSnapshot(),
		now:        time.Now,
	}
}

// Analyze runs one structured analysis for the user and stores it as the
// latest insight of that type. An empty analysisType means comprehensive.
func (s *WealthService) Analyze(ctx context.Context, userID, analysisType string) (map[string]any, string, error) {
	if analysisType == "" {
		analysisType = model.AnalysisComprehensive
	}
	if !model.IsAnalysisType(analysisType) {
		return nil, analysisType, errors.Wrapf(ErrInvalidAnalysisType, "%q", analysisType)
	}

	portfolio, err := s.portfolios.GetOrCreate(ctx, userID, SamplePortfolio)
	if err != nil {
		return nil, analysisType, errors.Wrap(err, "load portfolio")
	}

	prompt, err := s.assembler.Assemble(s.market, portfolio, analysisType)
	if err != nil {
		return nil, analysisType, err
	}

	log := logger.WithFields(logrus.Fields{
		"user_id":       userID,
		"analysis_type": analysisType,
		"request_id":    prompt.Snapshot.RequestID,
	})
	log.Info("requesting analysis")

	raw, err := s.llm.Complete(ctx, model.CompletionRequest{
		Messages: prompt.Messages(),
		Schema:   prompt.Schema,
	})
	if err != nil {
		return nil, analysisType, errors.Wrap(err, "upstream analysis")
	}

	result, err := parseStructured(raw, &prompt.Schema.Schema, log)
	if err != nil {
		return nil, analysisType, err
	}

	enrichVehicleImages(result, imageListKeys[analysisType]...)

	insight := model.Insight{Result: result, GeneratedAt: s.now()}
	if err := s.portfolios.SaveInsight(ctx, userID, analysisType, insight); err != nil {
		return nil, analysisType, errors.Wrap(err, "save insight")
	}
	return result, analysisType, nil
}

// parseStructured decodes model output into a JSON object. A schema mismatch
// is logged but tolerated.
func parseStructured(raw string, schema *jsonschema.Definition, log *logrus.Entry) (map[string]any, error) {
	body := utils.ExtractJSON(raw)

	var result map[string]any
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		return nil, errors.Wrapf(ErrMalformedResult, "%v", err)
	}

	var generic any
	if err := json.Unmarshal([]byte(body), &generic); err == nil && !jsonschema.Validate(*schema, generic) {
		log.Warn("analysis result does not match its schema")
	}
	return result, nil
}

// Portfolio returns the user's portfolio, creating the sample one on first
// access.
func (s *WealthService) Portfolio(ctx context.Context, userID string) (*model.Portfolio, error) {
	p, err := s.portfolios.GetOrCreate(ctx, userID, SamplePortfolio)
	if err != nil {
		return nil, errors.Wrap(err, "load portfolio")
	}
	return p, nil
}

// Insights returns stored insights, all of them or only analysisType when
// set. ErrNoInsights when there is nothing to return.
func (s *WealthService) Insights(ctx context.Context, userID, analysisType string) (map[string]model.Insight, error) {
	p, err := s.portfolios.Get(ctx, userID)
	if errors.Is(err, storage.ErrPortfolioNotFound) {
		return nil, ErrNoInsights
	}
	if err != nil {
		return nil, errors.Wrap(err, "load portfolio")
	}

	if analysisType != "" {
		insight, ok := p.MarketInsights[analysisType]
		if !ok {
			return nil, ErrNoInsights
		}
		return map[string]model.Insight{analysisType: insight}, nil
	}

	if len(p.MarketInsights) == 0 {
		return nil, ErrNoInsights
	}
	return p.MarketInsights, nil
}

type sampleHolding struct {
	vehicleID string
	shares    int
	// appreciation of the position since purchase, in percent
	change   float64
	heldDays int
}

var sampleHoldings = []sampleHolding{
	{vehicleID: "ferrari-sf90-stradale", shares: 5, change: 6.5, heldDays: 240},
	{vehicleID: "porsche-911-turbo-s", shares: 10, change: 3.2, heldDays: 410},
	{vehicleID: "tesla-model-s-plaid", shares: 8, change: -4.1, heldDays: 150},
}

// SamplePortfolio builds the demo portfolio every new user starts with.
func SamplePortfolio(userID string) *model.Portfolio {
	now := time.Now()
	p := &model.Portfolio{
		UserID:         userID,
		MarketInsights: make(map[string]model.Insight),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	for _, sh := range sampleHoldings {
		v, ok := vehicleByID(sh.vehicleID)
		if !ok {
			continue
		}
		paid := v.PricePerShare.Mul(decimal.NewFromInt(int64(sh.shares)))
		current := paid.Mul(decimal.NewFromFloat(1 + sh.change/100)).Round(2)
		p.Holdings = append(p.Holdings, model.Holding{
			VehicleID:     v.ID,
			Vehicle:       v.Name,
			SharesOwned:   sh.shares,
			TotalShares:   v.TotalShares,
			PurchasePrice: paid,
			CurrentValue:  current,
			PurchasedAt:   now.AddDate(0, 0, -sh.heldDays),
		})
	}
	p.Recalculate()
	return p
}

func vehicleByID(id string) (model.Vehicle, bool) {
	for _, v := range vehicleCatalog {
		if v.ID == id {
			return v, true
		}
	}
	return model.Vehicle{}, false
}
