package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"carvest-backend/internal/model"

	"github.com/pkg/errors"
)

var personas = []string{
	"I am a first-time investor who recently bought fractional shares in a few luxury cars and want to understand what I own.",
	"I am a high-net-worth collector diversifying from classic cars into fractional ownership of modern exotics.",
	"I am a financial advisor reviewing a client's luxury vehicle allocation before our quarterly meeting.",
	"I am a tech professional with a long horizon who treats luxury car shares as an alternative asset class.",
	"I am a retiree looking for steady rental income from my car shares rather than speculative gains.",
}

var contextFragments = []string{
	"I prefer lower volatility even if it means giving up some upside.",
	"Rental income matters more to me than resale appreciation.",
	"I am comfortable holding positions for five years or longer.",
	"I am particularly interested in electric and hybrid performance cars.",
	"I may need to liquidate part of my holdings within the next 12 months.",
	"I want to understand how seasonal rental demand affects my returns.",
}

var generalQuestions = []string{
	"How does my portfolio compare with the broader luxury car market right now?",
	"What should I watch over the next quarter?",
	"Is my portfolio well diversified across segments?",
	"How do current interest rates affect my holdings?",
}

var categoryQuestions = map[string][]string{
	model.AnalysisRisk: {
		"What are the biggest risks in my current holdings?",
		"How exposed am I to a drop in hypercar demand?",
		"How liquid are my positions if I need to sell quickly?",
		"Which upcoming events could hurt my portfolio value?",
	},
	model.AnalysisOpportunity: {
		"Which vehicles offer the best return potential right now?",
		"Are there undervalued segments I should consider?",
		"Where is rental demand growing fastest?",
		"Which upcoming events could create buying opportunities?",
	},
	model.AnalysisPerformance: {
		"How have my holdings performed since purchase?",
		"Which of my cars are dragging down returns?",
		"How does my rental yield compare with the segment averages?",
		"Am I beating a reasonable benchmark?",
	},
	model.AnalysisComprehensive: {
		"Give me a full health check of my portfolio.",
		"What should I buy, hold or sell?",
		"How balanced is my risk versus return?",
		"What is the outlook for my holdings over the next year?",
	},
}

var systemInstructions = map[string]string{
	model.AnalysisRisk: "You are a risk analyst specializing in fractional luxury car investments. " +
		"Assess portfolio risk from market volatility, liquidity, segment concentration and upcoming events.",
	model.AnalysisOpportunity: "You are an investment strategist for fractional luxury car ownership. " +
		"Identify the strongest buying and rental income opportunities in the current market.",
	model.AnalysisPerformance: "You are a portfolio performance analyst for luxury car investments. " +
		"Evaluate returns, rental yield and benchmark performance of the investor's holdings.",
	model.AnalysisComprehensive: "You are a senior wealth advisor for fractional luxury car investors. " +
		"Produce a complete review covering health, risk, performance, outlook and concrete actions.",
}

const jsonInstruction = "Respond strictly with a single JSON object matching the provided schema. " +
	"Do not add any text outside the JSON."

// Prompt is everything sent upstream for one analysis.
type Prompt struct {
	System   string
	User     string
	Schema   *model.ResponseSchema
	Snapshot *model.MarketSnapshot
}

func (p *Prompt) Messages() []model.ChatMessage {
	return []model.ChatMessage{
		{Role: model.RoleSystem, Content: p.System},
		{Role: model.RoleUser, Content: p.User},
	}
}

// PromptAssembler builds varied prompts for the same market data so the
// upstream model does not return cached-looking answers.
type PromptAssembler struct {
	rng Randomizer
	now func() time.Time
}

func NewPromptAssembler(rng Randomizer) *PromptAssembler {
	return &PromptAssembler{rng: rng, now: time.Now}
}

// Assemble builds the prompt for analysisType. portfolio may be nil.
func (a *PromptAssembler) Assemble(snapshot *model.MarketSnapshot, portfolio *model.Portfolio, analysisType string) (*Prompt, error) {
	if !model.IsAnalysisType(analysisType) {
		analysisType = model.AnalysisComprehensive
	}

	jittered := JitterSnapshot(snapshot, a.rng, a.now())

	system := systemInstructions[analysisType]
	if portfolio != nil {
		holdings, err := json.MarshalIndent(portfolio.Holdings, "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, "marshal holdings")
		}
		system += "\n\nThe investor currently holds:\n" + string(holdings)
	}
	system += "\n\n" + jsonInstruction

	user, err := a.userMessage(jittered, analysisType)
	if err != nil {
		return nil, err
	}

	return &Prompt{
		System:   system,
		User:     user,
		Schema:   SchemaFor(analysisType),
		Snapshot: jittered,
	}, nil
}

func (a *PromptAssembler) userMessage(snapshot *model.MarketSnapshot, analysisType string) (string, error) {
	persona := personas[a.rng.IntN(len(personas))]
	contexts := pickN(a.rng, contextFragments, 1+a.rng.IntN(2))

	pool := make([]string, 0, len(categoryQuestions[analysisType])+len(generalQuestions))
	pool = append(pool, categoryQuestions[analysisType]...)
	pool = append(pool, generalQuestions...)
	questions := pickN(a.rng, pool, 1+a.rng.IntN(3))

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "marshal market snapshot")
	}

	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\n\n")
	for _, c := range contexts {
		b.WriteString(c)
		b.WriteString("\n")
	}
	b.WriteString("\nCurrent market data:\n")
	b.Write(data)
	b.WriteString("\n\nPlease answer:\n")
	for _, q := range questions {
		fmt.Fprintf(&b, "- %s\n", q)
	}
	return b.String(), nil
}
