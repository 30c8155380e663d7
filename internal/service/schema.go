package service

import (
	"sort"

	"carvest-backend/internal/model"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// object builds a closed object schema with every property required, which
// strict structured output demands.
func object(props map[string]jsonschema.Definition) jsonschema.Definition {
	required := make([]string, 0, len(props))
	for k := range props {
		required = append(required, k)
	}
	sort.Strings(required)
	return jsonschema.Definition{
		Type:                 jsonschema.Object,
		Properties:           props,
		Required:             required,
		AdditionalProperties: false,
	}
}

func str(desc string) jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.String, Description: desc}
}

func num(desc string) jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.Number, Description: desc}
}

func arrayOf(item jsonschema.Definition) jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.Array, Items: &item}
}

func riskMetric() jsonschema.Definition {
	return object(map[string]jsonschema.Definition{
		"level":       str("low, moderate, high or very high"),
		"percentage":  num("share of portfolio value exposed, 0-100"),
		"description": str("one sentence explanation"),
	})
}

var riskSchema = object(map[string]jsonschema.Definition{
	"overallRiskLevel": str("low, moderate, high or very high"),
	"riskScore":        num("0-100, higher is riskier"),
	"riskFactors": arrayOf(object(map[string]jsonschema.Definition{
		"factor":             str("name of the risk"),
		"impact":             str("low, medium or high"),
		"mitigationStrategy": str("concrete mitigation"),
	})),
	"marketRisks": object(map[string]jsonschema.Definition{
		"volatility":    riskMetric(),
		"liquidity":     riskMetric(),
		"concentration": riskMetric(),
	}),
	"recommendations": arrayOf(str("risk reduction recommendation")),
	"summary":         str("two or three sentence summary"),
})

var opportunitySchema = object(map[string]jsonschema.Definition{
	"opportunities": arrayOf(object(map[string]jsonschema.Definition{
		"vehicle":        str("vehicle make and model"),
		"segment":        str("market segment"),
		"expectedReturn": num("expected annual return in percent"),
		"timeHorizon":    str("investment horizon"),
		"rationale":      str("why this is an opportunity"),
		"confidence":     str("low, medium or high"),
	})),
	"recommendedVehicles": arrayOf(object(map[string]jsonschema.Definition{
		"vehicle":          str("vehicle make and model"),
		"reason":           str("why it is recommended"),
		"targetAllocation": num("suggested share of portfolio in percent"),
	})),
	"marketTrends": arrayOf(str("trend driving returns")),
	"summary":      str("two or three sentence summary"),
})

func performer() jsonschema.Definition {
	return object(map[string]jsonschema.Definition{
		"vehicle":          str("vehicle make and model"),
		"returnPercentage": num("return since purchase in percent"),
		"contribution":     str("effect on the portfolio"),
	})
}

var performanceSchema = object(map[string]jsonschema.Definition{
	"overallReturn":    num("total return in percent"),
	"annualizedReturn": num("annualized return in percent"),
	"benchmarkComparison": object(map[string]jsonschema.Definition{
		"benchmark":       str("benchmark name"),
		"portfolioReturn": num("portfolio return in percent"),
		"benchmarkReturn": num("benchmark return in percent"),
		"outperformance":  num("portfolio minus benchmark, percentage points"),
	}),
	"topPerformers":   arrayOf(performer()),
	"underperformers": arrayOf(performer()),
	"insights":        arrayOf(str("performance insight")),
	"summary":         str("two or three sentence summary"),
})

var comprehensiveSchema = object(map[string]jsonschema.Definition{
	"summary": str("executive summary"),
	"portfolioHealth": object(map[string]jsonschema.Definition{
		"score":  num("0-100"),
		"rating": str("poor, fair, good or excellent"),
	}),
	"riskAssessment": object(map[string]jsonschema.Definition{
		"overallRiskLevel": str("low, moderate, high or very high"),
		"keyRisks":         arrayOf(str("key risk")),
	}),
	"performanceOverview": object(map[string]jsonschema.Definition{
		"overallReturn": num("total return in percent"),
		"trend":         str("improving, stable or declining"),
	}),
	"recommendedVehicles": arrayOf(object(map[string]jsonschema.Definition{
		"vehicle":  str("vehicle make and model"),
		"action":   str("buy, hold or sell"),
		"reason":   str("why"),
		"priority": str("low, medium or high"),
	})),
	"marketOutlook": str("outlook for the next 12 months"),
	"actionItems":   arrayOf(str("next step for the investor")),
})

var carSearchSchema = object(map[string]jsonschema.Definition{
	"matches": arrayOf(object(map[string]jsonschema.Definition{
		"vehicle":    str("exact catalog vehicle name"),
		"matchScore": num("0-100 relevance to the query"),
		"reason":     str("why it fits the query"),
	})),
	"summary": str("one or two sentence answer to the query"),
})

// SchemaFor returns the response schema for an analysis type.
func SchemaFor(analysisType string) *model.ResponseSchema {
	var def jsonschema.Definition
	switch analysisType {
	case model.AnalysisRisk:
		def = riskSchema
	case model.AnalysisOpportunity:
		def = opportunitySchema
	case model.AnalysisPerformance:
		def = performanceSchema
	default:
		analysisType = model.AnalysisComprehensive
		def = comprehensiveSchema
	}
	return &model.ResponseSchema{
		Name:        analysisType + "_analysis",
		Description: "Portfolio " + analysisType + " analysis",
		Schema:      def,
	}
}
