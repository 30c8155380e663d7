package service

import (
	"strings"
	"testing"

	"carvest-backend/internal/model"
)

func TestAssembleBuildsPromptPerType(t *testing.T) {
	assembler := NewPromptAssembler(NewRandomizer(11))
	portfolio := SamplePortfolio("u1")

	for _, analysisType := range model.AnalysisTypes {
		prompt, err := assembler.Assemble(DefaultMarketSnapshot(), portfolio, analysisType)
		if err != nil {
			t.Fatalf("%s: Assemble: %v", analysisType, err)
		}

		if !strings.HasPrefix(prompt.System, systemInstructions[analysisType]) {
			t.Errorf("%s: system prompt does not start with its instruction", analysisType)
		}
		if !strings.Contains(prompt.System, "Ferrari SF90 Stradale") {
			t.Errorf("%s: holdings missing from system prompt", analysisType)
		}
		if !strings.Contains(prompt.User, "Current market data:") || !strings.Contains(prompt.User, "Please answer:") {
			t.Errorf("%s: user prompt missing sections:\n%s", analysisType, prompt.User)
		}
		if !strings.Contains(prompt.User, prompt.Snapshot.RequestID) {
			t.Errorf("%s: user prompt does not embed the jittered snapshot", analysisType)
		}
		if want := analysisType + "_analysis"; prompt.Schema.Name != want {
			t.Errorf("expected schema %s, got %s", want, prompt.Schema.Name)
		}

		msgs := prompt.Messages()
		if len(msgs) != 2 || msgs[0].Role != model.RoleSystem || msgs[1].Role != model.RoleUser {
			t.Errorf("%s: unexpected messages %+v", analysisType, msgs)
		}
	}
}

func TestAssembleUnknownTypeFallsBackToComprehensive(t *testing.T) {
	prompt, err := NewPromptAssembler(NewRandomizer(1)).Assemble(DefaultMarketSnapshot(), nil, "astrology")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if prompt.Schema.Name != "comprehensive_analysis" {
		t.Fatalf("expected comprehensive schema, got %s", prompt.Schema.Name)
	}
	if strings.Contains(prompt.System, "currently holds") {
		t.Fatal("expected no holdings without a portfolio")
	}
}

func TestAssembleVariesBetweenCalls(t *testing.T) {
	assembler := NewPromptAssembler(NewRandomizer(2024))
	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		prompt, err := assembler.Assemble(DefaultMarketSnapshot(), nil, model.AnalysisRisk)
		if err != nil {
			t.Fatalf("Assemble: %v", err)
		}
		seen[prompt.User] = true
	}
	if len(seen) < 2 {
		t.Fatal("expected prompts to vary between calls")
	}
}
