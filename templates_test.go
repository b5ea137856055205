package relay

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestBuildPrompt_Segments(t *testing.T) {
	for _, industry := range []string{"Healthcare", "SaaS", "Oil & Gas", "Crème brûlée bakeries"} {
		t.Run(industry, func(t *testing.T) {
			prompt, err := BuildPrompt(PromptRequest{Task: TaskGenerateSegments, Industry: industry})
			if err != nil {
				t.Fatalf("BuildPrompt failed: %v", err)
			}

			rendered := prompt.Render()
			if !strings.Contains(rendered, "targeting the "+industry+" industry") {
				t.Error("Prompt missing literal industry")
			}
			if !strings.Contains(rendered, "Determine 7 "+industry+" industry segments") {
				t.Error("Prompt does not ask for 7 segments")
			}
			if !strings.Contains(rendered, "numbered list of exactly 7 subsectors") {
				t.Error("Prompt does not require a numbered list of exactly 7 entries")
			}
			if !strings.Contains(rendered, "Ease of Outreach:") {
				t.Error("Prompt missing fixed entry labels")
			}
		})
	}
}

func TestBuildPrompt_Enhance(t *testing.T) {
	segments := "1. Medical Device Distributors\n   - Ease of Outreach: Medium"
	prompt, err := BuildPrompt(PromptRequest{Task: TaskEnhanceSegments, Industry: "Healthcare", FreeText: segments})
	if err != nil {
		t.Fatalf("BuildPrompt failed: %v", err)
	}

	rendered := prompt.Render()
	if !strings.Contains(rendered, segments) {
		t.Error("Prompt missing segment text")
	}
	if !strings.Contains(rendered, `"Deep Dive: Best Healthcare Segments for High-Ticket Fractional CFO Services"`) {
		t.Error("Prompt missing required title")
	}
	for _, label := range []string{"A. **Why This Segment?**", "B. **High-Ticket Justification**", "C. **How Lucrative Is This Market?**", "D. **Marketing Angles**"} {
		if !strings.Contains(rendered, label) {
			t.Errorf("Prompt missing section %q", label)
		}
	}
	if strings.Index(rendered, segments) > strings.Index(rendered, "Provide an enhanced analysis") {
		t.Error("Segment text should come before the instruction")
	}
}

func TestBuildPrompt_Truncation(t *testing.T) {
	head := strings.Repeat("abcdefghij", MaxFreeTextLength/10)
	tail := "THIS-TAIL-MUST-BE-DROPPED"

	for _, kind := range []TaskKind{TaskEnhanceSegments, TaskGenerateStrategy} {
		t.Run(kind.String(), func(t *testing.T) {
			prompt, err := BuildPrompt(PromptRequest{Task: kind, Industry: "Retail", FreeText: head + tail})
			if err != nil {
				t.Fatalf("BuildPrompt failed: %v", err)
			}

			rendered := prompt.Render()
			if !strings.Contains(rendered, head) {
				t.Error("Prompt missing the first 20000 characters")
			}
			if strings.Contains(rendered, "THIS-TAIL") {
				t.Error("Prompt contains text past the limit")
			}
			if prompt.Input != head {
				t.Errorf("Expected input of %d characters, got %d", len(head), len(prompt.Input))
			}
		})
	}
}

func TestBuildPrompt_TruncationMultiByte(t *testing.T) {
	head := strings.Repeat("é日", MaxFreeTextLength/2)
	tail := "ü€ TAIL"

	for _, kind := range []TaskKind{TaskEnhanceSegments, TaskGenerateStrategy} {
		t.Run(kind.String(), func(t *testing.T) {
			prompt, err := BuildPrompt(PromptRequest{Task: kind, Industry: "Retail", FreeText: head + tail})
			if err != nil {
				t.Fatalf("BuildPrompt failed: %v", err)
			}

			if prompt.Input != head {
				t.Errorf("Expected the first %d characters, got %d", MaxFreeTextLength, utf8.RuneCountInString(prompt.Input))
			}

			rendered := prompt.Render()
			if !utf8.ValidString(rendered) {
				t.Error("Truncation split a multi-byte character")
			}
			if !strings.Contains(rendered, head) {
				t.Error("Prompt missing the first 20000 characters")
			}
			if strings.Contains(rendered, "ü€") {
				t.Error("Prompt contains text past the limit")
			}
		})
	}
}

func TestBuildPrompt_Strategy(t *testing.T) {
	t.Run("segment variant", func(t *testing.T) {
		info := "1. Dental Groups\n2. Veterinary Chains"
		prompt, err := BuildPrompt(PromptRequest{Task: TaskGenerateStrategy, FreeText: info})
		if err != nil {
			t.Fatalf("BuildPrompt failed: %v", err)
		}

		rendered := prompt.Render()
		if !strings.Contains(rendered, info) {
			t.Error("Prompt missing segment info")
		}
		for _, label := range []string{"SEGMENT:", "IDEAL CUSTOMER PROFILE:", "DECISION MAKERS:", "PAIN POINTS:", "OUTREACH CHANNELS:", "OPENING MESSAGE:", "PRIORITY:"} {
			if !strings.Contains(rendered, label) {
				t.Errorf("Prompt missing header label %q", label)
			}
		}
		if !strings.Contains(rendered, "Do not include a preamble") {
			t.Error("Prompt should forbid a preamble")
		}
	})

	t.Run("research variant", func(t *testing.T) {
		prompt, err := BuildPrompt(PromptRequest{
			Task:              TaskGenerateStrategy,
			Industry:          "Fintech",
			TargetMarket:      "European SMB",
			AdditionalDetails: "B2B only",
		})
		if err != nil {
			t.Fatalf("BuildPrompt failed: %v", err)
		}

		rendered := prompt.Render()
		if !strings.Contains(rendered, "analysis for the Fintech industry") {
			t.Error("Prompt missing industry")
		}
		if !strings.Contains(rendered, "Focus particularly on the European SMB market.") {
			t.Error("Prompt missing target market")
		}
		if !strings.Contains(rendered, "Additional context: B2B only") {
			t.Error("Prompt missing additional details")
		}
		if !strings.Contains(rendered, "5. Targeting Recommendations") {
			t.Error("Prompt missing report sections")
		}
	})

	t.Run("research variant without optionals", func(t *testing.T) {
		prompt, err := BuildPrompt(PromptRequest{Task: TaskGenerateStrategy, Industry: "Fintech"})
		if err != nil {
			t.Fatalf("BuildPrompt failed: %v", err)
		}

		rendered := prompt.Render()
		if strings.Contains(rendered, "Focus particularly") || strings.Contains(rendered, "Additional context") {
			t.Error("Optional lines rendered without values")
		}
	})
}

func TestBuildPrompt_MissingFields(t *testing.T) {
	tests := []PromptRequest{
		{Task: TaskGenerateSegments},
		{Task: TaskEnhanceSegments, Industry: "Retail"},
		{Task: TaskGenerateStrategy},
		{Task: TaskKind(99), Industry: "Retail"},
	}

	for _, req := range tests {
		t.Run(req.Task.String(), func(t *testing.T) {
			_, err := BuildPrompt(req)
			var validation *ValidationError
			if !errors.As(err, &validation) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
		})
	}
}

func TestBuildPrompt_Deterministic(t *testing.T) {
	req := PromptRequest{Task: TaskEnhanceSegments, Industry: "Logistics", FreeText: "1. Cold chain carriers"}

	first, err := BuildPrompt(req)
	if err != nil {
		t.Fatalf("BuildPrompt failed: %v", err)
	}
	second, err := BuildPrompt(req)
	if err != nil {
		t.Fatalf("BuildPrompt failed: %v", err)
	}
	if first.Render() != second.Render() {
		t.Error("Same request rendered differently")
	}
}
