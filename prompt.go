package relay

import (
	"fmt"
	"strings"
)

// Prompt represents a structured market-research prompt.
// Sections render in a fixed order so each template stays deterministic.
type Prompt struct {
	Role         string   // Who the model is asked to be
	Task         string   // Required: what the model should produce
	Input        string   // Pasted user text, rendered verbatim
	Requirements []string // Numbered criteria the output must satisfy
	Format       string   // Exact output layout
	Example      string   // Optional worked example of the layout
	Constraints  []string // Closing rules, rendered as plain sentences
}

// Render converts the structured prompt to the single user message sent upstream.
func (p *Prompt) Render() string {
	var sections []string

	if p.Role != "" {
		sections = append(sections, p.Role)
	}

	// Pasted input sits between the framing and the instruction
	if p.Input != "" {
		sections = append(sections, p.Input)
	}

	if p.Task != "" {
		sections = append(sections, p.Task)
	}

	if len(p.Requirements) > 0 {
		var req strings.Builder
		for i, r := range p.Requirements {
			fmt.Fprintf(&req, "%d. %s\n", i+1, r)
		}
		sections = append(sections, strings.TrimSpace(req.String()))
	}

	if p.Format != "" {
		sections = append(sections, p.Format)
	}

	if p.Example != "" {
		sections = append(sections, "Example:\n"+p.Example)
	}

	// Constraints - always last
	if len(p.Constraints) > 0 {
		sections = append(sections, strings.Join(p.Constraints, " "))
	}

	return strings.Join(sections, "\n\n")
}

// Validate checks if the prompt has required fields.
func (p *Prompt) Validate() error {
	if p.Task == "" {
		return fmt.Errorf("prompt missing required Task field")
	}
	return nil
}

// Truncate keeps the first limit characters of text.
// Counting is by rune so multi-byte input is never split mid-character.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	n := 0
	for i := range text {
		if n == limit {
			return text[:i]
		}
		n++
	}
	return text
}
