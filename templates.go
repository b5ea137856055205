package relay

import (
	"fmt"
	"strings"
)

// SegmentCount is how many subsectors the segment template asks for.
const SegmentCount = 7

// BuildPrompt renders the template for req.Task.
// FreeText and AdditionalDetails are truncated to MaxFreeTextLength first.
func BuildPrompt(req PromptRequest) (*Prompt, error) {
	switch req.Task {
	case TaskGenerateSegments:
		if strings.TrimSpace(req.Industry) == "" {
			return nil, &ValidationError{Field: "industry", Message: "is required"}
		}
		return segmentsPrompt(req.Industry), nil

	case TaskEnhanceSegments:
		if req.FreeText == "" {
			return nil, &ValidationError{Field: "segments", Message: "is required"}
		}
		return enhancePrompt(req.Industry, Truncate(req.FreeText, MaxFreeTextLength)), nil

	case TaskGenerateStrategy:
		if req.FreeText != "" {
			return strategyPrompt(Truncate(req.FreeText, MaxFreeTextLength)), nil
		}
		if strings.TrimSpace(req.Industry) == "" {
			return nil, &ValidationError{Message: "segmentInfo or industry is required"}
		}
		return researchPrompt(req.Industry, req.TargetMarket, Truncate(req.AdditionalDetails, MaxFreeTextLength)), nil

	default:
		return nil, &ValidationError{Message: fmt.Sprintf("unknown task %s", req.Task)}
	}
}

func segmentsPrompt(industry string) *Prompt {
	return &Prompt{
		Role: fmt.Sprintf(`Instruction
You are a Product Market Fit expert specializing in Go-To-Market Engineering, Revenue Operations (RevOps), and Message-Market Fit. Your objective is to optimize outbound campaigns for a Fractional CFO targeting the %s industry via cold email and LinkedIn. Your task is to identify the best B2B subsectors to refine the target segment list for companies needing a 10-15 person Fractional CFO team.`, industry),
		Task: fmt.Sprintf(`Task
Determine %d %s industry segments that would be the best fit for high-ticket, recurring CFO services. These must meet:`, SegmentCount, industry),
		Requirements: []string{
			"Financial Viability: $5M–$150M annual revenue (can afford $15K–$30K/month retainers)",
			"Recurring Need Justification: Requires ongoing financial strategy, not one-time services",
			"Accessibility: CEOs/CFOs reachable via LinkedIn/email/phone",
			"Service Fit: Needs budgeting, cash flow management, KPI tracking, or financial advisory",
		},
		Format: fmt.Sprintf(`Output Format
Ranked numbered list of exactly %d subsectors with this structure for each entry:
1. [Subsector Name]
   - Justification for CFO Services: [Specific need for recurring financial leadership]
   - Estimated Market US Potential: [X companies, $Y–$Z revenue]
   - Ease of Outreach: [Low/Medium/High based on decision-maker visibility]`, SegmentCount),
		Example: `1. Medical Device Distributors
   - Justification for CFO Services: Complex inventory financing and recurring FDA compliance budgeting needs
   - Estimated Market US Potential: 600 companies, $10M–$45M revenue
   - Ease of Outreach: Medium`,
		Constraints: []string{
			"Provide only the numbered list without markdown or additional explanations.",
			"Arrange them from Highest to Lowest Profiting Segments for Fractional CFO Services.",
		},
	}
}

func enhancePrompt(industry, segments string) *Prompt {
	return &Prompt{
		Role:  fmt.Sprintf("You are a market research expert specializing in high-ticket fractional CFO services. Below is a list of promising segments in the %s industry:", industry),
		Input: segments,
		Task:  fmt.Sprintf(`Provide an enhanced analysis in English only, starting with the title "Deep Dive: Best %s Segments for High-Ticket Fractional CFO Services". Adjust the capitalization of the title if needed. Do not include introductory sentences like "Okay, here's an analysis...". For each segment, use the following format with numbered headings:`, industry),
		Format: strings.Join([]string{
			"A. **Why This Segment?** - Explain in 3 sentences why this segment needs fractional CFO services (e.g., complex financial needs, growth demands).",
			"B. **High-Ticket Justification** - List 4 specific financial challenges or tasks in bullet points that justify premium CFO services (e.g., financial modeling, investor reporting).",
			"C. **How Lucrative Is This Market?** - Assess market size, growth trends, or profitability potential in 2-3 sentences.",
			"D. **Marketing Angles** - Provide 3 compelling marketing messages in bullet points tailored to this segment’s needs.",
		}, "\n"),
		Constraints: []string{
			"Keep each section concise and actionable.",
			`Structure the response with the title followed by segment headings (e.g., "1. Real Estate Development Firms") and numbered subsections.`,
		},
	}
}

func strategyPrompt(segmentInfo string) *Prompt {
	return &Prompt{
		Role:  "You are a B2B outbound strategist for a fractional CFO firm. Below is segment research prepared for an outreach campaign:",
		Input: segmentInfo,
		Task:  "Create a targeting strategy for every segment in the research above. The output is parsed by software, so follow these rules exactly:",
		Requirements: []string{
			"Produce one block per segment, in the order the segments appear above.",
			"Every block uses the seven labels below, in capitals, in this order, each on its own line.",
			"Separate blocks with a line containing only ---.",
		},
		Format: `SEGMENT: [Segment name]
IDEAL CUSTOMER PROFILE: [Company size, revenue band, growth stage]
DECISION MAKERS: [Titles to contact, comma separated]
PAIN POINTS: [3 financial pain points, separated by semicolons]
OUTREACH CHANNELS: [Channels ranked by expected reply rate]
OPENING MESSAGE: [One-sentence cold email opener]
PRIORITY: [High/Medium/Low]`,
		Constraints: []string{
			"Use plain text only, without markdown.",
			"Do not include a preamble, a summary, or a conclusion.",
		},
	}
}

func researchPrompt(industry, targetMarket, additionalDetails string) *Prompt {
	var focus []string
	if targetMarket != "" {
		focus = append(focus, fmt.Sprintf("Focus particularly on the %s market.", targetMarket))
	}
	if additionalDetails != "" {
		focus = append(focus, "Additional context: "+additionalDetails)
	}

	return &Prompt{
		Role:  fmt.Sprintf("As a market research specialist, create a comprehensive market segmentation analysis for the %s industry.", industry),
		Input: strings.Join(focus, "\n"),
		Task:  "Please provide a detailed analysis with these sections:",
		Format: `1. Industry Overview
- Brief description of the industry
- Current market size and growth rate
- Key trends and drivers

2. Primary Market Segments
- Identify 4-6 distinct market segments
- For each segment, provide:
  * Detailed demographic profile
  * Estimated segment size (percentage of total market)
  * Key needs and pain points
  * Buying behaviors and preferences
  * Growth potential

3. Competitive Landscape
- Major players targeting each segment
- What positioning and value propositions work for each segment

4. Strategic Opportunities
- Underserved segments
- Emerging niche markets
- Segment-specific recommendations

5. Targeting Recommendations
- Which segments offer the best opportunity
- How to effectively position for these segments`,
		Constraints: []string{
			"Format the report in a clear, professional manner with plain text only.",
		},
	}
}
