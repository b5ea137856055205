package relay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// SegmentsPayload is the request body of generate-segments.
type SegmentsPayload struct {
	Industry string `json:"industry" desc:"Target industry, e.g. Healthcare"`
}

// EnhancePayload is the request body of enhance-segments.
type EnhancePayload struct {
	Industry string `json:"industry" desc:"Industry the segments were generated for"`
	Segments string `json:"segments" desc:"Segment list returned by generate-segments, at least 10 characters"`
}

// StrategyPayload is the request body of generate-research.
// Either SegmentInfo or Industry must be present.
type StrategyPayload struct {
	SegmentInfo       string `json:"segmentInfo,omitempty" desc:"Segment research to build a targeting strategy from"`
	Industry          string `json:"industry,omitempty" desc:"Industry for a full research report when no segment research is given"`
	TargetMarket      string `json:"targetMarket,omitempty" desc:"Optional market to focus the report on"`
	AdditionalDetails string `json:"additionalDetails,omitempty" desc:"Optional extra context for the report"`
}

// ParsePayload validates a raw JSON body and turns it into a PromptRequest.
// Every failure is a *ValidationError; no upstream work happens here.
func ParsePayload(kind TaskKind, raw []byte) (PromptRequest, error) {
	req := PromptRequest{Task: kind}

	if len(bytes.TrimSpace(raw)) == 0 {
		return req, &ValidationError{Message: "request body is required"}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return req, &ValidationError{Message: "invalid JSON payload"}
	}

	var err error
	switch kind {
	case TaskGenerateSegments:
		req.Industry, err = industryField(fields)
		if err != nil {
			return req, err
		}

	case TaskEnhanceSegments:
		req.FreeText, err = freeTextField(fields, "segments")
		if err != nil {
			return req, err
		}
		req.Industry, err = industryField(fields)
		if err != nil {
			return req, err
		}

	case TaskGenerateStrategy:
		if _, ok := present(fields, "segmentInfo"); ok {
			req.FreeText, err = freeTextField(fields, "segmentInfo")
			return req, err
		}
		if _, ok := present(fields, "industry"); !ok {
			return req, &ValidationError{Message: "segmentInfo or industry is required"}
		}
		req.Industry, err = industryField(fields)
		if err != nil {
			return req, err
		}
		if req.TargetMarket, err = optionalField(fields, "targetMarket"); err != nil {
			return req, err
		}
		if req.AdditionalDetails, err = optionalField(fields, "additionalDetails"); err != nil {
			return req, err
		}

	default:
		return req, &ValidationError{Message: "unknown task " + kind.String()}
	}

	return req, nil
}

// industryField returns the industry as sent; blank values are rejected.
func industryField(fields map[string]json.RawMessage) (string, error) {
	industry, err := stringField(fields, "industry")
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(industry) == "" {
		return "", &ValidationError{Field: "industry", Message: "is required"}
	}
	return industry, nil
}

// freeTextField returns the field verbatim; only the length check looks at trimmed text.
func freeTextField(fields map[string]json.RawMessage, name string) (string, error) {
	text, err := stringField(fields, name)
	if err != nil {
		return "", err
	}
	if utf8.RuneCountInString(strings.TrimSpace(text)) < MinFreeTextLength {
		return "", &ValidationError{Field: name, Message: fmt.Sprintf("must be at least %d characters", MinFreeTextLength)}
	}
	return text, nil
}

func optionalField(fields map[string]json.RawMessage, name string) (string, error) {
	if _, ok := present(fields, name); !ok {
		return "", nil
	}
	text, err := stringField(fields, name)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	return text, nil
}

func stringField(fields map[string]json.RawMessage, name string) (string, error) {
	value, ok := present(fields, name)
	if !ok {
		return "", &ValidationError{Field: name, Message: "is required"}
	}
	var text string
	if err := json.Unmarshal(value, &text); err != nil {
		return "", &ValidationError{Field: name, Message: "must be a string"}
	}
	return text, nil
}

// present treats a JSON null the same as an absent key.
func present(fields map[string]json.RawMessage, name string) (json.RawMessage, bool) {
	value, ok := fields[name]
	if !ok || string(bytes.TrimSpace(value)) == "null" {
		return nil, false
	}
	return value, true
}
