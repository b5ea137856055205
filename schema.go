package relay

import (
	"encoding/json"
	"strings"

	"github.com/zoobzio/sentinel"
)

// payloadRules are the constraints ParsePayload enforces beyond field presence and type.
type payloadRules struct {
	nonBlank []string   // must contain a non-whitespace character
	freeText []string   // at least MinFreeTextLength characters once trimmed
	anyOf    [][]string // at least one of these field sets must be present
}

var taskRules = map[TaskKind]payloadRules{
	TaskGenerateSegments: {
		nonBlank: []string{"industry"},
	},
	TaskEnhanceSegments: {
		nonBlank: []string{"industry"},
		freeText: []string{"segments"},
	},
	TaskGenerateStrategy: {
		nonBlank: []string{"industry"},
		freeText: []string{"segmentInfo"},
		anyOf:    [][]string{{"segmentInfo"}, {"industry"}},
	},
}

// PayloadSchema returns the JSON Schema of the request body accepted for kind.
// Unknown keys are ignored by ParsePayload, so the schema leaves them open.
func PayloadSchema(kind TaskKind) (string, bool) {
	rules, ok := taskRules[kind]
	if !ok {
		return "", false
	}

	var schema map[string]any
	switch kind {
	case TaskGenerateSegments:
		schema = objectSchema[SegmentsPayload]()
	case TaskEnhanceSegments:
		schema = objectSchema[EnhancePayload]()
	default:
		schema = objectSchema[StrategyPayload]()
	}
	rules.apply(schema)

	jsonBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", false
	}
	return string(jsonBytes), true
}

func (r payloadRules) apply(schema map[string]any) {
	props := schema["properties"].(map[string]any)

	for _, name := range r.nonBlank {
		if prop, ok := props[name].(map[string]any); ok {
			prop["pattern"] = `\S`
		}
	}
	for _, name := range r.freeText {
		if prop, ok := props[name].(map[string]any); ok {
			prop["minLength"] = MinFreeTextLength
		}
	}
	if len(r.anyOf) > 0 {
		alternatives := make([]map[string]any, len(r.anyOf))
		for i, set := range r.anyOf {
			alternatives[i] = map[string]any{"required": set}
		}
		schema["anyOf"] = alternatives
	}
}

// objectSchema describes T's JSON fields using sentinel metadata.
// Fields without omitempty are required.
func objectSchema[T any]() map[string]any {
	props := make(map[string]any)
	required := []string{}

	for _, field := range sentinel.Inspect[T]().Fields {
		name, optional, skip := jsonName(field)
		if skip {
			continue
		}

		prop := map[string]any{"type": jsonType(field.Type)}
		if desc, ok := field.Tags["desc"]; ok {
			prop["description"] = desc
		}
		props[name] = prop

		if !optional {
			required = append(required, name)
		}
	}

	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// jsonName reads a field's json tag the way encoding/json does.
func jsonName(field sentinel.FieldMetadata) (name string, omitempty, skip bool) {
	tag := field.Tags["json"]
	if tag == "-" {
		return "", false, true
	}

	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = strings.ToLower(field.Name[:1]) + field.Name[1:]
	}
	for _, opt := range strings.Split(opts, ",") {
		if opt == "omitempty" {
			omitempty = true
		}
	}
	return name, omitempty, false
}

func jsonType(goType string) string {
	switch {
	case strings.HasPrefix(goType, "bool"):
		return "boolean"
	case strings.HasPrefix(goType, "string"):
		return "string"
	case strings.HasPrefix(goType, "[]"):
		return "array"
	case strings.HasPrefix(goType, "float"):
		return "number"
	case strings.HasPrefix(goType, "int"), strings.HasPrefix(goType, "uint"):
		return "integer"
	default:
		return "object"
	}
}
