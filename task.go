package relay

import "fmt"

// TaskKind selects which prompt template and upstream options a request uses.
type TaskKind int

const (
	TaskGenerateSegments TaskKind = iota + 1
	TaskEnhanceSegments
	TaskGenerateStrategy
)

// String returns the task's wire name, which matches its HTTP route.
func (k TaskKind) String() string {
	switch k {
	case TaskGenerateSegments:
		return "generate-segments"
	case TaskEnhanceSegments:
		return "enhance-segments"
	case TaskGenerateStrategy:
		return "generate-research"
	default:
		return fmt.Sprintf("task(%d)", int(k))
	}
}

// ParseTaskKind resolves a wire name back to a TaskKind.
func ParseTaskKind(name string) (TaskKind, bool) {
	for _, k := range TaskKinds() {
		if k.String() == name {
			return k, true
		}
	}
	return 0, false
}

// TaskKinds lists every supported task in pipeline order.
func TaskKinds() []TaskKind {
	return []TaskKind{TaskGenerateSegments, TaskEnhanceSegments, TaskGenerateStrategy}
}

// Input bounds applied to free-form text fields.
const (
	// MaxFreeTextLength is the number of characters of segment text kept before templating.
	MaxFreeTextLength = 20000

	// MinFreeTextLength is the shortest segment text accepted.
	MinFreeTextLength = 10
)

// Default temperatures per task.
const (
	DefaultTemperatureSegments float32 = 0.8
	DefaultTemperatureEnhance  float32 = 1.0
	DefaultTemperatureStrategy float32 = 0.7
)

// Config holds the upstream options for each task.
// It is injected into New so handlers never read process state.
type Config struct {
	Segments Options
	Enhance  Options
	Strategy Options
}

// DefaultConfig returns the options the hosted deployment runs with.
func DefaultConfig() Config {
	return Config{
		Segments: Options{
			Model:       "google/gemini-2.0-flash-001",
			MaxTokens:   5000,
			Temperature: DefaultTemperatureSegments,
			Title:       "Market Segment Research",
		},
		Enhance: Options{
			Model:       "google/gemini-2.0-flash-001",
			MaxTokens:   5000,
			Temperature: DefaultTemperatureEnhance,
			Title:       "Market Segment Research",
		},
		Strategy: Options{
			Model:       "openai/gpt-4o-mini",
			MaxTokens:   2000,
			Temperature: DefaultTemperatureStrategy,
			Stream:      true,
			Title:       "Market Segment Generator",
		},
	}
}

// For returns the options configured for a task.
func (c Config) For(kind TaskKind) Options {
	switch kind {
	case TaskGenerateSegments:
		return c.Segments
	case TaskEnhanceSegments:
		return c.Enhance
	default:
		return c.Strategy
	}
}
