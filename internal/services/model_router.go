package services

import (
	"math"
	"regexp"
	"strings"

	types "github.com/fitlio/coach-backend/internal/domain"
	"github.com/fitlio/coach-backend/internal/pkg/logger"
	"github.com/fitlio/coach-backend/internal/utils"
)

// TurnFlags are the per-turn routing signals. Exactly one branch of
// ChooseModels fires; HighFidelity dominates RequiresReasoning dominates
// CostSensitive.
type TurnFlags struct {
	CostSensitive     bool
	HighFidelity      bool
	RequiresReasoning bool
}

// TurnContext carries the conversational depth signals used by the
// high-fidelity heuristic.
type TurnContext struct {
	ActiveGoals      int
	CaloricDeviation float64
}

// Depth thresholds for ShouldUseHighFidelity.
const (
	highFidelityGoalCount    = 2
	highFidelityKcalDeviance = 300.0
)

// ModelRouter selects which model handles chat generation and which handles
// structured tool-argument extraction for a single turn. Stateless after
// construction; model identifiers come from env with working defaults.
type ModelRouter struct {
	premium   string
	reasoning string
	light     string
	balanced  string
	tools     string
}

func NewModelRouter(log *logger.Logger) *ModelRouter {
	return &ModelRouter{
		premium:   utils.GetEnv("COACH_MODEL_PREMIUM", "gpt-5.2", log),
		reasoning: utils.GetEnv("COACH_MODEL_REASONING", "o3-mini", log),
		light:     utils.GetEnv("COACH_MODEL_LIGHT", "gpt-4.1-mini", log),
		balanced:  utils.GetEnv("COACH_MODEL_BALANCED", "gpt-4.1-2025-04-14", log),
		tools:     utils.GetEnv("COACH_MODEL_TOOLS", "gpt-4.1-mini", log),
	}
}

func (r *ModelRouter) ChooseModels(flags TurnFlags) types.ModelChoice {
	switch {
	case flags.HighFidelity:
		return types.ModelChoice{Chat: r.premium, Tools: r.tools}
	case flags.RequiresReasoning:
		return types.ModelChoice{Chat: r.reasoning, Tools: r.tools}
	case flags.CostSensitive:
		return types.ModelChoice{Chat: r.light, Tools: r.tools}
	default:
		return types.ModelChoice{Chat: r.balanced, Tools: r.tools}
	}
}

// Complexity triggers: explanation requests, strategy/planning language and
// expressions of difficulty, German and English forms. Any single match is
// sufficient.
var highFidelityTriggers = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(erklär\w*|warum|wieso|weshalb|explain|why|verstehe\s+nicht|understand)\b`),
	regexp.MustCompile(`(?i)\b(strategie|plan\w*|langfristig|strategy|long[\s-]?term|roadmap)\b`),
	regexp.MustCompile(`(?i)\b(schwer|schwierig|frustriert|komme\s+nicht\s+weiter|struggle|struggling|stuck|hard\s+time)\b`),
}

// ShouldUseHighFidelity ORs two independent signals: a complexity trigger in
// the message, or a context that indicates depth (more than two active goals
// or a caloric deviation beyond the fixed threshold).
func ShouldUseHighFidelity(userMessage string, tc TurnContext) bool {
	msg := strings.TrimSpace(userMessage)
	if msg != "" {
		for _, re := range highFidelityTriggers {
			if re.MatchString(msg) {
				return true
			}
		}
	}
	if tc.ActiveGoals > highFidelityGoalCount {
		return true
	}
	if math.Abs(tc.CaloricDeviation) > highFidelityKcalDeviance {
		return true
	}
	return false
}

// Newer-generation families reject sampling controls, so they are matched by
// name pattern rather than a hard-coded per-model table. New model names in
// these families need no code change.
var cappedOnlyModelPrefixes = []string{"gpt-4.1", "gpt-5", "o3", "o4"}

const (
	defaultMaxTokens   = 1024
	defaultTemperature = 0.7
)

// ModelParameters returns the request-shaping parameters for a model: newer
// generations get a token cap only, older models get a cap plus a fixed
// sampling temperature.
func ModelParameters(model string) types.ModelParams {
	name := strings.ToLower(strings.TrimSpace(model))
	for _, prefix := range cappedOnlyModelPrefixes {
		if strings.HasPrefix(name, prefix) {
			return types.ModelParams{MaxTokens: defaultMaxTokens}
		}
	}
	temp := defaultTemperature
	return types.ModelParams{MaxTokens: defaultMaxTokens, Temperature: &temp}
}
