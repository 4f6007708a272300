package services

import (
	"testing"

	"github.com/fitlio/coach-backend/internal/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func TestChooseModels_PriorityOrder(t *testing.T) {
	r := NewModelRouter(testLogger(t))

	cases := []struct {
		name     string
		flags    TurnFlags
		wantChat string
	}{
		{name: "all_flags_high_fidelity_wins", flags: TurnFlags{HighFidelity: true, RequiresReasoning: true, CostSensitive: true}, wantChat: r.premium},
		{name: "reasoning_beats_cost", flags: TurnFlags{RequiresReasoning: true, CostSensitive: true}, wantChat: r.reasoning},
		{name: "cost_sensitive_alone", flags: TurnFlags{CostSensitive: true}, wantChat: r.light},
		{name: "no_flags_balanced_default", flags: TurnFlags{}, wantChat: r.balanced},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := r.ChooseModels(tc.flags)
			if got.Chat != tc.wantChat {
				t.Fatalf("ChooseModels chat=%q, want %q", got.Chat, tc.wantChat)
			}
			if got.Tools != r.tools {
				t.Fatalf("ChooseModels tools=%q, want %q", got.Tools, r.tools)
			}
		})
	}
}

func TestShouldUseHighFidelity(t *testing.T) {
	cases := []struct {
		name string
		msg  string
		tc   TurnContext
		want bool
	}{
		{name: "explanation_request_de", msg: "Kannst du mir erklären warum ich nicht abnehme?", want: true},
		{name: "strategy_language_en", msg: "I need a long-term strategy for bulking", want: true},
		{name: "difficulty_expression", msg: "ich komme nicht weiter mit meinem Training", want: true},
		{name: "plain_message_no_context", msg: "was gibts heute zum Mittag", want: false},
		{name: "many_goals", msg: "hi", tc: TurnContext{ActiveGoals: 3}, want: true},
		{name: "two_goals_not_enough", msg: "hi", tc: TurnContext{ActiveGoals: 2}, want: false},
		{name: "caloric_deviation_positive", msg: "hi", tc: TurnContext{CaloricDeviation: 450}, want: true},
		{name: "caloric_deviation_negative", msg: "hi", tc: TurnContext{CaloricDeviation: -450}, want: true},
		{name: "small_deviation", msg: "hi", tc: TurnContext{CaloricDeviation: 120}, want: false},
		{name: "empty_message_depth_context", msg: "", tc: TurnContext{ActiveGoals: 5}, want: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ShouldUseHighFidelity(tc.msg, tc.tc); got != tc.want {
				t.Fatalf("ShouldUseHighFidelity(%q, %+v)=%v, want %v", tc.msg, tc.tc, got, tc.want)
			}
		})
	}
}

func TestModelParameters(t *testing.T) {
	newer := ModelParameters("gpt-4.1-2025-04-14")
	if newer.MaxTokens == 0 {
		t.Fatalf("expected token cap for newer model")
	}
	if newer.Temperature != nil {
		t.Fatalf("expected no temperature for newer model, got %v", *newer.Temperature)
	}

	// An unknown model name in a capped family still matches by pattern.
	future := ModelParameters("gpt-5-ultra-preview")
	if future.Temperature != nil {
		t.Fatalf("expected no temperature for gpt-5 family, got %v", *future.Temperature)
	}

	legacy := ModelParameters("legacy-model")
	if legacy.MaxTokens == 0 {
		t.Fatalf("expected token cap for legacy model")
	}
	if legacy.Temperature == nil {
		t.Fatalf("expected temperature for legacy model")
	}
}
