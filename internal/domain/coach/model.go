package coach

// ModelChoice names the model used for open-ended reply generation and the
// one used for structured tool-argument extraction, for a single turn.
// Recomputed every turn, never persisted.
type ModelChoice struct {
	Chat  string `json:"chat"`
	Tools string `json:"tools"`
}

// ModelParams shapes a single model request. Temperature is nil for model
// families that reject sampling controls.
type ModelParams struct {
	MaxTokens   int      `json:"max_tokens"`
	Temperature *float64 `json:"temperature,omitempty"`
}
