package coach

type EventType string

const (
	EventTypeText  EventType = "text"
	EventTypeImage EventType = "image"
	EventTypeEnd   EventType = "end"
)

// Event is one incoming chat event. ClientEventID is a client-generated
// idempotency token; the orchestrator passes it through but does not enforce
// uniqueness. Events are owned by the calling request and never persisted by
// the core itself.
type Event struct {
	Type          EventType      `json:"type"`
	Text          string         `json:"text,omitempty"`
	URL           string         `json:"url,omitempty"`
	ClientEventID string         `json:"client_event_id"`
	Context       map[string]any `json:"context,omitempty"`
}

// Intent is the classifier's best guess at what the user wants. An empty
// ToolCandidate means no structured tool matched; Score is 0..1.
type Intent struct {
	Name          string  `json:"name"`
	Score         float64 `json:"score"`
	ToolCandidate string  `json:"tool_candidate,omitempty"`
}
