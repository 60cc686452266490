package answer

// Turn roles. Anything else in a persisted record is dropped rather than
// guessed at.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one conversation turn, ordered by occurrence within a session.
type Turn struct {
	Role    string
	Content string
}

// BuildHistory converts persisted chat-turn records into the ordered prompt
// history: unknown roles and empty contents are filtered, order is preserved.
func BuildHistory(records []Turn) []Turn {
	if len(records) == 0 {
		return nil
	}
	out := make([]Turn, 0, len(records))
	for _, r := range records {
		if r.Content == "" {
			continue
		}
		if r.Role != RoleUser && r.Role != RoleAssistant {
			continue
		}
		out = append(out, r)
	}
	return out
}
