package model

// Turn roles. Order of turns inside a conversation is semantically significant:
// it is the exact order replayed to the LLM.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatTurn is a single role/content pair in a per-user conversation.
// Turns are append-only; the first turn, when present, is always the
// system-role transcript seed for the current video.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func SystemTurn(content string) ChatTurn {
	return ChatTurn{Role: RoleSystem, Content: content}
}

func UserTurn(content string) ChatTurn {
	return ChatTurn{Role: RoleUser, Content: content}
}

func AssistantTurn(content string) ChatTurn {
	return ChatTurn{Role: RoleAssistant, Content: content}
}
