package store

import (
	"context"

	"tubescribe.app/bot/internal/model"
)

// UserSetKey is the fixed key under which the set of known user ids lives.
const UserSetKey = "users"

// Store is the persistence abstraction: membership sets for operator-facing
// counts and broadcast, plus per-user ordered chat histories.
//
// Failure policy: implementations catch underlying store errors and degrade the
// operation to a no-op or empty result after logging. Callers cannot
// distinguish "empty because new" from "empty because the store failed"; this
// ambiguity is accepted and documented rather than surfaced.
type Store interface {
	// IsMember reports whether id is in the named set.
	IsMember(ctx context.Context, set, id string) bool
	// AddMember inserts id into the named set. Idempotent.
	AddMember(ctx context.Context, set, id string)
	// AllMembers returns the set in first-insertion order; empty when unset.
	AllMembers(ctx context.Context, set string) []string
	// RemoveMember deletes id from the named set. No-op when absent.
	RemoveMember(ctx context.Context, set, id string)

	// History returns the user's ordered chat turns; empty when none.
	History(ctx context.Context, userID string) []model.ChatTurn
	// AppendHistory appends one turn to the user's history.
	AppendHistory(ctx context.Context, userID string, turn model.ChatTurn)
	// ResetHistory atomically replaces the user's history with an empty sequence.
	ResetHistory(ctx context.Context, userID string)
}

func historyKey(userID string) string {
	return "chat_history:" + userID
}
