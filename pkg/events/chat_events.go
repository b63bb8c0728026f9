package events

import "time"

// NewChatSessionStarted is emitted when a user opens a new chat session.
func NewChatSessionStarted(sessionID, userID, collection string) Event {
	return BaseEvent{
		Type: "CHAT_SESSION_STARTED",
		Data: map[string]interface{}{
			"session_id": sessionID,
			"user_id":    userID,
			"collection": collection,
		},
		OccurredAt: time.Now(),
	}
}

// NewChatTurnCompleted is emitted after each finished answer, carrying the
// cited sources for downstream analytics.
func NewChatTurnCompleted(sessionID, userID string, sources []string, hadImage bool) Event {
	return BaseEvent{
		Type: "CHAT_TURN_COMPLETED",
		Data: map[string]interface{}{
			"session_id": sessionID,
			"user_id":    userID,
			"sources":    sources,
			"had_image":  hadImage,
		},
		OccurredAt: time.Now(),
	}
}
