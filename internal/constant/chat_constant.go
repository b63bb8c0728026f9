package constant

const (
	ChatMessageRoleUser  = "user"
	ChatMessageRoleModel = "model"

	// Reserved identity groups that never map to a document collection
	GroupDefault  = "default"
	GroupPodAdmin = "pod_admin"

	// The shared collection every ensemble includes
	DefaultCollection = "default"

	// Event topics
	ChatSessionStartedTopic = "CHAT_SESSION_STARTED"
	ChatTurnCompletedTopic  = "CHAT_TURN_COMPLETED"
	EmbedDocumentTopic      = "EMBED_DOCUMENT"
)

// SupportTriggers route a message to the support mailbox instead of the
// answer pipeline when any of them occurs in the text.
var SupportTriggers = []string{"email support", "send email", "contact support"}
