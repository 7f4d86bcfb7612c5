package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
	ChatMessageRoleSystem    = "system"
)

// DefaultModel is used when the client sends no model id or an unknown one.
// Unknown ids intentionally fall back instead of erroring; the stream service
// logs a warning so typos remain visible in the logs.
const DefaultModel = "gemini-2.0-flash"

// SystemPreamble is prepended to every streaming invocation.
const SystemPreamble = `You are a helpful assistant. Answer clearly and concisely. ` +
	`Use markdown formatting when it improves readability.`

const (
	ChatCreatedEvent  = "CHAT_CREATED"
	ChatImportedEvent = "CHAT_IMPORTED"
	ChatDeletedEvent  = "CHAT_DELETED"
	MessageSavedEvent = "MESSAGE_SAVED"
	UserLoginEvent    = "USER_LOGIN"
)

// ChatActivityTopic is the in-process watermill topic carrying chat activity
// from the mutating services to the activity consumer.
const ChatActivityTopic = "CHAT_ACTIVITY"
