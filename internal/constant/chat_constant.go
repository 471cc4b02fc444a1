package constant

const (
	// ChatSessionStorageKey is the fixed key chat sessions are stored under,
	// scoped per owner by the store implementations.
	ChatSessionStorageKey = "qms-chat-sessions"

	ChatSessionDefaultTitle  = "New conversation"
	ChatSessionTitleMaxRunes = 40

	ChatAssistantSystemPrompt = `You are a compliance assistant for regulated health and pharma companies.
Answer questions about GMP/GDP, document control (SOPs/PNTs), non-conformities, CAPA plans and audits.
Be precise and concise. When a question depends on local regulation, say which regulation you are assuming.
If you are not sure, say so instead of guessing.`
)
