package domain

// ProviderRequest carries a single AI invocation payload: either free
// text or a stored-content reference plus rendered instructions.
type ProviderRequest struct {
	Prompt       string
	SourcePath   string
	Instructions string
}

// InvokeOptions selects a specific provider/model. A nil options value
// means "use the default/free tier".
type InvokeOptions struct {
	Model string
}

type ResponseKind string

const (
	ResponseSuccess     ResponseKind = "success"
	ResponseSoftFailure ResponseKind = "soft_failure"
)

type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Message is a provider payload whose content is either a plain string
// or a sequence of typed blocks.
type Message struct {
	Content string
	Blocks  []ContentBlock
}

// ProviderResponse is a tagged union decided by an explicit
// discriminant: a structurally valid response explicitly flagged
// unsuccessful (soft failure) or a success carrying a message.
type ProviderResponse struct {
	Kind    ResponseKind
	Message Message
	Reason  string
}

// ChatTurn is one entry in a chat session transcript.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)
