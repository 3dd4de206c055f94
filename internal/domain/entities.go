package domain

import "time"

// Document is a fetched page. It is never mutated after the fetcher returns it.
type Document struct {
	ID        string
	URL       string
	Title     string
	Text      string
	FetchedAt time.Time
}

// Chunk is a word span [Start, End) of a document.
type Chunk struct {
	ID    string
	DocID string
	Index int
	Start int
	End   int
	Words []string
	Text  string
}

type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// Ranking is the result of ranking chunks against a query.
// Degraded is set when results are in document order because no
// embeddings were available.
type Ranking struct {
	Query    string
	Results  []ScoredChunk
	Degraded bool
	Reason   string
}

// Texts returns the chunk texts in ranking order.
func (r Ranking) Texts() []string {
	texts := make([]string, len(r.Results))
	for i, sc := range r.Results {
		texts[i] = sc.Chunk.Text
	}
	return texts
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ChatMessage is one entry of a conversation with a model.
type ChatMessage struct {
	Role       Role
	Content    string
	Images     []string // local image paths attached to a user message
	ToolCalls  []ToolCall
	ToolCallID string
	Name       string
}

type ToolCall struct {
	ID        string
	Name      string
	Arguments string // raw JSON object
}

type ToolParam struct {
	Name        string
	Type        string // "integer", "number", "string", "boolean"
	Description string
	Required    bool
}

type ToolSpec struct {
	Name        string
	Description string
	Params      []ToolParam
}
