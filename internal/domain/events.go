package domain

// AgentEvent is emitted by the act loop for every step of a run.
// It is one of AssistantText, ToolCallRequest or ToolResult.
type AgentEvent interface {
	agentEvent()
}

type AssistantText struct {
	Text string
}

type ToolCallRequest struct {
	Call ToolCall
}

type ToolResult struct {
	CallID  string
	Name    string
	Content string
	Failed  bool
}

func (AssistantText) agentEvent()   {}
func (ToolCallRequest) agentEvent() {}
func (ToolResult) agentEvent()      {}
