package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	"lmagents/internal/domain"
	"lmagents/internal/port"
)

// ErrMaxRounds is returned when the model keeps calling tools past the round limit.
var ErrMaxRounds = errors.New("act loop exceeded maximum rounds")

// ActResult is the outcome of an act run.
type ActResult struct {
	Final    string
	Rounds   int
	Messages []domain.ChatMessage
}

// ActUseCase lets a model solve a task by calling tools until it answers
// without requesting any.
type ActUseCase struct {
	model     port.ToolModel
	tools     port.ToolRunner
	maxRounds int
	log       *logrus.Entry
}

func NewActUseCase(model port.ToolModel, tools port.ToolRunner, maxRounds int, log *logrus.Entry) *ActUseCase {
	if maxRounds <= 0 {
		maxRounds = 50
	}
	if log == nil {
		log = logrus.WithField("component", "act")
	}
	return &ActUseCase{
		model:     model,
		tools:     tools,
		maxRounds: maxRounds,
		log:       log,
	}
}

// Act runs the loop for prompt. Every assistant text, tool call and tool
// result is passed to onEvent. Tool failures are reported back to the model
// as tool results rather than aborting the run.
func (u *ActUseCase) Act(ctx context.Context, prompt string, onEvent func(domain.AgentEvent)) (*ActResult, error) {
	emit := func(ev domain.AgentEvent) {
		if onEvent != nil {
			onEvent(ev)
		}
	}

	messages := []domain.ChatMessage{{Role: domain.RoleUser, Content: prompt}}
	specs := u.tools.Specs()

	for round := 1; round <= u.maxRounds; round++ {
		reply, err := u.model.Complete(ctx, messages, specs)
		if err != nil {
			return nil, fmt.Errorf("round %d: %w", round, err)
		}
		reply.Role = domain.RoleAssistant
		messages = append(messages, reply)

		if reply.Content != "" {
			emit(domain.AssistantText{Text: reply.Content})
		}
		if len(reply.ToolCalls) == 0 {
			u.log.WithField("rounds", round).Info("act finished")
			return &ActResult{Final: reply.Content, Rounds: round, Messages: messages}, nil
		}

		for _, call := range reply.ToolCalls {
			emit(domain.ToolCallRequest{Call: call})
			result := u.run(ctx, call)
			emit(result)
			messages = append(messages, domain.ChatMessage{
				Role:       domain.RoleTool,
				Content:    result.Content,
				ToolCallID: call.ID,
				Name:       call.Name,
			})
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w (%d)", ErrMaxRounds, u.maxRounds)
}

func (u *ActUseCase) run(ctx context.Context, call domain.ToolCall) domain.ToolResult {
	log := u.log.WithFields(logrus.Fields{"tool": call.Name, "call_id": call.ID})

	out, err := u.tools.Call(ctx, call)
	if err != nil {
		log.WithError(err).Debug("tool failed")
		return domain.ToolResult{CallID: call.ID, Name: call.Name, Content: "error: " + err.Error(), Failed: true}
	}
	log.Debug("tool succeeded")
	return domain.ToolResult{CallID: call.ID, Name: call.Name, Content: out}
}

// NumbersPrompt is the task given to the model in the numbers game.
func NumbersPrompt(target int, numbers []int) (string, error) {
	strs := make([]string, len(numbers))
	for i, n := range numbers {
		strs[i] = strconv.Itoa(n)
	}
	return renderPrompt("numbers.tmpl", struct {
		Target  int
		Numbers []string
	}{target, strs})
}

// SorterPrompt is the task given to the model by the image sorter.
func SorterPrompt(categories []string) (string, error) {
	return renderPrompt("sorter.tmpl", struct{ Categories []string }{categories})
}
