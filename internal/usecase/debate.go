package usecase

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"lmagents/internal/port"
)

type Speaker string

const (
	SpeakerAdvocate   Speaker = "advocate"
	SpeakerOpponent   Speaker = "opponent"
	SpeakerSupervisor Speaker = "supervisor"
)

// DebateTurn is one statement of the debate.
type DebateTurn struct {
	Round   int // 0 for the opening statement and the closing remark
	Speaker Speaker
	Text    string
	Closing bool
}

// DebateOptions configures a debate run.
type DebateOptions struct {
	Subject         string // what the debate is about, e.g. "nuclear energy"
	Topic           string // opening question
	Focus           string // themes the supervisor keeps the debaters on
	Rounds          int
	MaxWords        int
	SupervisorWords int
	Pause           time.Duration // after each supervisor comment
}

func (o *DebateOptions) withDefaults() {
	if o.Rounds <= 0 {
		o.Rounds = 5
	}
	if o.MaxWords <= 0 {
		o.MaxWords = 20
	}
	if o.SupervisorWords <= 0 {
		o.SupervisorWords = 25
	}
}

// DebateUseCase runs a three-agent debate. Each agent keeps its own
// conversation, so the responders may share a single model client.
type DebateUseCase struct {
	advocate   port.Responder
	opponent   port.Responder
	supervisor port.Responder
	opts       DebateOptions
	log        *logrus.Entry
}

func NewDebateUseCase(advocate, opponent, supervisor port.Responder, opts DebateOptions, log *logrus.Entry) *DebateUseCase {
	opts.withDefaults()
	if log == nil {
		log = logrus.WithField("component", "debate")
	}
	return &DebateUseCase{
		advocate:   advocate,
		opponent:   opponent,
		supervisor: supervisor,
		opts:       opts,
		log:        log,
	}
}

func (u *DebateUseCase) Options() DebateOptions {
	return u.opts
}

// Run plays the debate and reports every statement to onTurn as it is made.
// It returns all turns in order.
func (u *DebateUseCase) Run(ctx context.Context, onTurn func(DebateTurn)) ([]DebateTurn, error) {
	o := u.opts

	advocate, err := u.agent(u.advocate, "debate_advocate.tmpl")
	if err != nil {
		return nil, err
	}
	opponent, err := u.agent(u.opponent, "debate_opponent.tmpl")
	if err != nil {
		return nil, err
	}
	supervisor, err := u.agent(u.supervisor, "debate_supervisor.tmpl")
	if err != nil {
		return nil, err
	}

	var turns []DebateTurn
	say := func(c *Conversation, who Speaker, round int, tmpl string, data map[string]any) (string, error) {
		data["Focus"] = o.Focus
		data["MaxWords"] = o.MaxWords
		prompt, err := renderPrompt(tmpl, data)
		if err != nil {
			return "", err
		}
		text, err := c.Ask(ctx, prompt)
		if err != nil {
			return "", err
		}
		turn := DebateTurn{Round: round, Speaker: who, Text: text, Closing: tmpl == "debate_closing.tmpl"}
		turns = append(turns, turn)
		if onTurn != nil {
			onTurn(turn)
		}
		return text, nil
	}

	pro, err := say(advocate, SpeakerAdvocate, 0, "debate_opening.tmpl", map[string]any{"Topic": o.Topic})
	if err != nil {
		return turns, err
	}

	for round := 1; round <= o.Rounds; round++ {
		u.log.WithField("round", round).Debug("debate round")

		anti, err := say(opponent, SpeakerOpponent, round, "debate_reply.tmpl", map[string]any{"Last": pro})
		if err != nil {
			return turns, err
		}
		comment, err := say(supervisor, SpeakerSupervisor, round, "debate_review.tmpl", map[string]any{
			"FirstName": SpeakerAdvocate, "First": pro,
			"SecondName": SpeakerOpponent, "Second": anti,
		})
		if err != nil {
			return turns, err
		}
		if err := u.pause(ctx); err != nil {
			return turns, err
		}

		pro, err = say(advocate, SpeakerAdvocate, round, "debate_counter.tmpl", map[string]any{"Last": anti, "Comment": comment})
		if err != nil {
			return turns, err
		}
		if _, err := say(supervisor, SpeakerSupervisor, round, "debate_review.tmpl", map[string]any{
			"FirstName": SpeakerOpponent, "First": anti,
			"SecondName": SpeakerAdvocate, "Second": pro,
		}); err != nil {
			return turns, err
		}
		if err := u.pause(ctx); err != nil {
			return turns, err
		}
	}

	if _, err := say(supervisor, SpeakerSupervisor, 0, "debate_closing.tmpl", map[string]any{}); err != nil {
		return turns, err
	}

	u.log.WithField("turns", len(turns)).Info("debate finished")
	return turns, nil
}

func (u *DebateUseCase) agent(r port.Responder, tmpl string) (*Conversation, error) {
	system, err := renderPrompt(tmpl, u.opts)
	if err != nil {
		return nil, err
	}
	return NewConversation(r, system), nil
}

func (u *DebateUseCase) pause(ctx context.Context) error {
	if u.opts.Pause <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(u.opts.Pause)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
