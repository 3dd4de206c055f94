package cli

import (
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"lmagents/internal/adapter/console"
	"lmagents/internal/usecase"
)

var (
	debateRounds int
	debateTopic  string
)

var debateCmd = &cobra.Command{
	Use:   "debate",
	Short: "Run a debate between an advocate, an opponent and a supervisor",
	Long: `Three agents with separate conversations debate the configured subject.
The supervisor comments after every statement and closes the debate.

Examples:
  lmagents debate
  lmagents debate --rounds 2 --topic "Should cities ban cars?"`,
	RunE: runDebate,
}

func init() {
	rootCmd.AddCommand(debateCmd)
	debateCmd.Flags().IntVar(&debateRounds, "rounds", 0, "number of rounds (default from config)")
	debateCmd.Flags().StringVar(&debateTopic, "topic", "", "opening question (default from config)")
}

func runDebate(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	out := console.NewPrinter(cmd.OutOrStdout())

	client, err := newLLMClient(cfg.LLM, component("llm"))
	if err != nil {
		return err
	}

	opts := usecase.DebateOptions{
		Subject:         cfg.Debate.Subject,
		Topic:           cfg.Debate.Topic,
		Focus:           cfg.Debate.Focus,
		Rounds:          cfg.Debate.Rounds,
		MaxWords:        cfg.Debate.MaxWords,
		SupervisorWords: cfg.Debate.SupervisorWords,
		Pause:           cfg.Debate.Pause,
	}
	if debateRounds > 0 {
		opts.Rounds = debateRounds
	}
	if debateTopic != "" {
		opts.Topic = debateTopic
	}

	// One client serves all three agents; each keeps its own history.
	debate := usecase.NewDebateUseCase(client, client, client, opts, component("debate"))

	out.Title("DEBATE ON %s: FOCUS ON %s", strings.ToUpper(opts.Subject), strings.ToUpper(opts.Focus))
	out.Speaker("Supervisor", console.ColorSupervisor,
		"Welcome to this debate on "+opts.Subject+". Please focus your arguments on "+opts.Focus+".")

	_, err = debate.Run(cmd.Context(), func(turn usecase.DebateTurn) {
		name, c := speakerStyle(turn.Speaker)
		out.Speaker(name, c, turn.Text)
	})
	if err != nil {
		out.Error("The debate stopped: %v", err)
		return err
	}

	out.Title("END OF DEBATE")
	return nil
}

func speakerStyle(s usecase.Speaker) (string, *color.Color) {
	switch s {
	case usecase.SpeakerAdvocate:
		return "Advocate", console.ColorPro
	case usecase.SpeakerOpponent:
		return "Opponent", console.ColorAnti
	default:
		return "Supervisor", console.ColorSupervisor
	}
}
