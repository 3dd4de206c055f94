package cli

import (
	"github.com/spf13/cobra"
	"lmagents/internal/adapter/console"
	"lmagents/internal/adapter/tools"
	"lmagents/internal/usecase"
)

var (
	numbersTarget int
	numbersValues []int
)

var numbersCmd = &cobra.Command{
	Use:   "numbers",
	Short: "Solve the numbers game with arithmetic tools",
	Long: `Ask the model to reach a target using a set of numbers. The model checks
each step with the addition, subtraction, multiplication and division tools.

Examples:
  lmagents numbers
  lmagents numbers --target 952 --numbers 25,50,75,100,3,6`,
	RunE: runNumbers,
}

func init() {
	rootCmd.AddCommand(numbersCmd)
	numbersCmd.Flags().IntVar(&numbersTarget, "target", 0, "number to reach (default from config)")
	numbersCmd.Flags().IntSliceVar(&numbersValues, "numbers", nil, "numbers to use (default from config)")
}

func runNumbers(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	out := console.NewPrinter(cmd.OutOrStdout())

	target := cfg.Act.Target
	if numbersTarget > 0 {
		target = numbersTarget
	}
	numbers := cfg.Act.Numbers
	if len(numbersValues) > 0 {
		numbers = numbersValues
	}

	client, err := newLLMClient(cfg.LLM, component("llm"))
	if err != nil {
		return err
	}
	prompt, err := usecase.NumbersPrompt(target, numbers)
	if err != nil {
		return err
	}

	act := usecase.NewActUseCase(client, tools.NewRegistry(tools.Arithmetic()...), cfg.Act.MaxRounds, component("act"))

	out.Title("NUMBERS GAME CHALLENGE")
	out.Info("Target: %d, Using numbers: %s\n", target, joinInts(numbers))

	result, err := act.Act(cmd.Context(), prompt, out.Event)
	if err != nil {
		out.Error("An error occurred: %v", err)
		out.Warn("Try using a different model or a newer server version.")
		return err
	}

	out.Success("\nFinal result: %s", result.Final)
	out.Title("CALCULATION COMPLETE")
	return nil
}
