package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"lmagents/internal/adapter/console"
	"lmagents/internal/adapter/tools"
	"lmagents/internal/usecase"
)

var sortSource string

var sortCmd = &cobra.Command{
	Use:   "sort",
	Short: "Sort images into category folders with a vision model",
	Long: `The model lists the images of the source folder, asks for a description
of each one and moves it to the matching category folder.

Examples:
  lmagents sort
  lmagents sort --source ./photos`,
	RunE: runSort,
}

func init() {
	rootCmd.AddCommand(sortCmd)
	sortCmd.Flags().StringVar(&sortSource, "source", "", "folder of images to sort (default from config)")
}

func runSort(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	out := console.NewPrinter(cmd.OutOrStdout())

	source := cfg.Sorter.SourceDir
	if sortSource != "" {
		source = sortSource
	}

	client, err := newLLMClient(cfg.LLM, component("llm"))
	if err != nil {
		return err
	}

	sorter, err := tools.NewImageSorter(tools.SorterOptions{
		SourceDir:      resolve(source),
		OutputDir:      resolve(cfg.Sorter.OutputDir),
		Categories:     cfg.Sorter.Categories,
		Patterns:       cfg.Sorter.Patterns,
		DescribePrompt: cfg.Sorter.DescribePrompt,
	}, client, component("sorter"))
	if err != nil {
		return err
	}
	if err := sorter.EnsureFolders(); err != nil {
		return err
	}

	prompt, err := usecase.SorterPrompt(cfg.Sorter.Categories)
	if err != nil {
		return err
	}

	act := usecase.NewActUseCase(client, tools.NewRegistry(sorter.Tools()...), cfg.Act.MaxRounds, component("act"))

	out.Title("IMAGE SORTING")
	result, err := act.Act(cmd.Context(), prompt, out.Event)
	if err != nil {
		out.Error("An error occurred: %v", err)
		out.Warn("Try using a different model or a newer server version.")
		return err
	}

	out.Success("\nFinal result: %s", result.Final)
	out.Title("SORTING COMPLETE")
	return nil
}

// resolve makes a relative path relative to the root directory.
func resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(GetRootDir(), path)
}
