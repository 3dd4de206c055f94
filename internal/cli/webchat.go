package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"lmagents/internal/adapter/console"
	"lmagents/internal/domain"
	"lmagents/internal/usecase"
)

var webchatURL string

var webchatCmd = &cobra.Command{
	Use:   "webchat",
	Short: "Chat with a model about the content of web pages",
	Long: `Load a web page, split it into chunks and answer questions using the
chunks most relevant to each question.

Type 'new' to load another page and 'exit' to quit.

Examples:
  lmagents webchat
  lmagents webchat --url https://example.com`,
	RunE: runWebChat,
}

func init() {
	rootCmd.AddCommand(webchatCmd)
	webchatCmd.Flags().StringVar(&webchatURL, "url", "", "first page to load")
}

func runWebChat(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx := cmd.Context()
	out := console.NewPrinter(cmd.OutOrStdout())

	client, err := newLLMClient(cfg.LLM, component("llm"))
	if err != nil {
		return err
	}
	r, err := newRetrieval(cfg)
	if err != nil {
		return err
	}

	if r.embed.Available() {
		out.Success("Embedding model initialized: %s", r.embed.Embedder().ModelName())
	} else {
		out.Warn("Embeddings unavailable, the first chunks of each page will be used")
		if r.err != nil {
			out.Warn("  %v", r.err)
		}
	}

	chat := usecase.NewWebChatUseCase(
		newFetcher(cfg.Fetch),
		r.chunker,
		r.embed,
		r.retrieve,
		client,
		cfg.Retrieve.TopK,
		component("webchat"),
	)

	return chatLoop(ctx, out, chat, cmd.InOrStdin(), webchatURL)
}

// webChatSession is the part of the web chat use case the loop drives.
type webChatSession interface {
	Load(ctx context.Context, url string, progress usecase.ProgressFunc) (*usecase.LoadResult, error)
	Ask(ctx context.Context, question string) (*usecase.Answer, error)
}

// chatLoop reads URLs and questions until exit, EOF or cancellation.
func chatLoop(ctx context.Context, out *console.Printer, chat webChatSession, r io.Reader, url string) error {
	out.Title("CHAT WITH WEB AGENT")
	out.Warn("To begin, enter a URL to analyze.")
	out.Warn("Type 'exit' to quit or 'new' to load a new URL.")

	in := bufio.NewScanner(r)
	in.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if url == "" {
			out.Prompt("URL: ")
			if !in.Scan() {
				return in.Err()
			}
			url = strings.TrimSpace(in.Text())
		}
		switch strings.ToLower(url) {
		case "":
			continue
		case "exit":
			out.Success("\nThank you for using the web agent. Goodbye!")
			return nil
		case "new":
			url = ""
			continue
		}

		loaded := loadPage(ctx, out, chat, url)
		url = ""
		if !loaded {
			continue
		}

		quit, err := askLoop(ctx, out, chat, in)
		if err != nil {
			return err
		}
		if quit {
			out.Success("\nThank you for using the web agent. Goodbye!")
			return in.Err()
		}
	}
}

func loadPage(ctx context.Context, out *console.Printer, chat webChatSession, url string) bool {
	out.Info("Retrieving page content: %s", url)

	res, err := chat.Load(ctx, url, newProgress("Embedding"))
	if err != nil {
		var ferr *domain.FetchError
		switch {
		case ctx.Err() != nil:
			out.Error("Loading interrupted")
		case errors.As(err, &ferr):
			out.Error("Error retrieving the page: %v", ferr)
		case errors.Is(err, domain.ErrEmptyDocument):
			out.Error("The page has no readable content")
		default:
			out.Error("Error loading the page: %v", err)
		}
		return false
	}

	out.Success("Content retrieved: %d characters", len(res.Document.Text))
	out.Info("Content divided into %d segments", res.Chunks)
	if res.Embedded {
		out.Info("Embeddings created successfully")
	} else {
		out.Warn("Embeddings not created: %s", res.Reason)
	}
	out.Success("Web page loaded: %q", res.Document.Title)
	out.Warn("Ask your questions about this page's content. Type 'new' to load a new URL or 'exit' to quit.")
	return true
}

// askLoop answers questions until the user asks for another page or quits.
// A canceled context ends the loop with its error.
func askLoop(ctx context.Context, out *console.Printer, chat webChatSession, in *bufio.Scanner) (bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		out.Prompt("You: ")
		if !in.Scan() {
			return true, nil
		}
		question := strings.TrimSpace(in.Text())

		switch strings.ToLower(question) {
		case "":
			continue
		case "exit":
			return true, nil
		case "new":
			out.Warn("Enter a new URL to analyze:")
			return false, nil
		}

		answer, err := chat.Ask(ctx, question)
		if err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			out.Error("Error: %v", err)
			continue
		}
		if answer.Ranking.Degraded {
			out.Muted("(unranked: %s)", answer.Ranking.Reason)
		}
		out.Reply("Web Agent", answer.Text)
		out.Muted("Response time: %.2f seconds\n", answer.Elapsed.Seconds())
	}
}
