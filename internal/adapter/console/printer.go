package console

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"lmagents/internal/domain"
)

// Printer writes coloured, human-oriented output for the interactive commands.
type Printer struct {
	out io.Writer

	title   *color.Color
	info    *color.Color
	success *color.Color
	warn    *color.Color
	fail    *color.Color
	prompt  *color.Color
	agent   *color.Color
	tool    *color.Color
	muted   *color.Color
}

func NewPrinter(out io.Writer) *Printer {
	if out == nil {
		out = os.Stdout
	}
	return &Printer{
		out:     out,
		title:   color.New(color.FgMagenta, color.Bold),
		info:    color.New(color.FgCyan),
		success: color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		fail:    color.New(color.FgRed),
		prompt:  color.New(color.FgCyan, color.Bold),
		agent:   color.New(color.FgBlue),
		tool:    color.New(color.FgYellow),
		muted:   color.New(color.FgMagenta),
	}
}

func (p *Printer) Title(format string, a ...any) {
	p.title.Fprintf(p.out, "\n=== "+format+" ===\n\n", a...)
}

func (p *Printer) Info(format string, a ...any)    { p.line(p.info, format, a...) }
func (p *Printer) Success(format string, a ...any) { p.line(p.success, format, a...) }
func (p *Printer) Warn(format string, a ...any)    { p.line(p.warn, format, a...) }
func (p *Printer) Error(format string, a ...any)   { p.line(p.fail, format, a...) }
func (p *Printer) Muted(format string, a ...any)   { p.line(p.muted, format, a...) }

// Prompt prints an input label without a trailing newline.
func (p *Printer) Prompt(label string) {
	p.prompt.Fprint(p.out, label)
}

// Speaker prints a quoted statement attributed to a named participant.
func (p *Printer) Speaker(name string, c *color.Color, text string) {
	if c == nil {
		c = p.agent
	}
	c.Fprintf(p.out, "%s: %q\n\n", name, strings.TrimSpace(text))
}

// Reply prints an assistant answer with a coloured label.
func (p *Printer) Reply(label, text string) {
	p.agent.Fprint(p.out, label+": ")
	fmt.Fprintf(p.out, "%s\n\n", text)
}

// Event prints one step of an agent run.
func (p *Printer) Event(ev domain.AgentEvent) {
	switch e := ev.(type) {
	case domain.AssistantText:
		if strings.TrimSpace(e.Text) == "" {
			return
		}
		p.info.Fprintln(p.out, "Assistant:")
		fmt.Fprintf(p.out, "%s\n\n", e.Text)
	case domain.ToolCallRequest:
		p.agent.Fprintf(p.out, "Calling tool: %s %s\n", e.Call.Name, e.Call.Arguments)
	case domain.ToolResult:
		if e.Failed {
			p.fail.Fprintf(p.out, "Tool %s failed:\n", e.Name)
		} else {
			p.tool.Fprintln(p.out, "Tool result:")
		}
		fmt.Fprintf(p.out, "%s\n\n", e.Content)
	}
}

func (p *Printer) line(c *color.Color, format string, a ...any) {
	c.Fprintf(p.out, format+"\n", a...)
}

// Colors used for debate participants.
var (
	ColorPro        = color.New(color.FgBlue)
	ColorAnti       = color.New(color.FgRed)
	ColorSupervisor = color.New(color.FgCyan)
)
