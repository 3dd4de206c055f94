package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"lmagents/internal/domain"
)

// Func executes a tool with its decoded JSON arguments.
type Func func(ctx context.Context, args Args) (string, error)

type Tool struct {
	Spec domain.ToolSpec
	Run  Func
}

// Registry holds tools in registration order.
type Registry struct {
	tools []Tool
	index map[string]int
}

func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{index: make(map[string]int)}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register adds a tool, replacing any tool with the same name.
func (r *Registry) Register(t Tool) {
	if i, ok := r.index[t.Spec.Name]; ok {
		r.tools[i] = t
		return
	}
	r.index[t.Spec.Name] = len(r.tools)
	r.tools = append(r.tools, t)
}

func (r *Registry) Specs() []domain.ToolSpec {
	specs := make([]domain.ToolSpec, len(r.tools))
	for i, t := range r.tools {
		specs[i] = t.Spec
	}
	return specs
}

func (r *Registry) Names() []string {
	names := make([]string, len(r.tools))
	for i, t := range r.tools {
		names[i] = t.Spec.Name
	}
	return names
}

// Call decodes the raw JSON arguments and runs the named tool.
func (r *Registry) Call(ctx context.Context, call domain.ToolCall) (string, error) {
	i, ok := r.index[call.Name]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownTool, call.Name)
	}

	args := Args{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return "", fmt.Errorf("invalid arguments for %s: %w", call.Name, err)
		}
	}

	return r.tools[i].Run(ctx, args)
}

// Args are the decoded arguments of a tool call.
type Args map[string]any

func (a Args) Int(name string) (int, error) {
	v, ok := a[name]
	if !ok {
		return 0, fmt.Errorf("missing argument %q", name)
	}
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || n > math.MaxInt32 || n < math.MinInt32 {
			return 0, fmt.Errorf("argument %q must be an integer, got %v", name, n)
		}
		return int(n), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("argument %q must be an integer, got %q", name, n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("argument %q must be an integer, got %T", name, v)
	}
}

func (a Args) Text(name string) (string, error) {
	v, ok := a[name]
	if !ok {
		return "", fmt.Errorf("missing argument %q", name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string, got %T", name, v)
	}
	return s, nil
}

type stringParam struct {
	name        string
	description string
}

// spec builds a tool spec whose parameters are all required strings.
func spec(name, description string, params []stringParam) domain.ToolSpec {
	s := domain.ToolSpec{Name: name, Description: description}
	for _, p := range params {
		s.Params = append(s.Params, domain.ToolParam{
			Name:        p.name,
			Type:        "string",
			Description: p.description,
			Required:    true,
		})
	}
	return s
}
