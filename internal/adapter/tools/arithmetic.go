package tools

import (
	"context"
	"errors"
	"strconv"

	"lmagents/internal/domain"
)

var (
	ErrNegativeResult = errors.New("subtraction result is negative")
	ErrDivideByZero   = errors.New("cannot divide by zero")
	ErrInexactDivide  = errors.New("division must result in an integer")
)

func intPair(description string) domain.ToolSpec {
	return domain.ToolSpec{
		Description: description,
		Params: []domain.ToolParam{
			{Name: "a", Type: "integer", Description: "first operand", Required: true},
			{Name: "b", Type: "integer", Description: "second operand", Required: true},
		},
	}
}

func binaryTool(name, description string, op func(a, b int) (int, error)) Tool {
	spec := intPair(description)
	spec.Name = name
	return Tool{
		Spec: spec,
		Run: func(_ context.Context, args Args) (string, error) {
			a, err := args.Int("a")
			if err != nil {
				return "", err
			}
			b, err := args.Int("b")
			if err != nil {
				return "", err
			}
			result, err := op(a, b)
			if err != nil {
				return "", err
			}
			return strconv.Itoa(result), nil
		},
	}
}

func Add(a, b int) (int, error) { return a + b, nil }

func Subtract(a, b int) (int, error) {
	if a < b {
		return 0, ErrNegativeResult
	}
	return a - b, nil
}

func Multiply(a, b int) (int, error) { return a * b, nil }

func Divide(a, b int) (int, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	if a%b != 0 {
		return 0, ErrInexactDivide
	}
	return a / b, nil
}

// Arithmetic returns the integer tools used by the numbers game. They only
// accept operations whose result is a non-negative integer.
func Arithmetic() []Tool {
	return []Tool{
		binaryTool("addition",
			"Given two integer values a and b, computes and returns their arithmetic sum (a + b) as an integer.",
			Add),
		binaryTool("subtraction",
			"Given two integer values a and b, computes and returns their arithmetic difference (a - b) as an integer. Fails if the result would be negative.",
			Subtract),
		binaryTool("multiplication",
			"Given two integer values a and b, computes and returns their arithmetic product (a * b) as an integer.",
			Multiply),
		binaryTool("division",
			"Given two integer values a and b, computes and returns their quotient (a / b) as an integer. Fails if b is zero or the division is not exact.",
			Divide),
	}
}
