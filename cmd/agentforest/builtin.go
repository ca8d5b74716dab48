package main

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/hupe1980/agentforest/core"
	"github.com/hupe1980/agentforest/tool"
)

type calculatorArgs struct {
	Operation string  `json:"operation" description:"Arithmetic operation" enum:"add,subtract,multiply,divide,power"`
	A         float64 `json:"a" description:"Left operand"`
	B         float64 `json:"b" description:"Right operand"`
}

type wordCountArgs struct {
	Text string `json:"text" description:"Text to count words in"`
}

// builtinTools is the catalog handed to chat agents and, by index, to
// orchestrated agents.
func builtinTools() []tool.Tool {
	return []tool.Tool{
		tool.NewFunctionToolFromStruct("calculator", "Perform basic arithmetic on two numbers", calculatorArgs{}, calculate),
		tool.NewFunctionToolFromStruct("word_count", "Count the words in a piece of text", wordCountArgs{}, countWords),
		tool.NewFunctionTool("current_time", "Return the current UTC time in RFC 3339 format",
			map[string]any{"type": "object", "properties": map[string]any{}},
			func(_ *core.ToolContext, _ map[string]any) (any, error) {
				return time.Now().UTC().Format(time.RFC3339), nil
			}),
	}
}

func calculate(tc *core.ToolContext, args map[string]any) (any, error) {
	op, err := tool.RequireString(args, "operation")
	if err != nil {
		return nil, err
	}

	a, _ := args["a"].(float64)
	b, _ := args["b"].(float64)

	var result float64

	switch op {
	case "add":
		result = a + b
	case "subtract":
		result = a - b
	case "multiply":
		result = a * b
	case "divide":
		if b == 0 {
			return nil, tool.NewToolError("calculator", "division by zero", tool.CodeInvalidArguments)
		}
		result = a / b
	case "power":
		result = math.Pow(a, b)
	default:
		return nil, tool.NewToolError("calculator", fmt.Sprintf("unknown operation %q", op), tool.CodeInvalidArguments)
	}

	tc.LogDebug("calculator.evaluated", "operation", op, "result", result)

	return result, nil
}

func countWords(_ *core.ToolContext, args map[string]any) (any, error) {
	text, err := tool.RequireString(args, "text")
	if err != nil {
		return nil, err
	}
	return len(strings.Fields(text)), nil
}
