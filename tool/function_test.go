package tool

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyleturman/houston/llm"
)

var _ Tool = (*FunctionTool)(nil)

func sumTool() *FunctionTool {
	return NewFunctionTool(
		"calculate_sum",
		"Calculate the sum of two numbers",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"a": map[string]any{"type": "number"},
				"b": map[string]any{"type": "number"},
			},
			"required": []string{"a", "b"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			return args["a"].(float64) + args["b"].(float64), nil
		},
	)
}

func TestFunctionTool_Call(t *testing.T) {
	result, err := sumTool().Call(context.Background(), map[string]any{"a": 2.0, "b": 3.0})
	require.NoError(t, err)
	assert.Equal(t, 5.0, result)
}

func TestFunctionTool_MissingRequiredArgument(t *testing.T) {
	_, err := sumTool().Call(context.Background(), map[string]any{"a": 2.0})
	require.Error(t, err)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
	assert.Equal(t, "calculate_sum", toolErr.Tool)
}

func TestFunctionTool_WrongArgumentType(t *testing.T) {
	_, err := sumTool().Call(context.Background(), map[string]any{"a": "two", "b": 3.0})
	require.Error(t, err)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
}

func TestFunctionTool_ExecutionError(t *testing.T) {
	failing := NewFunctionTool("always_fails", "fails", map[string]any{"type": "object"},
		func(ctx context.Context, args map[string]any) (any, error) {
			return nil, fmt.Errorf("upstream broke")
		})

	_, err := failing.Call(context.Background(), map[string]any{})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "EXECUTION_ERROR", toolErr.Code)
	assert.Equal(t, "upstream broke", toolErr.Message)
}

func TestFunctionTool_ToolErrorPassedThrough(t *testing.T) {
	custom := NewToolError("rate_limited", "slow down", "RATE_LIMITED")
	failing := NewFunctionTool("rate_limited", "fails", map[string]any{"type": "object"},
		func(ctx context.Context, args map[string]any) (any, error) {
			return nil, custom
		})

	_, err := failing.Call(context.Background(), map[string]any{})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Same(t, custom, toolErr)
}

func TestFunctionTool_FromStruct(t *testing.T) {
	type echoArgs struct {
		Message string `json:"message" description:"Text to echo back"`
		Times   int    `json:"times,omitempty"`
	}

	echo := NewFunctionToolFromStruct("echo", "Echo a message", echoArgs{},
		func(ctx context.Context, args map[string]any) (any, error) {
			return args["message"], nil
		})

	params := echo.Parameters()
	assert.Equal(t, "object", params["type"])
	props, ok := params["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "message")
	assert.Contains(t, props, "times")

	result, err := echo.Call(context.Background(), map[string]any{"message": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", result)
}

func TestDefinition(t *testing.T) {
	def := Definition(sumTool())
	assert.Equal(t, "function", def.Type)
	assert.Equal(t, "calculate_sum", def.Function.Name)
	assert.Equal(t, "Calculate the sum of two numbers", def.Function.Description)
	assert.NotNil(t, def.Function.Parameters)
}

func TestToolError_Error(t *testing.T) {
	withCode := &ToolError{Tool: "x", Message: "boom", Code: "EXECUTION_ERROR"}
	assert.Equal(t, "tool error [EXECUTION_ERROR] in x: boom", withCode.Error())

	noCode := &ToolError{Tool: "x", Message: "boom"}
	assert.Equal(t, "tool error in x: boom", noCode.Error())
}

func TestDefinition_WireShape(t *testing.T) {
	def := Definition(sumTool())
	_ = llm.Request{Tools: []llm.ToolDefinition{def}}
}
