package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Adapter = (*MockAdapter)(nil)

func TestContent_Text(t *testing.T) {
	c := Content{
		Role: "assistant",
		Parts: []Part{
			TextPart{Text: "Hello"},
			FunctionCallPart{FunctionCall: FunctionCall{Name: "ignored"}},
			TextPart{Text: ", world"},
		},
	}
	assert.Equal(t, "Hello, world", c.Text())
}

func TestContent_FunctionCalls(t *testing.T) {
	c := Content{
		Role: "assistant",
		Parts: []Part{
			FunctionCallPart{FunctionCall: FunctionCall{ID: "1", Name: "first"}},
			TextPart{Text: "between"},
			FunctionCallPart{FunctionCall: FunctionCall{ID: "2", Name: "second"}},
		},
	}
	calls := c.FunctionCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "first", calls[0].Name)
	assert.Equal(t, "second", calls[1].Name)
}

func TestUserContent(t *testing.T) {
	c := UserContent("hi")
	assert.Equal(t, "user", c.Role)
	assert.Equal(t, "hi", c.Text())
}

func collect(t *testing.T, mock *MockAdapter, req Request) []Response {
	t.Helper()
	respCh, errCh := mock.Generate(context.Background(), req)
	var out []Response
	for resp := range respCh {
		out = append(out, resp)
	}
	require.NoError(t, <-errCh)
	return out
}

func TestMockAdapter_CannedResponse(t *testing.T) {
	mock := NewMockAdapter("test-model", "mock")
	mock.AddResponse("hello", "Hi there!")

	responses := collect(t, mock, Request{
		Contents: []Content{UserContent("hello")},
	})
	require.Len(t, responses, 1)
	assert.False(t, responses[0].Partial)
	assert.Equal(t, "Hi there!", responses[0].Content.Text())
	assert.Equal(t, "stop", responses[0].FinishReason)
}

func TestMockAdapter_DefaultResponse(t *testing.T) {
	mock := NewMockAdapter("test-model", "mock")

	responses := collect(t, mock, Request{
		Contents: []Content{UserContent("anything")},
	})
	require.Len(t, responses, 1)
	assert.Equal(t, "Mock response to: anything", responses[0].Content.Text())
}

func TestMockAdapter_Streaming(t *testing.T) {
	mock := NewMockAdapter("test-model", "mock")
	mock.AddResponse("hello", "abc")

	responses := collect(t, mock, Request{
		Contents: []Content{UserContent("hello")},
		Stream:   true,
	})
	require.Len(t, responses, 4, "three char chunks plus final")
	for _, resp := range responses[:3] {
		assert.True(t, resp.Partial)
	}
	final := responses[3]
	assert.False(t, final.Partial)
	assert.Equal(t, "abc", final.Content.Text())
}

func TestMockAdapter_FunctionCallThenText(t *testing.T) {
	mock := NewMockAdapter("test-model", "mock")
	mock.AddFunctionCall("save this", "create_note", `{"content":"this"}`)
	mock.AddResponse("save this", "Saved.")

	// First turn: scripted call.
	first := collect(t, mock, Request{
		Contents: []Content{UserContent("save this")},
	})
	require.Len(t, first, 1)
	calls := first[0].Content.FunctionCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "create_note", calls[0].Name)
	assert.Equal(t, "tool_calls", first[0].FinishReason)

	// Second turn: conversation now carries a tool response, canned text wins.
	second := collect(t, mock, Request{
		Contents: []Content{
			UserContent("save this"),
			first[0].Content,
			{Role: "tool", Parts: []Part{FunctionResponsePart{
				FunctionResponse: FunctionResponse{ID: calls[0].ID, Name: calls[0].Name, Response: "ok"},
			}}},
		},
	})
	require.Len(t, second, 1)
	assert.Equal(t, "Saved.", second[0].Content.Text())
}

func TestMockAdapter_Usage(t *testing.T) {
	mock := NewMockAdapter("test-model", "mock")
	mock.AddResponse("hello", "Hi")
	mock.SetUsage(100, 25)

	responses := collect(t, mock, Request{
		Contents: []Content{UserContent("hello")},
	})
	require.Len(t, responses, 1)
	require.NotNil(t, responses[0].Usage)
	assert.Equal(t, 100, responses[0].Usage.InputTokens)
	assert.Equal(t, 25, responses[0].Usage.OutputTokens)
	assert.Equal(t, 125, responses[0].Usage.TotalTokens)
}

func TestMockAdapter_EmptyContents(t *testing.T) {
	mock := NewMockAdapter("test-model", "mock")
	respCh, errCh := mock.Generate(context.Background(), Request{})
	for range respCh {
	}
	assert.Error(t, <-errCh)
}

func TestMockAdapter_Info(t *testing.T) {
	mock := NewMockAdapter("test-model", "mock")
	info := mock.Info()
	assert.Equal(t, "test-model", info.ModelKey)
	assert.Equal(t, "mock", info.Provider)
	assert.True(t, info.SupportsTools)
}
