package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteSendsUserMessageAndParsesReply(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		require.NoError(t, json.NewDecoder(req.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(chatResponse{
			Choices: []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			}{{Message: struct {
				Content string `json:"content"`
			}{Content: "hello back"}}},
		})
	}))
	defer server.Close()

	config := DefaultConfig()
	config.BaseURL = server.URL
	completer := NewHTTPCompleter(config)

	reply, err := completer.Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello back", reply)
	require.Len(t, captured.Messages, 1)
	assert.Equal(t, "user", captured.Messages[0].Role)
}

func TestCompleteWithSystemSendsBothMessages(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		require.NoError(t, json.NewDecoder(req.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(chatResponse{
			Choices: []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			}{{Message: struct {
				Content string `json:"content"`
			}{Content: "ack"}}},
		})
	}))
	defer server.Close()

	config := DefaultConfig()
	config.BaseURL = server.URL
	completer := NewHTTPCompleter(config)

	reply, err := completer.CompleteWithSystem(context.Background(), "be terse", "hi")
	require.NoError(t, err)
	assert.Equal(t, "ack", reply)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "user", captured.Messages[1].Role)
}

func TestCompleteReturnsErrorOnNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer server.Close()

	config := DefaultConfig()
	config.BaseURL = server.URL
	completer := NewHTTPCompleter(config)

	_, err := completer.Complete(context.Background(), "hello")
	require.Error(t, err)
}

func TestCompleteReturnsErrorOnEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_ = json.NewEncoder(w).Encode(chatResponse{})
	}))
	defer server.Close()

	config := DefaultConfig()
	config.BaseURL = server.URL
	completer := NewHTTPCompleter(config)

	_, err := completer.Complete(context.Background(), "hello")
	require.Error(t, err)
}

func TestCompleteReturnsErrorOnAPIErrorField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_ = json.NewEncoder(w).Encode(chatResponse{
			Error: &struct {
				Message string `json:"message"`
			}{Message: "rate limited"},
		})
	}))
	defer server.Close()

	config := DefaultConfig()
	config.BaseURL = server.URL
	completer := NewHTTPCompleter(config)

	_, err := completer.Complete(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}
