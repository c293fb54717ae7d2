package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"
)

func TestOllamaGenerateSuccess(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":             "llama3.1:8b-instruct",
			"message":           map[string]any{"role": "assistant", "content": "hello from ollama"},
			"done":              true,
			"prompt_eval_count": 12,
			"eval_count":        5,
		})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, ClientOptions{HTTPTimeout: 2 * time.Second})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := c.Generate(ctx, GenerateRequest{Model: "llama3.1:8b-instruct", Messages: hi, MaxTokens: 16})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if resp.Text() != "hello from ollama" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Usage.TotalTokens != 17 {
		t.Fatalf("expected 17 total tokens, got %d", resp.Usage.TotalTokens)
	}
	if resp.RequestID == "" {
		t.Fatalf("expected simulated request id")
	}
}

func TestOllamaGenerateErrors(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusBadRequest)
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "model 'x' not found"})
	}))
	defer srv.Close()
	c := NewOllamaClient(srv.URL, ClientOptions{HTTPTimeout: 2 * time.Second})

	_, err := c.Generate(context.Background(), GenerateRequest{Model: "x", Messages: hi})
	var bre *BadRequestError
	if !errors.As(err, &bre) {
		t.Fatalf("expected BadRequestError, got %T: %v", err, err)
	}

	status.Store(http.StatusNotFound)
	_, err = c.Generate(context.Background(), GenerateRequest{Model: "x", Messages: hi})
	var mnf *ModelNotFoundError
	if !errors.As(err, &mnf) {
		t.Fatalf("expected ModelNotFoundError, got %T: %v", err, err)
	}
	if mnf.Message != "model 'x' not found" {
		t.Fatalf("unexpected message %q", mnf.Message)
	}
}

func TestOllamaGenerateEmptyMessages(t *testing.T) {
	c := NewOllamaClient("", ClientOptions{})
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "llama3:latest", Messages: []Message{}})
	if err == nil || err.Error() != "messages cannot be empty" {
		t.Fatalf("expected 'messages cannot be empty' error, got: %v", err)
	}
}

func TestOllamaGenerateForwardsOptions(t *testing.T) {
	var captured ollamaChatRequest
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"message": map[string]any{"role": "assistant", "content": "response"}})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, ClientOptions{HTTPTimeout: 2 * time.Second})
	msgs := []Message{
		{Role: "system", Content: "You are a real estate analyst"},
		{Role: "user", Content: "Describe cluster 2"},
	}
	if _, err := c.Generate(context.Background(), GenerateRequest{Model: "llama3:latest", Messages: msgs, MaxTokens: 64, Temperature: 0.3}); err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if captured.Stream {
		t.Fatalf("expected non-streaming request")
	}
	if len(captured.Messages) != 2 || captured.Messages[1].Content != "Describe cluster 2" {
		t.Fatalf("messages not preserved: %+v", captured.Messages)
	}
	if captured.Options["num_predict"] != float64(64) || captured.Options["temperature"] != 0.3 {
		t.Fatalf("unexpected options: %+v", captured.Options)
	}
}
