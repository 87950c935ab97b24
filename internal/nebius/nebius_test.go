// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package nebius

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/feliks-hub/protein-kb/pkg/types"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(types.AIConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
	})
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(types.AIConfig{}); err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestNewClientDefaults(t *testing.T) {
	client, err := NewClient(types.AIConfig{APIKey: "k"})
	if err != nil {
		t.Fatal(err)
	}
	if client.Model() != DefaultModel {
		t.Errorf("model = %q, want default", client.Model())
	}
	if client.embedModel != DefaultEmbeddingModel {
		t.Errorf("embed model = %q, want default", client.embedModel)
	}
}

func TestChatJSON(t *testing.T) {
	var gotReq chatRequest
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("auth header = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"{\"ok\":true}"}}]}`)
	}))

	out, err := client.ChatJSON(context.Background(), "be terse", "say ok")
	if err != nil {
		t.Fatalf("ChatJSON failed: %v", err)
	}
	if out != `{"ok":true}` {
		t.Errorf("content = %q", out)
	}
	if gotReq.ResponseFormat == nil || gotReq.ResponseFormat.Type != "json_object" {
		t.Errorf("response_format = %+v, want json_object", gotReq.ResponseFormat)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
		t.Errorf("messages = %+v", gotReq.Messages)
	}
}

func TestChatOmitsResponseFormat(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Fatal(err)
		}
		if _, present := raw["response_format"]; present {
			t.Error("plain Chat should not send response_format")
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"hello"}}]}`)
	}))

	out, err := client.Chat(context.Background(), "sys", "hi")
	if err != nil {
		t.Fatal(err)
	}
	if out != "hello" {
		t.Errorf("content = %q", out)
	}
}

func TestChatClientErrorNotRetried(t *testing.T) {
	var calls int
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"bad model"}}`)
	}))

	_, err := client.Chat(context.Background(), "sys", "hi")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "400") {
		t.Errorf("error = %v", err)
	}
	if calls != 1 {
		t.Errorf("client errors should not retry, got %d calls", calls)
	}
}

func TestEmbed(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req embeddingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Model != DefaultEmbeddingModel {
			t.Errorf("model = %q", req.Model)
		}
		w.Header().Set("Content-Type", "application/json")
		// Out-of-order data must land at the right indices.
		fmt.Fprint(w, `{"data":[
			{"index":1,"embedding":[0.5,0.5]},
			{"index":0,"embedding":[1.0,0.0]}
		]}`)
	}))

	vecs, err := client.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vecs) != 2 || vecs[0][0] != 1.0 || vecs[1][0] != 0.5 {
		t.Errorf("vectors = %v", vecs)
	}
}

func TestEmbedEmptyInput(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty input")
	}))

	vecs, err := client.Embed(context.Background(), nil)
	if err != nil || vecs != nil {
		t.Errorf("Embed(nil) = %v, %v", vecs, err)
	}
}

func TestEmbedCountMismatch(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":[{"index":0,"embedding":[1.0]}]}`)
	}))

	if _, err := client.Embed(context.Background(), []string{"a", "b"}); err == nil {
		t.Error("expected error for vector count mismatch")
	}
}
