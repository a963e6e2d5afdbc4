package moonshot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

func TestGenerateContentSendsImageAndJSONMode(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing bearer token")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"street\":\"Rheinblick\"}"}}]}`))
	}))
	defer srv.Close()

	m := NewModel(Config{APIKey: "secret", BaseURL: srv.URL, DisableThinking: true})
	req := &model.LLMRequest{
		Contents: []*genai.Content{{
			Role: "user",
			Parts: []*genai.Part{
				genai.NewPartFromBytes([]byte{0xff, 0xd8}, "image/jpeg"),
				genai.NewPartFromText("Lies das Schild"),
			},
		}},
		Config: &genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
	}

	var text string
	for resp, err := range m.GenerateContent(context.Background(), req, false) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		text = resp.Content.Parts[0].Text
	}

	if text != `{"street":"Rheinblick"}` {
		t.Fatalf("unexpected text %q", text)
	}
	if got.Model != defaultModel {
		t.Fatalf("expected default model, got %q", got.Model)
	}
	if got.ResponseFormat["type"] != "json_object" {
		t.Fatalf("expected json_object response format, got %v", got.ResponseFormat)
	}
	if got.Thinking["type"] != "disabled" {
		t.Fatalf("expected thinking disabled, got %v", got.Thinking)
	}
	if len(got.Messages) != 1 || len(got.Messages[0].Content) != 2 {
		t.Fatalf("expected one message with two parts, got %+v", got.Messages)
	}
	image := got.Messages[0].Content[0]
	if image.Type != "image_url" || !strings.HasPrefix(image.ImageURL.URL, "data:image/jpeg;base64,") {
		t.Fatalf("expected image data uri, got %+v", image)
	}
}

func TestGenerateContentAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid Authentication","type":"invalid_authentication_error"}}`))
	}))
	defer srv.Close()

	m := NewModel(Config{APIKey: "bad", BaseURL: srv.URL})
	for _, err := range m.GenerateContent(context.Background(), &model.LLMRequest{}, false) {
		if err == nil || !strings.Contains(err.Error(), "Invalid Authentication") {
			t.Fatalf("expected api error, got %v", err)
		}
	}
}

func TestGenerateContentNonJSONFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	m := NewModel(Config{BaseURL: srv.URL})
	for _, err := range m.GenerateContent(context.Background(), &model.LLMRequest{}, false) {
		if err == nil || !strings.Contains(err.Error(), "status 502") {
			t.Fatalf("expected status error, got %v", err)
		}
	}
}

func TestRoleMapping(t *testing.T) {
	if roleForContent(genai.RoleModel) != "assistant" || roleForContent("user") != "user" {
		t.Fatal("unexpected role mapping")
	}
}
