package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/pageza/nutrisnap/backend/internal/flow"
)

const testPhoto = "data:image/png;base64,iVBORw0KGgo="

type captured struct {
	path   string
	apiKey string
	body   map[string]any
}

func newTestServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Client, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.path = r.URL.Path
		got.apiKey = r.Header.Get("x-goog-api-key")
		if got.apiKey == "" {
			got.apiKey = r.URL.Query().Get("key")
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &got.body)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewClient(WithBaseURL(srv.URL), WithHTTPClient(srv.Client())), got
}

func candidateJSON(text string) string {
	encoded, _ := json.Marshal(text)
	return fmt.Sprintf(`{"candidates":[{"content":{"role":"model","parts":[{"text":%s}]},"finishReason":"STOP"}]}`, encoded)
}

func TestGenerate(t *testing.T) {
	schema := &flow.Schema{
		Type:     flow.TypeObject,
		Order:    []string{"label"},
		Required: []string{"label"},
		Properties: map[string]*flow.Schema{
			"label": {Type: flow.TypeString},
		},
	}

	t.Run("should send the credential, image and schema", func(t *testing.T) {
		client, got := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, candidateJSON("```json\n{\"label\":\"Maçã\"}\n```"))
		})

		raw, err := client.Generate(context.Background(), flow.GenerateRequest{
			Model:        "gemini-2.0-flash",
			Prompt:       "classify",
			ImageDataURI: testPhoto,
			Schema:       schema,
			Config:       flow.Config{APIKey: "secret-key"},
		})
		require.NoError(t, err)

		assert.JSONEq(t, `{"label":"Maçã"}`, string(raw))
		assert.True(t, strings.HasSuffix(got.path, "models/gemini-2.0-flash:generateContent"), got.path)
		assert.Equal(t, "secret-key", got.apiKey)

		encoded, err := json.Marshal(got.body)
		require.NoError(t, err)
		assert.Contains(t, string(encoded), "inlineData")
		assert.Contains(t, string(encoded), "responseSchema")
		assert.NotContains(t, string(encoded), "secret-key")
	})

	t.Run("should return nil output for a blocked prompt", func(t *testing.T) {
		client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"promptFeedback":{"blockReason":"SAFETY"}}`)
		})

		raw, err := client.Generate(context.Background(), flow.GenerateRequest{
			Model:  "gemini-2.0-flash",
			Prompt: "x",
			Config: flow.Config{APIKey: "k"},
		})
		require.NoError(t, err)
		assert.Nil(t, raw)
	})

	t.Run("should convert API errors", func(t *testing.T) {
		client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`)
		})

		_, err := client.Generate(context.Background(), flow.GenerateRequest{
			Model:  "gemini-2.0-flash",
			Prompt: "x",
			Config: flow.Config{APIKey: "k"},
		})

		var se *flow.StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, 429, se.Code)
		assert.Equal(t, "quota exceeded", se.Message)
	})

	t.Run("should refuse a blank credential", func(t *testing.T) {
		_, err := NewClient().Generate(context.Background(), flow.GenerateRequest{Prompt: "x"})
		assert.ErrorIs(t, err, flow.ErrMissingCredential)
	})

	t.Run("should reject malformed images", func(t *testing.T) {
		_, err := NewClient().Generate(context.Background(), flow.GenerateRequest{
			Prompt:       "x",
			ImageDataURI: "not-a-data-uri",
			Config:       flow.Config{APIKey: "k"},
		})
		assert.ErrorIs(t, err, ErrInvalidDataURI)
	})
}

func TestGenerateStream(t *testing.T) {
	t.Run("should map streamed responses to chunks", func(t *testing.T) {
		client, got := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprintf(w, "data: %s\n\n", candidateJSON("Olá"))
			fmt.Fprintf(w, "data: %s\n\n", candidateJSON(", tudo bem?"))
		})

		stream, err := client.GenerateStream(context.Background(), flow.GenerateRequest{
			Model:  "gemini-2.0-flash",
			System: "be nice",
			Prompt: "Oi",
			Config: flow.Config{APIKey: "k"},
		})
		require.NoError(t, err)

		var texts []string
		for chunk, err := range stream.Chunks {
			require.NoError(t, err)
			require.NotNil(t, chunk.Text)
			texts = append(texts, *chunk.Text)
		}
		assert.Equal(t, []string{"Olá", ", tudo bem?"}, texts)
		assert.NoError(t, stream.Response(context.Background()))
		assert.Contains(t, got.path, ":streamGenerateContent")
		assert.Contains(t, got.body, "systemInstruction")
	})

	t.Run("should surface API errors as iteration errors", func(t *testing.T) {
		client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`)
		})

		stream, err := client.GenerateStream(context.Background(), flow.GenerateRequest{
			Model:  "gemini-2.0-flash",
			Prompt: "Oi",
			Config: flow.Config{APIKey: "bad"},
		})
		require.NoError(t, err)

		var iterErr error
		for _, err := range stream.Chunks {
			iterErr = err
		}
		var se *flow.StatusError
		require.True(t, errors.As(iterErr, &se))
		assert.Equal(t, "API key not valid", se.Message)
		assert.Equal(t, iterErr, stream.Response(context.Background()))
	})
}

func TestToChunk(t *testing.T) {
	t.Run("should keep an empty text part", func(t *testing.T) {
		chunk := toChunk(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: ""}}}},
		}})
		require.NotNil(t, chunk.Text)
		assert.Equal(t, "", *chunk.Text)
	})

	t.Run("should report a safety stop without text", func(t *testing.T) {
		chunk := toChunk(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{
			{FinishReason: genai.FinishReasonSafety},
		}})
		assert.Nil(t, chunk.Text)
		assert.ErrorContains(t, chunk.Err, "SAFETY")
	})

	t.Run("should leave non text chunks unrecognized", func(t *testing.T) {
		chunk := toChunk(&genai.GenerateContentResponse{})
		assert.Nil(t, chunk.Text)
		assert.NoError(t, chunk.Err)
	})
}

func TestToSchema(t *testing.T) {
	lo, hi := 0.0, 1.0
	got := ToSchema(&flow.Schema{
		Type:     flow.TypeObject,
		Order:    []string{"b", "a"},
		Required: []string{"a"},
		Properties: map[string]*flow.Schema{
			"a": {Type: flow.TypeArray, Items: &flow.Schema{Type: flow.TypeString}},
			"b": {Type: flow.TypeNumber, Minimum: &lo, Maximum: &hi},
		},
	})

	assert.Equal(t, genai.TypeObject, got.Type)
	assert.Equal(t, []string{"b", "a"}, got.PropertyOrdering)
	assert.Equal(t, []string{"a"}, got.Required)
	assert.Equal(t, genai.TypeString, got.Properties["a"].Items.Type)
	assert.Equal(t, 1.0, *got.Properties["b"].Maximum)
	assert.Nil(t, ToSchema(nil))
}

func TestParseDataURI(t *testing.T) {
	mime, data, err := ParseDataURI(testPhoto)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, data)

	for _, bad := range []string{"", "image/png;base64,AAAA", "data:image/png,AAAA", "data:;base64,AAAA", "data:image/png;base64,%%%"} {
		_, _, err := ParseDataURI(bad)
		assert.ErrorIs(t, err, ErrInvalidDataURI, bad)
	}
}
