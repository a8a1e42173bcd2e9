// Package gemini implements flow.ModelClient on top of the Google GenAI SDK.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/pageza/nutrisnap/backend/internal/flow"
	"github.com/pageza/nutrisnap/backend/internal/logger"
)

const jsonMIMEType = "application/json"

// Client creates a genai client per call so every request carries the
// credential resolved for that call.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API endpoint.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(log *logger.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// NewClient creates a new Gemini model client.
func NewClient(opts ...Option) *Client {
	c := &Client{log: logger.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ flow.ModelClient = (*Client)(nil)

func (c *Client) sdk(ctx context.Context, cfg flow.Config) (*genai.Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, flow.ErrMissingCredential
	}
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.httpClient,
	}
	if c.baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: c.baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return client, nil
}

func (c *Client) request(req flow.GenerateRequest) ([]*genai.Content, *genai.GenerateContentConfig, error) {
	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	if req.ImageDataURI != "" {
		mime, data, err := ParseDataURI(req.ImageDataURI)
		if err != nil {
			return nil, nil, err
		}
		parts = append(parts, genai.NewPartFromBytes(data, mime))
	}

	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Schema != nil {
		config.ResponseMIMEType = jsonMIMEType
		config.ResponseSchema = ToSchema(req.Schema)
	}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, config, nil
}

// Generate performs one structured call. A response without text, including a
// blocked prompt, returns nil output so the flow falls back.
func (c *Client) Generate(ctx context.Context, req flow.GenerateRequest) (json.RawMessage, error) {
	client, err := c.sdk(ctx, req.Config)
	if err != nil {
		return nil, err
	}
	contents, config, err := c.request(req)
	if err != nil {
		return nil, err
	}

	resp, err := client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return nil, statusError(err)
	}
	if reason := blockReason(resp); reason != "" {
		c.log.Warn("prompt blocked by the model", "model", req.Model, "reason", reason)
		return nil, nil
	}

	text, ok := candidateText(resp)
	if !ok {
		c.log.Warn("model response carried no text", "model", req.Model)
		return nil, nil
	}
	return json.RawMessage(stripFence(text)), nil
}

// GenerateStream starts a streamed free-text call. Failures to reach the API
// surface as the first iteration error.
func (c *Client) GenerateStream(ctx context.Context, req flow.GenerateRequest) (*flow.Stream, error) {
	client, err := c.sdk(ctx, req.Config)
	if err != nil {
		return nil, err
	}
	contents, config, err := c.request(req)
	if err != nil {
		return nil, err
	}

	var final error
	seq := client.Models.GenerateContentStream(ctx, req.Model, contents, config)
	chunks := func(yield func(flow.Chunk, error) bool) {
		for resp, err := range seq {
			if err != nil {
				final = statusError(err)
				yield(flow.Chunk{}, final)
				return
			}
			chunk := toChunk(resp)
			if chunk.Err != nil {
				final = chunk.Err
			}
			if !yield(chunk, nil) {
				return
			}
		}
	}
	return &flow.Stream{
		Chunks: chunks,
		Response: func(ctx context.Context) error {
			return final
		},
	}, nil
}

// toChunk maps one streamed response. Blocked prompts and abnormal finishes
// without text become error chunks; anything else without text is left
// unrecognized.
func toChunk(resp *genai.GenerateContentResponse) flow.Chunk {
	if reason := blockReason(resp); reason != "" {
		return flow.Chunk{Err: fmt.Errorf("prompt blocked: %s", reason)}
	}
	if text, ok := candidateText(resp); ok {
		return flow.TextChunk(text)
	}
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0] != nil {
		switch reason := resp.Candidates[0].FinishReason; reason {
		case "", genai.FinishReasonUnspecified, genai.FinishReasonStop:
		default:
			return flow.Chunk{Err: fmt.Errorf("generation stopped: %s", reason)}
		}
	}
	return flow.Chunk{}
}

func blockReason(resp *genai.GenerateContentResponse) string {
	if resp == nil || resp.PromptFeedback == nil {
		return ""
	}
	switch reason := resp.PromptFeedback.BlockReason; reason {
	case "", genai.BlockedReasonUnspecified:
		return ""
	default:
		return string(reason)
	}
}

// candidateText concatenates the text parts of the first candidate. It reports
// false when the candidate has no text part at all; an empty text part counts.
func candidateText(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return "", false
	}
	var sb strings.Builder
	found := false
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought || !isTextPart(part) {
			continue
		}
		found = true
		sb.WriteString(part.Text)
	}
	return sb.String(), found
}

func isTextPart(p *genai.Part) bool {
	return p.InlineData == nil && p.FileData == nil && p.FunctionCall == nil &&
		p.FunctionResponse == nil && p.ExecutableCode == nil && p.CodeExecutionResult == nil
}

// stripFence removes a Markdown code fence around JSON output.
func stripFence(s string) []byte {
	b := bytes.TrimSpace([]byte(s))
	if !bytes.HasPrefix(b, []byte("```")) {
		return b
	}
	b = bytes.TrimPrefix(b, []byte("```json"))
	b = bytes.TrimPrefix(b, []byte("```"))
	b = bytes.TrimSuffix(bytes.TrimSpace(b), []byte("```"))
	return bytes.TrimSpace(b)
}

// statusError converts SDK API errors into flow.StatusError.
func statusError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return fromAPIError(apiErr)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return fromAPIError(*apiErrPtr)
	}
	return err
}

func fromAPIError(e genai.APIError) *flow.StatusError {
	se := &flow.StatusError{Code: e.Code, Status: e.Status, Message: e.Message}
	if len(e.Details) > 0 {
		se.Details = e.Details
	}
	return se
}
