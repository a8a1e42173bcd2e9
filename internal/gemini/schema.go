package gemini

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/pageza/nutrisnap/backend/internal/flow"
)

// ErrInvalidDataURI is returned for images that are not base64 data URIs.
var ErrInvalidDataURI = errors.New("invalid data URI")

// ToSchema converts a flow schema into the SDK's response schema.
func ToSchema(s *flow.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        genai.Type(s.Type),
		Description: s.Description,
		Items:       ToSchema(s.Items),
		Minimum:     s.Minimum,
		Maximum:     s.Maximum,
	}
	if len(s.Required) > 0 {
		out.Required = append([]string(nil), s.Required...)
	}
	if len(s.Order) > 0 {
		out.PropertyOrdering = append([]string(nil), s.Order...)
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = ToSchema(prop)
		}
	}
	return out
}

// ParseDataURI splits data:<mime>;base64,<payload> into its MIME type and
// decoded bytes.
func ParseDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing data: scheme", ErrInvalidDataURI)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing payload", ErrInvalidDataURI)
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("%w: payload is not base64", ErrInvalidDataURI)
	}
	if mime == "" {
		return "", nil, fmt.Errorf("%w: missing MIME type", ErrInvalidDataURI)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrInvalidDataURI, err)
	}
	return mime, data, nil
}
