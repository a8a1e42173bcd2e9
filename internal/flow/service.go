package flow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pageza/nutrisnap/backend/internal/logger"
)

var (
	// ErrMissingCredential is returned before any model call when Config.APIKey is blank.
	ErrMissingCredential = errors.New("missing API credential")
	// ErrInvalidInput wraps input validation failures.
	ErrInvalidInput = errors.New("invalid input")
	// ErrModel wraps failures of the outbound model call. Calls are never retried.
	ErrModel = errors.New("model call failed")
)

// Service runs the nutrition flows against a ModelClient.
type Service struct {
	client   ModelClient
	model    string
	log      *logger.Logger
	validate *validator.Validate
	tracer   trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

// WithModel overrides the model name.
func WithModel(model string) Option {
	return func(s *Service) {
		if model != "" {
			s.model = model
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(log *logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService creates a new flow service.
func NewService(client ModelClient, opts ...Option) *Service {
	s := &Service{
		client:   client,
		model:    DefaultModel,
		log:      logger.NewNop(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		tracer:   otel.Tracer("github.com/pageza/nutrisnap/backend/internal/flow"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// structuredCall is one instance of the shared flow pattern.
type structuredCall struct {
	name   string
	input  any
	prompt *template.Template
	data   any
	image  string
	schema *Schema
}

// generate checks the credential, validates input, renders the prompt and
// calls the model once. The returned raw output still needs decoding.
func (s *Service) generate(ctx context.Context, cfg Config, call structuredCall) (json.RawMessage, error) {
	ctx, span := s.tracer.Start(ctx, "flow."+call.name, trace.WithAttributes(attribute.String("flow.model", s.model)))
	defer span.End()

	if strings.TrimSpace(cfg.APIKey) == "" {
		span.SetStatus(codes.Error, ErrMissingCredential.Error())
		return nil, ErrMissingCredential
	}
	if err := s.validate.Struct(call.input); err != nil {
		span.SetStatus(codes.Error, "invalid input")
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	prompt, err := render(call.prompt, call.data)
	if err != nil {
		return nil, err
	}

	raw, err := s.client.Generate(ctx, GenerateRequest{
		Model:        s.model,
		Prompt:       prompt,
		ImageDataURI: call.image,
		Schema:       call.schema,
		Config:       cfg,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "model call failed")
		s.log.Error("model call failed", "flow", call.name, "error", err)
		return nil, fmt.Errorf("%w: %s: %w", ErrModel, call.name, err)
	}
	return raw, nil
}

// decode unmarshals raw output and logs why a fallback is about to be used.
func (s *Service) decode(name string, raw json.RawMessage, out any) bool {
	ok, err := decodeOutput(raw, out)
	switch {
	case err != nil:
		s.log.Warn("model output did not match schema, using fallback", "flow", name, "error", err)
	case !ok:
		s.log.Warn("model returned no output, using fallback", "flow", name)
	}
	return ok
}
