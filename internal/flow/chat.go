package flow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	// DefaultChatMessage replaces a blank user message.
	DefaultChatMessage = "Olá! Fale um pouco sobre nutrição em geral."
	// ErrorPrefix marks a fragment that reports a failure instead of model text.
	ErrorPrefix = "Error:"

	maxErrorMessageLen = 500
)

// ChatInput is the input of NutritionChat.
type ChatInput struct {
	UserMessage string       `json:"userMessage"`
	Profile     *UserProfile `json:"userProfile,omitempty"`
}

// NutritionChat streams the assistant's reply as a lazy sequence of text
// fragments in generation order.
//
// The sequence never fails out of band: setup failures, error chunks and
// iteration failures each produce one ErrorPrefix fragment and end the
// sequence. A reply that produced no text yields a single empty fragment, so
// every call observes at least one fragment. Stopping the range early stops
// production; the overall response is then not awaited.
func (s *Service) NutritionChat(ctx context.Context, cfg Config, in ChatInput) iter.Seq[string] {
	return func(yield func(string) bool) {
		ctx, span := s.tracer.Start(ctx, "flow.nutritionChat")
		defer span.End()

		stream, err := s.openChat(ctx, cfg, in)
		if err != nil {
			span.SetStatus(codes.Error, "chat setup failed")
			s.log.Error("failed to start chat stream", "error", err)
			yield(fmt.Sprintf("%s Falha crítica ao configurar o modelo de IA (%s). Por favor, tente novamente.", ErrorPrefix, describeError(err)))
			return
		}

		fragments := 0
		for chunk, err := range stream.Chunks {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "chat stream iteration failed")
				s.log.Error("chat stream iteration failed", "error", err, "fragments", fragments)
				yield(fmt.Sprintf("%s %s. Por favor, tente novamente.", ErrorPrefix, describeError(err)))
				return
			}
			switch {
			case chunk.Text != nil:
				fragments++
				if !yield(*chunk.Text) {
					span.SetAttributes(attribute.Bool("chat.abandoned", true))
					return
				}
			case chunk.Err != nil:
				span.RecordError(chunk.Err)
				span.SetStatus(codes.Error, "error chunk")
				s.log.Error("error chunk in chat stream", "error", chunk.Err, "fragments", fragments)
				yield(fmt.Sprintf("%s Problema durante o streaming da IA: %s.", ErrorPrefix, describeError(chunk.Err)))
				s.awaitResponse(ctx, stream)
				return
			default:
				s.log.Warn("skipping chat chunk with neither text nor error")
			}
		}

		s.awaitResponse(ctx, stream)
		span.SetAttributes(attribute.Int("chat.fragments", fragments))
		if fragments == 0 {
			s.log.Info("chat stream produced no text, yielding an empty fragment")
			yield("")
		}
	}
}

func (s *Service) openChat(ctx context.Context, cfg Config, in ChatInput) (*Stream, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingCredential
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	message := in.UserMessage
	if strings.TrimSpace(message) == "" {
		message = DefaultChatMessage
	}
	system, err := render(chatSystemPrompt, promptProfile(in.Profile))
	if err != nil {
		return nil, err
	}

	stream, err := s.client.GenerateStream(ctx, GenerateRequest{
		Model:  s.model,
		System: system,
		Prompt: message,
		Config: cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModel, err)
	}
	if stream == nil || stream.Chunks == nil {
		return nil, fmt.Errorf("%w: model returned an invalid stream", ErrModel)
	}
	return stream, nil
}

// awaitResponse resolves the overall response. Failures are logged only; the
// fragments already delivered stand.
func (s *Service) awaitResponse(ctx context.Context, stream *Stream) {
	if stream.Response == nil {
		return
	}
	if err := stream.Response(ctx); err != nil {
		s.log.Warn("chat response resolution failed", "error", err)
	}
}

// describeError builds a readable message, preferring the API message, then
// the status payload, then the error text.
func describeError(err error) string {
	var msg string
	var se *StatusError
	switch {
	case err == nil:
	case errors.As(err, &se) && se.Message != "":
		msg = se.Message
	case errors.As(err, &se):
		msg = fmt.Sprintf("Status: %d %s.", se.Code, se.Status)
		if se.Details != nil {
			if details, jerr := json.Marshal(se.Details); jerr == nil {
				msg += " Detalhes: " + string(details)
			}
		}
	default:
		msg = err.Error()
	}
	msg = strings.TrimSpace(msg)
	if msg == "" {
		msg = "Ocorreu um erro inesperado ao processar a resposta da IA"
	}
	return truncate(msg, maxErrorMessageLen)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
