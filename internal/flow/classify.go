package flow

import (
	"context"
	"strings"
)

// ClassifyFoodItemInput is the input of ClassifyFoodItem.
type ClassifyFoodItemInput struct {
	PhotoDataURI string `json:"photoDataUri" validate:"required,datauri"`
}

type Classification struct {
	Label      string `json:"label"`
	Confidence Number `json:"confidence"`
}

// ClassificationResult is the output of ClassifyFoodItem.
type ClassificationResult struct {
	Classifications []Classification `json:"classifications"`
	Generated       bool             `json:"generated"`
}

// ClassifyFoodItem labels the food items in a photo with a confidence in [0, 1].
func (s *Service) ClassifyFoodItem(ctx context.Context, cfg Config, in ClassifyFoodItemInput) (*ClassificationResult, error) {
	raw, err := s.generate(ctx, cfg, structuredCall{
		name:   "classifyFoodItem",
		input:  in,
		prompt: classifyPrompt,
		image:  in.PhotoDataURI,
		schema: classificationSchema,
	})
	if err != nil {
		return nil, err
	}

	var out struct {
		Classifications []Classification `json:"classifications"`
	}
	result := &ClassificationResult{Classifications: []Classification{}}
	if s.decode("classifyFoodItem", raw, &out) {
		for _, c := range out.Classifications {
			c.Label = strings.TrimSpace(c.Label)
			if c.Label == "" {
				continue
			}
			c.Confidence = clampConfidence(c.Confidence)
			result.Classifications = append(result.Classifications, c)
		}
		result.Generated = len(result.Classifications) > 0
	}
	if !result.Generated {
		result.Classifications = []Classification{{Label: fallbackClassificationLabel, Confidence: 0}}
	}
	return result, nil
}

func clampConfidence(c Number) Number {
	switch {
	case c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}
