package classifier

import (
	"context"
	"fmt"
	"image"

	"github.com/Brownie44l1/catsdogs/internal/imaging"
	"github.com/Brownie44l1/catsdogs/internal/recognize"
)

const jpegQuality = 90

// General classifies through a general-purpose animal recognition service.
// It holds no state between calls.
type General struct {
	service recognize.Service
}

func NewGeneral(service recognize.Service) *General {
	return &General{service: service}
}

func (g *General) Name() string { return KindGeneral.DisplayName() }
func (g *General) Kind() Kind   { return KindGeneral }

func (g *General) Classify(ctx context.Context, img image.Image) ([]Prediction, error) {
	rgba, err := toRGBA(img)
	if err != nil {
		return nil, err
	}
	encoded, err := imaging.EncodeJPEG(rgba, jpegQuality)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImageConversion, err)
	}

	resp, err := g.service.RecognizeAnimals(ctx, &recognize.Request{
		Image:       encoded,
		ContentType: "image/jpeg",
	})
	if err != nil {
		return nil, inferenceError(ctx, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: empty response", ErrInference)
	}
	return topLabels(resp.Observations), nil
}

// topLabels keeps the best label of each labelled observation, paired with
// the observation's confidence.
func topLabels(observations []recognize.Observation) []Prediction {
	predictions := make([]Prediction, 0, len(observations))
	for _, o := range observations {
		if len(o.Labels) == 0 {
			continue
		}
		predictions = append(predictions, Prediction{
			Identifier: ParseIdentifier(o.Labels[0].Identifier),
			Confidence: o.Confidence,
		})
	}
	if len(predictions) == 0 {
		return unknownPrediction()
	}
	return predictions
}
