package classifier

import (
	"context"
	"fmt"
	"image"
	"strconv"

	"github.com/Brownie44l1/catsdogs/internal/imaging"
	"github.com/Brownie44l1/catsdogs/internal/model"
	"github.com/Brownie44l1/catsdogs/internal/oneshot"
)

// Engine runs a compiled model. Perform delivers its outcome through
// req.Done, possibly from another goroutine.
type Engine interface {
	Perform(req model.Request) error
}

// Custom classifies with a custom-trained binary model. The model is loaded
// once and shared by all calls; model.Session serializes runs.
type Custom struct {
	engine Engine
}

// LoadCustom loads and compiles the model. Any failure is reported as
// ErrModelUnavailable and no classifier is returned.
func LoadCustom(opts model.Options) (*Custom, error) {
	session, err := model.NewSession(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}
	return NewCustom(session), nil
}

func NewCustom(engine Engine) *Custom {
	return &Custom{engine: engine}
}

func (c *Custom) Name() string { return KindCustom.DisplayName() }
func (c *Custom) Kind() Kind   { return KindCustom }

// Close releases the engine if it holds native resources.
func (c *Custom) Close() {
	if closer, ok := c.engine.(interface{ Close() }); ok {
		closer.Close()
	}
}

func (c *Custom) Classify(ctx context.Context, img image.Image) ([]Prediction, error) {
	if c.engine == nil {
		return nil, ErrModelUnavailable
	}
	rgba, err := toRGBA(img)
	if err != nil {
		return nil, err
	}

	classifications, err := c.perform(ctx, rgba)
	if err != nil {
		return nil, inferenceError(ctx, err)
	}

	predictions := make([]Prediction, 0, len(classifications))
	for _, cl := range classifications {
		predictions = append(predictions, Prediction{
			Identifier: ParseIdentifier(cl.Identifier),
			Confidence: widen(cl.Confidence),
		})
	}
	if len(predictions) == 0 {
		return unknownPrediction(), nil
	}
	return predictions, nil
}

// perform turns the engine's callback into a single wait. Only the first
// outcome counts: repeated callbacks and a submission error that arrives
// after a callback are dropped.
func (c *Custom) perform(ctx context.Context, rgba *image.RGBA) ([]model.Classification, error) {
	cell := oneshot.New[[]model.Classification]()
	err := c.engine.Perform(model.Request{
		Image:        rgba,
		CropAndScale: imaging.CenterCrop,
		Done: func(classifications []model.Classification, err error) {
			if err != nil {
				cell.Reject(err)
				return
			}
			cell.Resolve(classifications)
		},
	})
	if err != nil {
		cell.Reject(err)
	}
	return cell.Wait(ctx)
}

// widen converts a float32 score to the float64 with the same shortest
// decimal form, so 0.955 stays 0.955 rather than 0.95499998.
func widen(f float32) float64 {
	v, err := strconv.ParseFloat(strconv.FormatFloat(float64(f), 'g', -1, 32), 64)
	if err != nil {
		return float64(f)
	}
	return v
}
