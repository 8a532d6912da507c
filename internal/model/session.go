package model

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/Brownie44l1/catsdogs/internal/imaging"
)

var ErrClosed = errors.New("model session closed")

type inferFunc func(input []float32) ([]float32, error)

// Session is a compiled ONNX classifier. The input and output tensors are
// allocated once and shared, so runs are serialized.
type Session struct {
	Metadata Metadata

	mu      sync.Mutex
	closed  bool
	infer   inferFunc
	destroy func()
}

func NewSession(opts Options) (*Session, error) {
	metadata, err := LoadMetadata(opts.MetadataPath)
	if err != nil {
		return nil, err
	}

	if opts.LibraryPath != "" {
		ort.SetSharedLibraryPath(opts.LibraryPath)
	}
	releaseEnv, err := acquireEnvironment()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	inputShape := ort.NewShape(metadata.InputShape...)
	outputShape := ort.NewShape(metadata.OutputShape...)

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		releaseEnv()
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		releaseEnv()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(opts.ModelPath,
		[]string{metadata.InputName}, []string{metadata.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		releaseEnv()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	s := &Session{Metadata: metadata}
	s.infer = func(input []float32) ([]float32, error) {
		copy(inputTensor.GetData(), input)
		if err := session.Run(); err != nil {
			return nil, err
		}
		out := outputTensor.GetData()
		scores := make([]float32, len(out))
		copy(scores, out)
		return scores, nil
	}
	s.destroy = func() {
		inputTensor.Destroy()
		outputTensor.Destroy()
		session.Destroy()
		releaseEnv()
	}
	return s, nil
}

var (
	envInitialized = ort.IsInitialized
	envInitialize  = func() error { return ort.InitializeEnvironment() }
	envDestroy     = func() { ort.DestroyEnvironment() }
)

// acquireEnvironment initializes the ONNX environment if nobody has yet. The
// returned release only tears it down when this call set it up.
func acquireEnvironment() (func(), error) {
	if envInitialized() {
		return func() {}, nil
	}
	if err := envInitialize(); err != nil {
		return nil, err
	}
	return envDestroy, nil
}

// Perform submits req and returns immediately. The outcome is delivered to
// req.Done from another goroutine. A non-nil return means the request was
// not accepted.
func (s *Session) Perform(req Request) error {
	if req.Done == nil {
		return errors.New("request has no completion handler")
	}
	if req.Image == nil {
		return errors.New("request has no image")
	}
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrClosed
	}

	go func() {
		req.Done(s.run(req))
	}()
	return nil
}

func (s *Session) run(req Request) ([]Classification, error) {
	size := s.Metadata.ImageSize
	fitted, err := imaging.Fit(req.Image, size, size, req.CropAndScale)
	if err != nil {
		return nil, fmt.Errorf("prepare input: %w", err)
	}
	input := imaging.CHW(fitted)
	if int64(len(input)) != s.Metadata.InputSize() {
		return nil, fmt.Errorf("expected %d input values, got %d", s.Metadata.InputSize(), len(input))
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	scores, err := s.infer(input)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	return rank(scores, s.Metadata.Classes, s.Metadata.Softmax)
}

func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.destroy != nil {
		s.destroy()
	}
}

// rank pairs scores with class names, best first.
func rank(scores []float32, classes []string, softmax bool) ([]Classification, error) {
	if len(scores) != len(classes) {
		return nil, fmt.Errorf("unexpected output shape: %d scores for %d classes", len(scores), len(classes))
	}
	for i, v := range scores {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("unexpected output: score %d is not finite", i)
		}
		if !softmax && (v < 0 || v > 1) {
			return nil, fmt.Errorf("unexpected output: score %d is %v, outside [0, 1]", i, v)
		}
	}
	if softmax {
		scores = normalize(scores)
	}

	out := make([]Classification, len(classes))
	for i, class := range classes {
		out[i] = Classification{Identifier: class, Confidence: scores[i]}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out, nil
}

func normalize(logits []float32) []float32 {
	if len(logits) == 0 {
		return logits
	}
	maxVal := logits[0]
	for _, v := range logits[1:] {
		maxVal = max(maxVal, v)
	}
	var sum float64
	probs := make([]float32, len(logits))
	for i, v := range logits {
		e := math.Exp(float64(v - maxVal))
		probs[i] = float32(e)
		sum += e
	}
	for i := range probs {
		probs[i] = float32(float64(probs[i]) / sum)
	}
	return probs
}
