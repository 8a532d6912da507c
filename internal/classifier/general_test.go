package classifier

import (
	"context"
	"errors"
	"fmt"
	"image"
	"reflect"
	"testing"

	"github.com/Brownie44l1/catsdogs/internal/recognize"
)

type fakeService struct {
	resp  *recognize.Response
	err   error
	calls int
	last  *recognize.Request
}

func (f *fakeService) RecognizeAnimals(_ context.Context, req *recognize.Request) (*recognize.Response, error) {
	f.calls++
	f.last = req
	return f.resp, f.err
}

func labels(ids ...string) []recognize.Label {
	out := make([]recognize.Label, 0, len(ids))
	for _, id := range ids {
		out = append(out, recognize.Label{Identifier: id})
	}
	return out
}

func testImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 8, 8))
}

func TestGeneralClassify(t *testing.T) {
	tests := []struct {
		name         string
		observations []recognize.Observation
		want         []Prediction
	}{
		{
			name: "no observations",
			want: []Prediction{{Identifier: Unknown, Confidence: 0}},
		},
		{
			name: "top label only",
			observations: []recognize.Observation{
				{Confidence: 0.82, Labels: labels("cat", "dog")},
			},
			want: []Prediction{{Identifier: Cat, Confidence: 0.82}},
		},
		{
			name: "unlabelled observations dropped",
			observations: []recognize.Observation{
				{Confidence: 0.9, Labels: nil},
				{Confidence: 0.6, Labels: labels("Dog")},
				{Confidence: 0.5, Labels: []recognize.Label{}},
			},
			want: []Prediction{{Identifier: Dog, Confidence: 0.6}},
		},
		{
			name: "only unlabelled observations",
			observations: []recognize.Observation{
				{Confidence: 0.9},
			},
			want: []Prediction{{Identifier: Unknown, Confidence: 0}},
		},
		{
			name: "rank order kept",
			observations: []recognize.Observation{
				{Confidence: 0.3, Labels: labels("Cat")},
				{Confidence: 0.7, Labels: labels("Dog")},
				{Confidence: 0.5, Labels: labels("Horse")},
			},
			want: []Prediction{
				{Identifier: Cat, Confidence: 0.3},
				{Identifier: Dog, Confidence: 0.7},
				{Identifier: Unknown, Confidence: 0.5},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{resp: &recognize.Response{Observations: tt.observations}}
			got, err := NewGeneral(svc).Classify(context.Background(), testImage())
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Classify() = %+v, want %+v", got, tt.want)
			}
			if svc.last == nil || len(svc.last.Image) == 0 || svc.last.ContentType != "image/jpeg" {
				t.Fatalf("expected an encoded jpeg to be submitted")
			}
		})
	}
}

func TestGeneralClassifyConversionError(t *testing.T) {
	for _, img := range []image.Image{nil, image.NewRGBA(image.Rect(0, 0, 0, 0))} {
		svc := &fakeService{resp: &recognize.Response{}}
		_, err := NewGeneral(svc).Classify(context.Background(), img)
		if !errors.Is(err, ErrImageConversion) {
			t.Fatalf("expected ErrImageConversion, got %v", err)
		}
		if svc.calls != 0 {
			t.Fatalf("expected no inference call, got %d", svc.calls)
		}
	}
}

func TestGeneralClassifyInferenceError(t *testing.T) {
	cause := errors.New("connection refused")
	_, err := NewGeneral(&fakeService{err: cause}).Classify(context.Background(), testImage())
	if !errors.Is(err, ErrInference) || !errors.Is(err, cause) {
		t.Fatalf("expected ErrInference wrapping cause, got %v", err)
	}

	_, err = NewGeneral(&fakeService{}).Classify(context.Background(), testImage())
	if !errors.Is(err, ErrInference) {
		t.Fatalf("expected ErrInference for nil response, got %v", err)
	}
}

func TestGeneralClassifyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := &fakeService{err: fmt.Errorf("post: %w", context.Canceled)}
	_, err := NewGeneral(svc).Classify(ctx, testImage())
	if !errors.Is(err, context.Canceled) || errors.Is(err, ErrInference) {
		t.Fatalf("expected bare context.Canceled, got %v", err)
	}
}
