package recognize

import "context"

// Service represents a general-purpose animal recognition service.
type Service interface {
	// RecognizeAnimals runs animal recognition on an encoded image.
	RecognizeAnimals(ctx context.Context, req *Request) (*Response, error)
}

type Request struct {
	Image       []byte
	ContentType string
	Filename    string
}

type Response struct {
	Observations []Observation `json:"observations"`
}

// Observation is one recognized region. Labels are ranked by the service,
// best first.
type Observation struct {
	Confidence float64 `json:"confidence"`
	Labels     []Label `json:"labels"`
}

type Label struct {
	Identifier string  `json:"identifier"`
	Confidence float64 `json:"confidence"`
}
