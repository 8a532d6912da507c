package handlers

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Brownie44l1/catsdogs/internal/classifier"
)

// statusClientClosedRequest is reported when the caller goes away before
// classification finishes.
const statusClientClosedRequest = 499

type Handler struct {
	classifiers *classifier.Set
	maxUpload   int64
	fallback    bool
}

type Options struct {
	// MaxUpload caps the image size in bytes.
	MaxUpload int64
	// Fallback serves requests for an unavailable backend with another one.
	Fallback bool
}

func NewHandler(classifiers *classifier.Set, opts Options) *Handler {
	if opts.MaxUpload <= 0 {
		opts.MaxUpload = 10 << 20
	}
	return &Handler{
		classifiers: classifiers,
		maxUpload:   opts.MaxUpload,
		fallback:    opts.Fallback,
	}
}

func (h *Handler) Register(r gin.IRouter) {
	r.GET("/health", h.Health)
	r.GET("/classifiers", h.Classifiers)
	r.POST("/predict", h.Predict)
	r.POST("/predict/image", h.PredictFromImage)
}

type ClassifierInfo struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

type ClassifierStatus struct {
	ClassifierInfo
	Available bool   `json:"available"`
	Default   bool   `json:"default"`
	Error     string `json:"error,omitempty"`
}

type PredictionView struct {
	Identifier classifier.Identifier `json:"identifier"`
	Label      string                `json:"label"`
	Confidence float64               `json:"confidence"`
	Percent    int                   `json:"percent"`
}

type PredictionResponse struct {
	RequestID   string           `json:"request_id"`
	Classifier  ClassifierInfo   `json:"classifier"`
	Predictions []PredictionView `json:"predictions"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (h *Handler) Classifiers(c *gin.Context) {
	statuses := h.classifiers.Status()
	out := make([]ClassifierStatus, 0, len(statuses))
	for _, s := range statuses {
		cs := ClassifierStatus{
			ClassifierInfo: ClassifierInfo{Kind: s.Kind.String(), Name: s.Name},
			Available:      s.Available,
			Default:        s.Default,
		}
		if s.Err != nil {
			cs.Error = s.Err.Error()
		}
		out = append(out, cs)
	}
	c.JSON(http.StatusOK, gin.H{"classifiers": out})
}

// Predict classifies an image sent as the raw request body.
func (h *Handler) Predict(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, h.maxUpload+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "Failed to read request body"})
		return
	}
	if int64(len(body)) > h.maxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Error:   "too_large",
			Message: fmt.Sprintf("Image exceeds %d bytes", h.maxUpload),
		})
		return
	}

	img, err := classifier.Decode(body)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.classify(c, c.Query("classifier"), img)
}

// PredictFromImage classifies an image uploaded as the multipart field "image".
func (h *Handler) PredictFromImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+(1<<20))

	header, err := c.FormFile("image")
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Error:   "too_large",
			Message: fmt.Sprintf("Image exceeds %d bytes", h.maxUpload),
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "No image file provided. Use 'image' as the form field name",
		})
		return
	}
	if header.Size > h.maxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Error:   "too_large",
			Message: fmt.Sprintf("Image exceeds %d bytes", h.maxUpload),
		})
		return
	}

	file, err := header.Open()
	if err != nil {
		log.Err(err).Str(requestIDKey, requestID(c)).Msg("open form file")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "Failed to open form file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "Failed to read form file"})
		return
	}

	log.Debug().
		Str(requestIDKey, requestID(c)).
		Str("filename", header.Filename).
		Int64("size", header.Size).
		Msg("received image")

	img, err := classifier.Decode(data)
	if err != nil {
		h.fail(c, err)
		return
	}

	kind := c.Query("classifier")
	if kind == "" {
		kind = c.PostForm("classifier")
	}
	h.classify(c, kind, img)
}

func (h *Handler) classify(c *gin.Context, kindParam string, img image.Image) {
	id := requestID(c)

	kind := h.classifiers.Default()
	if kindParam != "" {
		k, err := classifier.ParseKind(kindParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: err.Error()})
			return
		}
		kind = k
	}

	var (
		backend classifier.Classifier
		err     error
	)
	if h.fallback {
		backend, err = h.classifiers.Fallback(kind)
	} else {
		backend, err = h.classifiers.Get(kind)
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	start := time.Now()
	predictions, err := backend.Classify(c.Request.Context(), img)
	if err != nil {
		h.fail(c, err)
		return
	}

	event := log.Info().
		Str(requestIDKey, id).
		Str("classifier", backend.Kind().String()).
		Dur("took", time.Since(start))
	if len(predictions) > 0 {
		event = event.
			Str("top", string(predictions[0].Identifier)).
			Float64("confidence", predictions[0].Confidence)
	}
	event.Msg("classified image")

	c.JSON(http.StatusOK, PredictionResponse{
		RequestID:   id,
		Classifier:  ClassifierInfo{Kind: backend.Kind().String(), Name: backend.Name()},
		Predictions: views(predictions),
	})
}

func views(predictions []classifier.Prediction) []PredictionView {
	out := make([]PredictionView, 0, len(predictions))
	for _, p := range predictions {
		out = append(out, PredictionView{
			Identifier: p.Identifier,
			Label:      p.Label(),
			Confidence: p.Confidence,
			Percent:    p.Percent(),
		})
	}
	return out
}

func (h *Handler) fail(c *gin.Context, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Err(err).Str(requestIDKey, requestID(c)).Msg("classify image")
	}
	c.JSON(status, ErrorResponse{Error: code, Message: err.Error()})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, classifier.ErrImageConversion):
		return http.StatusBadRequest, "image_conversion"
	case errors.Is(err, classifier.ErrModelUnavailable):
		return http.StatusServiceUnavailable, "model_unavailable"
	case errors.Is(err, classifier.ErrInference):
		return http.StatusBadGateway, "inference"
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest, "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
