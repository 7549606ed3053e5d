package models

import (
	"encoding/json"
	"time"
)

// Status discriminates a page outcome.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ResponseKind records whether the model output could be parsed as structured data.
type ResponseKind string

const (
	ResponseParsed ResponseKind = "parsed"
	ResponseRaw    ResponseKind = "raw"
)

// ModelResponse is the tagged result of parsing a model's text output.
// Raw always holds the cleaned text the value was parsed from.
type ModelResponse struct {
	Kind  ResponseKind
	Value any
	Raw   string
}

// ParsedResponse builds a structured ModelResponse.
func ParsedResponse(value any, raw string) ModelResponse {
	return ModelResponse{Kind: ResponseParsed, Value: value, Raw: raw}
}

// RawResponse builds a ModelResponse that keeps the text verbatim.
func RawResponse(raw string) ModelResponse {
	return ModelResponse{Kind: ResponseRaw, Value: raw, Raw: raw}
}

// IsParsed reports whether the response holds structured data.
func (r ModelResponse) IsParsed() bool {
	return r.Kind == ResponseParsed
}

// Serialized returns the form persisted in the result store: JSON text for
// parsed values and the raw text otherwise.
func (r ModelResponse) Serialized() (string, error) {
	if !r.IsParsed() {
		return r.Raw, nil
	}
	b, err := json.Marshal(r.Value)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// MarshalJSON emits the structured value when present, else the raw string.
func (r ModelResponse) MarshalJSON() ([]byte, error) {
	if r.IsParsed() {
		return json.Marshal(r.Value)
	}
	return json.Marshal(r.Raw)
}

// PageOutcome is the result of processing one page of one document.
type PageOutcome struct {
	OriginalFilename  string        `json:"originalFilename"`
	PageNumber        int           `json:"pageNumber"`
	Status            Status        `json:"status"`
	ModelResponse     ModelResponse `json:"modelResponse"`
	ResponseEmbedding []float64     `json:"-"`
	OriginalText      string        `json:"originalText"`
	TextEmbedding     []float64     `json:"-"`
	ErrorDetail       string        `json:"errorDetail,omitempty"`
}

// Failed reports whether the page ended in error.
func (o PageOutcome) Failed() bool {
	return o.Status == StatusError
}

// ErrorOutcome builds a status=error outcome for a page (or, with page 0, a whole document).
func ErrorOutcome(originalFilename string, pageNumber int, pageText string, err error) PageOutcome {
	detail := "Error: " + err.Error()
	return PageOutcome{
		OriginalFilename: originalFilename,
		PageNumber:       pageNumber,
		Status:           StatusError,
		ModelResponse:    RawResponse(detail),
		OriginalText:     pageText,
		ErrorDetail:      detail,
	}
}

// DocumentResult holds one outcome per page in page order.
type DocumentResult []PageOutcome

// FailedCount returns the number of error outcomes.
func (d DocumentResult) FailedCount() int {
	n := 0
	for _, o := range d {
		if o.Failed() {
			n++
		}
	}
	return n
}

// PageRecord is the persisted form of a PageOutcome. Records are insert-only;
// reprocessing a document appends new records.
type PageRecord struct {
	OriginalFilename       string    `firestore:"originalFilename" bson:"originalFilename"`
	PageNumber             int       `firestore:"pageNumber" bson:"pageNumber"`
	ModelResponse          string    `firestore:"geminiResponse" bson:"geminiResponse"`
	ResponseFormat         string    `firestore:"responseFormat" bson:"responseFormat"`
	EmbeddingModelResponse []float64 `firestore:"embeddingGeminiResponse" bson:"embeddingGeminiResponse"`
	OriginalText           string    `firestore:"originalText" bson:"originalText"`
	EmbeddingsOriginalText []float64 `firestore:"embeddingsOriginalText" bson:"embeddingsOriginalText"`
	CreatedAt              time.Time `firestore:"createdAt" bson:"createdAt"`
}

// NewPageRecord converts a successful outcome into its persisted form.
func NewPageRecord(o PageOutcome, now time.Time) (PageRecord, error) {
	serialized, err := o.ModelResponse.Serialized()
	if err != nil {
		return PageRecord{}, err
	}
	return PageRecord{
		OriginalFilename:       o.OriginalFilename,
		PageNumber:             o.PageNumber,
		ModelResponse:          serialized,
		ResponseFormat:         string(o.ModelResponse.Kind),
		EmbeddingModelResponse: o.ResponseEmbedding,
		OriginalText:           o.OriginalText,
		EmbeddingsOriginalText: o.TextEmbedding,
		CreatedAt:              now.UTC(),
	}, nil
}

// DocumentSummary is the batch-level view of one document run.
type DocumentSummary struct {
	Path        string `json:"path"`
	Pages       int    `json:"pages"`
	FailedPages int    `json:"failedPages"`
	Skipped     bool   `json:"skipped,omitempty"`
	// Error explains why a skipped document was not processed.
	Error       string `json:"error,omitempty"`
}

// BatchResult aggregates document summaries for logging. It is never persisted.
type BatchResult struct {
	Documents   []DocumentSummary `json:"documents"`
	Attempted   int               `json:"attempted"`
	FailedPages int               `json:"failedPages"`
}
