package services

import (
	"encoding/json"
	"regexp"

	"github.com/titanous/json5"

	"github.com/Lllllllleong/pdfinsight/internal/models"
)

var (
	leadingFence  = regexp.MustCompile("^```(?:[A-Za-z0-9_+-]*\\s+|(?i:json5?)\\s*)?")
	trailingFence = regexp.MustCompile("\\s*```\\s*$")
)

// StripCodeFences removes a leading ``` marker (with its language tag) and a
// trailing ``` marker. A json or json5 tag is stripped even when the payload
// follows it on the same line. Text between the markers is left untouched.
func StripCodeFences(text string) string {
	text = leadingFence.ReplaceAllString(text, "")
	return trailingFence.ReplaceAllString(text, "")
}

// ParseModelResponse tries strict JSON, then JSON5, and falls back to the raw text.
func ParseModelResponse(cleaned string) models.ModelResponse {
	var value any
	if err := json.Unmarshal([]byte(cleaned), &value); err == nil {
		return models.ParsedResponse(value, cleaned)
	}
	value = nil
	if err := json5.Unmarshal([]byte(cleaned), &value); err == nil {
		return models.ParsedResponse(value, cleaned)
	}
	return models.RawResponse(cleaned)
}
