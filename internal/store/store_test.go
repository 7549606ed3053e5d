package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/Lllllllleong/pdfinsight/internal/models"
)

func TestNewMongoStoreRequiresURI(t *testing.T) {
	_, err := NewMongoStore(context.Background(), "", "db", "coll")
	require.Error(t, err)
}

func TestPageRecordBSONFieldNames(t *testing.T) {
	rec := models.PageRecord{
		OriginalFilename:       "a.pdf",
		PageNumber:             2,
		ModelResponse:          `{"value":"No relevant data"}`,
		ResponseFormat:         "parsed",
		EmbeddingModelResponse: []float64{0.1, 0.2},
		OriginalText:           "Hello",
		EmbeddingsOriginalText: []float64{0.3},
		CreatedAt:              time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	raw, err := bson.Marshal(rec)
	require.NoError(t, err)

	var doc bson.M
	require.NoError(t, bson.Unmarshal(raw, &doc))
	assert.Equal(t, "a.pdf", doc["originalFilename"])
	assert.EqualValues(t, 2, doc["pageNumber"])
	assert.Equal(t, `{"value":"No relevant data"}`, doc["geminiResponse"])
	assert.Contains(t, doc, "embeddingGeminiResponse")
	assert.Contains(t, doc, "embeddingsOriginalText")
	assert.Contains(t, doc, "createdAt")
}
