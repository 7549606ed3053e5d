package gcp

import (
	"testing"

	"cloud.google.com/go/vertexai/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestEmbeddingValuesPreservesOrder(t *testing.T) {
	prediction, err := structpb.NewValue(map[string]any{
		"embeddings": map[string]any{
			"values":     []any{0.1, 0.2, -0.3},
			"statistics": map[string]any{"token_count": 4.0},
		},
	})
	require.NoError(t, err)

	values, err := embeddingValues(prediction)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, -0.3}, values)
}

func TestEmbeddingValuesMissingField(t *testing.T) {
	prediction, err := structpb.NewValue(map[string]any{"other": 1.0})
	require.NoError(t, err)

	_, err = embeddingValues(prediction)
	require.Error(t, err)
}

func TestResponseTextConcatenatesTextParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("{value:"), genai.Text(`"x"}`)}},
		}},
	}
	assert.Equal(t, `{value:"x"}`, responseText(resp))
	assert.Equal(t, "", responseText(nil))
	assert.Equal(t, "", responseText(&genai.GenerateContentResponse{}))
}

func TestNewVertexClientRequiresProjectAndRegion(t *testing.T) {
	_, err := NewVertexClient(t.Context(), VertexConfig{})
	require.Error(t, err)
}
