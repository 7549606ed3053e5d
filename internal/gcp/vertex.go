package gcp

import (
	"context"
	"fmt"
	"strings"

	aiplatform "cloud.google.com/go/aiplatform/apiv1"
	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/structpb"
)

// DefaultPrompt is the analysis prompt used when a caller does not supply one.
const DefaultPrompt = `
You are an automated system tasked with analyzing PDF documents related to impact statements and impact assessments in Canada, specifically those prepared for the evaluation of energy and infrastructure projects. Your objective is to identify and summarize key information, focusing on the opinions and recommendations of stakeholders involved in these assessments. Follow these steps for each document:

1. **Determine Relevance**: Verify if the document pertains to impact statements or impact assessments for energy or infrastructure projects in Canada. If the document does not relate to this scope, return: {value:"No relevant data"}.

2. **Extract Key Information**: If the document is relevant, extract the following:
   - **Project Details**: Name, type (e.g., energy, infrastructure), location, and purpose of the project.
   - **Stakeholder Identification**: List the stakeholders involved (e.g., government agencies, Indigenous groups, local communities, industry representatives, environmental organizations).
   - **Stakeholder Opinions**: Summarize the opinions expressed by each stakeholder group regarding the project's impacts (e.g., environmental, social, economic, cultural).
   - **Stakeholder Recommendations**: Identify specific recommendations provided by stakeholders for mitigating negative impacts or enhancing project outcomes.
   - **Key Issues**: Highlight any major concerns or controversies raised by stakeholders (e.g., environmental risks, community displacement, economic benefits).
   - **Supporting Evidence**: Note any data, studies, or references cited by stakeholders to support their opinions or recommendations.

3. **Summarize Findings**: Provide a concise summary of the stakeholder opinions and recommendations, organized by stakeholder group. Ensure the summary is neutral, accurate, and captures the diversity of perspectives.

4. **Output Format**: Return the analysis in a structured JSON format. If the document is relevant, use the following structure:
   ` + "```json" + `
   {
     "value": "Relevant data",
     "project": {
       "name": "[Project Name]",
       "type": "[Energy/Infrastructure]",
       "location": "[Location in Canada]",
       "purpose": "[Brief description of project purpose]"
     },
     "stakeholders": [
       {
         "group": "[Stakeholder Group]",
         "opinions": "[Summary of opinions]",
         "recommendations": "[Summary of recommendations]",
         "key_issues": "[Key concerns or controversies]"
       }
     ],
     "supporting_evidence": "[Summary of cited data or studies]"
   }
   ` + "```" + `
   If the document is not relevant, return:
   ` + "```json" + `
   {value:"No relevant data"}
   ` + "```" + `

5. **Error Handling**: If the document is unreadable, corrupted, or lacks sufficient information, return:
   ` + "```json" + `
   {value:"Error: Unable to process document"}
   ` + "```" + `

Ensure the analysis is objective, respects the diversity of stakeholder perspectives, and adheres to the context of Canadian energy and infrastructure project evaluations. Process the document efficiently and return the output in the specified JSON format.
`

// VertexConfig selects the project, region and models used for inference.
type VertexConfig struct {
	ProjectID       string
	Region          string
	APIKey          string
	GenerationModel string
	EmbeddingModel  string
}

// VertexClient holds the pre-configured generative model and the prediction
// client used for embeddings. It is created once per process and shared.
type VertexClient struct {
	AnalysisModel    *genai.GenerativeModel
	baseClient       *genai.Client
	predictionClient *aiplatform.PredictionClient
	embeddingModel   string
	projectID        string
	region           string
}

// NewVertexClient creates a new client holding all necessary models.
func NewVertexClient(ctx context.Context, cfg VertexConfig) (*VertexClient, error) {
	if cfg.ProjectID == "" || cfg.Region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}

	var opts []option.ClientOption
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}

	baseClient, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Region, opts...)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	predictionOpts := append([]option.ClientOption{
		option.WithEndpoint(fmt.Sprintf("%s-aiplatform.googleapis.com:443", cfg.Region)),
	}, opts...)
	predictionClient, err := aiplatform.NewPredictionClient(ctx, predictionOpts...)
	if err != nil {
		_ = baseClient.Close()
		return nil, fmt.Errorf("aiplatform.NewPredictionClient: %w", err)
	}

	analysisModel := baseClient.GenerativeModel(cfg.GenerationModel)
	analysisModel.GenerationConfig = genai.GenerationConfig{
		Temperature: genai.Ptr[float32](0.0),
	}

	return &VertexClient{
		AnalysisModel:    analysisModel,
		baseClient:       baseClient,
		predictionClient: predictionClient,
		embeddingModel:   cfg.EmbeddingModel,
		projectID:        cfg.ProjectID,
		region:           cfg.Region,
	}, nil
}

// Generate sends the prompt and a PNG page image to the analysis model and
// returns the concatenated text of the first candidate.
func (c *VertexClient) Generate(ctx context.Context, prompt string, image []byte) (string, error) {
	resp, err := c.AnalysisModel.GenerateContent(ctx, genai.Text(prompt), genai.ImageData("png", image))
	if err != nil {
		return "", fmt.Errorf("failed to generate content from gemini: %w", err)
	}
	return responseText(resp), nil
}

// Embed returns the embedding vector for text, in the order the service returns it.
func (c *VertexClient) Embed(ctx context.Context, text string) ([]float64, error) {
	instance, err := structpb.NewValue(map[string]any{
		"content":   text,
		"task_type": "RETRIEVAL_DOCUMENT",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build embedding instance: %w", err)
	}

	req := &aiplatformpb.PredictRequest{
		Endpoint:  fmt.Sprintf("projects/%s/locations/%s/publishers/google/models/%s", c.projectID, c.region, c.embeddingModel),
		Instances: []*structpb.Value{instance},
	}
	resp, err := c.predictionClient.Predict(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to compute embedding: %w", err)
	}
	if len(resp.GetPredictions()) == 0 {
		return nil, fmt.Errorf("embedding response contained no predictions")
	}
	return embeddingValues(resp.GetPredictions()[0])
}

func (c *VertexClient) Close() error {
	var errs []string
	if c.predictionClient != nil {
		if err := c.predictionClient.Close(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if c.baseClient != nil {
		if err := c.baseClient.Close(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("closing vertex clients: %s", strings.Join(errs, "; "))
	}
	return nil
}

// responseText concatenates every text part of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}

// embeddingValues reads predictions[0].embeddings.values.
func embeddingValues(prediction *structpb.Value) ([]float64, error) {
	embeddings := prediction.GetStructValue().GetFields()["embeddings"]
	if embeddings == nil {
		return nil, fmt.Errorf("embedding prediction missing %q field", "embeddings")
	}
	values := embeddings.GetStructValue().GetFields()["values"]
	if values == nil {
		return nil, fmt.Errorf("embedding prediction missing %q field", "values")
	}
	list := values.GetListValue().GetValues()
	out := make([]float64, len(list))
	for i, v := range list {
		out[i] = v.GetNumberValue()
	}
	return out, nil
}
