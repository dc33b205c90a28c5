package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/chivescore/api/internal/config"
)

// VisionAnalyzer defines the interface for the external vision-analysis
// service. The response is raw text; the caller extracts the JSON payload.
type VisionAnalyzer interface {
	AnalyzeImage(ctx context.Context, image []byte, mimeType string) (string, error)
	IsConfigured() bool
}

// VisionClient calls an OpenAI-compatible chat completions endpoint with the
// image attached as a base64 data URL.
type VisionClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

const analysisSystemPrompt = `You are a culinary inspection assistant. You receive a photo of cut chives
laid out on a board, divided into a 3x3 grid of regions labeled r1c1 through r3c3 (row-major).
Measure the chive pieces and respond with a single JSON object of this shape:
{"averageThicknessMm": number, "thicknessStdDevMm": number, "cutQualityLabel": "clean"|"mixed"|"ragged"|"unknown",
 "rawNotes": string, "regions": [{"id": "r1c1", "regionAverageThicknessMm": number,
 "regionThicknessStdDevMm": number, "regionCutQualityLabel": "clean"|"mixed"|"ragged"|"no_chives"}, ...]}
Include exactly one entry per grid region. Use "no_chives" for regions with no chive pieces.
Do not include any text outside the JSON object.`

type chatContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// NewVisionClient creates a new vision analysis client
func NewVisionClient(cfg *config.VisionConfig) *VisionClient {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &VisionClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}
}

// AnalyzeImage sends the image for analysis and returns the model's raw text
// response. The call is synchronous; the http.Client timeout bounds it.
func (c *VisionClient) AnalyzeImage(ctx context.Context, image []byte, mimeType string) (string, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))

	reqBody := chatCompletionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: analysisSystemPrompt},
			{Role: "user", Content: []chatContentPart{
				{Type: "text", Text: "Analyze this chive cut."},
				{Type: "image_url", ImageURL: &chatImageURL{URL: dataURL}},
			}},
		},
		Temperature: 0,
		MaxTokens:   1024,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("vision API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return chatResp.Choices[0].Message.Content, nil
}

// IsConfigured returns true if the client has valid configuration
func (c *VisionClient) IsConfigured() bool {
	return c != nil && c.apiKey != ""
}
