package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Slydexx/esthetica-app/internal/config"
	"github.com/Slydexx/esthetica-app/internal/media"
)

var (
	ErrMissingAPIKey = errors.New("gemini api key is not configured")

	// ErrMalformedResponse marks a structurally invalid analysis response.
	ErrMalformedResponse = errors.New("malformed analysis response")
)

// APIError is a non-2xx reply from the generative API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini API %d: %s", e.StatusCode, e.Message)
}

// IsAuthError reports whether an error is an authorization/permission
// failure. Those are never retried: retrying cannot fix a bad key.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusForbidden {
			return true
		}
		return strings.Contains(apiErr.Message, "PERMISSION_DENIED")
	}
	if err != nil {
		msg := err.Error()
		return strings.Contains(msg, "403") || strings.Contains(msg, "PERMISSION_DENIED")
	}
	return false
}

type Client struct {
	apiKey     string
	baseURL    string
	apiVersion string
	textModel  string
	imageModel string
	httpClient *http.Client
	log        zerolog.Logger
}

func NewClient(cfg config.GeminiConfig, log zerolog.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	apiVersion := strings.TrimSpace(cfg.APIVersion)
	if apiVersion == "" {
		apiVersion = "v1beta"
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		apiVersion: apiVersion,
		textModel:  cfg.TextModel,
		imageModel: cfg.ImageModel,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}
}

func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// AnalyzeFaces sends the three normalized photos plus the assembled
// instruction text and returns the structured analysis. The response is
// requested as JSON against a fixed schema; anything that fails to decode
// into the contract is a malformed response.
func (c *Client) AnalyzeFaces(ctx context.Context, images []media.NormalizedImage, instructions string) (VisagismAnalysis, error) {
	if c.apiKey == "" {
		return VisagismAnalysis{}, ErrMissingAPIKey
	}

	parts := make([]part, 0, len(images)+1)
	for _, img := range images {
		inline, err := inlineDataFrom(img)
		if err != nil {
			return VisagismAnalysis{}, err
		}
		parts = append(parts, part{InlineData: inline})
	}
	parts = append(parts, part{Text: instructions})

	req := generateContentRequest{
		Contents: []content{{Role: "user", Parts: parts}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   analysisSchema,
		},
	}

	resp, err := c.generateContent(ctx, c.textModel, req)
	if err != nil {
		return VisagismAnalysis{}, err
	}

	text := strings.TrimSpace(firstText(resp))
	if text == "" {
		return VisagismAnalysis{}, fmt.Errorf("%w: empty candidate text", ErrMalformedResponse)
	}
	text = stripCodeFences(text)

	var analysis VisagismAnalysis
	if err := json.Unmarshal([]byte(text), &analysis); err != nil {
		return VisagismAnalysis{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if analysis.Summary == "" || len(analysis.ImageEditingPrompts) == 0 {
		return VisagismAnalysis{}, fmt.Errorf("%w: missing summary or edit prompts", ErrMalformedResponse)
	}
	return analysis, nil
}

// EditImage sends one image plus an instruction to the image model and
// returns the generated image as a data URI. An empty string means the
// collaborator produced no image payload; the caller decides the fallback.
func (c *Client) EditImage(ctx context.Context, image media.NormalizedImage, prompt string) (media.NormalizedImage, error) {
	if c.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	inline, err := inlineDataFrom(image)
	if err != nil {
		return "", err
	}

	req := generateContentRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{InlineData: inline}, {Text: prompt}},
		}},
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"IMAGE"},
		},
	}

	resp, err := c.generateContent(ctx, c.imageModel, req)
	if err != nil {
		return "", err
	}

	for _, p := range firstParts(resp) {
		if p.InlineData != nil && p.InlineData.Data != "" && p.InlineData.MimeType != "" {
			return media.NormalizedImage(fmt.Sprintf("data:%s;base64,%s", p.InlineData.MimeType, p.InlineData.Data)), nil
		}
	}
	return "", nil
}

func (c *Client) generateContent(ctx context.Context, model string, payload generateContentRequest) (generateContentResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return generateContentResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/models/%s:generateContent", c.baseURL, c.apiVersion, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return generateContentResponse{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return generateContentResponse{}, fmt.Errorf("request: %w", err)
	}
	defer httpResp.Body.Close()

	rawBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return generateContentResponse{}, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode >= 400 {
		return generateContentResponse{}, &APIError{
			StatusCode: httpResp.StatusCode,
			Message:    strings.TrimSpace(string(rawBody)),
		}
	}

	var decoded generateContentResponse
	if err := json.Unmarshal(rawBody, &decoded); err != nil {
		return generateContentResponse{}, fmt.Errorf("decode response: %w", err)
	}
	return decoded, nil
}

func inlineDataFrom(img media.NormalizedImage) (*blob, error) {
	uri := strings.TrimSpace(string(img))
	mimeType := "image/jpeg"
	if idx := strings.IndexByte(uri, ';'); strings.HasPrefix(uri, "data:") && idx > 5 {
		mimeType = uri[5:idx]
	}
	data := uri
	if idx := strings.IndexByte(uri, ','); idx >= 0 {
		data = uri[idx+1:]
	}
	if data == "" {
		return nil, fmt.Errorf("empty image payload")
	}
	return &blob{Data: data, MimeType: mimeType}, nil
}

func firstParts(resp generateContentResponse) []part {
	if len(resp.Candidates) == 0 {
		return nil
	}
	return resp.Candidates[0].Content.Parts
}

func firstText(resp generateContentResponse) string {
	var sb strings.Builder
	for _, p := range firstParts(resp) {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}
