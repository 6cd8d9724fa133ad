package image

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"server/internal/domain"
)

const openAIDefaultTimeout = 120 * time.Second

const defaultImageModel = "dall-e-3"

// maxResultBytes bounds the download of a generated image.
const maxResultBytes = 32 << 20

type OpenAIOptions struct {
	APIKey       string
	Organization string
	BaseURL      string
	Model        string
	HTTPClient   *http.Client
}

// OpenAIGenerator speaks the OpenAI image generation API. All failures are
// surfaced as *domain.SynthesisError with the provider's message preserved.
type OpenAIGenerator struct {
	apiKey       string
	organization string
	baseURL      string
	model        string
	client       *http.Client
}

type openAIImageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	Quality        string `json:"quality"`
	ResponseFormat string `json:"response_format"`
}

type openAIImageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

type openAIErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

func NewOpenAIGenerator(opts OpenAIOptions) (*OpenAIGenerator, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("openai api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultImageModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: openAIDefaultTimeout}
	}
	return &OpenAIGenerator{
		apiKey:       strings.TrimSpace(opts.APIKey),
		organization: strings.TrimSpace(opts.Organization),
		baseURL:      baseURL,
		model:        model,
		client:       client,
	}, nil
}

func (g *OpenAIGenerator) Synthesize(ctx context.Context, req SynthesizeRequest) (*Result, error) {
	payload := openAIImageRequest{
		Model:          g.model,
		Prompt:         BuildPrompt(req),
		N:              1,
		Size:           "1024x1024",
		Quality:        "standard",
		ResponseFormat: "url",
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, &domain.SynthesisError{Kind: domain.SynthesisUnknown, Message: "encode request", Err: err}
	}
	endpoint := fmt.Sprintf("%s/images/generations", g.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, &domain.SynthesisError{Kind: domain.SynthesisUnknown, Message: "build request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	if g.organization != "" {
		httpReq.Header.Set("OpenAI-Organization", g.organization)
	}
	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, &domain.SynthesisError{Kind: domain.SynthesisUnknown, Message: "request failed", Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return nil, classifyProviderError(resp)
	}
	var decoded openAIImageResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &domain.SynthesisError{Kind: domain.SynthesisUnknown, Message: "decode response", Err: err}
	}
	if len(decoded.Data) == 0 || decoded.Data[0].URL == "" {
		return nil, &domain.SynthesisError{Kind: domain.SynthesisUnknown, Message: "no image returned"}
	}
	imageURL := decoded.Data[0].URL
	data, contentType, err := g.download(ctx, imageURL)
	if err != nil {
		return nil, &domain.SynthesisError{Kind: domain.SynthesisUnknown, Message: "download result", Err: err}
	}
	return &Result{Data: data, ContentType: contentType, ProviderURL: imageURL}, nil
}

func (g *OpenAIGenerator) download(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("image download status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResultBytes))
	if err != nil {
		return nil, "", err
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}
	return data, contentType, nil
}

func classifyProviderError(resp *http.Response) *domain.SynthesisError {
	var decoded openAIErrorResponse
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	_ = json.Unmarshal(body, &decoded)
	msg := decoded.Error.Message
	if msg == "" {
		msg = fmt.Sprintf("provider status %d", resp.StatusCode)
	}
	kind := domain.SynthesisUnknown
	switch {
	case decoded.Error.Code == "content_policy_violation" || decoded.Error.Type == "image_generation_user_error":
		kind = domain.SynthesisPolicyRejected
	case resp.StatusCode == http.StatusTooManyRequests:
		kind = domain.SynthesisRateLimited
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		kind = domain.SynthesisAuthInvalid
	}
	return &domain.SynthesisError{Kind: kind, Message: msg}
}

var _ Generator = (*OpenAIGenerator)(nil)
