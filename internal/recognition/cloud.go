package recognition

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"vinscan-service/internal/domain/vin"
)

const (
	defaultCloudTimeout = 20 * time.Second
	defaultCloudModel   = "gpt-4o-mini"
)

// extractionPrompt is the narrow instruction sent with the image. Keep it
// centralized so it can be tuned without hunting through call sites.
const extractionPrompt = `Read the vehicle identification number (VIN) in this image. ` +
	`Reply with the VIN only: exactly 17 characters, uppercase letters and digits, ` +
	`never the letters I, O or Q. If no VIN is visible reply with an empty string.`

// CloudEngine sends the capture to a remote vision model when the local pass
// failed. One bounded request, no internal retries; a retry is a user
// initiated re-scan.
type CloudEngine struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	log        zerolog.Logger
}

// CloudOption customizes the cloud engine.
type CloudOption func(*CloudEngine)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) CloudOption {
	return func(e *CloudEngine) {
		if client != nil {
			e.httpClient = client
		}
	}
}

// WithBaseURL overrides the default API base (useful for tests/mocks).
func WithBaseURL(base string) CloudOption {
	return func(e *CloudEngine) {
		base = strings.TrimSpace(base)
		if base != "" {
			e.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithModel overrides the vision model name.
func WithModel(model string) CloudOption {
	return func(e *CloudEngine) {
		model = strings.TrimSpace(model)
		if model != "" {
			e.model = model
		}
	}
}

// WithTimeout bounds the single recognition round trip.
func WithTimeout(timeout time.Duration) CloudOption {
	return func(e *CloudEngine) {
		if timeout > 0 {
			e.httpClient.Timeout = timeout
		}
	}
}

func NewCloudEngine(apiKey, baseURL string, log zerolog.Logger, opts ...CloudOption) *CloudEngine {
	e := &CloudEngine{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		model:      defaultCloudModel,
		httpClient: &http.Client{Timeout: defaultCloudTimeout},
		log:        log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (e *CloudEngine) Recognize(ctx context.Context, img []byte) (vin.OcrCandidate, error) {
	if e.apiKey == "" {
		return vin.OcrCandidate{}, fmt.Errorf("%w: cloud recognition not configured", ErrNoUsableText)
	}

	text, err := e.extract(ctx, img)
	if err != nil {
		return vin.OcrCandidate{}, fmt.Errorf("%w: %v", ErrNoUsableText, err)
	}

	e.log.Debug().Str("raw_text", text).Msg("cloud recognition completed")
	return buildCandidate(text, vin.SourceCloud)
}

func (e *CloudEngine) extract(ctx context.Context, img []byte) (string, error) {
	payload := chatRequest{
		Model: e.model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: extractionPrompt},
				{Type: "image_url", ImageURL: &imageURL{
					URL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(img),
				}},
			},
		}},
		MaxTokens: 64,
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	endpoint, err := url.JoinPath(e.baseURL, "/chat/completions")
	if err != nil {
		return "", fmt.Errorf("build url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var completion chatResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("empty response")
	}

	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}
