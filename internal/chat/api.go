package chat

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

	"github.com/2beens/athletedash/internal/telemetry/metrics"
	"github.com/2beens/athletedash/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrMissingAPIKey = errors.New("chat api key not configured")
	ErrNoChoices     = errors.New("chat completion returned no choices")
)

// UpstreamError is a non-2xx reply from the completions API.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("chat upstream status %d: %s", e.StatusCode, e.Message)
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

type ApiParams struct {
	BaseURL      string // e.g. https://api.openai.com/v1
	APIKey       string
	Model        string
	SystemPrompt string
	MaxTokens    int
	Temperature  float64
	HttpClient   *http.Client
	// optional
	MetricsManager *metrics.Manager
}

// Api talks to an OpenAI compatible chat completions endpoint.
// Every call is a single attempt, failures are returned as they are.
type Api struct {
	baseURL        string
	apiKey         string
	model          string
	systemPrompt   string
	maxTokens      int
	temperature    float64
	httpClient     *http.Client
	metricsManager *metrics.Manager
}

func NewApi(params ApiParams) *Api {
	httpClient := params.HttpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Api{
		baseURL:        strings.TrimRight(params.BaseURL, "/"),
		apiKey:         params.APIKey,
		model:          params.Model,
		systemPrompt:   params.SystemPrompt,
		maxTokens:      params.MaxTokens,
		temperature:    params.Temperature,
		httpClient:     httpClient,
		metricsManager: params.MetricsManager,
	}
}

func (a *Api) Model() string {
	return a.model
}

// Complete sends the message, prefixed by the system prompt, and returns the
// content of the first choice.
func (a *Api) Complete(ctx context.Context, message string) (_ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "chatApi.complete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("chat.model", a.model),
		attribute.Int("chat.message.length", len(message)),
	)

	if a.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	begin := time.Now()
	defer func() {
		a.observe(time.Since(begin), err)
	}()

	messages := make([]Message, 0, 2)
	if a.systemPrompt != "" {
		messages = append(messages, Message{Role: "system", Content: a.systemPrompt})
	}
	messages = append(messages, Message{Role: "user", Content: message})

	reqBody, err := json.Marshal(completionRequest{
		Model:       a.model,
		Messages:    messages,
		MaxTokens:   a.maxTokens,
		Temperature: a.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("new completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http client do: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read completion response: %w", err)
	}
	span.SetAttributes(attribute.Int("chat.upstream.status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		upstreamErr := &UpstreamError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
		}
		var errResp errorResponse
		if json.Unmarshal(respBytes, &errResp) == nil && errResp.Error.Message != "" {
			upstreamErr.Message = errResp.Error.Message
		}
		return "", upstreamErr
	}

	var completion completionResponse
	if err := json.Unmarshal(respBytes, &completion); err != nil {
		return "", fmt.Errorf("unmarshal completion response: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", ErrNoChoices
	}

	log.Tracef("chat completion received, %d choices", len(completion.Choices))
	return completion.Choices[0].Message.Content, nil
}

func (a *Api) observe(took time.Duration, err error) {
	if a.metricsManager == nil {
		return
	}

	result := "ok"
	switch {
	case errors.Is(err, ErrNoChoices):
		result = "no_choices"
	case err != nil:
		result = "error"
	}

	a.metricsManager.CounterChatUpstreamCalls.WithLabelValues(result).Inc()
	a.metricsManager.HistogramChatUpstreamDuration.Observe(took.Seconds())
}
