package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"horse.fit/phrasebook/internal/langdetect"
	"horse.fit/phrasebook/internal/language"
)

const (
	// DefaultLocalEndpoint points to a local OpenAI-compatible endpoint.
	DefaultLocalEndpoint = "http://127.0.0.1:8845/v1"
	// DefaultLocalModel is the default local translation model name.
	DefaultLocalModel = "tencent/HY-MT1.5-7B"
)

// LocalTransport translates by calling an OpenAI-compatible chat completions
// endpoint and synthesizing a provider-shaped response. Requests to it are
// never signed; when the source is auto-detect the detected language comes
// from local detection instead of the endpoint.
type LocalTransport struct {
	endpointURL string
	model       string
	client      *http.Client
}

// NewLocalTransport builds a local transport for the given endpoint/model.
func NewLocalTransport(endpoint, model string) *LocalTransport {
	normalizedEndpoint := normalizeEndpoint(endpoint)
	trimmedModel := strings.TrimSpace(model)
	if trimmedModel == "" {
		trimmedModel = DefaultLocalModel
	}
	return &LocalTransport{
		endpointURL: chatCompletionsURL(normalizedEndpoint),
		model:       trimmedModel,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

func (t *LocalTransport) Name() string {
	return "local"
}

// ModelName returns the configured model identifier.
func (t *LocalTransport) ModelName() string {
	if t == nil {
		return ""
	}
	return t.model
}

func (t *LocalTransport) Send(ctx context.Context, req *SignedRequest) (*RawResponse, error) {
	if t == nil {
		return nil, &TransportError{Op: "local", Err: fmt.Errorf("transport is nil")}
	}
	if req == nil {
		return nil, &TransportError{Op: "local", Err: fmt.Errorf("request is nil")}
	}

	prompt := buildTranslationPrompt(req.Query, req.To)
	body, err := json.Marshal(localChatRequest{
		Model: t.model,
		Messages: []localChatMessage{
			{
				Role:    "user",
				Content: prompt,
			},
		},
		Temperature: 0.7,
		TopP:        0.6,
	})
	if err != nil {
		return nil, &TransportError{Op: "marshal request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpointURL, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Op: "build request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Op: "send request", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read response", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errPayload localChatErrorResponse
		if unmarshalErr := json.Unmarshal(respBody, &errPayload); unmarshalErr == nil {
			if msg := strings.TrimSpace(errPayload.Error.Message); msg != "" {
				return nil, &TransportError{
					Op:  "send request",
					Err: fmt.Errorf("endpoint status %d: %s", resp.StatusCode, msg),
				}
			}
		}
		return nil, &TransportError{
			Op:  "send request",
			Err: fmt.Errorf("endpoint status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))),
		}
	}

	var parsed localChatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &TransportError{Op: "decode response", Err: err}
	}
	if len(parsed.Choices) == 0 {
		return nil, &TransportError{Op: "decode response", Err: fmt.Errorf("response missing choices")}
	}

	translated := strings.TrimSpace(parsed.Choices[0].Message.Content)

	from := req.From
	if language.IsAuto(from) || from == "" {
		if detected := langdetect.DetectISO6391(req.Query); detected != "" {
			from = detected
		}
	}

	return &RawResponse{
		From: from,
		To:   req.To,
		TransResult: []TransSegment{
			{Src: req.Query, Dst: translated},
		},
	}, nil
}

type localChatRequest struct {
	Model       string             `json:"model"`
	Messages    []localChatMessage `json:"messages"`
	Temperature float64            `json:"temperature,omitempty"`
	TopP        float64            `json:"top_p,omitempty"`
}

type localChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type localChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type localChatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func buildTranslationPrompt(text, targetLang string) string {
	target := language.Resolve(targetLang)
	name := target.Name
	if !target.Known {
		name = strings.ToUpper(target.Code)
	}
	return fmt.Sprintf("Translate the following text into %s. Output only the translation, without additional explanation.\n\n%s", name, text)
}

func normalizeEndpoint(raw string) string {
	endpoint := strings.TrimSpace(raw)
	if endpoint == "" {
		return DefaultLocalEndpoint
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}

	parsed, err := url.Parse(endpoint)
	if err != nil || strings.TrimSpace(parsed.Host) == "" {
		return DefaultLocalEndpoint
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/")
	if parsed.Path == "" {
		parsed.Path = "/v1"
	}
	return parsed.String()
}

func chatCompletionsURL(endpoint string) string {
	parsed, err := url.Parse(endpoint)
	if err != nil || strings.TrimSpace(parsed.Host) == "" {
		return DefaultLocalEndpoint + "/chat/completions"
	}

	path := strings.TrimRight(parsed.Path, "/")
	switch {
	case strings.HasSuffix(path, "/chat/completions"):
		parsed.Path = path
	case strings.HasSuffix(path, "/v1"):
		parsed.Path = path + "/chat/completions"
	case path == "":
		parsed.Path = "/v1/chat/completions"
	default:
		parsed.Path = path + "/v1/chat/completions"
	}

	return parsed.String()
}
