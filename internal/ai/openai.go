package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OpenAIProvider speaks the OpenAI-compatible chat-completions protocol
// (OpenAI itself, OpenRouter, and most self-hosted gateways).
type OpenAIProvider struct {
	BaseURL string
	APIKey  string
	Model   string
	Client  *http.Client
}

type openAIChatReq struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	TopP        float64   `json:"top_p,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream"`
}

type openAIChatResp struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type openAIStreamResp struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewOpenAIProvider(baseURL, apiKey, model string, timeout time.Duration) *OpenAIProvider {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIProvider{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		Client:  &http.Client{Timeout: timeout},
	}
}

func (p *OpenAIProvider) checkConfig() error {
	if p.Client == nil {
		return errors.New("openai: http client is nil")
	}
	if strings.TrimSpace(p.APIKey) == "" {
		return fmt.Errorf("%w: openai api key is required", ErrConfiguration)
	}
	if strings.TrimSpace(p.Model) == "" {
		return fmt.Errorf("%w: openai model is required", ErrConfiguration)
	}
	return nil
}

func (p *OpenAIProvider) newRequest(ctx context.Context, body []byte) (*http.Request, error) {
	url := fmt.Sprintf("%s/chat/completions", strings.TrimRight(p.BaseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)
	return req, nil
}

func (p *OpenAIProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	if err := p.checkConfig(); err != nil {
		return "", err
	}

	b, err := json.Marshal(openAIChatReq{Model: p.Model, Stream: false, Messages: messages})
	if err != nil {
		return "", err
	}
	req, err := p.newRequest(ctx, b)
	if err != nil {
		return "", err
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", wrapTransport(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4*1024))
		return "", statusError(resp.StatusCode)
	}

	var decoded openAIChatResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: malformed response envelope", ErrTransport)
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return "", fmt.Errorf("%w: %s", ErrTransport, decoded.Error.Message)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrTransport)
	}
	return decoded.Choices[0].Message.Content, nil
}

// StreamChat streams assistant content chunks via SSE: data: frames with
// choices[0].delta.content, terminated by a literal data: [DONE].
func (p *OpenAIProvider) StreamChat(ctx context.Context, messages []Message) (<-chan string, <-chan error) {
	chunks := make(chan string, 16)
	errs := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errs)

		if err := p.checkConfig(); err != nil {
			errs <- err
			return
		}

		b, err := json.Marshal(openAIChatReq{Model: p.Model, Stream: true, Messages: messages})
		if err != nil {
			errs <- err
			return
		}
		req, err := p.newRequest(ctx, b)
		if err != nil {
			errs <- err
			return
		}

		// ctx controls streaming lifetime, not the client-wide timeout.
		client := *p.Client
		client.Timeout = 0

		resp, err := client.Do(req)
		if err != nil {
			errs <- wrapTransport(ctx, err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			io.Copy(io.Discard, io.LimitReader(resp.Body, 4*1024))
			errs <- statusError(resp.StatusCode)
			return
		}

		sc := bufio.NewScanner(resp.Body)
		buf := make([]byte, 0, 64*1024)
		sc.Buffer(buf, 2*1024*1024)

		for sc.Scan() {
			select {
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			default:
			}

			line := strings.TrimSpace(sc.Text())
			if line == "" || !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				return
			}
			var decoded openAIStreamResp
			if err := json.Unmarshal([]byte(data), &decoded); err != nil {
				// Malformed frame: skip, the stream itself is healthy.
				continue
			}
			if decoded.Error != nil && decoded.Error.Message != "" {
				errs <- fmt.Errorf("%w: %s", ErrTransport, decoded.Error.Message)
				return
			}
			if len(decoded.Choices) == 0 {
				continue
			}
			if delta := decoded.Choices[0].Delta.Content; delta != "" {
				select {
				case chunks <- delta:
				case <-ctx.Done():
					errs <- ctx.Err()
					return
				}
			}
			if decoded.Choices[0].FinishReason != "" {
				return
			}
		}

		if err := sc.Err(); err != nil {
			errs <- wrapTransport(ctx, err)
		}
	}()

	return chunks, errs
}
