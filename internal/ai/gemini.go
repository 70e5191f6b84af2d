package ai

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

	"github.com/yuanqi-lab/fortune-platform/internal/stream"
)

// GeminiProvider talks to the generativelanguage REST API directly. The
// streaming path deliberately reads raw body bytes (not lines) and feeds
// them through stream.Reconstructor, so chunk boundaries inside multi-byte
// characters or JSON objects are handled in one place.
type GeminiProvider struct {
	BaseURL         string
	APIKey          string
	Model           string
	MaxOutputTokens int
	Client          *http.Client
}

func NewGeminiProvider(baseURL, apiKey, model string, maxOutputTokens int, timeout time.Duration) *GeminiProvider {
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &GeminiProvider{
		BaseURL:         baseURL,
		APIKey:          apiKey,
		Model:           model,
		MaxOutputTokens: maxOutputTokens,
		Client:          &http.Client{Timeout: timeout},
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *GeminiProvider) buildRequest(messages []Message) geminiRequest {
	req := geminiRequest{}
	if p.MaxOutputTokens > 0 {
		req.GenerationConfig = &geminiGenerationConfig{MaxOutputTokens: p.MaxOutputTokens}
	}
	for _, m := range messages {
		switch m.Role {
		case "system":
			req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: m.Content}}}
		case "assistant", "model":
			req.Contents = append(req.Contents, geminiContent{Role: "model", Parts: []geminiPart{{Text: m.Content}}})
		default:
			req.Contents = append(req.Contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: m.Content}}})
		}
	}
	return req
}

func (p *GeminiProvider) checkConfig() error {
	if p.Client == nil {
		return errors.New("gemini: http client is nil")
	}
	if strings.TrimSpace(p.APIKey) == "" {
		return fmt.Errorf("%w: gemini api key is required", ErrConfiguration)
	}
	return nil
}

// Chat performs the standard (non-streaming) request under the client's
// hard timeout.
func (p *GeminiProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	if err := p.checkConfig(); err != nil {
		return "", err
	}

	b, err := json.Marshal(p.buildRequest(messages))
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		strings.TrimRight(p.BaseURL, "/"), p.Model, p.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", wrapTransport(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4*1024))
		return "", statusError(resp.StatusCode)
	}

	var decoded geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: malformed response envelope", ErrTransport)
	}
	if decoded.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrTransport, decoded.Error.Message)
	}
	if len(decoded.Candidates) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrTransport)
	}
	var out strings.Builder
	for _, part := range decoded.Candidates[0].Content.Parts {
		out.WriteString(part.Text)
	}
	return out.String(), nil
}

// StreamChat streams assistant content deltas. The returned channels are
// both closed when streaming ends; cancellation of ctx stops chunk
// processing immediately.
func (p *GeminiProvider) StreamChat(ctx context.Context, messages []Message) (<-chan string, <-chan error) {
	chunks := make(chan string, 16)
	errs := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errs)

		if err := p.checkConfig(); err != nil {
			errs <- err
			return
		}

		b, err := json.Marshal(p.buildRequest(messages))
		if err != nil {
			errs <- err
			return
		}

		url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse&key=%s",
			strings.TrimRight(p.BaseURL, "/"), p.Model, p.APIKey)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
		if err != nil {
			errs <- err
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "text/event-stream")

		// ctx governs the stream lifetime; the client-wide timeout would
		// cut long generations short.
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

		rec := stream.New(func(delta string) {
			select {
			case chunks <- delta:
			case <-ctx.Done():
			}
		}, nil)

		buf := make([]byte, 4*1024)
		for {
			select {
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			default:
			}

			n, err := resp.Body.Read(buf)
			if n > 0 {
				rec.Write(buf[:n])
			}
			if rec.Finished() {
				rec.Flush()
				return
			}
			if err != nil {
				rec.Flush()
				if err == io.EOF {
					return
				}
				if ctx.Err() != nil {
					errs <- ctx.Err()
					return
				}
				errs <- wrapTransport(ctx, err)
				return
			}
		}
	}()

	return chunks, errs
}
