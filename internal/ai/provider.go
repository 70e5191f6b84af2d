package ai

import (
	"context"
	"errors"
	"fmt"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider is the blocking chat contract every backend implements.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// StreamProvider is an optional interface. Providers may implement streaming chat.
type StreamProvider interface {
	StreamChat(ctx context.Context, messages []Message) (<-chan string, <-chan error)
}

var (
	// ErrConfiguration marks a missing or unusable credential; surfaced
	// to the user as an actionable message, never retried.
	ErrConfiguration = errors.New("ai: provider not configured")

	// ErrTimeout marks the hard deadline on the standard request path,
	// distinct from ErrTransport so the fallback chain can tell them apart.
	ErrTimeout = errors.New("ai: request timed out")

	// ErrTransport marks network failures and non-2xx responses.
	ErrTransport = errors.New("ai: transport failure")
)

// statusMessages maps provider HTTP statuses to the fixed set of
// user-facing messages; raw provider error bodies are never surfaced.
var statusMessages = map[int]string{
	400: "请求参数有误",
	401: "API密钥无效，请检查配置",
	403: "没有访问该模型的权限",
	429: "请求过于频繁，请稍后再试",
	500: "模型服务暂时不可用",
}

func statusError(code int) error {
	msg, ok := statusMessages[code]
	if !ok {
		msg = fmt.Sprintf("模型服务返回异常状态 %d", code)
	}
	return fmt.Errorf("%w: %s", ErrTransport, msg)
}

// wrapTransport classifies a low-level request error as timeout or
// transport failure.
func wrapTransport(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || (ctx != nil && ctx.Err() == context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrTransport, err)
}
