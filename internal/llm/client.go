// Package llm はOpenAI互換のチャット補完API（OpenRouter等）のクライアントを提供する。
// 最初の応答のテキストを返すだけで、業務ロジックは持たない。
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/hitoshi/mindfulbite/internal/nutrition"
)

const (
	// DefaultBaseURL はOpenRouterのAPIベースURL。
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	// DefaultModel は既定で使用するモデル。
	DefaultModel = "anthropic/claude-3.5-sonnet"

	chatCompletionsPath = "/chat/completions"
	// maxResponseSize はレスポンスボディの読み取り上限（1MB）。
	maxResponseSize = 1 << 20
	// maxErrorBodyLog はエラー時にログへ残すボディの最大長。
	maxErrorBodyLog = 512
)

// Config はクライアントの設定を保持する。
type Config struct {
	BaseURL         string
	APIKey          string
	Model           string
	Timeout         time.Duration // 1回の呼び出しの上限時間
	BreakerFailures uint32        // 連続失敗がこの回数に達するとブレーカーを開く
	BreakerTimeout  time.Duration // ブレーカーが開いてから半開に移るまでの時間
}

// CallRecorder はモデル呼び出しの結果とレイテンシを記録する。
type CallRecorder interface {
	RecordGatewayCall(outcome string, duration time.Duration)
}

// Client はチャット補完APIのクライアント。nutrition.ChatCompleterを実装する。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	recorder   CallRecorder
	breaker    *gobreaker.CircuitBreaker
	endpoint   string
	apiKey     string
	model      string
}

// NewClient はClientの新しいインスタンスを生成する。
// httpClientがnilの場合はConfig.Timeoutを持つクライアントを作成する。recorderはnilでもよい。
func NewClient(httpClient *http.Client, logger *slog.Logger, cfg Config, recorder CallRecorder) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}

	c := &Client{
		httpClient: httpClient,
		logger:     logger,
		recorder:   recorder,
		endpoint:   strings.TrimRight(cfg.BaseURL, "/") + chatCompletionsPath,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "llm",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("サーキットブレーカーの状態が変化しました",
				slog.String("name", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			// 呼び出し元のキャンセルはプロバイダの障害として数えない
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// ChatComplete はシステム指示とユーザー指示を送信し、最初の応答のテキストを返す。
// 失敗時は*nutrition.GatewayErrorを返す。リトライは行わない。
func (c *Client) ChatComplete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error) {
	start := time.Now()

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(ctx, system, user, temperature, maxTokens)
	})

	outcome := "success"
	if err != nil {
		outcome = "failure"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = "rejected"
			err = &nutrition.GatewayError{Op: "chat_complete", Err: err}
		}
	}
	if c.recorder != nil {
		c.recorder.RecordGatewayCall(outcome, time.Since(start))
	}
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (c *Client) do(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", &nutrition.GatewayError{Op: "encode", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &nutrition.GatewayError{Op: "request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Title", "MindfulBite")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("チャット補完APIの呼び出しに失敗しました",
			slog.String("model", c.model),
			slog.String("error", err.Error()),
		)
		return "", &nutrition.GatewayError{Op: "request", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", &nutrition.GatewayError{Op: "read", StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("チャット補完APIがエラーステータスを返しました",
			slog.String("model", c.model),
			slog.Int("http_status", resp.StatusCode),
			slog.String("body", truncate(string(respBody), maxErrorBodyLog)),
		)
		return "", &nutrition.GatewayError{
			Op:         "request",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	var decoded chatResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		c.logger.Error("チャット補完APIのレスポンスのパースに失敗しました",
			slog.String("error", err.Error()),
		)
		return "", &nutrition.GatewayError{Op: "decode", StatusCode: resp.StatusCode, Err: err}
	}
	if decoded.Error != nil {
		return "", &nutrition.GatewayError{Op: "response", StatusCode: resp.StatusCode, Err: errors.New(decoded.Error.Message)}
	}
	if len(decoded.Choices) == 0 || strings.TrimSpace(decoded.Choices[0].Message.Content) == "" {
		return "", &nutrition.GatewayError{Op: "response", StatusCode: resp.StatusCode, Err: errors.New("no choices in response")}
	}

	return decoded.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var _ nutrition.ChatCompleter = (*Client)(nil)
