// Package usda はUSDA FoodData Centralの食品検索APIクライアントを提供する。
package usda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

const (
	// DefaultBaseURL はFoodData Central APIのベースURL。
	DefaultBaseURL = "https://api.nal.usda.gov/fdc/v1"
	// DefaultAPIKey はapi.data.govの共有デモキー。低いレート制限で動作する。
	DefaultAPIKey = "DEMO_KEY"

	// DefaultPageSize はpageSize未指定時の件数。
	DefaultPageSize = 10
	// MaxPageSize は1回の検索で取得する件数の上限。
	MaxPageSize = 50

	searchPath      = "/foods/search"
	maxResponseSize = 4 << 20
	maxErrorBodyLog = 512
)

// 信頼性の高いデータセットのみを検索対象にする
var searchDataTypes = []string{"Foundation", "SR Legacy"}

// Config はクライアントの設定を保持する。
type Config struct {
	BaseURL         string
	APIKey          string
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// CallRecorder は検索APIの呼び出し結果とレイテンシを記録する。
type CallRecorder interface {
	RecordUSDACall(outcome string, duration time.Duration)
}

// Error は検索APIの呼び出し失敗を表す。
type Error struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("usda %s failed (status %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("usda %s failed: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// FoodNutrient は検索結果の栄養素1件。
type FoodNutrient struct {
	NutrientID     int     `json:"nutrientId"`
	NutrientName   string  `json:"nutrientName"`
	NutrientNumber string  `json:"nutrientNumber,omitempty"`
	UnitName       string  `json:"unitName"`
	Value          float64 `json:"value"`
}

// Food は検索結果の食品1件。
type Food struct {
	FdcID         int            `json:"fdcId"`
	Description   string         `json:"description"`
	DataType      string         `json:"dataType"`
	BrandOwner    string         `json:"brandOwner,omitempty"`
	FoodCategory  string         `json:"foodCategory,omitempty"`
	PublishedDate string         `json:"publishedDate,omitempty"`
	FoodNutrients []FoodNutrient `json:"foodNutrients"`
}

// SearchResult は検索APIのレスポンスのうち利用するフィールド。
type SearchResult struct {
	TotalHits   int    `json:"totalHits"`
	CurrentPage int    `json:"currentPage"`
	TotalPages  int    `json:"totalPages"`
	Foods       []Food `json:"foods"`
}

// Client はFoodData Central検索APIのクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	recorder   CallRecorder
	breaker    *gobreaker.CircuitBreaker
	endpoint   string
	apiKey     string
}

// NewClient はClientの新しいインスタンスを生成する。
// httpClientがnilの場合はConfig.Timeout（既定10秒）を持つクライアントを作成する。recorderはnilでもよい。
func NewClient(httpClient *http.Client, logger *slog.Logger, cfg Config, recorder CallRecorder) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.APIKey == "" {
		cfg.APIKey = DefaultAPIKey
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}

	c := &Client{
		httpClient: httpClient,
		logger:     logger,
		recorder:   recorder,
		endpoint:   strings.TrimRight(cfg.BaseURL, "/") + searchPath,
		apiKey:     cfg.APIKey,
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "usda",
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
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return c
}

// NormalizePageSize はpageSizeを1..MaxPageSizeに収める。0以下は既定値になる。
func NormalizePageSize(n int) int {
	switch {
	case n <= 0:
		return DefaultPageSize
	case n > MaxPageSize:
		return MaxPageSize
	default:
		return n
	}
}

// Search は食品名で検索し、FoundationとSR Legacyのデータを返す。失敗時は*Errorを返す。
func (c *Client) Search(ctx context.Context, query string, pageSize int) (*SearchResult, error) {
	start := time.Now()

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(ctx, query, NormalizePageSize(pageSize))
	})

	outcome := "success"
	if err != nil {
		outcome = "failure"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = "rejected"
			err = &Error{Op: "search", Err: err}
		}
	}
	if c.recorder != nil {
		c.recorder.RecordUSDACall(outcome, time.Since(start))
	}
	if err != nil {
		return nil, err
	}
	return result.(*SearchResult), nil
}

func (c *Client) do(ctx context.Context, query string, pageSize int) (*SearchResult, error) {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("query", query)
	params.Set("pageSize", strconv.Itoa(pageSize))
	for _, dt := range searchDataTypes {
		params.Add("dataType", dt)
	}
	params.Set("sortBy", "dataType.keyword")
	params.Set("sortOrder", "asc")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &Error{Op: "request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("食品データベースの検索に失敗しました",
			slog.String("error", redactKey(err.Error(), c.apiKey)),
		)
		return nil, &Error{Op: "request", Err: errors.New(redactKey(err.Error(), c.apiKey))}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &Error{Op: "read", StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("食品データベースがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
			slog.String("body", truncate(string(body), maxErrorBodyLog)),
		)
		return nil, &Error{
			Op:         "request",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	var result SearchResult
	if err := json.Unmarshal(body, &result); err != nil {
		c.logger.Error("食品データベースのレスポンスのパースに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, &Error{Op: "decode", StatusCode: resp.StatusCode, Err: err}
	}
	if result.Foods == nil {
		result.Foods = []Food{}
	}
	return &result, nil
}

// redactKey はURLを含むエラーメッセージからAPIキーを取り除く。
func redactKey(s, key string) string {
	if key == "" {
		return s
	}
	return strings.ReplaceAll(s, key, "[REDACTED]")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
