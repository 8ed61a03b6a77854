package nutrition

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ChatCompleter は外部チャット補完APIを呼び出す能力を表す。
// 最初の応答のテキストを返し、失敗時はGatewayErrorを返す。
type ChatCompleter interface {
	ChatComplete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error)
}

// FallbackRecorder はフォールバック発生を記録する。
type FallbackRecorder interface {
	RecordFallback(reason string)
}

// 呼び出しごとのサンプリング設定
const (
	lookupTemperature       = 0.3
	lookupMaxTokens         = 800
	alternativesTemperature = 0.7
	alternativesMaxTokens   = 1500
)

// ServiceConfig はServiceの設定を保持する。
type ServiceConfig struct {
	MaxRetries   int           // GatewayError時の追加試行回数
	RetryBackoff time.Duration // 初回リトライまでの待機時間。試行ごとに倍になる
}

// Service は栄養情報検索と代替食品検索を組み立てる。
// リクエスト間で共有する可変状態は持たない。
type Service struct {
	gateway  ChatCompleter
	recorder FallbackRecorder
	logger   *slog.Logger
	config   ServiceConfig
}

// NewService は新しいServiceを生成する。recorderとloggerはnilでもよい。
func NewService(gateway ChatCompleter, recorder FallbackRecorder, logger *slog.Logger, config ServiceConfig) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	return &Service{
		gateway:  gateway,
		recorder: recorder,
		logger:   logger,
		config:   config,
	}
}

// Lookup は食品名から栄養情報を1件取得する。
// 失敗時はフォールバックせず、GatewayError/ExtractionError/SchemaErrorをそのまま返す。
func (s *Service) Lookup(ctx context.Context, query string) (*LookupResult, error) {
	prompt := BuildLookupPrompt(query)

	text, err := s.complete(ctx, prompt, lookupTemperature, lookupMaxTokens)
	if err != nil {
		return nil, err
	}

	raw, err := Extract(text)
	if err != nil {
		s.logger.Warn("lookup response is not json",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	record, err := ValidateRecord(raw)
	if err != nil {
		s.logger.Warn("lookup response failed validation",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	return &LookupResult{Found: true, Record: record}, nil
}

// FindAlternatives は低カロリーな代替食品を取得する。
// GatewayErrorはそのまま返す。抽出・検証の失敗、または有効な要素が0件の場合はフォールバックを返す。
func (s *Service) FindAlternatives(ctx context.Context, name string, calories float64, category string) ([]AlternativeRecord, error) {
	prompt := BuildAlternativesPrompt(name, calories, category)

	text, err := s.complete(ctx, prompt, alternativesTemperature, alternativesMaxTokens)
	if err != nil {
		return nil, err
	}

	alternatives, err := s.parseAlternatives(text)
	if err != nil {
		s.logger.Warn("using fallback alternatives",
			slog.String("food_name", name),
			slog.String("error", err.Error()),
		)
		s.recordFallback(fallbackReason(err))
		return Fallback(name, calories, category), nil
	}
	if len(alternatives) == 0 {
		s.logger.Warn("model returned no usable alternatives, using fallback",
			slog.String("food_name", name),
		)
		s.recordFallback("empty")
		return Fallback(name, calories, category), nil
	}

	for _, alt := range alternatives {
		if energy, _ := alt.Nutriments.Energy(); calories > 0 && energy >= calories {
			s.logger.Info("alternative is not lower in energy",
				slog.String("food_name", name),
				slog.String("alternative", alt.ProductName),
				slog.Float64("energy", energy),
				slog.Float64("original", calories),
			)
		}
	}
	return alternatives, nil
}

func (s *Service) parseAlternatives(text string) ([]AlternativeRecord, error) {
	raw, err := Extract(text)
	if err != nil {
		return nil, err
	}
	return ValidateAlternatives(raw, s.logger)
}

// complete はゲートウェイを呼び出し、GatewayErrorの場合のみ指数バックオフでリトライする。
func (s *Service) complete(ctx context.Context, prompt Prompt, temperature float64, maxTokens int) (string, error) {
	backoff := s.config.RetryBackoff
	var lastErr error
	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		if attempt > 0 {
			s.logger.Info("retrying model call",
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", backoff),
				slog.String("error", lastErr.Error()),
			)
			if err := sleepContext(ctx, backoff); err != nil {
				return "", &GatewayError{Op: "chat_complete", Err: err}
			}
			backoff *= 2
		}

		text, err := s.gateway.ChatComplete(ctx, prompt.System, prompt.User, temperature, maxTokens)
		if err == nil {
			return text, nil
		}
		if !IsGatewayError(err) {
			err = &GatewayError{Op: "chat_complete", Err: err}
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}

	s.logger.Error("model call failed", slog.String("error", lastErr.Error()))
	return "", lastErr
}

func (s *Service) recordFallback(reason string) {
	if s.recorder != nil {
		s.recorder.RecordFallback(reason)
	}
}

func fallbackReason(err error) string {
	var extErr *ExtractionError
	if errors.As(err, &extErr) {
		return "extraction"
	}
	return "schema"
}

// sleepContext はdだけ待機する。ctxがキャンセルされた場合は即座に戻る。
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
