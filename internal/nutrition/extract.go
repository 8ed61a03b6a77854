package nutrition

import (
	"encoding/json"
	"errors"
	"strings"
)

const codeFence = "```"

// StripCodeFence はモデル応答の先頭にあるコードフェンス（```json など）と閉じフェンスを取り除く。
// フェンスがない場合は前後の空白を除いたテキストをそのまま返す。
func StripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, codeFence) {
		return text
	}
	text = strings.TrimPrefix(text, codeFence)
	if len(text) >= 4 && strings.EqualFold(text[:4], "json") {
		text = text[4:]
	}
	// 閉じフェンス以降は説明文なので捨てる
	if i := strings.Index(text, codeFence); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}

// Extract はモデル応答からJSON値を取り出す。
// 意味的な検証は行わず、nullや数値もそのまま返す。
func Extract(raw string) (json.RawMessage, error) {
	text := StripCodeFence(raw)
	if text == "" {
		return nil, &ExtractionError{Raw: raw, Err: errors.New("empty response")}
	}
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, &ExtractionError{Raw: raw, Err: err}
	}
	return json.RawMessage(text), nil
}
