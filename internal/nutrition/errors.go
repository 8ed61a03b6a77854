package nutrition

import (
	"errors"
	"fmt"
)

// GatewayError は外部モデル呼び出しの失敗を表す。
// ネットワークエラー、タイムアウト、2xx以外の応答、空の応答が該当する。
type GatewayError struct {
	Op         string
	StatusCode int // HTTP応答を受け取れなかった場合は0
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gateway %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// ExtractionError はモデル応答をJSONとして解釈できなかったことを表す。
// Rawには診断用に元の応答テキストを保持する。
type ExtractionError struct {
	Raw string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract json: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// SchemaError はJSONとしては正しいが期待する形をしていないことを表す。
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string {
	return "schema: " + e.Reason
}

// IsGatewayError はerrがGatewayErrorを含むかを返す。
func IsGatewayError(err error) bool {
	var gwErr *GatewayError
	return errors.As(err, &gwErr)
}

// IsRecoverable はerrがフォールバックで回復可能な失敗（抽出またはスキーマ）かを返す。
func IsRecoverable(err error) bool {
	var extErr *ExtractionError
	var schErr *SchemaError
	return errors.As(err, &extErr) || errors.As(err, &schErr)
}
