// Package security はAPI応答に含まれる外部由来テキストのサニタイズを提供する。
//
// 栄養情報は外部モデルが生成した文字列をそのまま含むため、
// bluemondayのstrictポリシーで全てのHTMLタグを除去してから返す。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/hitoshi/mindfulbite/internal/nutrition"
)

// ContentSanitizerService は栄養情報レコードのサニタイズ機能のインターフェースを定義する。
type ContentSanitizerService interface {
	// SanitizeText は全てのHTMLタグを除去し、HTML特殊文字をエスケープした文字列を返す。
	// 同一入力に対して常に同一出力を返す。
	SanitizeText(s string) string
	// SanitizeRecord は自由記述フィールドをサニタイズしたレコードのコピーを返す。
	// 元のレコードは変更しない。
	SanitizeRecord(r nutrition.NutritionRecord) nutrition.NutritionRecord
	// SanitizeAlternatives は代替食品の一覧をサニタイズしたコピーを返す。
	SanitizeAlternatives(alts []nutrition.AlternativeRecord) []nutrition.AlternativeRecord
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemonday.Policyはゴルーチンセーフなので共有して使う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
func NewContentSanitizer() *contentSanitizer {
	return &contentSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeText は全てのHTMLタグを除去する。
func (s *contentSanitizer) SanitizeText(text string) string {
	if text == "" {
		return ""
	}
	return strings.TrimSpace(s.policy.Sanitize(text))
}

// SanitizeRecord は自由記述フィールドをサニタイズする。
// nutrimentsは数値のみ、codeとnutriscore_gradeはそのまま返す。
func (s *contentSanitizer) SanitizeRecord(r nutrition.NutritionRecord) nutrition.NutritionRecord {
	r.ProductName = s.SanitizeText(r.ProductName)
	r.Brands = s.SanitizeText(r.Brands)
	r.Categories = s.SanitizeText(r.Categories)
	r.IngredientsText = s.SanitizeText(r.IngredientsText)
	r.Code = s.SanitizeText(r.Code)
	return r
}

// SanitizeAlternatives は代替食品の一覧をサニタイズする。
func (s *contentSanitizer) SanitizeAlternatives(alts []nutrition.AlternativeRecord) []nutrition.AlternativeRecord {
	out := make([]nutrition.AlternativeRecord, len(alts))
	for i, a := range alts {
		out[i] = nutrition.AlternativeRecord{
			NutritionRecord: s.SanitizeRecord(a.NutritionRecord),
			HealthBenefits:  s.SanitizeText(a.HealthBenefits),
		}
	}
	return out
}
