package security

import (
	"strings"
	"testing"

	"github.com/hitoshi/mindfulbite/internal/nutrition"
)

// TestSanitizeText_RemovesTags は全てのタグが除去されることを検証する。
func TestSanitizeText_RemovesTags(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"プレーンテキスト", "Margherita Pizza", "Margherita Pizza"},
		{"空文字列", "", ""},
		{"強調タグ", "<strong>Whole</strong> wheat", "Whole wheat"},
		{"scriptタグ", `Pizza<script>alert("xss")</script>`, "Pizza"},
		{"imgのonerror", `<img src=x onerror=alert(1)>Salad`, "Salad"},
		{"iframe", `<iframe src="https://evil.example"></iframe>Soup`, "Soup"},
		{"前後の空白", "  Tofu  ", "Tofu"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizer.SanitizeText(tt.input); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestSanitizeText_EscapesSpecialCharacters はHTML特殊文字がエスケープされることを検証する。
func TestSanitizeText_EscapesSpecialCharacters(t *testing.T) {
	sanitizer := NewContentSanitizer()

	got := sanitizer.SanitizeText("Ben & Jerry's")
	if strings.Contains(got, " & ") {
		t.Errorf("SanitizeText() = %q, ampersand should be escaped", got)
	}
	if !strings.Contains(got, "Ben") || !strings.Contains(got, "Jerry") {
		t.Errorf("SanitizeText() = %q, text should be kept", got)
	}
}

// TestSanitizeText_Idempotent はタグを含まない結果を再度サニタイズしても変化しないことを検証する。
func TestSanitizeText_Idempotent(t *testing.T) {
	sanitizer := NewContentSanitizer()

	first := sanitizer.SanitizeText("<p>Greek yogurt</p> with berries")
	second := sanitizer.SanitizeText(first)
	if first != second {
		t.Errorf("not idempotent: %q -> %q", first, second)
	}
}

// TestSanitizeRecord_CleansFreeTextFields は自由記述フィールドのみがサニタイズされることを検証する。
func TestSanitizeRecord_CleansFreeTextFields(t *testing.T) {
	sanitizer := NewContentSanitizer()

	in := nutrition.NutritionRecord{
		ProductName:     "<b>Pizza</b>",
		Brands:          "<script>x()</script>Generic",
		Categories:      "Frozen <i>Foods</i>",
		NutriscoreGrade: "C",
		Code:            "llm_001",
		Nutriments:      nutrition.Nutriments{nutrition.KeyEnergyKcal: 280},
		IngredientsText: "<a href='javascript:x'>flour</a>",
	}

	out := sanitizer.SanitizeRecord(in)

	if out.ProductName != "Pizza" || out.Brands != "Generic" || out.Categories != "Frozen Foods" {
		t.Errorf("sanitized record = %+v", out)
	}
	if out.IngredientsText != "flour" {
		t.Errorf("IngredientsText = %q, want %q", out.IngredientsText, "flour")
	}
	if out.NutriscoreGrade != "C" || out.Code != "llm_001" {
		t.Errorf("grade/code changed: %+v", out)
	}
	if out.Nutriments[nutrition.KeyEnergyKcal] != 280 {
		t.Errorf("nutriments changed: %v", out.Nutriments)
	}
	if in.ProductName != "<b>Pizza</b>" {
		t.Error("input record must not be modified")
	}
}

// TestSanitizeAlternatives は代替食品の健康効果を含めてサニタイズされることを検証する。
func TestSanitizeAlternatives(t *testing.T) {
	sanitizer := NewContentSanitizer()

	alts := []nutrition.AlternativeRecord{
		{
			NutritionRecord: nutrition.NutritionRecord{ProductName: "Cauliflower <em>Crust</em>"},
			HealthBenefits:  "Fewer calories<script>steal()</script>",
		},
	}

	out := sanitizer.SanitizeAlternatives(alts)

	if len(out) != 1 {
		t.Fatalf("len = %d, want 1", len(out))
	}
	if out[0].ProductName != "Cauliflower Crust" {
		t.Errorf("ProductName = %q", out[0].ProductName)
	}
	if out[0].HealthBenefits != "Fewer calories" {
		t.Errorf("HealthBenefits = %q", out[0].HealthBenefits)
	}
	if alts[0].HealthBenefits != "Fewer calories<script>steal()</script>" {
		t.Error("input slice must not be modified")
	}
}

// TestContentSanitizerInterface はインターフェースを満たすことを検証する。
func TestContentSanitizerInterface(t *testing.T) {
	var _ ContentSanitizerService = NewContentSanitizer()
}
