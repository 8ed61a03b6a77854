package nutrition

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// knownNutrientKeys は受け付ける栄養素キーの集合。旧形式のエネルギーキーも含む。
var knownNutrientKeys = func() map[string]struct{} {
	m := make(map[string]struct{}, len(NutrientKeys)+1)
	for _, k := range NutrientKeys {
		m[k] = struct{}{}
	}
	m[KeyEnergy] = struct{}{}
	return m
}()

// ValidateRecord は単一レコードモードで検証する。
// product_name と、エネルギーキーを含む nutriments を持つオブジェクトのみ受け付ける。
func ValidateRecord(raw json.RawMessage) (*NutritionRecord, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}
	rec, err := recordFromObject(obj)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ValidateAlternatives はリストモードで検証する。
// 配列でなければSchemaErrorを返す。条件を満たさない要素はログに残して読み飛ばす。
// 全要素が読み飛ばされた場合は空のスライスを返し、エラーにはしない。
func ValidateAlternatives(raw json.RawMessage, logger *slog.Logger) ([]AlternativeRecord, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil || entries == nil {
		return nil, &SchemaError{Reason: "expected a JSON array"}
	}

	alternatives := make([]AlternativeRecord, 0, len(entries))
	for i, entry := range entries {
		obj, err := decodeObject(entry)
		if err == nil {
			var rec NutritionRecord
			rec, err = recordFromObject(obj)
			if err == nil {
				alternatives = append(alternatives, AlternativeRecord{
					NutritionRecord: rec,
					HealthBenefits:  optionalString(obj, "health_benefits"),
				})
				continue
			}
		}
		logger.Warn("skipping invalid alternative",
			slog.Int("index", i),
			slog.String("reason", err.Error()),
		)
	}
	return alternatives, nil
}

// decodeObject はJSONオブジェクトをキーごとの生の値に分解する。
func decodeObject(raw json.RawMessage) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, &SchemaError{Reason: "expected a JSON object"}
	}
	return obj, nil
}

func recordFromObject(obj map[string]json.RawMessage) (NutritionRecord, error) {
	name := optionalString(obj, "product_name")
	if strings.TrimSpace(name) == "" {
		return NutritionRecord{}, &SchemaError{Reason: "missing product_name"}
	}

	rawNutriments, ok := obj["nutriments"]
	if !ok {
		return NutritionRecord{}, &SchemaError{Reason: "missing nutriments"}
	}
	nutrimentsObj, err := decodeObject(rawNutriments)
	if err != nil {
		return NutritionRecord{}, &SchemaError{Reason: "nutriments is not an object"}
	}
	nutriments := parseNutriments(nutrimentsObj)
	if _, ok := nutriments.Energy(); !ok {
		return NutritionRecord{}, &SchemaError{Reason: fmt.Sprintf("nutriments has no %s", KeyEnergyKcal)}
	}

	ingredients := optionalString(obj, "ingredients_text")
	if strings.TrimSpace(ingredients) == "" {
		ingredients = IngredientsNotAvailable
	}

	return NutritionRecord{
		ProductName:     name,
		Brands:          optionalString(obj, "brands"),
		Categories:      optionalString(obj, "categories"),
		NutriscoreGrade: normalizeGrade(optionalString(obj, "nutriscore_grade")),
		Code:            optionalString(obj, "code"),
		Nutriments:      nutriments,
		IngredientsText: ingredients,
	}, nil
}

// parseNutriments は既知のキーのうち、非負の数値を持つものだけを残す。
func parseNutriments(obj map[string]json.RawMessage) Nutriments {
	n := make(Nutriments, len(obj))
	for key, raw := range obj {
		if _, ok := knownNutrientKeys[key]; !ok {
			continue
		}
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil || v < 0 {
			continue
		}
		n[key] = v
	}
	return n
}

// optionalString は文字列フィールドを取り出す。存在しない、または文字列でない場合は空文字を返す。
func optionalString(obj map[string]json.RawMessage, key string) string {
	raw, ok := obj[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// normalizeGrade は A〜E のグレードを大文字に揃える。範囲外の値はそのまま返す。
func normalizeGrade(grade string) string {
	g := strings.ToUpper(strings.TrimSpace(grade))
	if len(g) == 1 && g[0] >= 'A' && g[0] <= 'E' {
		return g
	}
	return grade
}
