package nutrition

import (
	"math"
	"strings"
	"unicode"
)

// fallbackTemplate は代替食品の固定テンプレート。
// エネルギー以外の栄養素は固定値を持つ。
type fallbackTemplate struct {
	name            string
	code            string
	brands          string
	category        string
	energyFloor     float64
	energyRatio     float64
	nutriments      Nutriments
	ingredientsText string
	healthBenefits  string
}

var pizzaTemplate = fallbackTemplate{
	name:        "Thin Crust Veggie Pizza",
	code:        "fallback_pizza_001",
	brands:      "Generic",
	category:    "Pizza",
	energyFloor: 180,
	energyRatio: 0.7,
	nutriments: Nutriments{
		KeyProteins:      11.0,
		KeyCarbohydrates: 26.0,
		KeyFat:           6.5,
		KeyFiber:         4.0,
		KeySugars:        3.0,
		KeySodium:        0.42,
		KeyCalcium:       0.15,
		KeyIron:          0.0015,
		KeyVitaminC:      0.012,
		KeyPotassium:     0.3,
		KeyVitaminA:      0.00006,
	},
	ingredientsText: "Whole wheat thin crust, tomato sauce, part-skim mozzarella, bell peppers, spinach, mushrooms, onions",
	healthBenefits:  "Thinner crust and more vegetables mean fewer calories, more fiber and less saturated fat",
}

var burgerTemplate = fallbackTemplate{
	name:        "Turkey Burger with Whole Wheat Bun",
	code:        "fallback_burger_001",
	brands:      "Generic",
	category:    "Burgers",
	energyFloor: 200,
	energyRatio: 0.8,
	nutriments: Nutriments{
		KeyProteins:      16.0,
		KeyCarbohydrates: 18.0,
		KeyFat:           7.5,
		KeyFiber:         3.2,
		KeySugars:        3.5,
		KeySodium:        0.38,
		KeyCalcium:       0.06,
		KeyIron:          0.0018,
		KeyVitaminC:      0.002,
		KeyPotassium:     0.28,
		KeyVitaminA:      0.00002,
	},
	ingredientsText: "Lean ground turkey, whole wheat bun, lettuce, tomato, red onion, mustard",
	healthBenefits:  "Lean turkey and a whole wheat bun cut saturated fat and add fiber while keeping protein high",
}

var genericTemplate = fallbackTemplate{
	brands:      "Generic",
	category:    "General",
	energyFloor: 150,
	energyRatio: 0.75,
	nutriments: Nutriments{
		KeyProteins:      8.0,
		KeyCarbohydrates: 20.0,
		KeyFat:           5.0,
		KeyFiber:         3.5,
		KeySugars:        4.0,
		KeySodium:        0.3,
		KeyCalcium:       0.08,
		KeyIron:          0.0012,
		KeyVitaminC:      0.008,
		KeyPotassium:     0.25,
		KeyVitaminA:      0.00004,
	},
	ingredientsText: "Whole food ingredients with reduced fat, sugar and sodium",
	healthBenefits:  "Smaller portions of fat and sugar with more whole ingredients lower the calorie count",
}

// Fallback はモデル応答が使えない場合の代替食品を1件生成する。
// 食品名のキーワード（大文字小文字を区別しない）でテンプレートを選ぶ純粋関数。
// 負数や非有限値のcaloriesは0として扱い、エネルギーは下限値になる。
func Fallback(name string, calories float64, category string) []AlternativeRecord {
	calories = finiteCalories(calories)
	lower := strings.ToLower(name)

	tmpl := genericTemplate
	switch {
	case strings.Contains(lower, "pizza"):
		tmpl = pizzaTemplate
	case strings.Contains(lower, "burger"):
		tmpl = burgerTemplate
	default:
		tmpl.name = "Healthier " + strings.TrimSpace(name)
		tmpl.code = "fallback_" + slug(name) + "_001"
	}

	nutriments := make(Nutriments, len(tmpl.nutriments)+1)
	for k, v := range tmpl.nutriments {
		nutriments[k] = v
	}
	nutriments[KeyEnergyKcal] = math.Max(tmpl.energyFloor, math.Round(tmpl.energyRatio*calories))

	cat := strings.TrimSpace(category)
	if cat == "" {
		cat = tmpl.category
	}

	return []AlternativeRecord{{
		NutritionRecord: NutritionRecord{
			ProductName:     tmpl.name,
			Brands:          tmpl.brands,
			Categories:      cat,
			NutriscoreGrade: "B",
			Code:            tmpl.code,
			Nutriments:      nutriments,
			IngredientsText: tmpl.ingredientsText,
		},
		HealthBenefits: tmpl.healthBenefits,
	}}
}

// finiteCalories は負数と非有限値を0に置き換える。
func finiteCalories(c float64) float64 {
	if math.IsNaN(c) || math.IsInf(c, 0) || c < 0 {
		return 0
	}
	return c
}

// slug は食品名をコードに使える小文字英数字とアンダースコアの列に変換する。
func slug(name string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	s := strings.TrimSuffix(b.String(), "_")
	if s == "" {
		return "food"
	}
	return s
}
