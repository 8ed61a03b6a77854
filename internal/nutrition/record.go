// Package nutrition は外部LLMの応答から栄養情報レコードを組み立てるコア処理を提供する。
// プロンプト生成、応答の抽出、スキーマ検証、フォールバック生成、それらを束ねるServiceからなる。
package nutrition

// 100gあたりの栄養素キー
const (
	KeyEnergyKcal    = "energy-kcal_100g"
	KeyEnergy        = "energy_100g" // 旧形式のエネルギーキー
	KeyProteins      = "proteins_100g"
	KeyCarbohydrates = "carbohydrates_100g"
	KeyFat           = "fat_100g"
	KeyFiber         = "fiber_100g"
	KeySugars        = "sugars_100g"
	KeySodium        = "sodium_100g"
	KeyCalcium       = "calcium_100g"
	KeyIron          = "iron_100g"
	KeyVitaminC      = "vitamin-c_100g"
	KeyPotassium     = "potassium_100g"
	KeyVitaminA      = "vitamin-a_100g"
)

// NutrientKeys はレコードが持つ12種類の栄養素キーを表示順に並べたもの。
var NutrientKeys = []string{
	KeyEnergyKcal,
	KeyProteins,
	KeyCarbohydrates,
	KeyFat,
	KeyFiber,
	KeySugars,
	KeySodium,
	KeyCalcium,
	KeyIron,
	KeyVitaminC,
	KeyPotassium,
	KeyVitaminA,
}

// IngredientsNotAvailable は原材料が不明な場合の既定値。
const IngredientsNotAvailable = "not available"

// Nutriments は栄養素キーから100gあたりの値へのマップ。
type Nutriments map[string]float64

// Energy は100gあたりのエネルギー(kcal)を返す。
// energy-kcal_100g を優先し、なければ energy_100g を使う。
func (n Nutriments) Energy() (float64, bool) {
	if v, ok := n[KeyEnergyKcal]; ok {
		return v, true
	}
	v, ok := n[KeyEnergy]
	return v, ok
}

// NutritionRecord は1食品分の栄養情報を表す。
// リクエストごとに生成され、永続化されない。
type NutritionRecord struct {
	ProductName     string     `json:"product_name"`
	Brands          string     `json:"brands"`
	Categories      string     `json:"categories"`
	NutriscoreGrade string     `json:"nutriscore_grade"`
	Code            string     `json:"code"`
	Nutriments      Nutriments `json:"nutriments"`
	IngredientsText string     `json:"ingredients_text"`
}

// AlternativeRecord は代替食品の栄養情報と、元の食品より健康的である理由を表す。
type AlternativeRecord struct {
	NutritionRecord
	HealthBenefits string `json:"health_benefits"`
}

// LookupResult は単一食品検索の結果を表す。
type LookupResult struct {
	Found  bool
	Record *NutritionRecord
}
