package nutrition

import (
	"fmt"
	"strconv"
	"strings"
)

// Prompt はモデルに渡すシステム指示とユーザー指示の組。
type Prompt struct {
	System string
	User   string
}

const systemInstruction = "You are a nutrition expert. Respond with valid JSON only. " +
	"Do not wrap the JSON in markdown and do not add any explanation before or after it."

// recordShape はモデルに要求するレコードのJSON形。
const recordShape = `{
    "product_name": "string",
    "brands": "string",
    "categories": "string",
    "nutriscore_grade": "A|B|C|D|E",
    "code": "string",
    "nutriments": {
        "energy-kcal_100g": number,
        "proteins_100g": number,
        "carbohydrates_100g": number,
        "fat_100g": number,
        "fiber_100g": number,
        "sugars_100g": number,
        "sodium_100g": number,
        "calcium_100g": number,
        "iron_100g": number,
        "vitamin-c_100g": number,
        "potassium_100g": number,
        "vitamin-a_100g": number
    },
    "ingredients_text": "string"%s
}`

// BuildLookupPrompt は単一食品の栄養情報を問い合わせるプロンプトを生成する。
func BuildLookupPrompt(query string) Prompt {
	var b strings.Builder
	fmt.Fprintf(&b, "Provide the nutrition information for the food %q.\n", strings.TrimSpace(query))
	b.WriteString("All nutrient values are per 100g of food. Energy is in kcal, every other nutrient is in grams.\n")
	b.WriteString("Return a single JSON object with exactly this shape:\n")
	fmt.Fprintf(&b, recordShape, "")
	return Prompt{System: systemInstruction, User: b.String()}
}

// BuildAlternativesPrompt は低カロリーな代替食品を問い合わせるプロンプトを生成する。
// caloriesが0でも「それより少ないカロリー」を要求する。負数と非有限値は0として扱う。
func BuildAlternativesPrompt(name string, calories float64, category string) Prompt {
	calories = finiteCalories(calories)
	var b strings.Builder
	fmt.Fprintf(&b, "Suggest %d healthier alternatives to the food %q", alternativesRequested, strings.TrimSpace(name))
	if c := strings.TrimSpace(category); c != "" {
		fmt.Fprintf(&b, " in the category %q", c)
	}
	b.WriteString(".\n")
	fmt.Fprintf(&b, "Each alternative must have strictly fewer than %s kcal per 100g.\n",
		strconv.FormatFloat(calories, 'f', -1, 64))
	b.WriteString("All nutrient values are per 100g of food. Energy is in kcal, every other nutrient is in grams.\n")
	b.WriteString("Return a JSON array where every element has exactly this shape:\n")
	fmt.Fprintf(&b, recordShape, ",\n    \"health_benefits\": \"why it is healthier than the original\"")
	return Prompt{System: systemInstruction, User: b.String()}
}

const alternativesRequested = 3
