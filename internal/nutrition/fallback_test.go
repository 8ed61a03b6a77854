package nutrition

import (
	"math"
	"reflect"
	"strings"
	"testing"
)

func fallbackEnergy(t *testing.T, alts []AlternativeRecord) float64 {
	t.Helper()
	if len(alts) != 1 {
		t.Fatalf("フォールバック件数 = %d, want 1", len(alts))
	}
	energy, ok := alts[0].Nutriments.Energy()
	if !ok {
		t.Fatal("フォールバックにエネルギーがない")
	}
	return energy
}

func TestFallback_Pizza(t *testing.T) {
	alts := Fallback("pizza", 280, "Frozen Foods")

	if got := fallbackEnergy(t, alts); got != 196 {
		t.Errorf("energy = %v, want 196", got)
	}
	if alts[0].ProductName != "Thin Crust Veggie Pizza" {
		t.Errorf("ProductName = %q, want %q", alts[0].ProductName, "Thin Crust Veggie Pizza")
	}
	if alts[0].Categories != "Frozen Foods" {
		t.Errorf("Categories = %q, want %q", alts[0].Categories, "Frozen Foods")
	}
}

func TestFallback_IsDeterministic(t *testing.T) {
	first := Fallback("pizza", 280, "Frozen Foods")
	for i := 0; i < 5; i++ {
		if got := Fallback("pizza", 280, "Frozen Foods"); !reflect.DeepEqual(got, first) {
			t.Fatalf("呼び出し %d 回目で結果が変わった: %+v vs %+v", i+2, got, first)
		}
	}
}

func TestFallback_DoesNotShareTemplateState(t *testing.T) {
	alts := Fallback("pizza", 280, "")
	alts[0].Nutriments[KeyProteins] = 999

	again := Fallback("pizza", 280, "")
	if again[0].Nutriments[KeyProteins] == 999 {
		t.Error("返したレコードの変更がテンプレートに影響した")
	}
}

func TestFallback_EnergyFloors(t *testing.T) {
	tests := []struct {
		name     string
		food     string
		calories float64
		want     float64
	}{
		{"バーガーの下限", "burger", 100, 200},
		{"バーガーの比率", "Cheese Burger", 400, 320},
		{"ピザの下限", "PIZZA", 0, 180},
		{"その他の下限", "fries", 100, 150},
		{"その他の比率", "fries", 312, 234},
		{"負のカロリー", "fries", -50, 150},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fallbackEnergy(t, Fallback(tt.food, tt.calories, "")); got != tt.want {
				t.Errorf("Fallback(%q, %v) energy = %v, want %v", tt.food, tt.calories, got, tt.want)
			}
		})
	}
}

func TestFallback_Templates(t *testing.T) {
	tests := []struct {
		food     string
		wantName string
		wantCode string
	}{
		{"Pepperoni Pizza", "Thin Crust Veggie Pizza", "fallback_pizza_001"},
		{"Double BURGER", "Turkey Burger with Whole Wheat Bun", "fallback_burger_001"},
		{"Coca Cola", "Healthier Coca Cola", "fallback_coca_cola_001"},
		{"  Mac & Cheese ", "Healthier Mac & Cheese", "fallback_mac_cheese_001"},
	}
	for _, tt := range tests {
		alts := Fallback(tt.food, 300, "")
		if len(alts) != 1 {
			t.Fatalf("Fallback(%q) 件数 = %d, want 1", tt.food, len(alts))
		}
		rec := alts[0]
		if rec.ProductName != tt.wantName {
			t.Errorf("Fallback(%q).ProductName = %q, want %q", tt.food, rec.ProductName, tt.wantName)
		}
		if rec.Code != tt.wantCode {
			t.Errorf("Fallback(%q).Code = %q, want %q", tt.food, rec.Code, tt.wantCode)
		}
		if !strings.HasPrefix(rec.Code, "fallback_") {
			t.Errorf("Code = %q, want prefix fallback_", rec.Code)
		}
		if rec.NutriscoreGrade != "B" {
			t.Errorf("NutriscoreGrade = %q, want B", rec.NutriscoreGrade)
		}
		if rec.HealthBenefits == "" {
			t.Error("HealthBenefits が空")
		}
		for _, key := range NutrientKeys {
			if _, ok := rec.Nutriments[key]; !ok {
				t.Errorf("Fallback(%q) に %s がない", tt.food, key)
			}
		}
	}
}

func TestFallback_NonFiniteCaloriesUseFloor(t *testing.T) {
	tests := []struct {
		name     string
		food     string
		calories float64
		want     float64
	}{
		{"NaNのピザ", "pizza", math.NaN(), 180},
		{"+Infのバーガー", "burger", math.Inf(1), 200},
		{"-Infのその他", "salad", math.Inf(-1), 150},
		{"負数のその他", "salad", -300, 150},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fallbackEnergy(t, Fallback(tt.food, tt.calories, "")); got != tt.want {
				t.Errorf("energy = %v, want %v", got, tt.want)
			}
		})
	}
}
