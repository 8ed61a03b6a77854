package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/mindfulbite/internal/model"
	"github.com/hitoshi/mindfulbite/internal/nutrition"
	"github.com/hitoshi/mindfulbite/internal/security"
)

// --- モック定義 ---

type mockNutritionService struct {
	lookupFn           func(ctx context.Context, query string) (*nutrition.LookupResult, error)
	findAlternativesFn func(ctx context.Context, name string, calories float64, category string) ([]nutrition.AlternativeRecord, error)
}

func (m *mockNutritionService) Lookup(ctx context.Context, query string) (*nutrition.LookupResult, error) {
	if m.lookupFn != nil {
		return m.lookupFn(ctx, query)
	}
	return &nutrition.LookupResult{}, nil
}

func (m *mockNutritionService) FindAlternatives(ctx context.Context, name string, calories float64, category string) ([]nutrition.AlternativeRecord, error) {
	if m.findAlternativesFn != nil {
		return m.findAlternativesFn(ctx, name, calories, category)
	}
	return nil, nil
}

func newTestNutritionHandler(svc NutritionServiceInterface) *NutritionHandler {
	return NewNutritionHandler(svc, security.NewContentSanitizer())
}

func margherita() *nutrition.NutritionRecord {
	return &nutrition.NutritionRecord{
		ProductName:     "Margherita Pizza",
		Brands:          "Generic",
		Categories:      "Pizza",
		NutriscoreGrade: "C",
		Code:            "pizza_margherita",
		Nutriments:      nutrition.Nutriments{nutrition.KeyEnergyKcal: 280},
		IngredientsText: "dough, tomato, mozzarella",
	}
}

// --- GET /api/food_search ---

func TestNutritionHandler_FoodSearch_Success(t *testing.T) {
	var gotQuery string
	svc := &mockNutritionService{
		lookupFn: func(ctx context.Context, query string) (*nutrition.LookupResult, error) {
			gotQuery = query
			return &nutrition.LookupResult{Found: true, Record: margherita()}, nil
		},
	}
	h := newTestNutritionHandler(svc)

	w := httptest.NewRecorder()
	h.FoodSearch(w, httptest.NewRequest(http.MethodGet, "/api/food_search?query=+pizza+", nil))

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if gotQuery != "pizza" {
		t.Errorf("query = %q, want %q", gotQuery, "pizza")
	}

	var body foodSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Count != 1 || len(body.Products) != 1 {
		t.Fatalf("body = %+v, want one product", body)
	}
	got := body.Products[0]
	if got.ProductName != "Margherita Pizza" || got.Nutriments[nutrition.KeyEnergyKcal] != 280 {
		t.Errorf("product = %+v", got)
	}
}

func TestNutritionHandler_FoodSearch_SanitizesFreeText(t *testing.T) {
	svc := &mockNutritionService{
		lookupFn: func(ctx context.Context, query string) (*nutrition.LookupResult, error) {
			r := margherita()
			r.ProductName = `<script>alert(1)</script>Pizza`
			r.IngredientsText = `<b>flour</b>`
			return &nutrition.LookupResult{Found: true, Record: r}, nil
		},
	}
	h := newTestNutritionHandler(svc)

	w := httptest.NewRecorder()
	h.FoodSearch(w, httptest.NewRequest(http.MethodGet, "/api/food_search?query=pizza", nil))

	var body foodSearchResponse
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	p := body.Products[0]
	if strings.Contains(p.ProductName, "<script") {
		t.Errorf("product_name not sanitized: %q", p.ProductName)
	}
	if p.IngredientsText != "flour" {
		t.Errorf("ingredients_text = %q, want %q", p.IngredientsText, "flour")
	}
}

func TestNutritionHandler_FoodSearch_EmptyQuery(t *testing.T) {
	svc := &mockNutritionService{
		lookupFn: func(ctx context.Context, query string) (*nutrition.LookupResult, error) {
			t.Error("Lookup should not be called for an empty query")
			return nil, nil
		},
	}
	h := newTestNutritionHandler(svc)

	for _, target := range []string{"/api/food_search", "/api/food_search?query=", "/api/food_search?query=%20%20"} {
		w := httptest.NewRecorder()
		h.FoodSearch(w, httptest.NewRequest(http.MethodGet, target, nil))

		resp := w.Result()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want %d", target, resp.StatusCode, http.StatusBadRequest)
		}
		if body := decodeAPIError(t, resp); body.Code != model.ErrCodeInvalidRequest {
			t.Errorf("%s: code = %q, want %q", target, body.Code, model.ErrCodeInvalidRequest)
		}
	}
}

func TestNutritionHandler_FoodSearch_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		result     *nutrition.LookupResult
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "外部モデル呼び出し失敗",
			err:        &nutrition.GatewayError{Op: "chat", StatusCode: 502, Err: errors.New("upstream said: secret-key-invalid")},
			wantStatus: http.StatusInternalServerError,
			wantCode:   model.ErrCodeAnalysisFailed,
		},
		{
			name:       "JSONとして解釈できない",
			err:        &nutrition.ExtractionError{Raw: "not json", Err: errors.New("invalid character")},
			wantStatus: http.StatusNotFound,
			wantCode:   model.ErrCodeFoodNotFound,
		},
		{
			name:       "必須フィールド欠落",
			err:        &nutrition.SchemaError{Reason: "missing product_name"},
			wantStatus: http.StatusNotFound,
			wantCode:   model.ErrCodeFoodNotFound,
		},
		{
			name:       "見つからない",
			result:     &nutrition.LookupResult{Found: false},
			wantStatus: http.StatusNotFound,
			wantCode:   model.ErrCodeFoodNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockNutritionService{
				lookupFn: func(ctx context.Context, query string) (*nutrition.LookupResult, error) {
					return tt.result, tt.err
				},
			}
			h := newTestNutritionHandler(svc)

			w := httptest.NewRecorder()
			h.FoodSearch(w, httptest.NewRequest(http.MethodGet, "/api/food_search?query=pizza", nil))

			resp := w.Result()
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			body := decodeAPIError(t, resp)
			if body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
			if strings.Contains(body.Message, "secret-key-invalid") {
				t.Errorf("provider error leaked to client: %q", body.Message)
			}
		})
	}
}

// --- GET /api/find_alternatives ---

func TestNutritionHandler_FindAlternatives_Success(t *testing.T) {
	var gotName, gotCategory string
	var gotCalories float64
	svc := &mockNutritionService{
		findAlternativesFn: func(ctx context.Context, name string, calories float64, category string) ([]nutrition.AlternativeRecord, error) {
			gotName, gotCalories, gotCategory = name, calories, category
			return []nutrition.AlternativeRecord{
				{
					NutritionRecord: nutrition.NutritionRecord{
						ProductName: "Thin Crust Veggie Pizza",
						Nutriments:  nutrition.Nutriments{nutrition.KeyEnergyKcal: 196},
					},
					HealthBenefits: "<i>Lower</i> in calories",
				},
			}, nil
		},
	}
	h := newTestNutritionHandler(svc)

	w := httptest.NewRecorder()
	h.FindAlternatives(w, httptest.NewRequest(http.MethodGet,
		"/api/find_alternatives?food_name=pizza&calories=280&category=Frozen+Foods", nil))

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if gotName != "pizza" || gotCalories != 280 || gotCategory != "Frozen Foods" {
		t.Errorf("FindAlternatives called with (%q, %v, %q)", gotName, gotCalories, gotCategory)
	}

	var body alternativesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Alternatives) != 1 {
		t.Fatalf("alternatives = %d, want 1", len(body.Alternatives))
	}
	alt := body.Alternatives[0]
	if alt.ProductName != "Thin Crust Veggie Pizza" || alt.HealthBenefits != "Lower in calories" {
		t.Errorf("alternative = %+v", alt)
	}
}

func TestNutritionHandler_FindAlternatives_CaloriesDefaultToZero(t *testing.T) {
	for _, target := range []string{
		"/api/find_alternatives?food_name=salad",
		"/api/find_alternatives?food_name=salad&calories=abc",
		"/api/find_alternatives?food_name=salad&calories=-5",
		"/api/find_alternatives?food_name=salad&calories=NaN",
		"/api/find_alternatives?food_name=salad&calories=Inf",
		"/api/find_alternatives?food_name=salad&calories=%2BInf",
		"/api/find_alternatives?food_name=salad&calories=-Infinity",
	} {
		var gotCalories float64 = -1
		svc := &mockNutritionService{
			findAlternativesFn: func(ctx context.Context, name string, calories float64, category string) ([]nutrition.AlternativeRecord, error) {
				gotCalories = calories
				return nil, nil
			},
		}
		h := newTestNutritionHandler(svc)

		w := httptest.NewRecorder()
		h.FindAlternatives(w, httptest.NewRequest(http.MethodGet, target, nil))

		if w.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want %d", target, w.Code, http.StatusOK)
		}
		if gotCalories != 0 {
			t.Errorf("%s: calories = %v, want 0", target, gotCalories)
		}
	}
}

func TestNutritionHandler_FindAlternatives_MissingFoodName(t *testing.T) {
	h := newTestNutritionHandler(&mockNutritionService{})

	w := httptest.NewRecorder()
	h.FindAlternatives(w, httptest.NewRequest(http.MethodGet, "/api/find_alternatives?calories=280", nil))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestNutritionHandler_FindAlternatives_GatewayError(t *testing.T) {
	svc := &mockNutritionService{
		findAlternativesFn: func(ctx context.Context, name string, calories float64, category string) ([]nutrition.AlternativeRecord, error) {
			return nil, &nutrition.GatewayError{Op: "chat", Err: context.DeadlineExceeded}
		},
	}
	h := newTestNutritionHandler(svc)

	w := httptest.NewRecorder()
	h.FindAlternatives(w, httptest.NewRequest(http.MethodGet, "/api/find_alternatives?food_name=pizza&calories=280", nil))

	resp := w.Result()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusInternalServerError)
	}
	if body := decodeAPIError(t, resp); body.Code != model.ErrCodeAnalysisFailed {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeAnalysisFailed)
	}
}

func TestNutritionHandler_FindAlternatives_NonFiniteCaloriesUseFallbackFloor(t *testing.T) {
	svc := &mockNutritionService{
		findAlternativesFn: func(ctx context.Context, name string, calories float64, category string) ([]nutrition.AlternativeRecord, error) {
			return nutrition.Fallback(name, calories, category), nil
		},
	}
	h := newTestNutritionHandler(svc)

	for _, v := range []string{"NaN", "Inf", "%2BInf"} {
		w := httptest.NewRecorder()
		h.FindAlternatives(w, httptest.NewRequest(http.MethodGet, "/api/find_alternatives?food_name=pizza&calories="+v, nil))

		if w.Code != http.StatusOK {
			t.Fatalf("calories=%s: status = %d, want %d", v, w.Code, http.StatusOK)
		}
		var body alternativesResponse
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("calories=%s: failed to decode response: %v", v, err)
		}
		if len(body.Alternatives) != 1 || body.Alternatives[0].Nutriments[nutrition.KeyEnergyKcal] != 180 {
			t.Errorf("calories=%s: alternatives = %+v, want one record with energy 180", v, body.Alternatives)
		}
	}
}
