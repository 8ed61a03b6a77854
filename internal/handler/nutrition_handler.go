package handler

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/hitoshi/mindfulbite/internal/model"
	"github.com/hitoshi/mindfulbite/internal/nutrition"
	"github.com/hitoshi/mindfulbite/internal/security"
)

// NutritionServiceInterface は栄養情報ハンドラーが必要とするサービスインターフェース。
type NutritionServiceInterface interface {
	Lookup(ctx context.Context, query string) (*nutrition.LookupResult, error)
	FindAlternatives(ctx context.Context, name string, calories float64, category string) ([]nutrition.AlternativeRecord, error)
}

// NutritionHandler は食品検索・代替食品検索のHTTPハンドラー。
type NutritionHandler struct {
	service   NutritionServiceInterface
	sanitizer security.ContentSanitizerService
}

// NewNutritionHandler はNutritionHandlerを生成する。
func NewNutritionHandler(service NutritionServiceInterface, sanitizer security.ContentSanitizerService) *NutritionHandler {
	return &NutritionHandler{
		service:   service,
		sanitizer: sanitizer,
	}
}

type foodSearchResponse struct {
	Products []nutrition.NutritionRecord `json:"products"`
	Count    int                         `json:"count"`
}

type alternativesResponse struct {
	Alternatives []nutrition.AlternativeRecord `json:"alternatives"`
}

// FoodSearch は食品名から栄養情報を1件検索する。
// GET /api/food_search?query=xxx
func (h *NutritionHandler) FoodSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("query is required"))
		return
	}

	result, err := h.service.Lookup(r.Context(), query)
	if err != nil {
		h.writeNutritionError(w, err, query)
		return
	}
	if !result.Found || result.Record == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewFoodNotFoundError(query))
		return
	}

	record := h.sanitizer.SanitizeRecord(*result.Record)
	writeJSON(w, http.StatusOK, foodSearchResponse{
		Products: []nutrition.NutritionRecord{record},
		Count:    1,
	})
}

// FindAlternatives は低カロリーな代替食品を検索する。
// GET /api/find_alternatives?food_name=xxx&calories=280&category=yyy
// caloriesが省略・負数・非有限値（NaN, Inf）・数値でない場合は0として扱う。
func (h *NutritionHandler) FindAlternatives(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := strings.TrimSpace(q.Get("food_name"))
	if name == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("food_name is required"))
		return
	}

	calories, err := strconv.ParseFloat(q.Get("calories"), 64)
	if err != nil || calories < 0 || math.IsNaN(calories) || math.IsInf(calories, 0) {
		calories = 0
	}
	category := strings.TrimSpace(q.Get("category"))

	alternatives, err := h.service.FindAlternatives(r.Context(), name, calories, category)
	if err != nil {
		h.writeNutritionError(w, err, name)
		return
	}

	writeJSON(w, http.StatusOK, alternativesResponse{
		Alternatives: h.sanitizer.SanitizeAlternatives(alternatives),
	})
}

// writeNutritionError は栄養情報取得の失敗をAPIErrorに変換する。
// 外部モデルの呼び出し失敗は500、応答内容の不備は404として返す。
func (h *NutritionHandler) writeNutritionError(w http.ResponseWriter, err error, query string) {
	if nutrition.IsRecoverable(err) {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewFoodNotFoundError(query))
		return
	}

	slog.Error("栄養情報の取得に失敗",
		slog.String("query", query),
		slog.String("error", err.Error()),
	)
	writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewAnalysisFailedError())
}
