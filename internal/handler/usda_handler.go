package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/hitoshi/mindfulbite/internal/model"
	"github.com/hitoshi/mindfulbite/internal/security"
	"github.com/hitoshi/mindfulbite/internal/usda"
)

// FoodDataSearcher は食品データベース検索ハンドラーが必要とするインターフェース。
type FoodDataSearcher interface {
	Search(ctx context.Context, query string, pageSize int) (*usda.SearchResult, error)
}

// USDAHandler はUSDA FoodData Central検索のHTTPハンドラー。
type USDAHandler struct {
	searcher  FoodDataSearcher
	sanitizer security.ContentSanitizerService
}

// NewUSDAHandler はUSDAHandlerを生成する。
func NewUSDAHandler(searcher FoodDataSearcher, sanitizer security.ContentSanitizerService) *USDAHandler {
	return &USDAHandler{searcher: searcher, sanitizer: sanitizer}
}

// Search は食品データベースを検索する。
// GET /api/usda_search?query=xxx&pageSize=10
// pageSizeが数値でない場合は既定値、上限を超える場合は上限値になる。
func (h *USDAHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("query"))
	if query == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("query is required"))
		return
	}

	pageSize, _ := strconv.Atoi(q.Get("pageSize"))

	result, err := h.searcher.Search(r.Context(), query, usda.NormalizePageSize(pageSize))
	if err != nil {
		slog.Error("食品データベースの検索に失敗",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewUpstreamFailedError())
		return
	}

	for i := range result.Foods {
		f := &result.Foods[i]
		f.Description = h.sanitizer.SanitizeText(f.Description)
		f.BrandOwner = h.sanitizer.SanitizeText(f.BrandOwner)
		f.FoodCategory = h.sanitizer.SanitizeText(f.FoodCategory)
	}

	writeJSON(w, http.StatusOK, result)
}
