package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/mindfulbite/internal/middleware"
	"github.com/hitoshi/mindfulbite/internal/model"
	"github.com/hitoshi/mindfulbite/internal/profile"
)

// ProfileServiceInterface はプロフィールハンドラーが必要とするサービスインターフェース。
type ProfileServiceInterface interface {
	Get(ctx context.Context, userID string) (*model.UserProfile, error)
	Save(ctx context.Context, userID string, in profile.Input) (*model.UserProfile, error)
}

// ProfileHandler は健康プロフィールのHTTPハンドラー。
type ProfileHandler struct {
	service ProfileServiceInterface
}

// NewProfileHandler はProfileHandlerを生成する。
func NewProfileHandler(service ProfileServiceInterface) *ProfileHandler {
	return &ProfileHandler{service: service}
}

type profileResponse struct {
	Weight        float64   `json:"weight"`
	Height        float64   `json:"height"`
	Age           int       `json:"age"`
	Gender        string    `json:"gender"`
	ActivityLevel string    `json:"activity_level"`
	BMI           float64   `json:"bmi"`
	BMICategory   string    `json:"bmi_category"`
	DailyCalories int       `json:"daily_calories"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type profileEnvelope struct {
	Success bool             `json:"success"`
	Profile *profileResponse `json:"profile"`
}

func toProfileResponse(p *model.UserProfile) *profileResponse {
	if p == nil {
		return nil
	}
	return &profileResponse{
		Weight:        p.Weight,
		Height:        p.Height,
		Age:           p.Age,
		Gender:        p.Gender,
		ActivityLevel: p.ActivityLevel,
		BMI:           p.BMI,
		BMICategory:   profile.BMICategory(p.BMI),
		DailyCalories: p.DailyCalories,
		UpdatedAt:     p.UpdatedAt,
	}
}

// GetProfile はログインユーザーの健康プロフィールを返す。未登録の場合はprofileがnullになる。
// GET /api/profile
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	p, err := h.service.Get(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profileEnvelope{Success: true, Profile: toProfileResponse(p)})
}

// SaveProfile は指定されたフィールドのみ健康プロフィールを更新し、BMIと1日の目標カロリーを再計算する。
// POST /api/profile
func (h *ProfileHandler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req profileRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	p, err := h.service.Save(r.Context(), userID, profile.Input{
		Weight:        req.Weight,
		Height:        req.Height,
		Age:           req.Age,
		Gender:        req.Gender,
		ActivityLevel: req.ActivityLevel,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profileEnvelope{Success: true, Profile: toProfileResponse(p)})
}
