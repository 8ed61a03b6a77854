package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hitoshi/mindfulbite/internal/model"
	"github.com/hitoshi/mindfulbite/internal/repository"
)

// 入力値の許容範囲
const (
	MinWeight = 20.0
	MaxWeight = 500.0
	MinHeight = 50.0
	MaxHeight = 280.0
	MinAge    = 1
	MaxAge    = 130
)

// Input はプロフィール保存時の入力値。nilのフィールドは保存済みの値を維持する。
// 範囲と選択肢はvalidateタグで検証し、違反はINVALID_PROFILEとして返す。
type Input struct {
	Weight        *float64 `validate:"omitempty,gte=20,lte=500"`
	Height        *float64 `validate:"omitempty,gte=50,lte=280"`
	Age           *int     `validate:"omitempty,gte=1,lte=130"`
	Gender        *string  `validate:"omitempty,oneof=male female other"`
	ActivityLevel *string  `validate:"omitempty,oneof=sedentary light moderate active very_active"`
}

var inputValidator = validator.New()

// Service は健康プロフィールの取得・保存を提供する。
type Service struct {
	repo repository.ProfileRepository
}

// NewService はServiceを生成する。
func NewService(repo repository.ProfileRepository) *Service {
	return &Service{repo: repo}
}

// Get はユーザーのプロフィールを返す。未登録の場合はnilを返す。
func (s *Service) Get(ctx context.Context, userID string) (*model.UserProfile, error) {
	p, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// Save は指定されたフィールドのみを保存済みプロフィールへ反映し、
// BMIと1日の目標カロリーを再計算して保存する。
// 未登録ユーザーの初回保存では体重・身長・年齢・性別が必須で、活動レベルはmoderateになる。
func (s *Service) Save(ctx context.Context, userID string, in Input) (*model.UserProfile, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	current, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if current == nil {
		if in.Weight == nil || in.Height == nil || in.Age == nil || in.Gender == nil {
			return nil, model.NewInvalidProfileError("weight, height, age and gender are required for a new profile")
		}
		current = &model.UserProfile{UserID: userID, ActivityLevel: model.ActivityModerate}
	}

	p := merge(*current, in)
	p.BMI = CalculateBMI(p.Weight, p.Height)
	p.DailyCalories = CalculateDailyCalories(p.Weight, p.Height, p.Age, p.Gender, p.ActivityLevel)
	p.UpdatedAt = time.Now()

	if err := s.repo.Upsert(ctx, &p); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	slog.Info("profile saved",
		slog.String("user_id", userID),
		slog.Int("daily_calories", p.DailyCalories),
	)
	return &p, nil
}

func merge(p model.UserProfile, in Input) model.UserProfile {
	if in.Weight != nil {
		p.Weight = *in.Weight
	}
	if in.Height != nil {
		p.Height = *in.Height
	}
	if in.Age != nil {
		p.Age = *in.Age
	}
	if in.Gender != nil {
		p.Gender = *in.Gender
	}
	if in.ActivityLevel != nil {
		p.ActivityLevel = *in.ActivityLevel
	}
	return p
}

func validate(in Input) error {
	err := inputValidator.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return model.NewInvalidProfileError(err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return model.NewInvalidProfileError(strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.StructField() {
	case "Weight":
		return fmt.Sprintf("weight must be between %g and %g kg", MinWeight, MaxWeight)
	case "Height":
		return fmt.Sprintf("height must be between %g and %g cm", MinHeight, MaxHeight)
	case "Age":
		return fmt.Sprintf("age must be between %d and %d", MinAge, MaxAge)
	case "Gender":
		return "gender must be male, female or other"
	case "ActivityLevel":
		return "activity_level must be sedentary, light, moderate, active or very_active"
	default:
		return fmt.Sprintf("%s is invalid", strings.ToLower(fe.Field()))
	}
}
