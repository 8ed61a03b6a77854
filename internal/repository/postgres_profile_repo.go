package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/mindfulbite/internal/model"
)

// PostgresProfileRepo はPostgreSQLを使用した健康プロフィールリポジトリ。
type PostgresProfileRepo struct {
	db *sql.DB
}

// NewPostgresProfileRepo はPostgresProfileRepoを生成する。
func NewPostgresProfileRepo(db *sql.DB) *PostgresProfileRepo {
	return &PostgresProfileRepo{db: db}
}

// FindByUserID はユーザーのプロフィールを取得する。未登録の場合はnilを返す。
func (r *PostgresProfileRepo) FindByUserID(ctx context.Context, userID string) (*model.UserProfile, error) {
	p := &model.UserProfile{}
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, weight, height, age, gender, activity_level, bmi, daily_calories, updated_at
		 FROM user_profiles
		 WHERE user_id = $1`,
		userID,
	).Scan(&p.UserID, &p.Weight, &p.Height, &p.Age, &p.Gender, &p.ActivityLevel, &p.BMI, &p.DailyCalories, &p.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}
	return p, nil
}

// Upsert はプロフィールを作成または更新する。
func (r *PostgresProfileRepo) Upsert(ctx context.Context, p *model.UserProfile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_profiles (user_id, weight, height, age, gender, activity_level, bmi, daily_calories, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (user_id) DO UPDATE SET
		   weight = EXCLUDED.weight,
		   height = EXCLUDED.height,
		   age = EXCLUDED.age,
		   gender = EXCLUDED.gender,
		   activity_level = EXCLUDED.activity_level,
		   bmi = EXCLUDED.bmi,
		   daily_calories = EXCLUDED.daily_calories,
		   updated_at = EXCLUDED.updated_at`,
		p.UserID, p.Weight, p.Height, p.Age, p.Gender, p.ActivityLevel, p.BMI, p.DailyCalories, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

// DeleteByUserID はユーザーのプロフィールを削除する。
func (r *PostgresProfileRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM user_profiles WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ProfileRepository = (*PostgresProfileRepo)(nil)
