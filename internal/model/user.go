// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	IsActive     bool
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// 性別
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// 活動レベル
const (
	ActivitySedentary  = "sedentary"
	ActivityLight      = "light"
	ActivityModerate   = "moderate"
	ActivityActive     = "active"
	ActivityVeryActive = "very_active"
)

// UserProfile はユーザーの健康プロフィールを表す。
// BMIと1日の目標カロリーは保存時に算出される。
type UserProfile struct {
	UserID        string
	Weight        float64 // kg
	Height        float64 // cm
	Age           int
	Gender        string
	ActivityLevel string
	BMI           float64
	DailyCalories int
	UpdatedAt     time.Time
}
