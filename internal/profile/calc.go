// Package profile はユーザーの健康プロフィール（BMI・1日の目標カロリー）を扱う。
package profile

import (
	"math"

	"github.com/hitoshi/mindfulbite/internal/model"
)

// activityMultipliers は活動レベルごとの係数。未知の値はmoderate扱い。
var activityMultipliers = map[string]float64{
	model.ActivitySedentary:  1.2,
	model.ActivityLight:      1.375,
	model.ActivityModerate:   1.55,
	model.ActivityActive:     1.725,
	model.ActivityVeryActive: 1.9,
}

const defaultActivityMultiplier = 1.55

// CalculateBMI は体重(kg)と身長(cm)からBMIを算出し、小数第1位に丸める。
// いずれかが0以下の場合は0を返す。
func CalculateBMI(weightKg, heightCm float64) float64 {
	if weightKg <= 0 || heightCm <= 0 {
		return 0
	}
	h := heightCm / 100
	return math.Round(weightKg/(h*h)*10) / 10
}

// CalculateDailyCalories はMifflin-St Jeor式で基礎代謝を求め、活動係数を掛けた
// 1日の目標カロリーを整数に丸めて返す。male以外は女性の式を用いる。
func CalculateDailyCalories(weightKg, heightCm float64, age int, gender, activityLevel string) int {
	bmr := 10*weightKg + 6.25*heightCm - 5*float64(age)
	if gender == model.GenderMale {
		bmr += 5
	} else {
		bmr -= 161
	}

	multiplier, ok := activityMultipliers[activityLevel]
	if !ok {
		multiplier = defaultActivityMultiplier
	}
	return int(math.Round(bmr * multiplier))
}

// BMICategory はBMI値の区分名を返す。0以下の場合は空文字を返す。
func BMICategory(bmi float64) string {
	switch {
	case bmi <= 0:
		return ""
	case bmi < 18.5:
		return "underweight"
	case bmi < 25:
		return "normal"
	case bmi < 30:
		return "overweight"
	default:
		return "obese"
	}
}
