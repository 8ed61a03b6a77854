package handler

import (
	"github.com/hitoshi/mindfulbite/internal/auth"
	"github.com/hitoshi/mindfulbite/internal/nutrition"
	"github.com/hitoshi/mindfulbite/internal/profile"
	"github.com/hitoshi/mindfulbite/internal/usda"
	"github.com/hitoshi/mindfulbite/internal/user"
)

// ドメインサービスはアダプタなしでハンドラーのインターフェースを満たす。

// --- compile-time interface checks ---

var _ AuthServiceInterface = (*auth.Service)(nil)
var _ NutritionServiceInterface = (*nutrition.Service)(nil)
var _ FoodDataSearcher = (*usda.Client)(nil)
var _ ProfileServiceInterface = (*profile.Service)(nil)
var _ UserServiceInterface = (*user.Service)(nil)
