package handler

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hitoshi/mindfulbite/internal/model"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// validate はリクエストボディの検証器。エラー上のフィールド名はJSONタグ名になる。
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// username: 英数字とアンダースコアのみ
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	return v
}

// registerRequest は POST /api/register のリクエストボディ。
type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50,username"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// loginRequest は POST /api/login のリクエストボディ。usernameにはメールアドレスも指定できる。
type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// profileRequest は POST /api/profile のリクエストボディ。省略したフィールドは保存済みの値を維持する。
// 範囲と選択肢はprofile.Inputのvalidateタグで検証され、INVALID_PROFILEとして返る。
type profileRequest struct {
	Weight        *float64 `json:"weight"`
	Height        *float64 `json:"height"`
	Age           *int     `json:"age"`
	Gender        *string  `json:"gender"`
	ActivityLevel *string  `json:"activity_level"`
}

// validateRequest は構造体を検証し、失敗時はINVALID_REQUESTのAPIErrorを返す。
func validateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return model.NewInvalidRequestError(err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, formatFieldError(fe))
	}
	return model.NewInvalidRequestError(strings.Join(msgs, "; "))
}

func formatFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "username":
		return fmt.Sprintf("%s may contain only letters, digits and underscores", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
