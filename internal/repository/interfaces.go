// Package repository はデータ永続化のインターフェースとPostgreSQL実装を提供する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/mindfulbite/internal/model"
)

// ErrDuplicate は一意制約違反を表す。
var ErrDuplicate = errors.New("duplicate key")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成する。ユーザー名またはメールアドレスが重複する場合はErrDuplicateを返す。
	Create(ctx context.Context, user *model.User) error
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)
	// FindByUsernameOrEmail はユーザー名またはメールアドレスでユーザーを取得する。見つからない場合はnilを返す。
	FindByUsernameOrEmail(ctx context.Context, identifier string) (*model.User, error)
	// UpdateLastLogin は最終ログイン日時を更新する。
	UpdateLastLogin(ctx context.Context, id string) error
	// DeleteByID は指定IDのユーザーを削除する。
	DeleteByID(ctx context.Context, id string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れまたは見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
	// DeleteExpiredByUserID は指定ユーザーの期限切れセッションを削除する。
	DeleteExpiredByUserID(ctx context.Context, userID string) error
}

// ProfileRepository は健康プロフィールの永続化インターフェース。
type ProfileRepository interface {
	// FindByUserID はユーザーのプロフィールを取得する。未登録の場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.UserProfile, error)
	// Upsert はプロフィールを作成または更新する。
	Upsert(ctx context.Context, profile *model.UserProfile) error
	// DeleteByUserID はユーザーのプロフィールを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}
