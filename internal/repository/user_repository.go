package repository

import (
	"context"
	"errors"

	"sparkshop/internal/domain/model"
)

// ユーザーが見つかりませんを統一
var ErrUserNotFound = errors.New("user not found")

// 同じemailのユーザーが既にいる（同時登録の競合）
var ErrUserExists = errors.New("user already exists")

// 保存・取得を約束
type UserRepository interface {
	//新規ユーザー作成。emailが重複したらErrUserExists
	Create(ctx context.Context, user *model.User) error
	//メールからユーザーを一件取得する。無ければErrUserNotFound
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// 最後のログインなどの更新
	Update(ctx context.Context, user *model.User) error
}
