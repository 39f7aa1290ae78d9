package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"sparkshop/internal/domain/model"
	"sparkshop/internal/repository"
)

// パスワードの最小文字数
const minPasswordLength = 8

// usersテーブルで完結するローカル認証
type LocalAuthenticator struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	verifier PasswordVerifier
	issuer   AccessTokenIssuer
	idGen    IDGenerator
	clock    Clock
}

var _ Authenticator = (*LocalAuthenticator)(nil)

// DI
func NewLocalAuthenticator(
	userRepo repository.UserRepository,
	hasher PasswordHasher,
	verifier PasswordVerifier,
	issuer AccessTokenIssuer,
	idGen IDGenerator,
	clock Clock,
) *LocalAuthenticator {
	return &LocalAuthenticator{
		userRepo: userRepo,
		hasher:   hasher,
		verifier: verifier,
		issuer:   issuer,
		idGen:    idGen,
		clock:    clock,
	}
}

// 会員登録してそのままログイン状態にする
func (a *LocalAuthenticator) SignUp(ctx context.Context, email, password string) (AuthResult, error) {
	email = normalizeEmail(email)

	// emailの形式チェック
	if !isValidEmailFormat(email) {
		return AuthResult{}, ErrInvalidEmailFormat
	}

	// passwordの長さチェック
	if len(password) < minPasswordLength {
		return AuthResult{}, ErrPasswordTooShort
	}

	// よくある弱いパスワードの拒否
	if isWeakPassword(password) {
		return AuthResult{}, ErrWeakPassword
	}

	// email重複チェック
	existing, err := a.userRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return AuthResult{}, ErrEmailAlreadyExists
	}
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return AuthResult{}, err
	}

	hashed, err := a.hasher.Hash(password)
	if err != nil {
		return AuthResult{}, err
	}

	now := a.clock.Now()
	user := &model.User{
		ID:           a.idGen.NewID(),
		Email:        email,
		PasswordHash: hashed, // 平文は保存しない
		DisplayName:  DisplayNameFromEmail(email),
		LastLoginAt:  &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.userRepo.Create(ctx, user); err != nil {
		//FindByEmailの後に別の登録が入った
		if errors.Is(err, repository.ErrUserExists) {
			return AuthResult{}, ErrEmailAlreadyExists
		}
		return AuthResult{}, err
	}

	return a.issue(user)
}

// ログイン
func (a *LocalAuthenticator) SignIn(ctx context.Context, email, password string) (AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return AuthResult{}, ErrInvalidCredentials
	}

	user, err := a.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}

	//パスワード照合
	if ok := a.verifier.Verify(password, user.PasswordHash); !ok {
		return AuthResult{}, ErrInvalidCredentials
	}

	//最終ログイン時刻更新
	now := a.clock.Now()
	user.LastLoginAt = &now
	if err := a.userRepo.Update(ctx, user); err != nil {
		return AuthResult{}, err
	}

	return a.issue(user)
}

func (a *LocalAuthenticator) issue(user *model.User) (AuthResult, error) {
	token, exp, err := a.issuer.Issue(user.ID, a.clock.Now())
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{
		DisplayName: user.DisplayName,
		Token:       token,
		ExpiresAt:   exp,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// メールチェック
func isValidEmailFormat(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// よくある弱いパスワード
func isWeakPassword(password string) bool {
	normalized := strings.ToLower(strings.TrimSpace(password))

	weak := map[string]struct{}{
		"password":     {},
		"password123":  {},
		"123456789012": {},
		"1234567890":   {},
		"12345678":     {},
		"qwertyuiop":   {},
		"letmein123":   {},
		"admin123":     {},
	}

	_, ok := weak[normalized]
	return ok
}
