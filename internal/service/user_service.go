// Package service 包含了应用的核心业务逻辑。
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"consumerai-go/internal/apperr"
	"consumerai-go/internal/model"
	"consumerai-go/internal/repository"
	"consumerai-go/pkg/hash"
	"consumerai-go/pkg/log"
	"consumerai-go/pkg/token"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// TokenPair 是一次登录或刷新返回的令牌对。
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// UserService 接口定义了用户相关的业务操作。
type UserService interface {
	Register(username, password, email string) (*model.User, error)
	Login(username, password string) (*model.User, *TokenPair, error)
	GetProfile(userID uint) (*model.User, error)
	// Logout 将 access token 加入黑名单直至其自然过期。
	Logout(ctx context.Context, tokenString string) error
	RefreshToken(refreshToken string) (*TokenPair, error)
	IsTokenBlacklisted(ctx context.Context, tokenString string) bool
	MarkPro(userID uint) error
}

// userService 是 UserService 接口的实现。
type userService struct {
	userRepo   repository.UserRepository
	jwtManager *token.JWTManager
	rdb        *redis.Client
}

// NewUserService 创建一个新的 UserService 实例。
func NewUserService(userRepo repository.UserRepository, jwtManager *token.JWTManager, rdb *redis.Client) UserService {
	return &userService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
		rdb:        rdb,
	}
}

// Register 注册一个新用户。用户名重复时返回 Conflict。
func (s *userService) Register(username, password, email string) (*model.User, error) {
	if username == "" || password == "" {
		return nil, apperr.New(apperr.Validation, "用户名和密码不能为空")
	}

	if _, err := s.userRepo.FindByUsername(username); err == nil {
		return nil, apperr.New(apperr.Conflict, "用户名已存在")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Wrap(apperr.Internal, "注册失败", err)
	}

	hashed, err := hash.HashPassword(password)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "注册失败", err)
	}

	user := &model.User{
		Username: username,
		Password: hashed,
		Email:    email,
		Role:     "USER",
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "注册失败", err)
	}

	log.Infof("新用户注册成功: %s (id=%d)", username, user.ID)
	return user, nil
}

// Login 校验凭证并签发令牌对。
// 用户不存在与密码错误返回同一消息，避免泄露账号存在性。
func (s *userService) Login(username, password string) (*model.User, *TokenPair, error) {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.New(apperr.Unauthorized, "用户名或密码错误")
		}
		return nil, nil, apperr.Wrap(apperr.Internal, "登录失败", err)
	}

	if !hash.CheckPasswordHash(password, user.Password) {
		return nil, nil, apperr.New(apperr.Unauthorized, "用户名或密码错误")
	}

	pair, err := s.issueTokenPair(user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// GetProfile 返回用户资料。
func (s *userService) GetProfile(userID uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "用户不存在")
		}
		return nil, apperr.Wrap(apperr.Internal, "获取用户信息失败", err)
	}
	return user, nil
}

// Logout 将 token 写入 Redis 黑名单，TTL 与 token 剩余有效期一致。
func (s *userService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.jwtManager.VerifyToken(tokenString)
	if err != nil {
		// 无效或已过期的 token 不需要进黑名单
		return nil
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}

	key := blacklistKey(tokenString)
	if err := s.rdb.Set(ctx, key, "1", ttl).Err(); err != nil {
		return apperr.Wrap(apperr.Internal, "退出登录失败", err)
	}
	return nil
}

// RefreshToken 用 refresh token 换取新的令牌对。
func (s *userService) RefreshToken(refreshToken string) (*TokenPair, error) {
	claims, err := s.jwtManager.VerifyToken(refreshToken)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unauthorized, "刷新令牌无效或已过期", err)
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.Unauthorized, "用户不存在")
		}
		return nil, apperr.Wrap(apperr.Internal, "刷新令牌失败", err)
	}

	return s.issueTokenPair(user)
}

// IsTokenBlacklisted 检查 token 是否在黑名单中。
// Redis 异常时保守放行，由 token 本身的签名与过期时间兜底。
func (s *userService) IsTokenBlacklisted(ctx context.Context, tokenString string) bool {
	n, err := s.rdb.Exists(ctx, blacklistKey(tokenString)).Result()
	if err != nil {
		log.Errorf("检查 token 黑名单失败: %v", err)
		return false
	}
	return n > 0
}

// MarkPro 将用户标记为 Pro 会员。
func (s *userService) MarkPro(userID uint) error {
	if err := s.userRepo.MarkPro(userID); err != nil {
		return apperr.Wrap(apperr.Internal, "更新会员状态失败", err)
	}
	return nil
}

func (s *userService) issueTokenPair(user *model.User) (*TokenPair, error) {
	accessToken, err := s.jwtManager.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "生成令牌失败", err)
	}
	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "生成令牌失败", err)
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func blacklistKey(tokenString string) string {
	return fmt.Sprintf("jwt:blacklist:%s", tokenString)
}
