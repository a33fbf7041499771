package service

import (
	"context"
	"time"

	"post_market/internal/domain/user/model"
	"post_market/internal/domain/user/repository"
	"post_market/pkg/apperr"
	"post_market/pkg/database"
	baseModel "post_market/pkg/model"
	"post_market/pkg/response"
	"post_market/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

// AuthResult 登录/注册返回
type AuthResult struct {
	Token    string      `json:"token"`
	ExpireAt *time.Time  `json:"expireAt"`
	User     *model.User `json:"user"`
}

// UserService 用户服务接口
type UserService interface {
	Signup(ctx context.Context, username, password string) (*AuthResult, error)
	Login(ctx context.Context, username, password string) (*AuthResult, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// userService 实现
type userService struct {
	repo       repository.UserRepository
	bcryptCost int
}

// NewUserService 创建用户服务
func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo, bcryptCost: bcrypt.DefaultCost}
}

var (
	errUserExists   = apperr.Conflict(response.ErrUserExists, "username already exists")
	errBadLogin     = apperr.Unauthorized(response.ErrAuthFailed, "invalid username or password")
	errUserDeleted  = apperr.Forbidden(response.ErrUserDeleted, "account has been deleted")
	errUserNotFound = apperr.NotFound(response.ErrUserNotFound, "user not found")
)

// Signup 注册并返回 token
func (s *userService) Signup(ctx context.Context, username, password string) (*AuthResult, error) {
	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return nil, errUserExists
	} else if !database.IsNotFound(err) {
		return nil, apperr.Internal(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	user := &model.User{
		Username: username,
		Password: string(hash),
		Status:   baseModel.StatusActive,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		// 并发注册同名用户时由唯一索引兜底
		if database.IsUniqueViolation(err) {
			return nil, errUserExists
		}
		return nil, apperr.Internal(err)
	}

	return s.issueToken(user)
}

// Login 用户名密码登录
func (s *userService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, errBadLogin
		}
		return nil, apperr.Internal(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, errBadLogin
	}
	if !user.IsActive() {
		return nil, errUserDeleted
	}

	return s.issueToken(user)
}

func (s *userService) issueToken(user *model.User) (*AuthResult, error) {
	token, expireAt, err := utils.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &AuthResult{Token: token, ExpireAt: expireAt, User: user}, nil
}

// GetUser 获取单个用户，已注销用户视为不存在
func (s *userService) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, errUserNotFound
		}
		return nil, apperr.Internal(err)
	}
	if !user.IsActive() {
		return nil, errUserNotFound
	}
	return user, nil
}

// DeleteUser 注销用户（软删除）
func (s *userService) DeleteUser(ctx context.Context, id string) error {
	if _, err := s.GetUser(ctx, id); err != nil {
		return err
	}
	if err := s.repo.UpdateStatus(ctx, id, baseModel.StatusDeleted); err != nil {
		return apperr.Internal(err)
	}
	return nil
}
