package service

import (
	"strings"
	"time"

	"lms_backend/internal/config"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	UserRepo *repository.UserRepository
	Cfg      *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo: userRepo,
		Cfg:      cfg,
	}
}

type LoginResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

func (s *AuthService) Login(email, password string) (*LoginResult, error) {
	user, err := s.UserRepo.FindByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrInvalidCredentials
		}
		return nil, err
	}
	if user.Disabled {
		return nil, util.ErrForbidden
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, util.ErrInvalidCredentials
	}

	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}
	if err := s.UserRepo.UpdateLastLogin(user.ID, time.Now()); err != nil {
		logger.Log.Warn("update last login failed", zap.Uint("user_id", user.ID), zap.Error(err))
	}
	return &LoginResult{Token: token, User: user}, nil
}

func (s *AuthService) CurrentUser(userID uint) (*model.User, error) {
	user, err := s.UserRepo.FindUser(userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// EnsureAdmin 系统中没有管理员时，按配置创建初始管理员
func (s *AuthService) EnsureAdmin(cfg config.AdminConfig) error {
	if cfg.Email == "" || cfg.Password == "" {
		return nil
	}
	n, err := s.UserRepo.CountAdmins()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := &model.User{
		Name:     cfg.Name,
		Email:    strings.ToLower(cfg.Email),
		Password: string(hashed),
		Role:     model.Admin,
	}
	if err := s.UserRepo.Create(admin); err != nil {
		return err
	}
	logger.Log.Info("bootstrap admin created", zap.String("email", admin.Email))
	return nil
}
