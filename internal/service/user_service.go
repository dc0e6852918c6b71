package service

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"

	"golang.org/x/crypto/bcrypt"
)

// UserService 后台用户管理
type UserService struct {
	UserRepo *repository.UserRepository
}

func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{
		UserRepo: userRepo,
	}
}

type CreateUserInput struct {
	Name     string         `json:"name" validate:"required,max=100"`
	Email    string         `json:"email" validate:"required,email,max=100"`
	Password string         `json:"password" validate:"required,min=8,max=72"`
	Role     model.UserRole `json:"role" validate:"required,oneof=learner instructor admin"`
}

// CreateUser 管理员创建账号（系统不开放自助注册）
func (s *UserService) CreateUser(in CreateUserInput) (*model.User, error) {
	if err := util.ValidateStruct(in); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := s.UserRepo.FindByEmail(email); err == nil {
		return nil, util.ErrEmailRegistered
	} else if !repository.IsNotFound(err) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Name:     strings.TrimSpace(in.Name),
		Email:    email,
		Password: string(hashed),
		Role:     in.Role,
	}
	if err := s.UserRepo.Create(user); err != nil {
		if repository.IsDuplicate(err) {
			return nil, util.ErrEmailRegistered
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetUsers(role model.UserRole, keyword string, page, limit int) ([]model.User, int64, error) {
	return s.UserRepo.List(role, keyword, page, limit)
}

func (s *UserService) GetUserByID(id uint) (*model.User, error) {
	user, err := s.UserRepo.FindUser(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

type UpdateUserInput struct {
	Name     string         `json:"name" validate:"required,max=100"`
	Role     model.UserRole `json:"role" validate:"required,oneof=learner instructor admin"`
	Disabled bool           `json:"disabled"`
}

func (s *UserService) UpdateUser(id uint, in UpdateUserInput) (*model.User, error) {
	if err := util.ValidateStruct(in); err != nil {
		return nil, err
	}
	user, err := s.GetUserByID(id)
	if err != nil {
		return nil, err
	}
	user.Name = strings.TrimSpace(in.Name)
	user.Role = in.Role
	user.Disabled = in.Disabled
	if err := s.UserRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// ResetPassword 生成临时密码并返回明文，只展示一次
func (s *UserService) ResetPassword(id uint) (string, error) {
	user, err := s.GetUserByID(id)
	if err != nil {
		return "", err
	}
	temp, err := generateTempPassword()
	if err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(temp), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	user.Password = string(hashed)
	if err := s.UserRepo.Update(user); err != nil {
		return "", err
	}
	return temp, nil
}

func generateTempPassword() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "tmp" + hex.EncodeToString(b), nil
}
