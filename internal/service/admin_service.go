package service

import (
	"consumerai-go/internal/apperr"
	"consumerai-go/internal/model"
	"consumerai-go/internal/repository"
)

// UserPage 是分页查询用户的结果。
type UserPage struct {
	Users    []model.User `json:"users"`
	Total    int64        `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"pageSize"`
}

// AdminService 接口定义了管理端的业务操作。
type AdminService interface {
	ListUsers(page, pageSize int) (*UserPage, error)
}

// adminService 是 AdminService 接口的实现。
type adminService struct {
	userRepo repository.UserRepository
}

// NewAdminService 创建一个新的 AdminService 实例。
func NewAdminService(userRepo repository.UserRepository) AdminService {
	return &adminService{userRepo: userRepo}
}

// ListUsers 分页返回用户列表。
func (s *adminService) ListUsers(page, pageSize int) (*UserPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	offset := (page - 1) * pageSize
	users, total, err := s.userRepo.FindWithPagination(offset, pageSize)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "获取用户列表失败", err)
	}

	return &UserPage{
		Users:    users,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}
