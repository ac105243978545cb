package service

import (
	"fmt"

	"aliasbot/backend/internal/domain"
	"aliasbot/backend/internal/storage"
)

// AdminService 管理统计服务。
type AdminService struct {
	admin storage.AdminRepository
}

// NewAdminService 创建管理统计服务。
func NewAdminService(admin storage.AdminRepository) *AdminService {
	return &AdminService{admin: admin}
}

// Statistics 返回全局统计快照。
func (s *AdminService) Statistics() (*domain.Statistics, error) {
	stats, err := s.admin.GetStatistics()
	if err != nil {
		return nil, fmt.Errorf("failed to collect statistics: %w", err)
	}
	return stats, nil
}
