package httptransport

import (
	"github.com/gin-gonic/gin"

	"aliasbot/backend/internal/service"
)

// AdminHandler 管理接口处理器
type AdminHandler struct {
	admin *service.AdminService
}

// NewAdminHandler 创建管理处理器
func NewAdminHandler(admin *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// getStatistics godoc
// @Summary 获取系统统计
// @Description 返回身份与别名的全局统计快照，仅管理身份可访问
// @Tags Admin
// @Produce json
// @Param X-Identity-ID header string true "身份ID（需在管理白名单中）"
// @Success 200 {object} domain.Statistics
// @Failure 403 {object} Response
// @Failure 500 {object} Response
// @Router /v1/admin/statistics [get]
func (h *AdminHandler) getStatistics(c *gin.Context) {
	stats, err := h.admin.Statistics()
	if err != nil {
		InternalError(c, MsgStatisticsGetFailed)
		return
	}

	Success(c, stats)
}
