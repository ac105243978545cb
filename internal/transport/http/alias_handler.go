package httptransport

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"aliasbot/backend/internal/domain"
	"aliasbot/backend/internal/middleware"
	"aliasbot/backend/internal/monitoring"
	"aliasbot/backend/internal/service"
)

// AliasHandler 别名相关接口处理器
type AliasHandler struct {
	aliases *service.AliasService
	metrics *monitoring.Metrics
}

// NewAliasHandler 创建别名处理器。metrics 可为 nil（未启用监控时）。
func NewAliasHandler(aliases *service.AliasService, metrics *monitoring.Metrics) *AliasHandler {
	return &AliasHandler{
		aliases: aliases,
		metrics: metrics,
	}
}

type generateAliasRequest struct {
	Strategy    string  `json:"strategy" binding:"required"`
	Count       int     `json:"count" binding:"required"`
	Label       *string `json:"label"`
	BaseAddress string  `json:"baseAddress"` // 可选，仅本次生成生效
}

type aliasResponse struct {
	ID          string    `json:"id"`
	Address     string    `json:"address"`
	BaseAddress string    `json:"baseAddress"`
	Label       *string   `json:"label,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type aliasListResponse struct {
	Items []aliasResponse `json:"items"`
	Count int             `json:"count"`
}

// generateAliases godoc
// @Summary 生成别名
// @Description 按指定策略生成若干别名并持久化
// @Tags Aliases
// @Accept json
// @Produce json
// @Param X-Identity-ID header string true "身份ID"
// @Param request body generateAliasRequest true "生成参数"
// @Success 201 {object} aliasListResponse
// @Failure 400 {object} Response
// @Failure 403 {object} Response
// @Failure 429 {object} Response
// @Failure 500 {object} Response
// @Router /v1/aliases [post]
func (h *AliasHandler) generateAliases(c *gin.Context) {
	identityID, _ := middleware.IdentityID(c)

	var req generateAliasRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	aliases, err := h.aliases.Generate(service.GenerateInput{
		IdentityID:          identityID,
		Strategy:            req.Strategy,
		Count:               req.Count,
		Label:               req.Label,
		BaseAddressOverride: req.BaseAddress,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTermsNotAccepted),
			errors.Is(err, service.ErrBaseAddressNotSet),
			errors.Is(err, service.ErrCatchAllRequired):
			Forbidden(c, GetErrorMessage(err))
		case errors.Is(err, service.ErrUnknownStrategy),
			errors.Is(err, service.ErrCountOutOfRange),
			errors.Is(err, domain.ErrInvalidAddress),
			errors.Is(err, domain.ErrAddressTooLong),
			errors.Is(err, domain.ErrLocalPartTooLong),
			errors.Is(err, domain.ErrDomainTooLong):
			BadRequest(c, GetErrorMessage(err))
		case errors.Is(err, service.ErrQuotaExceeded):
			TooManyRequests(c, GetErrorMessage(err))
		default:
			InternalError(c, MsgAliasGenerateFailed)
		}
		return
	}

	if h.metrics != nil {
		h.metrics.RecordAliasesGenerated(req.Strategy, len(aliases))
	}

	Created(c, toAliasListResponse(aliases))
}

// listAliases godoc
// @Summary 获取别名列表
// @Description 按创建时间倒序返回身份的别名
// @Tags Aliases
// @Produce json
// @Param X-Identity-ID header string true "身份ID"
// @Param limit query int false "最大返回条数（默认50）"
// @Success 200 {object} aliasListResponse
// @Failure 500 {object} Response
// @Router /v1/aliases [get]
func (h *AliasHandler) listAliases(c *gin.Context) {
	identityID, _ := middleware.IdentityID(c)

	var query struct {
		Limit int `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	aliases, err := h.aliases.List(identityID, query.Limit)
	if err != nil {
		InternalError(c, MsgAliasListFailed)
		return
	}

	Success(c, toAliasListResponse(aliases))
}

// deleteAlias godoc
// @Summary 删除别名
// @Description 删除属于调用方身份的别名
// @Tags Aliases
// @Produce json
// @Param X-Identity-ID header string true "身份ID"
// @Param id path string true "别名ID"
// @Success 204
// @Failure 404 {object} Response
// @Failure 500 {object} Response
// @Router /v1/aliases/{id} [delete]
func (h *AliasHandler) deleteAlias(c *gin.Context) {
	identityID, _ := middleware.IdentityID(c)
	aliasID := c.Param("id")

	deleted, err := h.aliases.Delete(identityID, aliasID)
	if err != nil {
		InternalError(c, MsgAliasDeleteFailed)
		return
	}
	if !deleted {
		// 不区分"不存在"与"属于他人"，避免探测他人别名
		NotFound(c, MsgAliasNotFound)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordAliasDeleted()
	}

	NoContent(c)
}

// exportAliases godoc
// @Summary 导出别名
// @Description 导出身份的全部别名为 CSV 文件
// @Tags Aliases
// @Produce text/csv
// @Param X-Identity-ID header string true "身份ID"
// @Success 200 {file} binary
// @Failure 500 {object} Response
// @Router /v1/aliases/export [get]
func (h *AliasHandler) exportAliases(c *gin.Context) {
	identityID, _ := middleware.IdentityID(c)

	data, err := h.aliases.ExportCSV(identityID)
	if err != nil {
		InternalError(c, MsgAliasExportFailed)
		return
	}

	// CSV 导出不使用统一响应格式，直接返回文件
	filename := fmt.Sprintf("aliases-%d.csv", identityID)
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// toAliasListResponse 转换实体列表为响应体。
func toAliasListResponse(aliases []domain.Alias) aliasListResponse {
	items := make([]aliasResponse, 0, len(aliases))
	for i := range aliases {
		a := aliases[i]
		items = append(items, aliasResponse{
			ID:          a.ID,
			Address:     a.Address,
			BaseAddress: a.BaseAddress,
			Label:       a.Label,
			CreatedAt:   a.CreatedAt,
		})
	}
	return aliasListResponse{
		Items: items,
		Count: len(items),
	}
}
