package httptransport

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"aliasbot/backend/internal/domain"
	"aliasbot/backend/internal/middleware"
	"aliasbot/backend/internal/service"
	"aliasbot/backend/internal/storage"
)

// IdentityHandler 身份相关接口处理器
type IdentityHandler struct {
	identities *service.IdentityService
}

// NewIdentityHandler 创建身份处理器
func NewIdentityHandler(identities *service.IdentityService) *IdentityHandler {
	return &IdentityHandler{identities: identities}
}

type identityResponse struct {
	ID            int64     `json:"id"`
	BaseAddress   string    `json:"baseAddress,omitempty"`
	CatchAll      bool      `json:"catchAll"`
	AcceptedTerms bool      `json:"acceptedTerms"`
	CreatedAt     time.Time `json:"createdAt"`
}

type setBaseAddressRequest struct {
	Address string `json:"address" binding:"required"`
}

type setBaseAddressResponse struct {
	BaseAddress string `json:"baseAddress"`
	DomainClass string `json:"domainClass"` // gmail_like 或 generic
}

type catchAllResponse struct {
	CatchAll bool `json:"catchAll"`
}

// acceptTerms godoc
// @Summary 接受使用条款
// @Description 标记调用方身份已接受使用条款，首次调用时创建身份
// @Tags Identity
// @Produce json
// @Param X-Identity-ID header string true "身份ID"
// @Success 204
// @Failure 500 {object} Response
// @Router /v1/identity/terms [post]
func (h *IdentityHandler) acceptTerms(c *gin.Context) {
	identityID, _ := middleware.IdentityID(c)

	if err := h.identities.AcceptTerms(identityID); err != nil {
		InternalError(c, MsgAcceptTermsFailed)
		return
	}

	NoContent(c)
}

// getIdentity godoc
// @Summary 获取身份信息
// @Description 返回身份的基础地址、catch-all 与条款状态
// @Tags Identity
// @Produce json
// @Param X-Identity-ID header string true "身份ID"
// @Success 200 {object} identityResponse
// @Failure 404 {object} Response
// @Failure 500 {object} Response
// @Router /v1/identity [get]
func (h *IdentityHandler) getIdentity(c *gin.Context) {
	identityID, _ := middleware.IdentityID(c)

	identity, err := h.identities.Get(identityID)
	if err != nil {
		if errors.Is(err, storage.ErrIdentityNotFound) {
			NotFound(c, GetErrorMessage(service.ErrTermsNotAccepted))
			return
		}
		InternalError(c, MsgIdentityGetFailed)
		return
	}

	Success(c, toIdentityResponse(identity))
}

// setBaseAddress godoc
// @Summary 设置基础邮箱地址
// @Description 校验并保存基础地址，返回域名分类
// @Tags Identity
// @Accept json
// @Produce json
// @Param X-Identity-ID header string true "身份ID"
// @Param request body setBaseAddressRequest true "基础地址"
// @Success 200 {object} setBaseAddressResponse
// @Failure 400 {object} Response
// @Failure 403 {object} Response
// @Failure 500 {object} Response
// @Router /v1/identity/base-address [put]
func (h *IdentityHandler) setBaseAddress(c *gin.Context) {
	identityID, _ := middleware.IdentityID(c)

	var req setBaseAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	class, err := h.identities.SetBaseAddress(identityID, req.Address)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTermsNotAccepted):
			Forbidden(c, GetErrorMessage(err))
		case errors.Is(err, domain.ErrInvalidAddress),
			errors.Is(err, domain.ErrAddressTooLong),
			errors.Is(err, domain.ErrLocalPartTooLong),
			errors.Is(err, domain.ErrDomainTooLong):
			BadRequest(c, GetErrorMessage(err))
		default:
			InternalError(c, MsgSetBaseFailed)
		}
		return
	}

	identity, err := h.identities.Get(identityID)
	if err != nil {
		InternalError(c, MsgIdentityGetFailed)
		return
	}

	Success(c, setBaseAddressResponse{
		BaseAddress: identity.BaseAddress,
		DomainClass: string(class),
	})
}

// toggleCatchAll godoc
// @Summary 切换 catch-all 状态
// @Description 翻转身份的 catch-all 标志并返回新状态
// @Tags Identity
// @Produce json
// @Param X-Identity-ID header string true "身份ID"
// @Success 200 {object} catchAllResponse
// @Failure 403 {object} Response
// @Failure 500 {object} Response
// @Router /v1/identity/catch-all [post]
func (h *IdentityHandler) toggleCatchAll(c *gin.Context) {
	identityID, _ := middleware.IdentityID(c)

	enabled, err := h.identities.ToggleCatchAll(identityID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTermsNotAccepted),
			errors.Is(err, service.ErrBaseAddressNotSet):
			Forbidden(c, GetErrorMessage(err))
		default:
			InternalError(c, MsgToggleCatchAllFailed)
		}
		return
	}

	Success(c, catchAllResponse{CatchAll: enabled})
}

// toIdentityResponse 转换实体为响应体。
func toIdentityResponse(identity *domain.Identity) identityResponse {
	return identityResponse{
		ID:            identity.ID,
		BaseAddress:   identity.BaseAddress,
		CatchAll:      identity.CatchAll,
		AcceptedTerms: identity.AcceptedTerms,
		CreatedAt:     identity.CreatedAt,
	}
}
