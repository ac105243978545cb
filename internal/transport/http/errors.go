package httptransport

import (
	"errors"

	"aliasbot/backend/internal/domain"
	"aliasbot/backend/internal/generator"
	"aliasbot/backend/internal/service"
)

// 错误消息映射表（业务错误 -> 中文消息）
var errorMessages = map[error]string{
	// 地址校验错误
	domain.ErrInvalidAddress:   "邮箱地址格式无效",
	domain.ErrAddressTooLong:   "邮箱地址超过长度限制",
	domain.ErrLocalPartTooLong: "邮箱本地部分超过长度限制",
	domain.ErrDomainTooLong:    "邮箱域名超过长度限制",

	// 身份状态错误
	service.ErrTermsNotAccepted:  "请先接受使用条款",
	service.ErrBaseAddressNotSet: "请先设置基础邮箱地址",

	// 别名生成错误
	service.ErrUnknownStrategy:  "未知的生成策略",
	service.ErrCountOutOfRange:  "生成数量超出允许范围",
	service.ErrCatchAllRequired: "custom 策略需要先开启 catch-all",
	service.ErrQuotaExceeded:    "请求过于频繁，请稍后再试",

	// 生成器错误
	generator.ErrLocalPartTooLongForEnumeration: "本地部分过长，无法枚举全部变体",
}

// GetErrorMessage 获取错误的中文消息，支持包装过的错误
func GetErrorMessage(err error) string {
	for sentinel, msg := range errorMessages {
		if errors.Is(err, sentinel) {
			return msg
		}
	}
	return err.Error()
}

// 通用错误消息
const (
	// 请求相关
	MsgInvalidRequest = "请求参数格式错误"

	// 身份相关
	MsgIdentityGetFailed    = "获取身份信息失败"
	MsgAcceptTermsFailed    = "接受条款失败"
	MsgSetBaseFailed        = "设置基础地址失败"
	MsgToggleCatchAllFailed = "切换 catch-all 状态失败"

	// 别名相关
	MsgAliasGenerateFailed = "生成别名失败"
	MsgAliasListFailed     = "获取别名列表失败"
	MsgAliasNotFound       = "别名不存在"
	MsgAliasDeleteFailed   = "删除别名失败"
	MsgAliasExportFailed   = "导出别名失败"

	// 管理相关
	MsgStatisticsGetFailed = "获取统计数据失败"

	// 服务器错误
	MsgInternalError = "服务器内部错误，请稍后重试"
)
