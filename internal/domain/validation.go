package domain

import (
	"errors"
	"regexp"
	"strings"
)

// 验证相关的错误定义
var (
	ErrInvalidAddress   = errors.New("invalid email address format")
	ErrAddressTooLong   = errors.New("email address too long")
	ErrLocalPartTooLong = errors.New("local part too long (max 64 chars)")
	ErrDomainTooLong    = errors.New("domain too long (max 253 chars)")
)

// RFC 5322 邮箱地址长度限制
const (
	MaxAddressLength   = 254 // 整个邮箱地址最大长度
	MaxLocalPartLength = 64  // 本地部分最大长度(@前面)
	MaxDomainLength    = 253 // 域名最大长度
)

// DomainClass 域名分类，仅用于生成策略建议，从不用于拦截生成。
type DomainClass string

const (
	// DomainGmailLike Gmail 系域名，支持 dot-folding 与 plus 标签
	DomainGmailLike DomainClass = "gmail_like"
	// DomainGeneric 普通域名
	DomainGeneric DomainClass = "generic"
)

// 正则表达式
var (
	// 本地部分验证（保守字符类：字母、数字、. _ % + -）
	localPartRegex = regexp.MustCompile(`^[a-z0-9._%+-]+$`)

	// 域名验证（字母、数字、. -，至少一个点分隔的标签，顶级域 2 个以上字母）
	domainRegex = regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
)

// AddressValidator 邮箱地址验证器，全部方法为纯函数。
type AddressValidator struct{}

// NewAddressValidator 创建邮箱地址验证器
func NewAddressValidator() *AddressValidator {
	return &AddressValidator{}
}

// Parse 将邮箱地址解析为 (本地部分, 域名)，输出统一为小写。
//
// 拒绝以下输入:
//   - 不含恰好一个 '@' 的字符串
//   - 本地部分或域名为空
//   - 域名缺少点分隔标签
//   - 超出 RFC 5322 长度限制
func (v *AddressValidator) Parse(address string) (string, string, error) {
	address = strings.ToLower(strings.TrimSpace(address))

	if len(address) > MaxAddressLength {
		return "", "", ErrAddressTooLong
	}

	parts := strings.Split(address, "@")
	if len(parts) != 2 {
		return "", "", ErrInvalidAddress
	}

	local, domainName := parts[0], parts[1]
	if local == "" || domainName == "" {
		return "", "", ErrInvalidAddress
	}
	if len(local) > MaxLocalPartLength {
		return "", "", ErrLocalPartTooLong
	}
	if len(domainName) > MaxDomainLength {
		return "", "", ErrDomainTooLong
	}

	if !localPartRegex.MatchString(local) {
		return "", "", ErrInvalidAddress
	}
	if !domainRegex.MatchString(domainName) {
		return "", "", ErrInvalidAddress
	}

	return local, domainName, nil
}

// ClassifyDomain 对域名分类。
// 仅 gmail.com 与 googlemail.com 视为 Gmail 系（大小写不敏感）。
func (v *AddressValidator) ClassifyDomain(domainName string) DomainClass {
	switch strings.ToLower(domainName) {
	case "gmail.com", "googlemail.com":
		return DomainGmailLike
	default:
		return DomainGeneric
	}
}
