package domain

import "time"

// Statistics 系统统计信息，供管理接口使用。
type Statistics struct {
	TotalIdentities int       `json:"totalIdentities"` // 身份总数
	AcceptedTerms   int       `json:"acceptedTerms"`   // 已接受条款的身份数
	TotalAliases    int       `json:"totalAliases"`    // 已生成的别名总数
	GeneratedAt     time.Time `json:"generatedAt"`     // 统计生成时间
}
