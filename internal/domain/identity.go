package domain

import "time"

// Identity 表示一个机器人端用户身份。
// 身份在首次交互时创建，正常运行中不做硬删除。
type Identity struct {
	ID            int64     `json:"id" gorm:"primaryKey"`                       // 聊天平台的数字用户ID
	BaseAddress   string    `json:"baseAddress" gorm:"type:varchar(254);index"` // 基础邮箱地址，可为空（尚未设置）
	CatchAll      bool      `json:"catchAll"`                                   // 是否启用 catch-all，custom 策略的前置条件
	AcceptedTerms bool      `json:"acceptedTerms"`                              // 是否已接受使用条款
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
