package domain

import "time"

// Alias 表示一条已生成的别名记录。
// 所有发送到别名的邮件都会路由到生成它的基础地址收件箱。
type Alias struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`          // 别名唯一标识
	IdentityID  int64     `json:"identityId" gorm:"index;not null"`               // 所属身份ID，删除授权的一部分
	BaseAddress string    `json:"baseAddress" gorm:"type:varchar(254);not null"`  // 派生来源的基础地址
	Address     string    `json:"address" gorm:"type:varchar(254);index;not null"` // 生成的别名地址
	Label       *string   `json:"label,omitempty" gorm:"type:varchar(128)"`       // 可选的用户标注
	CreatedAt   time.Time `json:"createdAt"`
}
