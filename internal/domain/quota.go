package domain

import "time"

// 配额窗口名称。minute 窗口更紧，先于 hour 窗口检查。
const (
	QuotaWindowMinute = "minute"
	QuotaWindowHour   = "hour"
)

// QuotaWindow 表示某个身份在一个固定窗口内的请求计数。
// 计数只通过存储层的原子 check-and-consume 操作变更，
// 写入时保证 RequestCount 不超过窗口上限。
type QuotaWindow struct {
	IdentityID   int64     `json:"identityId" gorm:"primaryKey;autoIncrement:false"` // 所属身份ID
	Window       string    `json:"window" gorm:"primaryKey;column:window_name;type:varchar(16)"` // 窗口名称: minute / hour（window 在 MySQL 8 是保留字）
	RequestCount int       `json:"requestCount"`                                     // 当前窗口内的请求数
	WindowStart  time.Time `json:"windowStart"`                                      // 窗口起始时间，过期后重置
}

// Expired 判断窗口是否已经过期。
func (w *QuotaWindow) Expired(now time.Time, duration time.Duration) bool {
	return now.Sub(w.WindowStart) > duration
}
