package httptransport

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"aliasbot/backend/internal/domain"
	"aliasbot/backend/internal/service"
)

func TestGetErrorMessage(t *testing.T) {
	t.Run("哨兵错误直接映射", func(t *testing.T) {
		assert.Equal(t, "邮箱地址格式无效", GetErrorMessage(domain.ErrInvalidAddress))
		assert.Equal(t, "请求过于频繁，请稍后再试", GetErrorMessage(service.ErrQuotaExceeded))
	})

	t.Run("包装后的哨兵错误同样映射", func(t *testing.T) {
		wrapped := fmt.Errorf("stored base address is invalid: %w", domain.ErrInvalidAddress)
		assert.Equal(t, "邮箱地址格式无效", GetErrorMessage(wrapped))

		deep := fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", domain.ErrLocalPartTooLong))
		assert.Equal(t, "邮箱本地部分超过长度限制", GetErrorMessage(deep))
	})

	t.Run("未知错误回退原始消息", func(t *testing.T) {
		err := errors.New("something unexpected")
		assert.Equal(t, "something unexpected", GetErrorMessage(err))
	})
}
