package generator

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// TokenSource 随机令牌源。
// 别名令牌充当不可猜测的标识符，实现必须使用密码学安全的随机源，
// 不允许退回到普通伪随机数生成器。
type TokenSource interface {
	// Hex 生成 nBytes 字节的随机数据并返回其十六进制表示（2*nBytes 个字符）。
	Hex(nBytes int) (string, error)
	// IntN 返回 [0, max) 范围内的均匀随机整数。
	IntN(max int) (int, error)
}

// CryptoTokenSource 基于 crypto/rand 的令牌源实现。
type CryptoTokenSource struct{}

// NewCryptoTokenSource 创建密码学安全的令牌源。
func NewCryptoTokenSource() *CryptoTokenSource {
	return &CryptoTokenSource{}
}

// Hex 生成随机十六进制令牌。
func (s *CryptoTokenSource) Hex(nBytes int) (string, error) {
	buf := make([]byte, nBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// IntN 返回 [0, max) 范围内的均匀随机整数。
func (s *CryptoTokenSource) IntN(max int) (int, error) {
	if max <= 0 {
		return 0, fmt.Errorf("max must be positive, got %d", max)
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, fmt.Errorf("failed to read random int: %w", err)
	}
	return int(n.Int64()), nil
}
