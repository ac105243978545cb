package generator

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	plusPattern   = regexp.MustCompile(`^john\.doe\+[0-9a-f]{6}@gmail\.com$`)
	customPattern = regexp.MustCompile(`^[0-9a-f]{8}@example\.com$`)
)

func TestPlusAliases(t *testing.T) {
	g := New(NewCryptoTokenSource())

	aliases, err := g.Plus("john.doe", "gmail.com", 5)
	require.NoError(t, err)
	require.Len(t, aliases, 5)

	seen := make(map[string]struct{})
	for _, alias := range aliases {
		assert.Regexp(t, plusPattern, alias)
		assert.NotEqual(t, "john.doe@gmail.com", alias)
		_, dup := seen[alias]
		assert.False(t, dup, "duplicate alias in one batch: %s", alias)
		seen[alias] = struct{}{}
	}
}

// 重复单令牌生成应当以极高概率互不相同。
func TestPlusTokensDifferAcrossCalls(t *testing.T) {
	g := New(NewCryptoTokenSource())

	// 令牌空间为 6 位十六进制（2^24），1000 次抽取按生日估计约 3% 概率
	// 出现一对重复，严格断言零重复会偶发失败，这里容忍至多 2 对。
	seen := make(map[string]struct{})
	duplicates := 0
	for i := 0; i < 1000; i++ {
		aliases, err := g.Plus("user", "example.com", 1)
		require.NoError(t, err)
		require.Len(t, aliases, 1)
		if _, dup := seen[aliases[0]]; dup {
			duplicates++
		}
		seen[aliases[0]] = struct{}{}
	}
	assert.LessOrEqual(t, duplicates, 2)
}

func TestDotSmallLocalDeterministic(t *testing.T) {
	g := New(NewCryptoTokenSource())

	first, err := g.Dot("abc", "gmail.com", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.bc@gmail.com", "ab.c@gmail.com", "a.b.c@gmail.com"}, first)

	// 相同输入重复调用顺序不变
	for i := 0; i < 5; i++ {
		again, err := g.Dot("abc", "gmail.com", 10)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestDotSmallLocalTruncatesToCount(t *testing.T) {
	g := New(NewCryptoTokenSource())

	aliases, err := g.Dot("abc", "gmail.com", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.bc@gmail.com", "ab.c@gmail.com"}, aliases)
}

func TestDotExhaustedSpaceReturnsPartial(t *testing.T) {
	g := New(NewCryptoTokenSource())

	// "ab" 只有一个插入位置，空间耗尽返回部分结果而不是错误
	aliases, err := g.Dot("ab", "example.com", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.b@example.com"}, aliases)

	// 单字符本地部分没有任何内部边界
	aliases, err = g.Dot("a", "example.com", 10)
	require.NoError(t, err)
	assert.Empty(t, aliases)
}

func TestDotRandomPath(t *testing.T) {
	g := New(NewCryptoTokenSource())

	aliases, err := g.Dot("johndoe", "gmail.com", 10)
	require.NoError(t, err)
	assert.NotEmpty(t, aliases)
	assert.LessOrEqual(t, len(aliases), 10)

	seen := make(map[string]struct{})
	for _, alias := range aliases {
		assert.NotEqual(t, "johndoe@gmail.com", alias)
		_, dup := seen[alias]
		assert.False(t, dup, "duplicate alias in one batch: %s", alias)
		seen[alias] = struct{}{}

		local := strings.TrimSuffix(alias, "@gmail.com")
		dots := strings.Count(local, ".")
		assert.GreaterOrEqual(t, dots, 1)
		assert.LessOrEqual(t, dots, 2)
		assert.False(t, strings.HasPrefix(local, "."))
		assert.False(t, strings.HasSuffix(local, "."))
		assert.NotContains(t, local, "..")
		assert.Equal(t, "johndoe", strings.ReplaceAll(local, ".", ""))
	}
}

// 本地部分已含点时，采样不能产出相邻的点。
func TestDotAvoidsAdjacentDots(t *testing.T) {
	g := New(NewCryptoTokenSource())

	aliases, err := g.Dot("jo.hn.doe", "example.com", 20)
	require.NoError(t, err)
	for _, alias := range aliases {
		assert.NotContains(t, alias, "..")
	}
}

func TestCustomAliases(t *testing.T) {
	g := New(NewCryptoTokenSource())

	aliases, err := g.Custom("example.com", 5)
	require.NoError(t, err)
	require.Len(t, aliases, 5)

	seen := make(map[string]struct{})
	for _, alias := range aliases {
		assert.Regexp(t, customPattern, alias)
		_, dup := seen[alias]
		assert.False(t, dup)
		seen[alias] = struct{}{}
	}
}

func TestCustomTokensDifferAcrossCalls(t *testing.T) {
	g := New(NewCryptoTokenSource())

	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		aliases, err := g.Custom("example.com", 1)
		require.NoError(t, err)
		require.Len(t, aliases, 1)
		_, dup := seen[aliases[0]]
		assert.False(t, dup)
		seen[aliases[0]] = struct{}{}
	}
}

func TestEnumerateDotVariants(t *testing.T) {
	g := New(NewCryptoTokenSource())

	variants, err := g.EnumerateDotVariants("abc", "gmail.com", 100)
	require.NoError(t, err)
	// 位掩码升序：原始形式在先，之后按边界位逐个置位
	assert.Equal(t, []string{
		"abc@gmail.com",
		"a.bc@gmail.com",
		"ab.c@gmail.com",
		"a.b.c@gmail.com",
	}, variants)
}

func TestEnumerateDotVariantsCap(t *testing.T) {
	g := New(NewCryptoTokenSource())

	variants, err := g.EnumerateDotVariants("abcdef", "gmail.com", 10)
	require.NoError(t, err)
	assert.Len(t, variants, 10)
}

func TestEnumerateDotVariantsLengthGuard(t *testing.T) {
	g := New(NewCryptoTokenSource())

	_, err := g.EnumerateDotVariants("abcdefghijklm", "gmail.com", 100)
	assert.ErrorIs(t, err, ErrLocalPartTooLongForEnumeration)
}
