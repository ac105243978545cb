package generator

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrLocalPartTooLongForEnumeration 本地部分过长，无法做全量点位枚举。
	// 点位组合空间随长度按 2^(n-1) 增长，必须在输入侧设限。
	ErrLocalPartTooLongForEnumeration = errors.New("local part too long for exhaustive enumeration")
)

const (
	// PlusTokenBytes plus 策略令牌字节数（十六进制后为 6 个字符）
	PlusTokenBytes = 3
	// CustomTokenBytes custom 策略令牌字节数（十六进制后为 8 个字符）
	CustomTokenBytes = 4

	// retryFactor 随机路径的重试上限系数：最多尝试 count * retryFactor 次，
	// 之后返回已生成的部分结果（部分结果合法，不是错误）。
	retryFactor = 10

	// smallLocalThreshold 本地部分长度不超过该值时，dot 策略走确定性枚举路径
	smallLocalThreshold = 3

	// MaxEnumerationLocalLength 全量枚举允许的本地部分最大长度
	MaxEnumerationLocalLength = 12
)

// Generator 别名生成器，实现 plus / dot / custom 三种策略。
// 生成是纯计算，不触碰任何持久化状态；所有随机性来自注入的 TokenSource。
type Generator struct {
	tokens TokenSource
}

// New 创建别名生成器。
func New(tokens TokenSource) *Generator {
	return &Generator{tokens: tokens}
}

// Plus 生成 local+<token>@domain 形式的别名。
//
// 单次调用内通过工作集保证令牌不重复，碰撞时重试，
// 尝试次数达到 count*10 后返回已生成的部分结果。
func (g *Generator) Plus(local, domainName string, count int) ([]string, error) {
	aliases := make([]string, 0, count)
	used := make(map[string]struct{}, count)

	for attempts := 0; len(aliases) < count && attempts < count*retryFactor; attempts++ {
		token, err := g.tokens.Hex(PlusTokenBytes)
		if err != nil {
			return nil, err
		}
		if _, ok := used[token]; ok {
			continue
		}
		used[token] = struct{}{}
		aliases = append(aliases, fmt.Sprintf("%s+%s@%s", local, token, domainName))
	}

	return aliases, nil
}

// Dot 生成在本地部分插入 1-2 个点的别名。
//
// 两条路径按地址长度划分:
//   - len(local) <= 3: 组合空间很小，按升序确定性枚举，结果稳定可测试；
//   - len(local) > 3: 均匀随机采样插入位置，去重后拒绝与原地址相同的变体，
//     尝试 count*10 次后返回可能少于 count 的结果。
//
// 插入位置取自内部边界 {1 .. len(local)-1}，并排除会产生相邻点的位置
// （本地部分本身可能已含点）。
func (g *Generator) Dot(local, domainName string, count int) ([]string, error) {
	original := local + "@" + domainName

	if len(local) <= smallLocalThreshold {
		return enumerateSmallDots(local, domainName, original, count), nil
	}

	aliases := make([]string, 0, count)
	used := make(map[string]struct{}, count)

	for attempts := 0; len(aliases) < count && attempts < count*retryFactor; attempts++ {
		numDots, err := g.tokens.IntN(2)
		if err != nil {
			return nil, err
		}
		numDots++ // 1 或 2

		positions, ok, err := g.samplePositions(local, numDots)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		variant := insertDots(local, positions) + "@" + domainName
		if variant == original {
			continue
		}
		if _, seen := used[variant]; seen {
			continue
		}
		used[variant] = struct{}{}
		aliases = append(aliases, variant)
	}

	return aliases, nil
}

// Custom 生成 <token>@domain 形式的别名，忽略本地部分。
// catch-all 前置条件由服务层校验，生成器本身不关心。
func (g *Generator) Custom(domainName string, count int) ([]string, error) {
	aliases := make([]string, 0, count)
	used := make(map[string]struct{}, count)

	for attempts := 0; len(aliases) < count && attempts < count*retryFactor; attempts++ {
		token, err := g.tokens.Hex(CustomTokenBytes)
		if err != nil {
			return nil, err
		}
		if _, ok := used[token]; ok {
			continue
		}
		used[token] = struct{}{}
		aliases = append(aliases, token+"@"+domainName)
	}

	return aliases, nil
}

// EnumerateDotVariants 全量枚举本地部分的所有点位组合（含不加点的原始形式）。
//
// 用迭代的位掩码子集生成替代递归：第 i 位对应边界位置 i+1。
// 输出按掩码升序，确定性排列；结果截断到 cap 条。
// 本地部分超过 MaxEnumerationLocalLength 时拒绝，避免组合爆炸。
func (g *Generator) EnumerateDotVariants(local, domainName string, cap int) ([]string, error) {
	if len(local) > MaxEnumerationLocalLength {
		return nil, ErrLocalPartTooLongForEnumeration
	}

	boundaries := len(local) - 1
	if boundaries < 0 {
		boundaries = 0
	}

	variants := make([]string, 0, cap)
	for mask := 0; mask < 1<<boundaries; mask++ {
		positions := make([]int, 0, boundaries)
		for i := 0; i < boundaries; i++ {
			if mask&(1<<i) != 0 {
				positions = append(positions, i+1)
			}
		}
		if !validPositions(local, positions) {
			continue
		}
		variants = append(variants, insertDots(local, positions)+"@"+domainName)
		if len(variants) >= cap {
			break
		}
	}

	return variants, nil
}

// samplePositions 随机抽取 numDots 个互不相同且合法的插入位置。
// 第二个返回值为 false 时表示本次抽样无效（位置冲突或贴着已有的点），由调用方重试。
func (g *Generator) samplePositions(local string, numDots int) ([]int, bool, error) {
	positions := make([]int, 0, numDots)
	for i := 0; i < numDots; i++ {
		p, err := g.tokens.IntN(len(local) - 1)
		if err != nil {
			return nil, false, err
		}
		p++ // 边界位置 1 .. len-1
		for _, q := range positions {
			if p == q {
				return nil, false, nil
			}
		}
		positions = append(positions, p)
	}
	if !validPositions(local, positions) {
		return nil, false, nil
	}
	return positions, true, nil
}

// validPositions 检查各插入位置是否会与本地部分里已有的点相邻。
func validPositions(local string, positions []int) bool {
	for _, p := range positions {
		if p <= 0 || p >= len(local) {
			return false
		}
		if local[p-1] == '.' || local[p] == '.' {
			return false
		}
	}
	return true
}

// insertDots 在指定边界位置插入点，位置无需有序。
func insertDots(local string, positions []int) string {
	marked := make(map[int]struct{}, len(positions))
	for _, p := range positions {
		marked[p] = struct{}{}
	}

	var b strings.Builder
	b.Grow(len(local) + len(positions))
	for i := 0; i < len(local); i++ {
		if _, ok := marked[i]; ok {
			b.WriteByte('.')
		}
		b.WriteByte(local[i])
	}
	return b.String()
}

// enumerateSmallDots 短本地部分的确定性枚举路径：
// 先按升序枚举单点插入，再枚举双点组合，跳过与原地址相同的变体。
func enumerateSmallDots(local, domainName, original string, count int) []string {
	aliases := make([]string, 0, count)

	appendVariant := func(positions []int) bool {
		if !validPositions(local, positions) {
			return false
		}
		variant := insertDots(local, positions) + "@" + domainName
		if variant == original {
			return false
		}
		aliases = append(aliases, variant)
		return len(aliases) >= count
	}

	for i := 1; i < len(local); i++ {
		if appendVariant([]int{i}) {
			return aliases
		}
	}
	for i := 1; i < len(local); i++ {
		for j := i + 1; j < len(local); j++ {
			if appendVariant([]int{i, j}) {
				return aliases
			}
		}
	}

	return aliases
}
