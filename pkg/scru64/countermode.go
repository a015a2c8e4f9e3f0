package scru64

import (
	"fmt"
	"math/rand/v2"
)

// =============================================================================
// 计数器初始化策略
// =============================================================================

// RenewContext 表示生成器传递给 [CounterMode.Renew] 的上下文信息。
type RenewContext struct {
	// Timestamp 新一轮 tick 的 timestamp 字段值
	Timestamp uint64

	// NodeID 生成器的 node_id
	NodeID uint32
}

// CounterMode 定制每个新 timestamp tick 的计数器初始值。
//
// 当 timestamp 字段相对上一个 ID 发生变化时，生成器调用 Renew
// 获取新的计数器初始值。实现方可以据此注入各自的初始化逻辑
// （例如测试中使用确定性序列）。
//
// 契约：返回值必须落在 [0, 2^counterSize) 内（counterSize 为 1~23）。
// 违反契约属于实现方的编程错误，生成器会直接 panic 而非掩盖。
type CounterMode interface {
	// Renew 返回下一轮 counterSize 位计数器的初始值。
	Renew(counterSize int, ctx RenewContext) uint32
}

// DefaultCounterMode 默认的"部分随机初始化"策略。
//
// 每个新 timestamp tick 将计数器重置为随机数，但保留若干前导位为零，
// 作为计数器溢出的缓冲空间（overflow guard），降低同一 tick 内连续自增
// 导致字段饱和的概率。
//
// 所用随机数生成器并非密码学强度。小位宽随机数本身不具备不可预测性，
// 为此付出额外开销没有意义。
type DefaultCounterMode struct {
	overflowGuardSize int
}

var _ CounterMode = (*DefaultCounterMode)(nil)

// NewDefaultCounterMode 以溢出保护位数创建默认策略实例。
//
// overflowGuardSize 为负时返回 [ErrRange]。
func NewDefaultCounterMode(overflowGuardSize int) (*DefaultCounterMode, error) {
	if overflowGuardSize < 0 {
		return nil, fmt.Errorf("%w: overflow_guard_size %d must be a non-negative integer", ErrRange, overflowGuardSize)
	}
	return &DefaultCounterMode{overflowGuardSize: overflowGuardSize}, nil
}

// Renew 返回下一轮 counterSize 位计数器的初始值。
//
// counterSize 大于保护位数时，返回占据低 counterSize - overflowGuardSize
// 位的均匀随机值；否则返回 0。
func (m *DefaultCounterMode) Renew(counterSize int, _ RenewContext) uint32 {
	if counterSize > m.overflowGuardSize {
		return rand.Uint32N(uint32(1) << (counterSize - m.overflowGuardSize))
	}
	return 0
}
