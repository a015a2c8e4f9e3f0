package scru64

import "errors"

// =============================================================================
// 错误定义
// =============================================================================

var (
	// ErrRange 数值超出有效范围。
	// 以下场景返回此错误：
	//   - 整数值超出 [0, 36^12 - 1]
	//   - timestamp 或 node_ctr 字段值超出各自的位宽
	//   - node_id_size 不在 [1, 23] 范围内，或 node_id 无法容纳于 node_id_size 位
	//   - 传入底层原语的时间戳或回拨容忍度参数越界
	ErrRange = errors.New("scru64: out of valid value range")

	// ErrParse 字符串不符合 12 位规范文本表示。
	// 合法形式为且仅为 12 个 Base36 字符（[0-9A-Za-z]），
	// 任何空白、符号或长度偏差都会返回此错误。
	ErrParse = errors.New("scru64: invalid string representation")

	// ErrNodeSpec 节点配置字符串不符合文法。
	// 合法形式形如 "42/8"、"0xb/8"、"0u2r85hm2pt3/16"。
	// 文法内嵌的数值越界（如 "0/0"、"1024/8"）同样归入此错误，
	// 并包裹对应的 [ErrRange] 以便 errors.Is 检查。
	ErrNodeSpec = errors.New("scru64: invalid node spec")

	// ErrClockRollback 检测到显著的时钟回拨。
	// 这不是异常状态而是一种预定义结果：当传入的时间戳比上一次发号
	// 的时间戳落后超过回拨容忍度时，abort 族方法保持状态不变并返回此错误。
	// 调用方可改用 GenerateOrReset / GenerateOrSleep / GenerateOrAwait 处理。
	ErrClockRollback = errors.New("scru64: significant clock rollback detected")

	// ErrNotInitialized 全局生成器未初始化。
	// 显式调用 Init 失败后，后续包级函数（New/NewString 等）返回此错误。
	// 此时自动初始化被禁用以尊重用户意图，请修复失败原因后重新调用 Init。
	ErrNotInitialized = errors.New("scru64: global generator not initialized (Init was called but failed; call Init again to retry)")

	// ErrAlreadyInitialized 全局生成器已初始化。
	// 第二次调用 Init 时返回此错误。如需多个生成器，请使用 NewGenerator。
	ErrAlreadyInitialized = errors.New("scru64: global generator already initialized")

	// ErrNilContext context 参数为 nil。
	// 非 Must* API 不应 panic，调用方应传入有效的 context（至少 context.Background()）。
	ErrNilContext = errors.New("scru64: nil context")
)
