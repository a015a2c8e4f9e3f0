package scru64

import (
	"encoding"
	"fmt"
	"strconv"
)

// =============================================================================
// 位布局常量
// =============================================================================

const (
	// MaxID ID 的最大有效值（即 "zzzzzzzzzzzz"，36^12 - 1）。
	MaxID uint64 = 0x41C2_1CB8_E0FF_FFFF

	// NodeCtrSize node_id 与 counter 两个字段合计的位宽。
	NodeCtrSize = 24

	// MaxTimestamp timestamp 字段的最大有效值。
	MaxTimestamp = MaxID >> NodeCtrSize

	// MaxNodeCtr node_ctr 组合字段的最大有效值。
	MaxNodeCtr = 1<<NodeCtrSize - 1
)

// digits Base36 表示法使用的数字字符。
const digits = "0123456789abcdefghijklmnopqrstuvwxyz"

// idStrLen 规范字符串表示的固定长度。
const idStrLen = 12

// =============================================================================
// ID 值类型
// =============================================================================

// ID 表示一个 SCRU64 标识符。
//
// ID 是不可变的 64 位值类型，高位为 timestamp 字段（256ms 粒度），
// 低 24 位为 node_ctr 组合字段。相等性、排序和哈希均由底层整数定义，
// 可直接用 ==、< 比较，也可直接作为 map 键。
// 由于规范字符串表示是定宽且零填充的，字符串的字典序与整数序一致。
type ID uint64

// 编译时断言：ID 支持文本编解码，便于 JSON 等场景直接使用。
var (
	_ encoding.TextMarshaler   = ID(0)
	_ encoding.TextUnmarshaler = (*ID)(nil)
)

// FromInt 从 64 位整数创建 ID。
//
// 值超出 [0, 36^12 - 1] 时返回 [ErrRange]。
func FromInt(value uint64) (ID, error) {
	if value > MaxID {
		return 0, fmt.Errorf("%w: %d exceeds maximum ID value", ErrRange, value)
	}
	return ID(value), nil
}

// FromParts 从 timestamp 和 node_ctr 两个字段值创建 ID。
//
// timestamp 超出 [0, MaxTimestamp] 或 nodeCtr 超出 [0, MaxNodeCtr]
// 时返回 [ErrRange]。
func FromParts(timestamp uint64, nodeCtr uint32) (ID, error) {
	if timestamp > MaxTimestamp {
		return 0, fmt.Errorf("%w: timestamp %d exceeds %d", ErrRange, timestamp, uint64(MaxTimestamp))
	}
	if nodeCtr > MaxNodeCtr {
		return 0, fmt.Errorf("%w: node_ctr %d exceeds %d", ErrRange, nodeCtr, MaxNodeCtr)
	}
	return ID(timestamp<<NodeCtrSize | uint64(nodeCtr)), nil
}

// ParseID 从 12 位规范字符串表示创建 ID。
//
// 合法输入有且仅有 12 个 Base36 字符，大写字母视同小写。
// 任何偏差（空白、符号、长度不符、非法字符）返回 [ErrParse]。
func ParseID(s string) (ID, error) {
	if len(s) != idStrLen {
		return 0, fmt.Errorf("%w: %q has invalid length %d", ErrParse, s, len(s))
	}
	// strconv 的 Base36 解析接受 [0-9A-Za-z] 且不允许符号前缀，
	// 与规范文法一致；位宽上限交由 MaxID 检查。
	value, err := strconv.ParseUint(s, 36, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a base36 string", ErrParse, s)
	}
	if value > MaxID {
		return 0, fmt.Errorf("%w: %q exceeds maximum ID value", ErrParse, s)
	}
	return ID(value), nil
}

// MustParseID 与 ParseID 相同，但失败时 panic。
//
// 适用于字面量等必然合法的输入。
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// Num 返回底层的整数表示。
func (x ID) Num() uint64 { return uint64(x) }

// Timestamp 返回 timestamp 字段值（自 Unix epoch 起，以 256ms 为单位）。
func (x ID) Timestamp() uint64 { return uint64(x) >> NodeCtrSize }

// NodeCtr 返回 node_id 与 counter 合并的 node_ctr 字段值。
//
// 两个子字段的分界线由生成器配置决定，ID 本身不携带该信息。
func (x ID) NodeCtr() uint32 { return uint32(x) & MaxNodeCtr }

// String 返回 12 位规范字符串表示（小写 Base36，零填充）。
func (x ID) String() string {
	var buf [idStrLen]byte
	n := uint64(x)
	for i := idStrLen - 1; i >= 0; i-- {
		buf[i] = digits[n%36]
		n /= 36
	}
	return string(buf[:])
}

// MarshalText 实现 [encoding.TextMarshaler]，输出规范字符串表示。
func (x ID) MarshalText() ([]byte, error) {
	return []byte(x.String()), nil
}

// UnmarshalText 实现 [encoding.TextUnmarshaler]，按规范文法解析。
func (x *ID) UnmarshalText(text []byte) error {
	id, err := ParseID(string(text))
	if err != nil {
		return err
	}
	*x = id
	return nil
}
