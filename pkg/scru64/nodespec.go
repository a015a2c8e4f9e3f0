package scru64

import (
	"encoding"
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// 节点配置
// =============================================================================

// 节点标识部分各形式的位数约束。
const (
	maxDecNodeIDLen  = 8 // 十进制 node_id 最多 8 位数字
	maxHexNodeIDLen  = 6 // 十六进制 node_id 最多 6 位数字（不含 0x 前缀）
	maxNodeIDSizeLen = 3 // node_id_size 最多 3 位十进制数字
)

// NodeSpec 表示生成器的节点配置：node_id、node_id_size，
// 以及可选的续发起点（node_prev）。
//
// NodeSpec 是不可变的值类型。它描述如何切分 24 位的 node_ctr 组合字段：
// 高 node_id_size 位为 node_id，其余低位为 counter。
//
// 两种构造形式语义不同且在解析/打印中保持区分：
//   - 裸 node_id（fresh start）：生成器从零时间戳起步，NodePrev 不返回值；
//   - 续发起点（resume）：生成器从先前发出的 ID 继续单调序列。
//
// 文本文法（ASCII）：
//
//	( <12位Base36 ID> | <1~8位十进制数字> | 0x<1~6位十六进制数字> ) "/" <1~3位十进制数字>
//
// 末尾数字必须在 [1, 23] 内；数字形式的 node_id 必须容纳于该位宽。
type NodeSpec struct {
	nodePrev   ID
	nodeIDSize uint8
}

var (
	_ encoding.TextMarshaler   = NodeSpec{}
	_ encoding.TextUnmarshaler = (*NodeSpec)(nil)
)

// NewNodeSpecWithNodeID 用裸 node_id 创建节点配置（fresh start）。
//
// nodeIDSize 不在 [1, 23] 内、或 nodeID 无法容纳于 nodeIDSize 位时
// 返回 [ErrRange]。
func NewNodeSpecWithNodeID(nodeID uint32, nodeIDSize int) (NodeSpec, error) {
	if nodeIDSize <= 0 || nodeIDSize >= NodeCtrSize {
		return NodeSpec{}, fmt.Errorf("%w: node_id_size %d must range from 1 to 23", ErrRange, nodeIDSize)
	}
	if uint64(nodeID) >= 1<<nodeIDSize {
		return NodeSpec{}, fmt.Errorf("%w: node_id %d does not fit in %d bits", ErrRange, nodeID, nodeIDSize)
	}
	counterSize := NodeCtrSize - nodeIDSize
	// 裸 node_id 在内部以零时间戳的占位 ID 表示
	prev, err := FromParts(0, nodeID<<counterSize)
	if err != nil {
		return NodeSpec{}, err
	}
	return NodeSpec{nodePrev: prev, nodeIDSize: uint8(nodeIDSize)}, nil
}

// NewNodeSpecWithNodePrev 用续发起点 ID 创建节点配置（resume）。
//
// node_id 由 nodePrev 的 node_ctr 字段右移 24 - nodeIDSize 位推导。
// nodeIDSize 不在 [1, 23] 内时返回 [ErrRange]。
func NewNodeSpecWithNodePrev(nodePrev ID, nodeIDSize int) (NodeSpec, error) {
	if nodeIDSize <= 0 || nodeIDSize >= NodeCtrSize {
		return NodeSpec{}, fmt.Errorf("%w: node_id_size %d must range from 1 to 23", ErrRange, nodeIDSize)
	}
	return NodeSpec{nodePrev: nodePrev, nodeIDSize: uint8(nodeIDSize)}, nil
}

// ParseNodeSpec 解析节点配置字符串。
//
// 文法见 [NodeSpec]。任何偏差（多余空白、符号、位数不符、分隔符错误）
// 返回 [ErrNodeSpec]；文法内的数值越界同时包裹 [ErrRange]。
func ParseNodeSpec(s string) (NodeSpec, error) {
	i := strings.LastIndexByte(s, '/')
	if i < 0 {
		return NodeSpec{}, fmt.Errorf(`%w: %q does not look like "42/8" or "0u2r85hm2pt3/16"`, ErrNodeSpec, s)
	}
	nodePart, sizePart := s[:i], s[i+1:]

	if len(sizePart) < 1 || len(sizePart) > maxNodeIDSizeLen || !isDecDigits(sizePart) {
		return NodeSpec{}, fmt.Errorf("%w: %q has malformed node_id_size", ErrNodeSpec, s)
	}
	nodeIDSize, err := strconv.Atoi(sizePart)
	if err != nil {
		return NodeSpec{}, fmt.Errorf("%w: %q has malformed node_id_size", ErrNodeSpec, s)
	}

	switch {
	case len(nodePart) == idStrLen:
		// 续发起点形式：12 位 Base36 ID
		nodePrev, err := ParseID(nodePart)
		if err != nil {
			return NodeSpec{}, fmt.Errorf("%w: %w", ErrNodeSpec, err)
		}
		spec, err := NewNodeSpecWithNodePrev(nodePrev, nodeIDSize)
		if err != nil {
			return NodeSpec{}, fmt.Errorf("%w: %w", ErrNodeSpec, err)
		}
		return spec, nil
	case len(nodePart) > 2 && (nodePart[:2] == "0x" || nodePart[:2] == "0X"):
		// 裸 node_id，十六进制形式
		hexPart := nodePart[2:]
		if len(hexPart) > maxHexNodeIDLen || !isHexDigits(hexPart) {
			return NodeSpec{}, fmt.Errorf("%w: %q has malformed hex node_id", ErrNodeSpec, s)
		}
		nodeID, err := strconv.ParseUint(hexPart, 16, 32)
		if err != nil {
			return NodeSpec{}, fmt.Errorf("%w: %q has malformed hex node_id", ErrNodeSpec, s)
		}
		spec, err := NewNodeSpecWithNodeID(uint32(nodeID), nodeIDSize)
		if err != nil {
			return NodeSpec{}, fmt.Errorf("%w: %w", ErrNodeSpec, err)
		}
		return spec, nil
	case len(nodePart) >= 1 && len(nodePart) <= maxDecNodeIDLen && isDecDigits(nodePart):
		// 裸 node_id，十进制形式
		nodeID, err := strconv.ParseUint(nodePart, 10, 32)
		if err != nil {
			return NodeSpec{}, fmt.Errorf("%w: %q has malformed decimal node_id", ErrNodeSpec, s)
		}
		spec, err := NewNodeSpecWithNodeID(uint32(nodeID), nodeIDSize)
		if err != nil {
			return NodeSpec{}, fmt.Errorf("%w: %w", ErrNodeSpec, err)
		}
		return spec, nil
	default:
		return NodeSpec{}, fmt.Errorf(`%w: %q does not look like "42/8" or "0u2r85hm2pt3/16"`, ErrNodeSpec, s)
	}
}

// MustParseNodeSpec 与 ParseNodeSpec 相同，但失败时 panic。
func MustParseNodeSpec(s string) NodeSpec {
	spec, err := ParseNodeSpec(s)
	if err != nil {
		panic(err)
	}
	return spec
}

// NodeID 返回节点配置中的 node_id。
func (n NodeSpec) NodeID() uint32 {
	return n.nodePrev.NodeCtr() >> n.CounterSize()
}

// NodeIDSize 返回 node_id 字段的位宽。
func (n NodeSpec) NodeIDSize() int { return int(n.nodeIDSize) }

// CounterSize 返回 counter 字段的位宽（24 - node_id_size）。
func (n NodeSpec) CounterSize() int { return NodeCtrSize - int(n.nodeIDSize) }

// NodePrev 返回续发起点 ID。
//
// 仅当内部 ID 携带非零时间戳（即真实的续发起点，而非裸 node_id
// 构造所用的零时间戳占位值）时 ok 为 true。
func (n NodeSpec) NodePrev() (prev ID, ok bool) {
	if n.nodePrev.Timestamp() > 0 {
		return n.nodePrev, true
	}
	return 0, false
}

// String 返回规范字符串表示。
//
// 携带真实续发起点时输出 12 位 ID 形式，否则输出十进制裸 node_id 形式。
func (n NodeSpec) String() string {
	size := strconv.Itoa(n.NodeIDSize())
	if prev, ok := n.NodePrev(); ok {
		return prev.String() + "/" + size
	}
	return strconv.FormatUint(uint64(n.NodeID()), 10) + "/" + size
}

// MarshalText 实现 [encoding.TextMarshaler]，输出规范字符串表示。
func (n NodeSpec) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText 实现 [encoding.TextUnmarshaler]，按文法解析。
func (n *NodeSpec) UnmarshalText(text []byte) error {
	spec, err := ParseNodeSpec(string(text))
	if err != nil {
		return err
	}
	*n = spec
	return nil
}

// isDecDigits 报告 s 是否由纯 ASCII 十进制数字组成（不接受符号与空白）。
func isDecDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

// isHexDigits 报告 s 是否由纯 ASCII 十六进制数字组成（大小写均可）。
func isHexDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return len(s) > 0
}
