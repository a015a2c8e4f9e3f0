package scru64

import (
	"strings"
	"testing"
)

// =============================================================================
// 模糊测试（Fuzz）
//
// 模糊测试用于发现边界条件和异常输入下的潜在问题。
// 运行方式：go test -fuzz=FuzzXxx -fuzztime=30s
// =============================================================================

// FuzzParseID 模糊测试 ID 文本解析
//
// 测试目标：
//   - 任意输入不会导致 panic
//   - 解析成功时规范字符串必然往返一致
//   - 规范字符串必然为 12 个小写 Base36 字符
func FuzzParseID(f *testing.F) {
	f.Add("000000000000")
	f.Add("zzzzzzzzzzzz")
	f.Add("0u375nxqh5cq")
	f.Add("0U375NXQH5CQ")
	f.Add("")
	f.Add(" 0u3wrp5g81jx")
	f.Add("+0u3wrp5g81k0")
	f.Add("0u3w_p5q7ta7")
	f.Add(strings.Repeat("z", 13))

	f.Fuzz(func(t *testing.T, s string) {
		id, err := ParseID(s)
		if err != nil {
			return
		}
		canonical := id.String()
		if len(canonical) != 12 {
			t.Fatalf("canonical form %q of %q has length %d", canonical, s, len(canonical))
		}
		if canonical != strings.ToLower(s) {
			t.Fatalf("parse/print mismatch: %q -> %q", s, canonical)
		}
		reparsed, err := ParseID(canonical)
		if err != nil {
			t.Fatalf("canonical form %q failed to reparse: %v", canonical, err)
		}
		if reparsed != id {
			t.Fatalf("round trip mismatch: %q -> %v -> %v", s, id, reparsed)
		}
	})
}

// FuzzParseNodeSpec 模糊测试节点配置解析
//
// 测试目标：
//   - 任意输入不会导致 panic
//   - 解析成功时规范字符串必然往返到相同的配置
//   - 推导出的 node_id 必然容纳于 node_id_size 位
func FuzzParseNodeSpec(f *testing.F) {
	f.Add("42/8")
	f.Add("0xb/8")
	f.Add("v0rbps7ay8ks/16")
	f.Add("8388607/23")
	f.Add("0/0")
	f.Add("1/2/3")
	f.Add(" 42/8 ")
	f.Add("0x/8")
	f.Add("")

	f.Fuzz(func(t *testing.T, s string) {
		spec, err := ParseNodeSpec(s)
		if err != nil {
			return
		}
		if spec.NodeIDSize() < 1 || spec.NodeIDSize() > 23 {
			t.Fatalf("node_id_size %d out of range for %q", spec.NodeIDSize(), s)
		}
		if uint64(spec.NodeID()) >= 1<<spec.NodeIDSize() {
			t.Fatalf("node_id %d does not fit in %d bits for %q", spec.NodeID(), spec.NodeIDSize(), s)
		}
		// 注意：零时间戳的 resume 形式会合法地退化为裸 node_id 形式，
		// 因此往返不变量按规范字符串而非结构体相等性判定。
		reparsed, err := ParseNodeSpec(spec.String())
		if err != nil {
			t.Fatalf("canonical form %q failed to reparse: %v", spec.String(), err)
		}
		if reparsed.String() != spec.String() ||
			reparsed.NodeID() != spec.NodeID() ||
			reparsed.NodeIDSize() != spec.NodeIDSize() {
			t.Fatalf("round trip mismatch: %q -> %q -> %q", s, spec.String(), reparsed.String())
		}
	})
}
