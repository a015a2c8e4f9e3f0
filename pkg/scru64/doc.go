// Package scru64 提供 SCRU64 标识符的生成与解析能力。
//
// # 设计理念
//
// SCRU64（Sortable, Clock-based, Realm-specifically Unique identifier）
// 是一种可排序、基于时钟、按域唯一的 64 位标识符。各节点无需中心
// 协调即可独立发号：跨节点的唯一性完全依赖运维侧的 node_id 互斥分配，
// 算法层不做任何协调。主要特点：
//   - 同一生成器发出的 ID 严格单调递增
//   - 不同节点发出的 ID 近似按时间排序
//   - 12 字符定宽字符串表示，字典序与数值序一致
//   - 比 UUID 更短（12 字符 vs 36 字符）且可排序
//
// # ID 结构
//
// ID 取值范围为 [0, 36^12 - 1]（约 62.7 位），由两个相邻位域组成：
//
//	timestamp - 高位（value >> 24），以 256ms 为单位的粗粒度时间戳
//	node_ctr  - 低 24 位，再按配置切分为 node_id（高 1~23 位）
//	            与 counter（其余低位）
//
// node_id 与 counter 的分界线由节点配置（[NodeSpec]）决定，
// ID 本身不携带该信息。
//
// # 快速开始
//
// 基本用法（通过 SCRU64_NODE_SPEC 环境变量配置，如 "42/8"）：
//
//	// 生成 ID（字符串格式，生产环境推荐）
//	s, err := scru64.NewString() // 例如: "0u2r85hm2pt3"
//	if err != nil {
//	    return err
//	}
//
//	// 或生成 ID 值对象
//	id, err := scru64.New()
//
// 显式配置（不依赖环境变量）：
//
//	func main() {
//	    if err := scru64.Init(scru64.MustParseNodeSpec("42/8")); err != nil {
//	        log.Fatal(err)
//	    }
//	    // 应用代码...
//	}
//
// 独立实例（依赖注入、测试隔离、多个发号域）：
//
//	g, err := scru64.NewGenerator(scru64.MustParseNodeSpec("42/8"))
//	if err != nil {
//	    return err
//	}
//	id, err := g.Generate()
//
// # 节点配置
//
// 节点配置字符串形如 "<node_id>/<node_id_size>"：
//
//	"42/8"          - 十进制 node_id 42，位宽 8（counter 占 16 位）
//	"0xb3/12"       - 十六进制 node_id
//	"0u2r85hm2pt3/16" - 以先前发出的 ID 为续发起点（resume），
//	                  新生成器延续而非重启单调序列
//
// node_id_size 取值 1~23；位宽越大可容纳的节点越多，但同一 tick 内
// 的发号容量（counter 位宽 = 24 - node_id_size）越小。
//
// # 时钟回拨处理
//
// 生成器以 256ms 为一个内部 tick。时间戳相对上一个 ID 轻微回退
// （默认容忍约 10 秒）时仍能就地自增计数器、保持单调；超过容忍度的
// 显著回拨有四种处理策略，分别对应四个墙钟入口：
//
//	Generate         - 返回 ErrClockRollback，状态不变
//	GenerateOrReset  - 重置状态继续发号（跨重置的单调性被有意放弃）
//	GenerateOrSleep  - 阻塞轮询（64ms 间隔）直到时钟恢复
//	GenerateOrAwait  - 同上，但通过 context 支持取消
//
// # 线程安全
//
// Generate/GenerateOrReset/GenerateOrSleep/GenerateOrAwait 以及全部
// 包级函数都是并发安全的。Core 后缀的确定性原语不加锁，并发使用
// 必须由调用方自行串行化——这是文档化的调用方义务，不是缺陷。
//
// # 计数器初始化策略
//
// 每当 timestamp 前进，生成器通过 [CounterMode] 策略选取计数器初始值。
// 默认策略（[DefaultCounterMode]）使用随机初始值并保留若干前导零位
// 作为溢出缓冲；测试等场景可注入确定性实现。随机数不具密码学强度，
// 按域唯一性也不依赖其不可预测性。
package scru64
