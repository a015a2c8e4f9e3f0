package scru64

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// =============================================================================
// 协议常量
// =============================================================================

const (
	// timestampShift 毫秒时间戳到内部 tick 的右移位数（1 tick = 256ms）。
	timestampShift = 8

	// defaultRollbackAllowance 墙钟入口默认的时钟回拨容忍度（毫秒）。
	defaultRollbackAllowance = 10_000

	// maxRollbackAllowanceTicks 回拨容忍度换算为 tick 后的上限（不含）。
	maxRollbackAllowanceTicks = int64(1) << 40

	// pollInterval 等待类入口的固定轮询间隔。
	pollInterval = 64 * time.Millisecond
)

// =============================================================================
// 生成器
// =============================================================================

// Generator 表示一个 SCRU64 ID 生成器。
//
// 生成器持有唯一一份可变状态：上一次发出的 ID（prev）。每次成功的
// 生成调用都会更新该状态，从而保证同一实例发出的 ID 严格递增。
//
// 六种生成入口的差异：
//
//	| 入口                 | 时间戳 | 线程安全 | 显著时钟回拨时       |
//	| -------------------- | ------ | -------- | -------------------- |
//	| Generate             | 当前   | 安全     | 返回 ErrClockRollback |
//	| GenerateOrReset      | 当前   | 安全     | 重置状态             |
//	| GenerateOrSleep      | 当前   | 安全     | 阻塞等待             |
//	| GenerateOrAwait      | 当前   | 安全     | 轮询等待（可取消）   |
//	| GenerateOrAbortCore  | 参数   | 不安全   | 返回 ErrClockRollback |
//	| GenerateOrResetCore  | 参数   | 不安全   | 重置状态             |
//
// 除非时间戳比上一个 ID 内嵌的时间戳显著回退（超过回拨容忍度，墙钟
// 入口约为 10 秒），每个入口返回的 ID 均单调递增。检测到显著回拨时：
// (i) abort 族保持状态不变并返回 [ErrClockRollback]；(ii) reset 族
// 无条件重置状态并继续发号（代价是跨重置的单调性被有意放弃）；
// (iii) sleep/await 族以 64ms 固定间隔轮询，等待墙钟回到容忍窗口内。
//
// Core 后缀的方法是未加锁的确定性原语，并发使用必须由调用方自行
// 串行化；其余入口对整个"读取时钟 + 推进状态"序列持有互斥锁。
type Generator struct {
	mu          sync.Mutex
	prev        ID
	counterSize uint8
	counterMode CounterMode
}

// NewGenerator 用节点配置创建生成器，计数器策略使用默认选择：
// counter_size ≤ 4 时为 NewDefaultCounterMode(1)，否则为
// NewDefaultCounterMode(0)。
//
// spec 必须由本包的构造函数或解析函数产生；零值 NodeSpec 返回 [ErrRange]。
func NewGenerator(spec NodeSpec) (*Generator, error) {
	var guard int
	if spec.CounterSize() <= 4 {
		// 小计数器位宽下保留 1 位溢出缓冲
		guard = 1
	}
	mode, err := NewDefaultCounterMode(guard)
	if err != nil {
		return nil, err
	}
	return NewGeneratorWithCounterMode(spec, mode)
}

// NewGeneratorWithCounterMode 用节点配置和自定义计数器策略创建生成器。
//
// spec 必须由本包的构造函数或解析函数产生；零值 NodeSpec 返回 [ErrRange]。
func NewGeneratorWithCounterMode(spec NodeSpec, counterMode CounterMode) (*Generator, error) {
	if spec.NodeIDSize() == 0 {
		return nil, fmt.Errorf("%w: zero-value NodeSpec", ErrRange)
	}
	if counterMode == nil {
		return nil, fmt.Errorf("%w: nil CounterMode", ErrRange)
	}
	return &Generator{
		prev:        spec.nodePrev,
		counterSize: uint8(spec.CounterSize()),
		counterMode: counterMode,
	}, nil
}

// =============================================================================
// 未同步的确定性原语
// =============================================================================

// GenerateOrAbortCore 从毫秒 Unix 时间戳生成新 ID，在显著时钟回拨时
// 保持状态不变并返回 [ErrClockRollback]。
//
// rollbackAllowance 以毫秒为单位，指定可容忍的最大回拨幅度；
// 墙钟入口使用的默认值约为 10 秒。unixTsMs 右移 8 位后必须为正，
// rollbackAllowance 右移 8 位后必须落在 [0, 2^40)，否则返回 [ErrRange]。
//
// 本方法不是线程安全的：并发访问必须由调用方用互斥锁等机制串行化。
func (g *Generator) GenerateOrAbortCore(unixTsMs int64, rollbackAllowance int64) (ID, error) {
	timestamp := unixTsMs >> timestampShift
	if timestamp <= 0 {
		return 0, fmt.Errorf("%w: timestamp %dms out of range", ErrRange, unixTsMs)
	}
	allowance := rollbackAllowance >> timestampShift
	if allowance < 0 || allowance >= maxRollbackAllowanceTicks {
		return 0, fmt.Errorf("%w: rollback_allowance %dms out of range", ErrRange, rollbackAllowance)
	}

	prevTimestamp := g.prev.Timestamp()
	switch {
	case uint64(timestamp) > prevTimestamp:
		// 时间戳前进：换轮并重新初始化计数器
		next, err := FromParts(uint64(timestamp), g.renewNodeCtr(uint64(timestamp)))
		if err != nil {
			return 0, err
		}
		g.prev = next
	case uint64(timestamp)+uint64(allowance) >= prevTimestamp:
		// 轻微回拨或原地踏步：沿用上一个时间戳
		prevNodeCtr := g.prev.NodeCtr()
		counterMask := uint32(1)<<g.counterSize - 1
		if prevNodeCtr&counterMask < counterMask {
			next, err := FromParts(prevTimestamp, prevNodeCtr+1)
			if err != nil {
				return 0, err
			}
			g.prev = next
		} else {
			// 计数器字段饱和：借位推进时间戳一个 tick
			next, err := FromParts(prevTimestamp+1, g.renewNodeCtr(prevTimestamp+1))
			if err != nil {
				return 0, err
			}
			g.prev = next
		}
	default:
		// 回拨幅度超出容忍度
		return 0, ErrClockRollback
	}
	return g.prev, nil
}

// GenerateOrResetCore 从毫秒 Unix 时间戳生成新 ID，在显著时钟回拨时
// 无条件重置生成器状态后继续发号。
//
// 重置意味着本次返回的 ID 时间戳可能小于上一次的输出：为保持生成器
// 可用，跨重置的单调性被有意放弃。参数约束同 [Generator.GenerateOrAbortCore]。
//
// 本方法不是线程安全的：并发访问必须由调用方用互斥锁等机制串行化。
func (g *Generator) GenerateOrResetCore(unixTsMs int64, rollbackAllowance int64) (ID, error) {
	id, err := g.GenerateOrAbortCore(unixTsMs, rollbackAllowance)
	if errors.Is(err, ErrClockRollback) {
		// 重置状态后恢复发号
		timestamp := uint64(unixTsMs >> timestampShift)
		next, err := FromParts(timestamp, g.renewNodeCtr(timestamp))
		if err != nil {
			return 0, err
		}
		g.prev = next
		return g.prev, nil
	}
	return id, err
}

// renewNodeCtr 为下一个 timestamp tick 计算新的 node_ctr 组合字段值。
func (g *Generator) renewNodeCtr(timestamp uint64) uint32 {
	nodeID := g.nodeID()
	counter := g.counterMode.Renew(int(g.counterSize), RenewContext{
		Timestamp: timestamp,
		NodeID:    nodeID,
	})
	if counter >= uint32(1)<<g.counterSize {
		// 契约违约是策略实现的编程错误，不能静默截断
		panic(fmt.Sprintf(
			"scru64: broken CounterMode implementation: counter %d does not fit in %d bits",
			counter, g.counterSize,
		))
	}
	return nodeID<<g.counterSize | counter
}

// =============================================================================
// 线程安全的墙钟入口
// =============================================================================

// Generate 从当前时间生成新 ID，在显著时钟回拨时返回 [ErrClockRollback]。
//
// 回拨容忍度固定为约 10 秒。本方法是并发安全的。
func (g *Generator) Generate() (ID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.GenerateOrAbortCore(time.Now().UnixMilli(), defaultRollbackAllowance)
}

// GenerateOrReset 从当前时间生成新 ID，在显著时钟回拨时重置状态后继续。
//
// 回拨容忍度固定为约 10 秒。本方法是并发安全的。
func (g *Generator) GenerateOrReset() (ID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.GenerateOrResetCore(time.Now().UnixMilli(), defaultRollbackAllowance)
}

// GenerateOrSleep 从当前时间生成新 ID，在显著时钟回拨时阻塞当前
// goroutine，以 64ms 固定间隔轮询直到墙钟回到容忍窗口内。
//
// 等待循环没有退避升级也没有次数上限，且不提供取消钩子；
// 需要取消能力时请使用 [Generator.GenerateOrAwait]。本方法是并发安全的。
func (g *Generator) GenerateOrSleep() ID {
	for {
		// 墙钟输入下 Generate 唯一的失败模式是 ErrClockRollback
		id, err := g.Generate()
		if err == nil {
			return id
		}
		time.Sleep(pollInterval)
	}
}

// GenerateOrAwait 从当前时间生成新 ID，在显著时钟回拨时以 64ms 固定
// 间隔轮询等待，可通过 ctx 取消。
//
// 取消只会中断等待，不会破坏生成器状态（挂起期间不持有锁、不改状态）。
// 等待期间仅重试 [ErrClockRollback]，其余错误立即返回。
// ctx 为 nil 时返回 [ErrNilContext]。本方法是并发安全的。
func (g *Generator) GenerateOrAwait(ctx context.Context) (ID, error) {
	if ctx == nil {
		return 0, ErrNilContext
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	// 快速路径：首次尝试成功则不分配 timer
	id, err := g.Generate()
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, ErrClockRollback) {
		return 0, err
	}

	timer := time.NewTimer(pollInterval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-timer.C:
		}

		id, err := g.Generate()
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, ErrClockRollback) {
			return 0, err
		}
		timer.Reset(pollInterval)
	}
}

// =============================================================================
// 访问器
// =============================================================================

// nodeID 返回 node_id，不加锁。内部在已持锁或单线程上下文中使用。
func (g *Generator) nodeID() uint32 {
	return g.prev.NodeCtr() >> g.counterSize
}

// NodeID 返回生成器采用的 node_id。本方法是并发安全的。
func (g *Generator) NodeID() uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.nodeID()
}

// NodeIDSize 返回生成器采用的 node_id 位宽。
func (g *Generator) NodeIDSize() int { return NodeCtrSize - int(g.counterSize) }

// CounterSize 返回生成器采用的 counter 位宽。
func (g *Generator) CounterSize() int { return int(g.counterSize) }

// NodeSpec 返回描述生成器当前状态的节点配置快照。
//
// 尚未发号时（内部状态仍为零时间戳占位值）快照呈现裸 node_id 形式，
// 否则呈现以当前状态为续发起点的 resume 形式，可用于重建生成器并
// 延续单调序列。本方法是并发安全的。
func (g *Generator) NodeSpec() NodeSpec {
	g.mu.Lock()
	defer g.mu.Unlock()
	return NodeSpec{nodePrev: g.prev, nodeIDSize: uint8(g.NodeIDSize())}
}
