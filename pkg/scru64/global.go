package scru64

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
)

// =============================================================================
// 进程级默认生成器
// =============================================================================

// EnvNodeSpec 懒初始化时读取节点配置的环境变量。
//
// 核心类型（ID/NodeSpec/Generator）从不读取环境：环境访问只发生在
// 这一层，且仅在未显式调用 Init 时的首次包级函数调用中。
const EnvNodeSpec = "SCRU64_NODE_SPEC"

var (
	defaultGen atomic.Pointer[Generator]
	initMu     sync.Mutex
	// initCalled 标记用户是否显式调用过 Init。一旦为 true，
	// ensureInitialized 不再自动初始化，避免覆盖用户意图。受 initMu 保护。
	initCalled bool
)

// Init 用给定的节点配置初始化进程级默认生成器。
//
// 未调用 Init 时，首次包级发号调用会从 SCRU64_NODE_SPEC 环境变量
// 自动初始化。Init 只能成功一次，此后（包括已被自动初始化后）再调用
// 返回 [ErrAlreadyInitialized]。与 sync.Once 不同，Init 失败后可再次
// 调用重试。建议在应用启动时调用，以便尽早发现配置问题；测试中也应
// 在首次懒初始化之前用 Init 显式注入配置，避免依赖进程环境。
//
// 如果需要多个独立生成器，请使用 [NewGenerator]。
func Init(spec NodeSpec) error {
	initMu.Lock()
	defer initMu.Unlock()
	if defaultGen.Load() != nil {
		return ErrAlreadyInitialized
	}
	initCalled = true
	gen, err := NewGenerator(spec)
	if err != nil {
		return err
	}
	defaultGen.Store(gen)
	return nil
}

// ensureInitialized 确保默认生成器已初始化，返回可用的生成器。
//
// 使用 double-checked locking：快速路径仅需一次原子 Load。
// 如果用户显式调用过 Init 但失败了，不会自动用环境配置覆盖用户意图，
// 而是返回 ErrNotInitialized，提示用户重新 Init。
func ensureInitialized() (*Generator, error) {
	if gen := defaultGen.Load(); gen != nil {
		return gen, nil
	}
	initMu.Lock()
	defer initMu.Unlock()
	if gen := defaultGen.Load(); gen != nil {
		return gen, nil
	}
	if initCalled {
		return nil, ErrNotInitialized
	}
	raw, ok := os.LookupEnv(EnvNodeSpec)
	if !ok {
		return nil, fmt.Errorf("scru64: could not read config from %s env var", EnvNodeSpec)
	}
	spec, err := ParseNodeSpec(raw)
	if err != nil {
		return nil, fmt.Errorf("scru64: malformed %s env var: %w", EnvNodeSpec, err)
	}
	gen, err := NewGenerator(spec)
	if err != nil {
		return nil, err
	}
	defaultGen.Store(gen)
	return gen, nil
}

// GlobalGenerator 返回进程级默认生成器，必要时触发懒初始化。
//
// 用于 node_id、node_spec 等状态的自省。
func GlobalGenerator() (*Generator, error) {
	return ensureInitialized()
}

// =============================================================================
// 包级便捷函数
// =============================================================================

// New 用默认生成器生成新的 ID。
//
// 显著时钟回拨时阻塞等待（语义同 [Generator.GenerateOrSleep]）。
// 返回错误仅来自初始化失败。
func New() (ID, error) {
	gen, err := ensureInitialized()
	if err != nil {
		return 0, err
	}
	return gen.GenerateOrSleep(), nil
}

// NewString 用默认生成器生成新的 ID，编码为 12 位规范字符串表示。
//
// 显著时钟回拨时阻塞等待。返回错误仅来自初始化失败。
func NewString() (string, error) {
	id, err := New()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// NewContext 用默认生成器生成新的 ID。
//
// 显著时钟回拨时轮询等待，可通过 ctx 取消（语义同 [Generator.GenerateOrAwait]）。
func NewContext(ctx context.Context) (ID, error) {
	gen, err := ensureInitialized()
	if err != nil {
		return 0, err
	}
	return gen.GenerateOrAwait(ctx)
}

// NewStringContext 用默认生成器生成新的 ID，编码为 12 位规范字符串表示。
//
// 显著时钟回拨时轮询等待，可通过 ctx 取消。
func NewStringContext(ctx context.Context) (string, error) {
	id, err := NewContext(ctx)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// MustNew 与 New 相同，但失败时 panic。
//
// 适用于明确接受 crash-fast 策略的场景（如启动时预生成 ID）。
func MustNew() ID {
	id, err := New()
	if err != nil {
		panic(err)
	}
	return id
}

// MustNewString 与 NewString 相同，但失败时 panic。
func MustNewString() string {
	s, err := NewString()
	if err != nil {
		panic(err)
	}
	return s
}
