package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/omeyang/scru64/internal/conf"
	"github.com/omeyang/scru64/internal/rotate"
	"github.com/omeyang/scru64/pkg/scru64"
)

// 压测默认参数。
const (
	defaultStressCount   = 10_000
	defaultStressWorkers = 4
)

// exitError 表示需要非零退出码但已完成输出的场景。
// 命令内部已完成所有输出，main 只需设置退出码。
type exitError struct {
	code int
}

func (e *exitError) Error() string { return "" }

// usageError 表示用户参数错误，映射到退出码 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

// 创建所有子命令。
func createCommands() []*cli.Command {
	return []*cli.Command{
		createNewCommand(),
		createInspectCommand(),
		createSpecCommand(),
		createStressCommand(),
	}
}

// createNewCommand 创建 new 子命令（生成 ID）。
func createNewCommand() *cli.Command {
	return &cli.Command{
		Name:  "new",
		Usage: "生成新的 SCRU64 ID",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "count",
				Usage: "生成数量",
				Value: 1,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			gen, logger, closeFn, cfg, err := setupGenerator(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			count := int(cmd.Int("count"))
			if !cmd.IsSet("count") && cfg != nil && cfg.Count > 0 {
				count = cfg.Count
			}
			return cmdNew(ctx, cmd.Root().Writer, gen, logger, count)
		},
	}
}

// createInspectCommand 创建 inspect 子命令（解析 ID 字段）。
func createInspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "解析并显示 ID 的内部字段",
		ArgsUsage: "<id>...",
		Action: func(_ context.Context, cmd *cli.Command) error {
			return cmdInspect(cmd.Root().Writer, cmd.Args().Slice())
		},
	}
}

// createSpecCommand 创建 spec 子命令（解析节点配置）。
func createSpecCommand() *cli.Command {
	return &cli.Command{
		Name:      "spec",
		Usage:     "解析并显示节点配置",
		ArgsUsage: "<node-spec>",
		Action: func(_ context.Context, cmd *cli.Command) error {
			args := cmd.Args().Slice()
			if len(args) != 1 {
				return &usageError{msg: "spec 命令需要且仅需要一个节点配置参数"}
			}
			return cmdSpec(cmd.Root().Writer, args[0])
		},
	}
}

// createStressCommand 创建 stress 子命令（并发压测）。
func createStressCommand() *cli.Command {
	return &cli.Command{
		Name:  "stress",
		Usage: "并发生成压测，校验唯一性与单调性",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "count",
				Usage: "生成总数",
				Value: defaultStressCount,
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "并发 worker 数",
				Value: defaultStressWorkers,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			gen, logger, closeFn, cfg, err := setupGenerator(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			count := int(cmd.Int("count"))
			workers := int(cmd.Int("workers"))
			if cfg != nil {
				if !cmd.IsSet("count") && cfg.Count > 0 {
					count = cfg.Count
				}
				if !cmd.IsSet("workers") && cfg.Workers > 0 {
					workers = cfg.Workers
				}
			}
			return cmdStress(ctx, cmd.Root().Writer, gen, logger, count, workers)
		},
	}
}

// setupGenerator 按优先级解析节点配置并构建生成器、日志器与配置。
// 返回的 closeFn 关闭日志输出文件（无日志文件时为空操作）。
func setupGenerator(cmd *cli.Command) (*scru64.Generator, *slog.Logger, func(), *conf.Config, error) {
	noop := func() {}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, noop, nil, err
	}

	specStr, err := pickNodeSpec(cmd, cfg)
	if err != nil {
		return nil, nil, noop, nil, err
	}

	spec, err := scru64.ParseNodeSpec(specStr)
	if err != nil {
		return nil, nil, noop, nil, &usageError{msg: fmt.Sprintf("无效的节点配置 %q: %v", specStr, err)}
	}

	gen, err := scru64.NewGenerator(spec)
	if err != nil {
		return nil, nil, noop, nil, err
	}

	logger, closeFn, err := setupLogger(cmd, cfg)
	if err != nil {
		return nil, nil, noop, nil, err
	}

	return gen, logger, closeFn, cfg, nil
}

// loadConfig 加载 --config 指定的配置文件，未指定时返回 nil。
func loadConfig(cmd *cli.Command) (*conf.Config, error) {
	path := cmd.String("config")
	if path == "" {
		return nil, nil
	}
	cfg, err := conf.Load(path)
	if err != nil {
		return nil, fmt.Errorf("加载配置文件失败: %w", err)
	}
	return cfg, nil
}

// pickNodeSpec 解析节点配置字符串。
// 优先级: --node-spec 标志 > 配置文件 node_spec > SCRU64_NODE_SPEC 环境变量。
func pickNodeSpec(cmd *cli.Command, cfg *conf.Config) (string, error) {
	if flagSpec := cmd.String("node-spec"); flagSpec != "" {
		return flagSpec, nil
	}
	if cfg != nil && cfg.NodeSpec != "" {
		return cfg.NodeSpec, nil
	}
	if envSpec, ok := os.LookupEnv(scru64.EnvNodeSpec); ok && envSpec != "" {
		return envSpec, nil
	}
	return "", &usageError{msg: fmt.Sprintf(
		"未指定节点配置，请使用 --node-spec、配置文件或 %s 环境变量", scru64.EnvNodeSpec)}
}

// setupLogger 构建日志器。指定 --log-file（或配置文件 log.path）时
// 输出 JSON 到轮转文件，否则丢弃日志（诊断信息全部经 stdout/stderr 输出）。
func setupLogger(cmd *cli.Command, cfg *conf.Config) (*slog.Logger, func(), error) {
	noop := func() {}

	path := cmd.String("log-file")
	var opts *rotate.Options
	if cfg != nil {
		if path == "" {
			path = cfg.Log.Path
		}
		opts = &rotate.Options{
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
		}
	}
	if path == "" {
		return slog.New(slog.DiscardHandler), noop, nil
	}

	w, err := rotate.NewWriter(path, opts)
	if err != nil {
		return nil, noop, fmt.Errorf("创建日志输出失败: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(w, nil))
	return logger, func() { _ = w.Close() }, nil
}

// cmdNew 生成 count 个 ID 并逐行输出。
func cmdNew(ctx context.Context, w io.Writer, gen *scru64.Generator, logger *slog.Logger, count int) error {
	if count < 1 {
		return &usageError{msg: "count 必须为正数"}
	}

	start := time.Now()
	for i := 0; i < count; i++ {
		id, err := gen.GenerateOrAwait(ctx)
		if err != nil {
			return fmt.Errorf("生成 ID 失败: %w", err)
		}
		fmt.Fprintln(w, id.String())
	}

	logger.Info("生成完成",
		slog.Int("count", count),
		slog.String("node_spec", gen.NodeSpec().String()),
		slog.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// cmdInspect 解析每个 ID 并显示内部字段。
func cmdInspect(w io.Writer, args []string) error {
	if len(args) == 0 {
		return &usageError{msg: "inspect 命令需要至少一个 ID 参数"}
	}

	for _, arg := range args {
		id, err := scru64.ParseID(arg)
		if err != nil {
			return &usageError{msg: fmt.Sprintf("无效的 ID %q: %v", arg, err)}
		}

		tsMs := id.Timestamp() << 8
		fmt.Fprintf(w, "%s\n", id)
		fmt.Fprintf(w, "  num:       %d\n", id.Num())
		fmt.Fprintf(w, "  timestamp: %d (%s)\n", id.Timestamp(),
			time.UnixMilli(int64(tsMs)).UTC().Format(time.RFC3339))
		fmt.Fprintf(w, "  node_ctr:  %d (0x%06x)\n", id.NodeCtr(), id.NodeCtr())
	}
	return nil
}

// cmdSpec 解析节点配置并显示详情。
func cmdSpec(w io.Writer, arg string) error {
	spec, err := scru64.ParseNodeSpec(arg)
	if err != nil {
		return &usageError{msg: fmt.Sprintf("无效的节点配置 %q: %v", arg, err)}
	}

	fmt.Fprintf(w, "canonical:    %s\n", spec)
	fmt.Fprintf(w, "node_id:      %d\n", spec.NodeID())
	fmt.Fprintf(w, "node_id_size: %d\n", spec.NodeIDSize())
	fmt.Fprintf(w, "counter_size: %d\n", spec.CounterSize())
	if prev, ok := spec.NodePrev(); ok {
		fmt.Fprintf(w, "node_prev:    %s\n", prev)
	}
	return nil
}

// cmdStress 并发生成 ID 并校验全局唯一与 worker 内单调递增。
// 设计决策: 校验失败返回 exitError 而非普通错误，
// 压测结果已输出到 stdout，main 只需设置退出码 1。
func cmdStress(ctx context.Context, w io.Writer, gen *scru64.Generator, logger *slog.Logger, count, workers int) error {
	if count < 1 || workers < 1 {
		return &usageError{msg: "count 和 workers 必须为正数"}
	}
	if workers > count {
		workers = count
	}

	perWorker := count / workers
	results := make([][]scru64.ID, workers)

	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		n := perWorker
		if i == workers-1 {
			n += count % workers // 余数归给最后一个 worker
		}
		results[i] = make([]scru64.ID, 0, n)
		idx := i
		g.Go(func() error {
			for j := 0; j < n; j++ {
				id, err := gen.GenerateOrAwait(gctx)
				if err != nil {
					return err
				}
				results[idx] = append(results[idx], id)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("压测生成失败: %w", err)
	}

	elapsed := time.Since(start)

	// 校验 worker 内单调递增
	monotonic := true
	for _, ids := range results {
		for j := 1; j < len(ids); j++ {
			if ids[j] <= ids[j-1] {
				monotonic = false
			}
		}
	}

	// 校验全局唯一
	all := make([]scru64.ID, 0, count)
	for _, ids := range results {
		all = append(all, ids...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
	duplicates := 0
	for i := 1; i < len(all); i++ {
		if all[i] == all[i-1] {
			duplicates++
		}
	}

	rate := float64(count) / elapsed.Seconds()
	fmt.Fprintf(w, "generated:  %d\n", count)
	fmt.Fprintf(w, "workers:    %d\n", workers)
	fmt.Fprintf(w, "elapsed:    %s\n", elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "rate:       %.0f id/s\n", rate)
	fmt.Fprintf(w, "duplicates: %d\n", duplicates)
	fmt.Fprintf(w, "monotonic:  %v\n", monotonic)

	logger.Info("压测完成",
		slog.Int("count", count),
		slog.Int("workers", workers),
		slog.Int("duplicates", duplicates),
		slog.Bool("monotonic", monotonic),
		slog.Duration("elapsed", elapsed),
	)

	if duplicates > 0 || !monotonic {
		return &exitError{code: 1}
	}
	return nil
}

// setupSignalHandler 设置信号处理。
// 设计决策: 第一次信号优雅取消，第二次信号强制退出（退出码 130 = 128 + SIGINT）。
// 当命令阻塞时，用户可通过再次 Ctrl+C 强制退出。
func setupSignalHandler(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel() // 第一次信号: 优雅取消

		<-sigCh
		signal.Stop(sigCh) // 回收订阅
		os.Exit(130)       // 第二次信号: 强制退出
	}()
}
