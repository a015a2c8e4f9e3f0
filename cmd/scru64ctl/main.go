// scru64ctl 是 SCRU64 ID 的命令行工具。
//
// 用法:
//
//	scru64ctl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-n, --node-spec  节点配置（如 "42/8"、"0xb00/12"、"0u2r85hmxqh0/22"）
//	-c, --config     配置文件路径（YAML 或 JSON）
//	    --log-file   日志文件路径（启用后以 JSON 格式写入，自动轮转）
//
// 命令:
//
//	new [-count N]               生成 N 个新 ID（默认 1）
//	inspect <id>...              解析并显示 ID 的内部字段
//	spec <node-spec>             解析并显示节点配置
//	stress [-count N] [-workers M]  并发生成压测，校验唯一性与单调性
//	help                         显示帮助信息
//
// 节点配置来源优先级:
//
//	--node-spec 标志 > 配置文件 node_spec 字段 > SCRU64_NODE_SPEC 环境变量
//
// 退出码:
//
//	0: 命令执行成功
//	1: 命令执行失败（生成失败、压测校验失败等）
//	2: 参数错误（无效节点配置、无效 ID、未知命令等）
//
// 示例:
//
//	scru64ctl -n 42/8 new                    # 生成一个 ID
//	scru64ctl -n 42/8 new -count 10          # 生成 10 个 ID
//	scru64ctl inspect 0u2r85hm2pt3           # 显示 ID 字段
//	scru64ctl spec 0xb00/12                  # 显示节点配置详情
//	scru64ctl -c conf.yaml stress -count 100000 -workers 8
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
)

// 版本信息（可通过 -ldflags 注入，例如:
//
//	go build -ldflags "-X main.Version=1.0.0 -X main.GitCommit=$(git rev-parse --short HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// ）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run(os.Args))
}

// createApp 创建 CLI 应用。
func createApp() *cli.Command {
	return &cli.Command{
		Name:    "scru64ctl",
		Usage:   "SCRU64 ID 生成与诊断工具",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "node-spec",
				Aliases: []string{"n"},
				Usage:   "节点配置（优先级最高）",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件路径（YAML 或 JSON）",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "日志文件路径（启用 JSON 日志，自动轮转）",
			},
		},
		Commands:       createCommands(),
		DefaultCommand: "help",
		Authors: []any{
			"SCRU64 Team",
		},
		// 设计决策: 禁止 urfave/cli 直接调用 os.Exit，
		// 由 run() 统一处理退出码映射，确保与文档退出码契约一致。
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			// ExitCoder 错误（如未知命令）的消息需在此输出，
			// 替代 HandleExitCoder 的默认 os.Exit 行为。
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(os.Stderr, err)
			}
		},
		Description: `scru64ctl 用于生成 SCRU64 ID、解析 ID 内部字段、
校验节点配置，以及对生成器做并发压测。

ID 结构（64 位）:
  timestamp   高 40 位，256 毫秒精度
  node_id     中间 1~23 位（宽度由节点配置决定）
  counter     剩余低位`,
	}
}

func run(args []string) int {
	app := createApp()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	setupSignalHandler(cancel)

	if err := app.Run(ctx, args); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		var usageErr *usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(os.Stderr, "参数错误: %v\n", usageErr)
			return 2
		}
		// CLI 框架产生的参数错误（如未知 flag、未知命令）也返回退出码 2，
		// 与文档契约"参数错误 → 退出码 2"保持一致。
		if isCLIUsageError(err) {
			// ExitErrHandler 或 flag 解析器已向 stderr 输出错误详情，此处仅设置退出码
			return 2
		}
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		return 1
	}

	return 0
}

// isCLIUsageError 判断错误是否为 urfave/cli 框架产生的参数错误。
// 未知命令由框架包装为 ExitCoder；未知 flag 与非法 flag 值
// 来自标准库 flag 解析器，只能按消息前缀识别。
func isCLIUsageError(err error) bool {
	if _, ok := err.(cli.ExitCoder); ok {
		return true
	}
	msg := err.Error()
	return strings.HasPrefix(msg, "flag provided but not defined") ||
		strings.HasPrefix(msg, "invalid value") ||
		strings.HasPrefix(msg, "flag needs an argument")
}
