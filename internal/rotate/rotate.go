// Package rotate 为 scru64ctl 提供带轮转的日志文件输出。
//
// 基于 lumberjack 实现，返回可直接用作 slog 输出目标的 io.WriteCloser。
package rotate

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/natefinch/lumberjack.v2"
)

// 配置校验错误。
var (
	// ErrEmptyFilename 文件名为空。
	ErrEmptyFilename = errors.New("rotate: filename is required")

	// ErrInvalidOption 选项值无效（负数）。
	ErrInvalidOption = errors.New("rotate: invalid option value")
)

// 默认轮转参数。
const (
	defaultMaxSizeMB  = 100
	defaultMaxBackups = 3
	defaultMaxAgeDays = 7
)

// Options 轮转参数。零值字段使用默认值。
type Options struct {
	// MaxSizeMB 单个日志文件的最大大小（MB），默认 100。
	MaxSizeMB int

	// MaxBackups 保留的旧日志文件数量，默认 3。
	MaxBackups int

	// MaxAgeDays 旧日志文件的最长保留天数，默认 7。
	MaxAgeDays int
}

// NewWriter 创建写入 filename 的轮转日志输出。
//
// 文件及其目录在首次写入时按需创建。opts 为 nil 时全部使用默认值。
func NewWriter(filename string, opts *Options) (io.WriteCloser, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}

	o := Options{}
	if opts != nil {
		o = *opts
	}
	if o.MaxSizeMB < 0 || o.MaxBackups < 0 || o.MaxAgeDays < 0 {
		return nil, fmt.Errorf("%w: sizes and ages must be non-negative", ErrInvalidOption)
	}
	if o.MaxSizeMB == 0 {
		o.MaxSizeMB = defaultMaxSizeMB
	}
	if o.MaxBackups == 0 {
		o.MaxBackups = defaultMaxBackups
	}
	if o.MaxAgeDays == 0 {
		o.MaxAgeDays = defaultMaxAgeDays
	}

	return &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    o.MaxSizeMB,
		MaxBackups: o.MaxBackups,
		MaxAge:     o.MaxAgeDays,
	}, nil
}
