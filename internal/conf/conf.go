// Package conf 为 scru64ctl 提供配置文件加载能力。
//
// 基于 koanf 实现，支持 YAML 与 JSON 两种格式（按文件扩展名自动检测）。
// 配置只在启动时加载一次，不提供热更新。
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Format 定义配置文件格式。
type Format string

// 支持的配置格式。
const (
	// FormatYAML YAML 格式。
	FormatYAML Format = "yaml"

	// FormatJSON JSON 格式。
	FormatJSON Format = "json"
)

// delim 配置键分隔符。
const delim = "."

// Config scru64ctl 的文件配置。
//
// 所有字段都是可选的；命令行标志优先于文件配置。
type Config struct {
	// NodeSpec 节点配置字符串（如 "42/8"、"0xb3/12"）。
	NodeSpec string `koanf:"node_spec"`

	// Count new/stress 命令默认生成的 ID 数量。
	Count int `koanf:"count"`

	// Workers stress 命令默认的并发 worker 数。
	Workers int `koanf:"workers"`

	// Log 日志输出配置。
	Log LogConfig `koanf:"log"`
}

// LogConfig 日志输出配置。
//
// Path 为空时日志写入 stderr，否则写入带轮转的文件。
type LogConfig struct {
	// Path 日志文件路径。
	Path string `koanf:"path"`

	// MaxSizeMB 单个日志文件的最大大小（MB）。
	MaxSizeMB int `koanf:"max_size_mb"`

	// MaxBackups 保留的旧日志文件数量。
	MaxBackups int `koanf:"max_backups"`

	// MaxAgeDays 旧日志文件的最长保留天数。
	MaxAgeDays int `koanf:"max_age_days"`
}

// Load 从文件路径加载配置。
//
// 根据文件扩展名自动检测格式（.yaml/.yml 或 .json）。
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	return LoadBytes(data, format)
}

// LoadBytes 从字节数据加载配置。
//
// 需要显式指定格式。空数据返回全零值配置，与读取空文件的行为一致。
func LoadBytes(data []byte, format Format) (*Config, error) {
	if !isValidFormat(format) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	k := koanf.New(delim)
	if len(data) > 0 {
		var parser koanf.Parser
		switch format {
		case FormatYAML:
			parser = yaml.Parser()
		case FormatJSON:
			parser = json.Parser()
		}
		if err := k.Load(rawbytes.Provider(data), parser); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
	}
	return &cfg, nil
}

// detectFormat 根据文件扩展名检测配置格式。
func detectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %q", ErrUnsupportedFormat, ext)
	}
}

// isValidFormat 检查格式是否有效。
func isValidFormat(format Format) bool {
	switch format {
	case FormatYAML, FormatJSON:
		return true
	default:
		return false
	}
}
