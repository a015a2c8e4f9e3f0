package conf

import "errors"

// 配置加载和解析相关错误。
var (
	// ErrEmptyPath 配置文件路径为空。
	ErrEmptyPath = errors.New("conf: empty config path")

	// ErrUnsupportedFormat 不支持的配置格式。
	ErrUnsupportedFormat = errors.New("conf: unsupported config format")

	// ErrLoadFailed 配置加载失败。
	ErrLoadFailed = errors.New("conf: failed to load config")

	// ErrParseFailed 配置解析失败。
	ErrParseFailed = errors.New("conf: failed to parse config")

	// ErrUnmarshalFailed 配置反序列化失败。
	ErrUnmarshalFailed = errors.New("conf: failed to unmarshal config")
)
