// Package logging 提供基于 zerolog 的日志构造与请求 ID 透传。
//
//	logger := logging.New(logging.Config{Level: "debug", Format: "console"})
//	log := logging.Component(logger, "graph")
//	log.Info().Int("nodes", n).Msg("similarity graph rebuilt")
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Config 日志配置
type Config struct {
	// Level: trace, debug, info, warn, error, disabled，默认 info
	Level string `yaml:"level" validate:"omitempty,oneof=trace debug info warn warning error fatal panic disabled"`

	// Format: json 或 console，默认 json
	Format string `yaml:"format" validate:"omitempty,oneof=json console"`

	// Caller 是否输出调用位置
	Caller bool `yaml:"caller"`

	// Output 默认 os.Stderr
	Output io.Writer `yaml:"-"`
}

// New 根据配置构造 logger，不修改全局状态。
func New(cfg Config) zerolog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	out := cfg.Output
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: "15:04:05"}
	}

	ctx := zerolog.New(out).Level(ParseLevel(cfg.Level)).With().Timestamp()
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}

// Nop 返回丢弃所有输出的 logger，测试与未配置时使用。
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

// Component 派生带 component 字段的子 logger。
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}

// ParseLevel 把字符串转换为 zerolog.Level，未知值按 info 处理。
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	case "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// GenerateRequestID 生成请求 ID
func GenerateRequestID() string {
	return uuid.New().String()
}

// ContextWithRequestID 在 ctx 中写入请求 ID
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext 取出请求 ID，不存在时为空串
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// EnsureRequestID 保证 ctx 中带请求 ID，返回新的 ctx 与 ID。
func EnsureRequestID(ctx context.Context) (context.Context, string) {
	if id := RequestIDFromContext(ctx); id != "" {
		return ctx, id
	}
	id := GenerateRequestID()
	return ContextWithRequestID(ctx, id), id
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
