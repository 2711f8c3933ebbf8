package utils

import (
	"encoding"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var ErrUnknownLogLevel = errors.New("unknown log level (known: debug, info, warn, error, fatal)")

type LogLevel int

// The following are necessary for Cobra and Viper, respectively, to unmarshal log
// level CLI/config parameters properly.
var (
	_ pflag.Value              = (*LogLevel)(nil)
	_ encoding.TextUnmarshaler = (*LogLevel)(nil)
)

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "debug"
	case INFO:
		return "info"
	case WARN:
		return "warn"
	case ERROR:
		return "error"
	case FATAL:
		return "fatal"
	default:
		panic(ErrUnknownLogLevel)
	}
}

func (l LogLevel) MarshalYAML() (interface{}, error) {
	return l.String(), nil
}

func (l *LogLevel) Set(s string) error {
	switch s {
	case "DEBUG", "debug":
		*l = DEBUG
	case "INFO", "info":
		*l = INFO
	case "WARN", "warn":
		*l = WARN
	case "ERROR", "error":
		*l = ERROR
	case "FATAL", "fatal":
		*l = FATAL
	default:
		return ErrUnknownLogLevel
	}
	return nil
}

func (l *LogLevel) Type() string { return "LogLevel" }

// ParseLevelOverrides parses a LOG_LEVEL-style value into a default level and
// a set of per-component overrides, e.g. "info,client=debug,aligner=warn"
// yields (INFO, {"client": DEBUG, "aligner": WARN}). An empty string yields
// (INFO, nil).
func ParseLevelOverrides(s string) (LogLevel, map[string]LogLevel, error) {
	if s == "" {
		return INFO, nil, nil
	}

	defaultLevel := INFO
	var overrides map[string]LogLevel

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, levelStr, scoped := strings.Cut(part, "=")
		var lvl LogLevel
		if !scoped {
			if err := lvl.Set(name); err != nil {
				return INFO, nil, err
			}
			defaultLevel = lvl
			continue
		}
		if err := lvl.Set(levelStr); err != nil {
			return INFO, nil, err
		}
		if overrides == nil {
			overrides = make(map[string]LogLevel)
		}
		overrides[name] = lvl
	}
	return defaultLevel, overrides, nil
}

func (l *LogLevel) MarshalJSON() ([]byte, error) {
	return json.RawMessage(`"` + l.String() + `"`), nil
}

func (l *LogLevel) UnmarshalText(text []byte) error {
	return l.Set(string(text))
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case DEBUG:
		return zapcore.DebugLevel
	case INFO:
		return zapcore.InfoLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	case FATAL:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// SimpleLogger is the minimal structured-logging surface every component
// depends on, matching the teacher's utils.SimpleLogger.
type SimpleLogger interface {
	Debugw(msg string, keysAndValues ...any)
	Infow(msg string, keysAndValues ...any)
	Warnw(msg string, keysAndValues ...any)
	Errorw(msg string, keysAndValues ...any)
}

// Logger additionally supports formatted fatal logging, used at the process
// entrypoint.
type Logger interface {
	SimpleLogger
	Fatalf(format string, args ...any)
}

type ZapLogger struct {
	*zap.SugaredLogger

	encoder   zapcore.Encoder
	writer    zapcore.WriteSyncer
	overrides map[string]LogLevel
}

var _ Logger = (*ZapLogger)(nil)
var _ Logger = (*noopLogger)(nil)

// NewZapLogger builds the process logger. When out is nil, logs go to stderr
// (stdout is reserved for FeedMessage lines per §6); otherwise out is used as
// the sole log sink, letting --log-dir redirect logs to a file.
func NewZapLogger(level LogLevel, out io.Writer) (*ZapLogger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	writer := zapcore.AddSync(os.Stderr)
	if out != nil {
		writer = zapcore.AddSync(out)
	}

	core := zapcore.NewCore(encoder, writer, zap.NewAtomicLevelAt(level.zapLevel()))
	return &ZapLogger{SugaredLogger: zap.New(core).Sugar(), encoder: encoder, writer: writer}, nil
}

// WithOverrides attaches LOG_LEVEL's component-scoped overrides (e.g.
// "client=debug"), keyed by the name a later Named call will use. It returns
// a new logger; the receiver is left untouched.
func (l *ZapLogger) WithOverrides(overrides map[string]LogLevel) *ZapLogger {
	clone := *l
	clone.overrides = overrides
	return &clone
}

// Named scopes the logger to a component name. If LOG_LEVEL carried an
// override for this exact name, that component gets its own core at the
// overridden level instead of inheriting the process-wide one.
func (l *ZapLogger) Named(name string) *ZapLogger {
	if lvl, ok := l.overrides[name]; ok && l.encoder != nil && l.writer != nil {
		core := zapcore.NewCore(l.encoder, l.writer, zap.NewAtomicLevelAt(lvl.zapLevel()))
		return &ZapLogger{
			SugaredLogger: zap.New(core).Sugar().Named(name),
			encoder:       l.encoder,
			writer:        l.writer,
			overrides:     l.overrides,
		}
	}
	return &ZapLogger{
		SugaredLogger: l.SugaredLogger.Named(name),
		encoder:       l.encoder,
		writer:        l.writer,
		overrides:     l.overrides,
	}
}

type noopLogger struct{}

func NewNopLogger() Logger { return &noopLogger{} }

func (l *noopLogger) Debugw(msg string, keysAndValues ...any) {}
func (l *noopLogger) Infow(msg string, keysAndValues ...any)  {}
func (l *noopLogger) Warnw(msg string, keysAndValues ...any)  {}
func (l *noopLogger) Errorw(msg string, keysAndValues ...any) {}
func (l *noopLogger) Fatalf(format string, args ...any)       {}
