package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogLevel int

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
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case DEBUG:
		return zapcore.DebugLevel
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

// ParseLevel maps a LOG_LEVEL value to a LogLevel. Unknown values yield INFO.
func ParseLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	case "FATAL":
		return FATAL
	default:
		return INFO
	}
}

type Logger struct {
	mu    sync.Mutex
	cfg   Config
	level zap.AtomicLevel
	sugar *zap.SugaredLogger
}

var (
	defaultLogger *Logger
	once          sync.Once
)

type Config struct {
	Level      LogLevel
	Prefix     string
	Colorize   bool
	ShowCaller bool
	ShowTime   bool
	TimeFormat string
	Output     io.Writer
}

func DefaultConfig() Config {
	return Config{
		Level:      INFO,
		Prefix:     "",
		Colorize:   true,
		ShowCaller: false,
		ShowTime:   true,
		TimeFormat: "2006-01-02 15:04:05",
		Output:     os.Stderr,
	}
}

func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	if cfg.TimeFormat == "" {
		cfg.TimeFormat = "2006-01-02 15:04:05"
	}

	l := &Logger{cfg: cfg, level: zap.NewAtomicLevelAt(cfg.Level.zapLevel())}
	l.rebuild()
	return l
}

// NewFromZap wraps an existing zap logger, e.g. one from zaptest.
func NewFromZap(z *zap.Logger) *Logger {
	return &Logger{
		cfg:   DefaultConfig(),
		level: zap.NewAtomicLevelAt(zapcore.DebugLevel),
		sugar: z.WithOptions(zap.AddCallerSkip(1)).Sugar(),
	}
}

// rebuild must be called with mu held or before l is shared.
func (l *Logger) rebuild() {
	enc := zapcore.EncoderConfig{
		LevelKey:         "level",
		NameKey:          "logger",
		MessageKey:       "msg",
		StacktraceKey:    "stacktrace",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		EncodeName:       zapcore.FullNameEncoder,
		ConsoleSeparator: " ",
	}
	if l.cfg.Colorize {
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	if l.cfg.ShowTime {
		enc.TimeKey = "time"
		enc.EncodeTime = zapcore.TimeEncoderOfLayout(l.cfg.TimeFormat)
	}
	if l.cfg.ShowCaller {
		enc.CallerKey = "caller"
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(l.cfg.Output), l.level)
	z := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	if l.cfg.Prefix != "" {
		z = z.Named(l.cfg.Prefix)
	}
	l.sugar = z.Sugar()
}

func GetLogger() *Logger {
	once.Do(func() {
		cfg := DefaultConfig()
		if envLevel := os.Getenv("LOG_LEVEL"); envLevel != "" {
			cfg.Level = ParseLevel(envLevel)
		}
		defaultLogger = New(cfg)
	})
	return defaultLogger
}

func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cfg.Level = level
	l.level.SetLevel(level.zapLevel())
}

func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cfg.Output = w
	l.rebuild()
}

func (l *Logger) SetColorize(colorize bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cfg.Colorize = colorize
	l.rebuild()
}

func (l *Logger) SetShowCaller(show bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cfg.ShowCaller = show
	l.rebuild()
}

func (l *Logger) s() *zap.SugaredLogger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sugar
}

// Sync flushes buffered output.
func (l *Logger) Sync() error {
	return l.s().Sync()
}

// Zap exposes the underlying structured logger.
func (l *Logger) Zap() *zap.Logger {
	return l.s().Desugar()
}

// Debug logs a message at DEBUG level
func (l *Logger) Debug(msg string, args ...any) {
	l.s().Debugf(msg, args...)
}

// Info logs a message at INFO level
func (l *Logger) Info(msg string, args ...any) {
	l.s().Infof(msg, args...)
}

// Warn logs a message at WARN level
func (l *Logger) Warn(msg string, args ...any) {
	l.s().Warnf(msg, args...)
}

// Error logs a message at ERROR level
func (l *Logger) Error(msg string, args ...any) {
	l.s().Errorf(msg, args...)
}

// Fatal logs a message at FATAL level and exits the program
func (l *Logger) Fatal(msg string, args ...any) {
	l.s().Fatalf(msg, args...)
}

func (l *Logger) Debugf(format string, args ...any) {
	l.s().Debugf(format, args...)
}

func (l *Logger) Infof(format string, args ...any) {
	l.s().Infof(format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.s().Warnf(format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.s().Errorf(format, args...)
}

func (l *Logger) Fatalf(format string, args ...any) {
	l.s().Fatalf(format, args...)
}

// Package-level convenience functions using the default logger

func Debug(msg string, args ...any) {
	GetLogger().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	GetLogger().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	GetLogger().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	GetLogger().Error(msg, args...)
}

func Fatal(msg string, args ...any) {
	GetLogger().Fatal(msg, args...)
}

func Debugf(format string, args ...any) {
	GetLogger().Debugf(format, args...)
}

func Infof(format string, args ...any) {
	GetLogger().Infof(format, args...)
}

func Warnf(format string, args ...any) {
	GetLogger().Warnf(format, args...)
}

func Errorf(format string, args ...any) {
	GetLogger().Errorf(format, args...)
}

func Fatalf(format string, args ...any) {
	GetLogger().Fatalf(format, args...)
}

// SetLevel sets the log level for the default logger
func SetLevel(level LogLevel) {
	GetLogger().SetLevel(level)
}

// SetOutput sets the output for the default logger
func SetOutput(w io.Writer) {
	GetLogger().SetOutput(w)
}
