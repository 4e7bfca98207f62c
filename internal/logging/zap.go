package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

const (
	FormatAuto    = "auto"
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options select how the deployer logs. Format "auto" picks the colored
// console encoder when stdout is a terminal and JSON otherwise.
type Options struct {
	Debug  bool
	Format string
}

func resolveFormat(format string, tty bool) (string, error) {
	switch strings.ToLower(format) {
	case "", FormatAuto:
		if tty {
			return FormatConsole, nil
		}
		return FormatJSON, nil
	case FormatConsole:
		return FormatConsole, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown log format %q", format)
}

// NewConfig builds the zap configuration for opts.
func NewConfig(opts Options, tty bool) (cfg zap.Config, err error) {
	var format string
	if format, err = resolveFormat(opts.Format, tty); err != nil {
		return
	}

	if format == FormatConsole {
		cfg = zap.NewDevelopmentConfig()
		cfg.Development = false
		cfg.DisableStacktrace = !opts.Debug
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		if tty {
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
	} else {
		cfg = zap.NewProductionConfig()
	}

	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if opts.Debug {
		cfg.Level.SetLevel(zapcore.DebugLevel)
	}

	cfg.OutputPaths = []string{
		"stdout",
	}
	cfg.InitialFields = map[string]interface{}{
		"app": "s3-deployer",
	}
	return
}

func Configure(opts Options) error {
	cfg, err := NewConfig(opts, term.IsTerminal(int(os.Stdout.Fd())))
	if err != nil {
		return err
	}

	logger, err := cfg.Build()
	if err != nil {
		return err
	}

	zap.ReplaceGlobals(logger)

	return nil
}

// lineWriter logs every complete line written to it as one entry.
type lineWriter struct {
	mu     sync.Mutex
	logger *zap.Logger
	level  zapcore.Level
	buf    bytes.Buffer
}

func (lw *lineWriter) Write(p []byte) (n int, err error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	n = len(p)
	lw.buf.Write(p)
	for {
		line, rerr := lw.buf.ReadString('\n')
		if rerr != nil {
			// incomplete line, keep it for the next write
			lw.buf.Reset()
			lw.buf.WriteString(line)
			return
		}
		lw.emit(line)
	}
}

func (lw *lineWriter) emit(line string) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return
	}
	if ce := lw.logger.Check(lw.level, line); ce != nil {
		ce.Write()
	}
}

// Close flushes a trailing line without newline.
func (lw *lineWriter) Close() error {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	lw.emit(lw.buf.String())
	lw.buf.Reset()
	return nil
}

// NewZapWriter returns a writer logging each line of subprocess output at
// level, tagged with the stream it came from.
func NewZapWriter(level zapcore.Level, stream string, fields ...zap.Field) io.WriteCloser {
	return &lineWriter{
		logger: zap.L().With(zap.String("stream", stream)).With(fields...),
		level:  level,
	}
}
