// Package logging builds the logrus logger shared by the client components.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mesh-intelligence/hrentities/pkg/types"
)

// Log file names written when a log directory is configured.
const (
	LogFile      = "hrctl.log"
	ErrorLogFile = "error.log"
)

// Rotation defaults applied when the config leaves them zero.
const (
	DefaultMaxSize    = 10 // megabytes
	DefaultMaxBackups = 3
	DefaultMaxAge     = 28 // days
)

// Logger is a logrus logger that owns its rotating log files.
type Logger struct {
	*logrus.Logger
	files []*lumberjack.Logger
}

// New builds a JSON logger writing to console and, when cfg.Dir is set, to
// rotating files in that directory. Errors are also copied to a separate
// error log. An unknown level falls back to info.
func New(cfg types.LogConfig, console io.Writer) (*Logger, error) {
	l := &Logger{Logger: logrus.New()}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
	})
	if console == nil {
		console = io.Discard
	}

	if cfg.Dir == "" {
		l.SetOutput(console)
		return l, nil
	}

	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, err
	}
	all := rotating(cfg, LogFile)
	errs := rotating(cfg, ErrorLogFile)
	l.files = []*lumberjack.Logger{all, errs}

	l.SetOutput(io.MultiWriter(console, all))
	l.AddHook(&ErrorFileHook{errorWriter: errs})
	return l, nil
}

func rotating(cfg types.LogConfig, name string) *lumberjack.Logger {
	lj := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Dir, name),
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
	if lj.MaxSize == 0 {
		lj.MaxSize = DefaultMaxSize
	}
	if lj.MaxBackups == 0 {
		lj.MaxBackups = DefaultMaxBackups
	}
	if lj.MaxAge == 0 {
		lj.MaxAge = DefaultMaxAge
	}
	return lj
}

// Component returns an entry tagged with the component name.
func (l *Logger) Component(name string) *logrus.Entry {
	return l.WithField("component", name)
}

// Close closes the log files.
func (l *Logger) Close() error {
	var result *multierror.Error
	for _, f := range l.files {
		if err := f.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	l.files = nil
	return result.ErrorOrNil()
}

// ErrorFileHook copies error and worse entries to a separate writer.
type ErrorFileHook struct {
	errorWriter io.Writer
}

func (hook *ErrorFileHook) Fire(entry *logrus.Entry) error {
	line, err := entry.String()
	if err != nil {
		return err
	}
	_, err = hook.errorWriter.Write([]byte(line))
	return err
}

func (hook *ErrorFileHook) Levels() []logrus.Level {
	return []logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
	}
}
