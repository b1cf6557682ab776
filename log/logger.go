package log

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/op/go-logging"
)

type Level logging.Level

// The levels that can be passed to the SetLevel function.
const (
	Debug Level = iota
	Info
	Notice
	Warning
	Error
)

var (
	colorFormat = logging.MustStringFormatter(
		`%{color}[%{time:15:04:05.000}] [%{module}] [%{level}]%{color:reset} %{message}`,
	)
	plainFormat = logging.MustStringFormatter(
		`[%{time:15:04:05.000}] [%{module}] [%{level}] %{message}`,
	)
)

var (
	sink           io.Writer
	useColor       bool
	level          = logging.NOTICE
	leveledBackend logging.LeveledBackend
)

// The logger interface
type Logger interface {
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})

	Notice(v ...interface{})
	Noticef(format string, v ...interface{})

	Info(v ...interface{})
	Infof(format string, v ...interface{})

	Warning(v ...interface{})
	Warningf(format string, v ...interface{})

	Error(v ...interface{})
	Errorf(format string, v ...interface{})
}

// Create a new named logger.
func New(name string) Logger {
	return logging.MustGetLogger(name)
}

// Override the backend output sink. Colored output is enabled when the sink
// is a terminal.
func SetSink(w io.Writer) {
	sink = w
	useColor = false
	if f, ok := w.(*os.File); ok {
		useColor = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	rebuildBackend()
}

// Force colored output on or off.
func SetColor(enabled bool) {
	useColor = enabled
	rebuildBackend()
}

// Set logger verbosity.
func SetLevel(l Level) {
	switch l {
	case Debug:
		level = logging.DEBUG
	case Info:
		level = logging.INFO
	case Notice:
		level = logging.NOTICE
	case Warning:
		level = logging.WARNING
	case Error:
		level = logging.ERROR
	}

	leveledBackend.SetLevel(level, "")
}

func rebuildBackend() {
	format := plainFormat
	if useColor {
		format = colorFormat
	}

	backend := logging.NewLogBackend(sink, "", 0)
	leveledBackend = logging.AddModuleLevel(logging.NewBackendFormatter(backend, format))
	leveledBackend.SetLevel(level, "")
	logging.SetBackend(leveledBackend)
}

func init() {
	SetSink(os.Stdout)
	SetLevel(Notice)
}
