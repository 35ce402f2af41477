package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sanity-io/litter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// A Config defines the logger outputs.
type Config struct {
	File       string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	Stderr     bool
	Level      string
}

// New returns a new well configured logger.
func New(c Config) *logrus.Logger {
	formatter := new(logFormatter)

	log := logrus.New()
	log.SetOutput(io.Discard) // stdout & stderr to /dev/null
	if c.Stderr {
		log.SetOutput(os.Stderr)
	}
	log.SetFormatter(formatter)

	if level, err := logrus.ParseLevel(c.Level); err == nil {
		log.SetLevel(level)
	}

	if c.File != "" {
		log.Hooks.Add(&fileHook{
			rotate: &lumberjack.Logger{
				Filename:   c.File,
				MaxSize:    valueOr(c.MaxSize, 20),
				MaxBackups: valueOr(c.MaxBackups, 2),
				MaxAge:     valueOr(c.MaxAge, 10),
			},
			formatter: formatter,
		})
	}

	return log
}

// Discard returns a logger that writes nothing.
func Discard() *logrus.Logger {
	return New(Config{})
}

// Dump logs v with all its nested fields at debug level.
func Dump(l logrus.FieldLogger, v any) {
	l.Debugln(litter.Sdump(v))
}

func valueOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

////////////////////
//                //
// File hook      //
//                //
////////////////////

type fileHook struct {
	sync.Mutex
	rotate    *lumberjack.Logger
	formatter logrus.Formatter
}

// Fire writes the entry to the rotated file.
func (hook *fileHook) Fire(entry *logrus.Entry) error {
	hook.Lock()
	defer hook.Unlock()

	msg, err := hook.formatter.Format(entry)
	if err != nil {
		log.Println("failed to generate string for entry:", err)
		return err
	}

	_, err = hook.rotate.Write(msg)
	return err
}

// Levels returns configured log levels.
func (hook *fileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

////////////////////
//                //
// Log formatter  //
//                //
////////////////////

type logFormatter struct{}

// Format implements Logrus formatter.
func (f *logFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	fields := ""
	if len(entry.Data) > 0 {
		fs := []string{}
		for k, v := range entry.Data {
			fs = append(fs, fmt.Sprintf("%s=%v", k, v))
		}
		sort.Strings(fs)
		fields = fmt.Sprintf(" (%s)", strings.Join(fs, ", "))
	}

	data := fmt.Sprintf("[%s] %+5s: %s%s\n",
		entry.Time.Format(time.RFC3339),
		strings.ToUpper(entry.Level.String()),
		entry.Message,
		fields,
	)
	return []byte(data), nil
}
