package logger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatter(t *testing.T) {
	entry := &logrus.Entry{
		Time:    time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "push failed",
		Data:    logrus.Fields{"record": "offline-1", "attempt": 1},
	}

	data, err := new(logFormatter).Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "[2024-03-01T10:00:00Z] WARNING: push failed (attempt=1, record=offline-1)\n", string(data))
}

func TestNew_File(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "travellog.log")

	log := New(Config{File: filename, Level: "debug"})
	log.WithField("id", "offline-1").Info("saved offline")
	Dump(log, map[string]int{"pending": 2})

	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Contains(t, string(data), " INFO: saved offline (id=offline-1)")
	assert.Contains(t, string(data), `"pending": 2`)
}
