package logger

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{in: "DEBUG", want: zapcore.DebugLevel},
		{in: "warning", want: zapcore.WarnLevel},
		{in: "warn", want: zapcore.WarnLevel},
		{in: "error", want: zapcore.ErrorLevel},
		{in: "", want: zapcore.InfoLevel},
	}
	for _, tt := range tests {
		got, err := parseLogLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := parseLogLevel("bogus")
	assert.ErrorContains(t, err, `unknown log level "bogus"`)
}

func TestNewWithConfig_Invalid(t *testing.T) {
	_, err := NewWithConfig(Config{Level: "loud"})
	assert.Error(t, err)

	_, err = NewWithConfig(Config{Format: "xml"})
	assert.ErrorContains(t, err, "unknown log format")
}

func TestNewWithConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service.log")

	log, err := NewWithConfig(Config{
		Level:       "info",
		Format:      "json",
		OutputPath:  path + "," + path + ".copy",
		ServiceName: "user-directory",
		Environment: "test",
		Rotation:    Rotation{MaxSizeMB: 1},
	})
	require.NoError(t, err)

	log.Info("hello")
	require.NoError(t, log.Sync())
	assert.FileExists(t, path)
	assert.FileExists(t, path+".copy")
}

func TestWithContext(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx := WithUserID(WithRequestID(context.Background(), "req-1"), "2102")
	WithContext(ctx, base).Info("scoped")
	WithContext(context.Background(), base).Info("bare")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, map[string]any{"request_id": "req-1", "user_id": "2102"}, entries[0].ContextMap())
	assert.Empty(t, entries[1].ContextMap())
}

func TestContextGetters(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
	assert.Equal(t, "abc", GetRequestID(WithRequestID(context.Background(), "abc")))
	assert.Equal(t, "7", GetUserID(WithUserID(context.Background(), "7")))
	assert.Len(t, NewRequestID(), 36)
}

func TestGormLogger_Trace(t *testing.T) {
	sql := func() (string, int64) { return "SELECT 1", 1 }

	t.Run("query error", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		l := NewGormLogger(zap.New(core), 1, "warn")

		l.Trace(context.Background(), time.Now(), sql, errors.New("boom"))

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, zapcore.ErrorLevel, logs.All()[0].Level)
	})

	t.Run("not found and duplicate key are quiet", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		l := NewGormLogger(zap.New(core), 1, "warn")

		l.Trace(context.Background(), time.Now(), sql, gorm.ErrRecordNotFound)
		l.Trace(context.Background(), time.Now(), sql, gorm.ErrDuplicatedKey)

		assert.Zero(t, logs.Len())
	})

	t.Run("slow query", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		l := NewGormLogger(zap.New(core), 0.001, "warn")

		l.Trace(context.Background(), time.Now().Add(-time.Second), sql, nil)

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "gorm slow query", logs.All()[0].Message)
	})

	t.Run("silent", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		l := NewGormLogger(zap.New(core), 1, "warn").LogMode(gormlogger.Silent)

		l.Trace(context.Background(), time.Now(), sql, errors.New("boom"))

		assert.Zero(t, logs.Len())
	})
}

func TestGormLogger_ParamsFilter(t *testing.T) {
	l := NewGormLogger(zap.NewNop(), 1, "info")
	hash := "$2a$12$" + strings.Repeat("x", 53)

	sql, params := l.ParamsFilter(context.Background(), "INSERT INTO users VALUES (?,?,?)", "Ada", hash, int64(3))

	assert.Equal(t, "INSERT INTO users VALUES (?,?,?)", sql)
	assert.Equal(t, []any{"Ada", "<redacted>", int64(3)}, params)
}

func TestGormLogger_Operation(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewGormLogger(zap.New(core), 1, "debug")

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "UPDATE users SET first_name='x'", 1 }, nil)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "UPDATE", logs.All()[0].ContextMap()["operation"])
}
