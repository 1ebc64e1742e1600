package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func sqlOf(sql string) func() (string, int64) {
	return func() (string, int64) { return sql, 1 }
}

func TestGormLogger_Trace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewGormLogger(zap.New(core), gormlogger.Warn, 100*time.Millisecond)
	ctx := WithRequestID(context.Background(), "req-7")

	l.Trace(ctx, time.Now(), sqlOf("SELECT 1"), nil)
	assert.Zero(t, logs.Len(), "fast statements are quiet at warn")

	l.Trace(ctx, time.Now().Add(-time.Second), sqlOf("SELECT pg_sleep(1)"), nil)
	l.Trace(ctx, time.Now(), sqlOf("SELECT * FROM bookings"), gormlogger.ErrRecordNotFound)
	l.Trace(ctx, time.Now(), sqlOf("INSERT"), errors.New("duplicate key"))

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "Slow SQL", entries[0].Message)
		assert.Equal(t, "req-7", entries[0].ContextMap()["request_id"])
		assert.Equal(t, "SQL error", entries[1].Message)
	}
}

func TestGormLogger_LogModeCopies(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewGormLogger(zap.New(core), gormlogger.Silent, 0)
	verbose := l.LogMode(gormlogger.Info)

	l.Trace(context.Background(), time.Now(), sqlOf("SELECT 1"), nil)
	assert.Zero(t, logs.Len())

	verbose.Trace(context.Background(), time.Now(), sqlOf("SELECT 1"), nil)
	assert.Equal(t, 1, logs.FilterMessage("SQL").Len())
}

func TestGormLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Info, GormLevel("debug"))
	assert.Equal(t, gormlogger.Warn, GormLevel("info"))
	assert.Equal(t, gormlogger.Error, GormLevel("error"))
	assert.Equal(t, gormlogger.Silent, GormLevel("silent"))
}
