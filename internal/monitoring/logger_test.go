package monitoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) {
		called = true
	})
	Logf("test message")
	assert.True(t, called, "custom logger was not called")

	// nil installs a no-op logger
	called = false
	SetLogger(nil)
	Logf("test message")
	assert.False(t, called, "no-op logger should not have triggered callback")
}

func TestLogf_Default(t *testing.T) {
	assert.NotNil(t, Logf, "Logf should not be nil by default")
}

func TestProgress(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var lines []string
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})

	p := NewProgress("aggregate", 100, 25)
	for i := 0; i < 100; i++ {
		p.Add(1)
	}
	assert.Equal(t, 100, p.Count())
	assert.Len(t, lines, 4)
	assert.Equal(t, "aggregate: 25/100 (25.0%)", lines[0])

	p.Done()
	assert.Len(t, lines, 5)
	assert.Contains(t, lines[4], "aggregate: done 100 items")
}

func TestNewProgress_DefaultEvery(t *testing.T) {
	p := NewProgress("x", 5, 0)
	assert.Equal(t, 1, p.Every)

	p = NewProgress("x", 1000, 0)
	assert.Equal(t, 100, p.Every)
}
