package logger

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestParseFilter(t *testing.T) {
	assert.Nil(t, parseFilter(""))
	assert.Nil(t, parseFilter("*"))
	assert.Nil(t, parseFilter(" , "))
	assert.Equal(t, map[string]bool{"insights": true, "digest": true}, parseFilter("Insights, digest"))
}

func TestFilterHook_MarksEntries(t *testing.T) {
	h := NewFilterHook(&LogConfig{FilterModules: "insights", FilterLogTypes: "*", FilterMethods: "*"})
	l := logrus.New()

	keep := logrus.NewEntry(l).WithField("module", "insights")
	drop := logrus.NewEntry(l).WithField("module", "auth")
	noModule := logrus.NewEntry(l)

	for _, e := range []*logrus.Entry{keep, drop, noModule} {
		e.Level = logrus.InfoLevel
		assert.NoError(t, h.Fire(e))
	}

	assert.Nil(t, keep.Data[filteredKey])
	assert.Equal(t, true, drop.Data[filteredKey])
	assert.Nil(t, noModule.Data[filteredKey], "entry không có module thì vẫn ghi")
}

func TestAsyncHook_FlushOnClose(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	h := NewAsyncHookWithWriters([]io.Writer{&buf}, 10)

	e := logrus.NewEntry(l)
	e.Message = "xin chào"
	e.Level = logrus.InfoLevel
	e.Time = time.Now()
	assert.NoError(t, h.Fire(e))

	skipped := logrus.NewEntry(l).WithField(filteredKey, true)
	skipped.Message = "bị lọc"
	skipped.Level = logrus.InfoLevel
	assert.NoError(t, h.Fire(skipped))

	assert.NoError(t, h.Close())
	assert.Contains(t, buf.String(), "xin chào")
	assert.NotContains(t, buf.String(), "bị lọc")
}
