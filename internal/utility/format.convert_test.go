package utility

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFirstString(t *testing.T) {
	data := map[string]interface{}{"name": "  ", "displayName": " Alice ", "id": 7}
	assert.Equal(t, "Alice", FirstString(data, "name", "displayName"))
	assert.Equal(t, "", FirstString(data, "id", "missing"))
}

func TestToFloat64(t *testing.T) {
	assert.Equal(t, 12.5, ToFloat64(12.5))
	assert.Equal(t, 3.0, ToFloat64(int64(3)))
	assert.Equal(t, 4.25, ToFloat64(" 4.25 "))
	assert.Equal(t, 9.0, ToFloat64(json.Number("9")))
	assert.Equal(t, 0.0, ToFloat64("abc"))
	assert.Equal(t, 0.0, ToFloat64(nil))
}

func TestToUnixMilli(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	assert.Equal(t, ts.UnixMilli(), ToUnixMilli(ts))
	assert.Equal(t, ts.UnixMilli(), ToUnixMilli(&ts))
	assert.Equal(t, ts.UnixMilli(), ToUnixMilli("2026-01-02T03:04:05Z"))
	assert.Equal(t, ts.UnixMilli(), ToUnixMilli("2026-01-02T03:04:05"))
	assert.Equal(t, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC).UnixMilli(), ToUnixMilli("2026-01-02"))
	assert.Equal(t, int64(1700), ToUnixMilli(int64(1700)))
	assert.Equal(t, int64(0), ToUnixMilli(time.Time{}))
	assert.Equal(t, int64(0), ToUnixMilli(math.NaN()))
	assert.Equal(t, int64(0), ToUnixMilli("hôm qua"))
}
