package sizing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		off, n, limit uint64
		want          bool
	}{
		{"empty", 0, 0, 0, true},
		{"exact fit", 4, 4, 8, true},
		{"past end", 5, 4, 8, false},
		{"overflow", math.MaxUint64, 2, math.MaxUint64, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Within(tt.off, tt.n, tt.limit))
		})
	}
}

func TestTable(t *testing.T) {
	t.Parallel()

	assert.True(t, Table(8, 3, 4, 20))
	assert.False(t, Table(8, 4, 4, 20))
	assert.False(t, Table(0, math.MaxUint64, 2, math.MaxUint64))
	assert.False(t, Table(0, 1<<33, 1<<31, math.MaxUint64), "product overflows")
	assert.True(t, Table(100, 0, 12, 100))
}
