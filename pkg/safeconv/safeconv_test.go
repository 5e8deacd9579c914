package safeconv_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/bulkblame/pkg/safeconv"
)

func TestMustUintToInt(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 42, safeconv.MustUintToInt(42))
	assert.Panics(t, func() { safeconv.MustUintToInt(^uint(0)) })
}

func TestMustIntToUint(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint(7), safeconv.MustIntToUint(7))
	assert.Panics(t, func() { safeconv.MustIntToUint(-1) })
}

func TestMustIntToUint32(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint32(0o100644), safeconv.MustIntToUint32(0o100644))
	assert.Panics(t, func() { safeconv.MustIntToUint32(-5) })
}
