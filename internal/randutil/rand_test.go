package randutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bazas-game/internal/shared"
)

func TestNew_SameSeedSameShuffle(t *testing.T) {
	a := shared.Shuffle(shared.Build(), Float(New(42)))
	b := shared.Shuffle(shared.Build(), Float(New(42)))
	c := shared.Shuffle(shared.Build(), Float(New(43)))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestFloat_InUnitInterval(t *testing.T) {
	f := Float(New(7))
	for i := 0; i < 1000; i++ {
		v := f()
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}
