package curve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSampleEmptyIsNeutral(t *testing.T) {
	var c Curve
	assert.Equal(t, 1.0, c.Sample(0))
	assert.Equal(t, 1.0, c.Sample(42))
}

func TestSampleClampsToEndpoints(t *testing.T) {
	c := Curve{{X: 1, Y: 10}, {X: 3, Y: 30}}
	assert.Equal(t, 10.0, c.Sample(-5))
	assert.Equal(t, 10.0, c.Sample(1))
	assert.Equal(t, 30.0, c.Sample(3))
	assert.Equal(t, 30.0, c.Sample(100))
}

func TestSampleInterpolates(t *testing.T) {
	c := Curve{{X: 0, Y: 0}, {X: 10, Y: 100}}
	assert.InDelta(t, 50.0, c.Sample(5), 1e-9)
	assert.InDelta(t, 25.0, c.Sample(2.5), 1e-9)
}

func TestConstant(t *testing.T) {
	c := Constant(7)
	assert.Equal(t, 7.0, c.Sample(-1))
	assert.Equal(t, 7.0, c.Sample(99))
}

func TestValid(t *testing.T) {
	assert.True(t, Curve{{X: 0}, {X: 1}}.Valid())
	assert.False(t, Curve{{X: 2}, {X: 1}}.Valid())
	assert.True(t, Curve{}.Valid())
}
