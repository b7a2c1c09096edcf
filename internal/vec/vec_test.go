package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec3_Lerp(t *testing.T) {
	a := Vec3{X: 0, Y: 10, Z: -4}
	b := Vec3{X: 10, Y: 0, Z: 4}

	assert.Equal(t, a, a.Lerp(b, 0), "alpha=0 должен вернуть исходную точку")
	assert.Equal(t, b, a.Lerp(b, 1), "alpha=1 должен вернуть цель")
	assert.Equal(t, Vec3{X: 5, Y: 5, Z: 0}, a.Lerp(b, 0.5))
}

func TestVec3_LerpShrinksDistance(t *testing.T) {
	p := Vec3{X: 3, Y: 30, Z: -12}
	target := Vec3{X: -1, Y: 0.8, Z: 2}

	prev := p.DistanceTo(target)
	for i := 0; i < 50; i++ {
		p = p.Lerp(target, 0.08)
		d := p.DistanceTo(target)
		assert.LessOrEqual(t, d, prev, "расстояние не должно расти")
		prev = d
	}
}

func TestVec2Float_Normalized(t *testing.T) {
	v := Vec2Float{X: 3, Y: 4}.Normalized()
	assert.InDelta(t, 1.0, v.Length(), 1e-12)
	assert.Equal(t, Vec2Float{}, Vec2Float{}.Normalized(), "нулевой вектор остаётся нулевым")
}
