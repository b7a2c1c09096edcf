package terrain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRiverZ_DeterministicAndContinuous(t *testing.T) {
	const step = 0.01
	// Максимальная производная: 0.05*15 + 0.15*5 = 1.5 => скачок не больше 1.5*step
	maxJump := 1.5*step + 1e-9

	prev := RiverZ(-120)
	for x := -120.0 + step; x <= 120; x += step {
		z := RiverZ(x)
		require.Equal(t, z, RiverZ(x), "RiverZ должен быть детерминированным")
		require.LessOrEqual(t, math.Abs(z-prev), maxJump, "разрыв русла в x=%.2f", x)
		prev = z
	}
}

func TestBridgeSitsOnRiverAtOrigin(t *testing.T) {
	assert.Equal(t, RiverZ(0), BridgeZ)
	assert.True(t, InRiver(0, BridgeZ), "мост перекрывает русло")
	assert.True(t, OnBridge(0, BridgeZ))
	assert.False(t, IsHazard(0, BridgeZ), "по мосту переходить можно")
}

func TestGroundHeight(t *testing.T) {
	x := 20.0
	assert.Equal(t, RiverSinkHeight, GroundHeight(x, RiverZ(x)), "в реке агент тонет")
	assert.Equal(t, BridgeHeight, GroundHeight(0, BridgeZ), "на мосту лёгкий подъём")
	assert.Equal(t, GroundHeight0, GroundHeight(x, RiverZ(x)+RiverWidth), "на берегу ноль")
}

func TestSolidSurface(t *testing.T) {
	x := -30.0
	assert.Equal(t, RiverbedY, SolidSurface(x, RiverZ(x)))
	assert.Equal(t, BridgeDeckY, SolidSurface(0.5, BridgeZ+1))
	assert.Equal(t, BankY, SolidSurface(x, RiverZ(x)-10))
}

func TestInHazardBand(t *testing.T) {
	x := 12.0
	assert.True(t, InHazardBand(x, RiverZ(x)+RiverWidth+7.9, 8))
	assert.False(t, InHazardBand(x, RiverZ(x)+RiverWidth+8.1, 8))
}
