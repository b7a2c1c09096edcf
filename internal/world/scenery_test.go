package world

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/peach-village/internal/terrain"
)

func TestSampleCatmullRom_PassesThroughControlPoints(t *testing.T) {
	points := RoadControlPoints()
	samples := SampleCatmullRom(points, 20)
	require.Len(t, samples, 21)

	assert.InDelta(t, points[0].X, samples[0].X, 1e-9)
	assert.InDelta(t, points[0].Z, samples[0].Z, 1e-9)
	assert.InDelta(t, points[4].X, samples[20].X, 1e-9)
	assert.InDelta(t, points[4].Z, samples[20].Z, 1e-9)
	// t = 0.5 попадает точно на мост
	assert.InDelta(t, 0, samples[10].X, 1e-9)
	assert.InDelta(t, terrain.BridgeZ, samples[10].Z, 1e-9)
}

func TestBuildScenery_Lamps(t *testing.T) {
	s := BuildScenery(7)
	require.Len(t, s.Lamps, 7)

	road := SampleCatmullRom(RoadControlPoints(), 20)
	for n, lamp := range s.Lamps {
		i := n * LampEvery
		offset := LampOffset
		if i%2 != 0 {
			offset = -LampOffset
		}
		assert.InDelta(t, road[i].X+5+offset, lamp.Pos.X, 1e-9)
		assert.InDelta(t, road[i].Z+5+offset, lamp.Pos.Z, 1e-9)
		assert.False(t, lamp.Lit)
	}

	for _, l := range s.WithLanterns(true) {
		assert.True(t, l.Lit)
	}
	assert.False(t, s.Lamps[0].Lit, "WithLanterns не меняет исходные фонари")
}

func TestBuildScenery_Trees(t *testing.T) {
	s := BuildScenery(7)
	assert.LessOrEqual(t, len(s.Trees), TreeCount)
	assert.NotEmpty(t, s.Trees)
	assert.Equal(t, s, BuildScenery(7))

	for _, tree := range s.Trees {
		dist := math.Hypot(tree.Pos.X, tree.Pos.Z)
		assert.GreaterOrEqual(t, dist, TreeMinRange)
		assert.LessOrEqual(t, dist, TreeMaxRange)
		assert.False(t, terrain.InRiver(tree.Pos.X, tree.Pos.Z))
		assert.GreaterOrEqual(t, tree.Scale, 0.8)
		assert.Less(t, tree.Scale, 1.4)
	}
	assert.Equal(t, MahjongTable, s.Table)
}
