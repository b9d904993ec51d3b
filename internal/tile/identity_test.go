package tile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaxLoD(t *testing.T) {
	assert.Equal(t, 0, MaxLoD([3]int{4, 4, 4}, 4))
	assert.Equal(t, 1, MaxLoD([3]int{8, 8, 8}, 4))
}

func TestGridSize(t *testing.T) {
	gw, gh := GridSize(10, 10, 4, 0)
	assert.Equal(t, 3, gw)
	assert.Equal(t, 3, gh)

	gw, gh = GridSize(10, 10, 4, 1)
	assert.Equal(t, 2, gw)
	assert.Equal(t, 2, gh)
}

func TestPixelWindow(t *testing.T) {
	w := PixelWindow(0, 1, 2, 4)
	assert.Equal(t, Window{HStart: 4, HStop: 8, VStart: 8, VStop: 12}, w)

	w = PixelWindow(1, 1, 0, 4)
	assert.Equal(t, Window{HStart: 8, HStop: 16, VStart: 0, VStop: 8}, w)
}

func TestIdentityKey(t *testing.T) {
	id := Identity{DatasetID: "d", Parameter: "p", Axis: AxisZ, SliceIndex: 3, LoD: 1, TX: 2, TY: 5}
	assert.Equal(t, "d/p/z/3/1/2/5", id.Key())
}
