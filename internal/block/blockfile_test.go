package block

import (
	"bytes"
	"testing"

	"github.com/lexcube/lexcube-go/internal/tile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S5: a block with max_lod=1, gw(0)=gh(0)=2, gw(1)=gh(1)=1.
func testLayout() Layout {
	return Layout{MaxLoD: 1, GridW: []int{2, 1}, GridH: []int{2, 1}}
}

func TestLayoutTileIndexCanonicalOrder(t *testing.T) {
	l := testLayout()
	assert.Equal(t, 0, l.TileIndex(0, 0, 0))
	assert.Equal(t, 1, l.TileIndex(0, 1, 0))
	assert.Equal(t, 2, l.TileIndex(0, 0, 1))
	assert.Equal(t, 3, l.TileIndex(0, 1, 1))
	assert.Equal(t, 4, l.TileIndex(1, 0, 0))
	assert.Equal(t, 5, l.NumTiles())
}

func TestBuildAndReadRoundtrip(t *testing.T) {
	l := testLayout()
	blobs := map[[3]int][]byte{
		{0, 0, 0}: []byte("aa"),
		{0, 1, 0}: []byte("bbb"),
		{0, 0, 1}: []byte("c"),
		{0, 1, 1}: []byte("dddd"),
		{1, 0, 0}: []byte("ee"),
	}

	var buf bytes.Buffer
	err := Build(&buf, l, func(lod, x, y int) ([]byte, error) {
		return blobs[[3]int{lod, x, y}], nil
	})
	require.NoError(t, err)

	reader, err := OpenReader(bytes.NewReader(buf.Bytes()), l)
	require.NoError(t, err)

	got, sizes, err := reader.GetTiles(0, [][2]int{{0, 1}, {1, 1}})
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("c"), []byte("dddd")}, got)
	assert.Equal(t, []uint32{1, 4}, sizes)
}

func TestNewLayoutMatchesFreeAxisGrid(t *testing.T) {
	l := NewLayout([3]int{4, 10, 10}, tile.AxisZ, 4, 1)
	assert.Equal(t, 3, l.GridW[0])
	assert.Equal(t, 3, l.GridH[0])
	assert.Equal(t, 2, l.GridW[1])
	assert.Equal(t, 2, l.GridH[1])
}
