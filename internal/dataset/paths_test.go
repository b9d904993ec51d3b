package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlockFilePathIsStableAndSharded(t *testing.T) {
	p1 := BlockFilePath("/data", "ds1", "temp", "z", 3)
	p2 := BlockFilePath("/data", "ds1", "temp", "z", 3)
	assert.Equal(t, p1, p2)

	p3 := BlockFilePath("/data", "ds1", "temp", "z", 4)
	assert.NotEqual(t, p1, p3)
}
