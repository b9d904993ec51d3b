// Package block implements the packed per-(dataset, parameter, axis,
// slice) block file (C5): a fixed-width uint32 size header followed by
// the concatenation of every tile blob across all LoDs, in canonical
// row-major order.
package block

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/lexcube/lexcube-go/internal/tile"
)

// Layout describes the tile grid dimensions at every LoD for one block,
// and the canonical flat ordering used both to build and to read it:
// LoDs in increasing order, row-major (index = y*gw(L)+x) within a LoD.
type Layout struct {
	MaxLoD int
	GridW  []int
	GridH  []int
}

// NewLayout computes the grid dimensions for every LoD 0..maxLoD of a
// slice on the given axis of a cube with the given shape.
func NewLayout(shape [3]int, axis tile.Axis, tileSize, maxLoD int) Layout {
	nu, nv := tile.FreeAxisLengths(shape, axis)
	l := Layout{MaxLoD: maxLoD, GridW: make([]int, maxLoD+1), GridH: make([]int, maxLoD+1)}
	for lod := 0; lod <= maxLoD; lod++ {
		gw, gh := tile.GridSize(nu, nv, tileSize, lod)
		l.GridW[lod] = gw
		l.GridH[lod] = gh
	}
	return l
}

// NumTiles returns the total tile count across all LoDs, N_total.
func (l Layout) NumTiles() int {
	n := 0
	for lod := 0; lod <= l.MaxLoD; lod++ {
		n += l.GridW[lod] * l.GridH[lod]
	}
	return n
}

// TileIndex returns the flat canonical index of tile (lod, x, y).
func (l Layout) TileIndex(lod, x, y int) int {
	idx := 0
	for ll := 0; ll < lod; ll++ {
		idx += l.GridW[ll] * l.GridH[ll]
	}
	return idx + y*l.GridW[lod] + x
}

// Build walks every tile in canonical order, fetching its encoded blob
// via fetch, and writes the size header followed by the concatenated
// bodies to w.
func Build(w io.Writer, layout Layout, fetch func(lod, x, y int) ([]byte, error)) error {
	n := layout.NumTiles()
	sizes := make([]uint32, n)
	bodies := make([][]byte, n)

	i := 0
	for lod := 0; lod <= layout.MaxLoD; lod++ {
		gw, gh := layout.GridW[lod], layout.GridH[lod]
		for y := 0; y < gh; y++ {
			for x := 0; x < gw; x++ {
				blob, err := fetch(lod, x, y)
				if err != nil {
					return fmt.Errorf("block: fetching tile (lod=%d x=%d y=%d): %w", lod, x, y, err)
				}
				sizes[i] = uint32(len(blob))
				bodies[i] = blob
				i++
			}
		}
	}

	header := make([]byte, 4*n)
	for idx, s := range sizes {
		binary.LittleEndian.PutUint32(header[idx*4:], s)
	}
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("block: writing header: %w", err)
	}
	for _, b := range bodies {
		if _, err := w.Write(b); err != nil {
			return fmt.Errorf("block: writing body: %w", err)
		}
	}
	return nil
}

// StorageCorruptionError reports a block file whose header and body are
// inconsistent (the size sum overflows the file).
type StorageCorruptionError struct {
	Reason string
}

func (e *StorageCorruptionError) Error() string {
	return fmt.Sprintf("block: storage corruption: %s", e.Reason)
}

// Reader serves tile reads out of an already-built block file via
// random access (io.ReaderAt), grouping adjacent tile indices into a
// single contiguous read per run.
type Reader struct {
	ra      io.ReaderAt
	layout  Layout
	offsets []int64 // len N+1; offsets[i]..offsets[i+1] is tile i's body range
}

// OpenReader reads the size header from ra and prepares a Reader.
func OpenReader(ra io.ReaderAt, layout Layout) (*Reader, error) {
	n := layout.NumTiles()
	headerLen := 4 * n
	header := make([]byte, headerLen)
	if _, err := ra.ReadAt(header, 0); err != nil {
		return nil, fmt.Errorf("block: reading header: %w", err)
	}

	offsets := make([]int64, n+1)
	offsets[0] = int64(headerLen)
	for i := 0; i < n; i++ {
		size := binary.LittleEndian.Uint32(header[i*4:])
		offsets[i+1] = offsets[i] + int64(size)
	}
	return &Reader{ra: ra, layout: layout, offsets: offsets}, nil
}

// GetTiles reads the blobs for tiles (lod, x, y) in coords, preserving
// the caller's order in the returned blobs/sizes slices. Internally,
// adjacent tile indices are grouped into a single contiguous read.
func (r *Reader) GetTiles(lod int, coords [][2]int) (blobs [][]byte, sizes []uint32, err error) {
	indices := make([]int, len(coords))
	for i, c := range coords {
		indices[i] = r.layout.TileIndex(lod, c[0], c[1])
	}

	unique := make([]int, 0, len(indices))
	seen := make(map[int]bool, len(indices))
	for _, idx := range indices {
		if !seen[idx] {
			seen[idx] = true
			unique = append(unique, idx)
		}
	}
	sort.Ints(unique)

	byIndex := make(map[int][]byte, len(unique))
	i := 0
	for i < len(unique) {
		start := i
		for i+1 < len(unique) && unique[i+1] == unique[i]+1 {
			i++
		}
		runFirst, runLast := unique[start], unique[i]
		if err := r.readRun(runFirst, runLast, byIndex); err != nil {
			return nil, nil, err
		}
		i++
	}

	blobs = make([][]byte, len(coords))
	sizes = make([]uint32, len(coords))
	for i, idx := range indices {
		blob := byIndex[idx]
		blobs[i] = blob
		sizes[i] = uint32(len(blob))
	}
	return blobs, sizes, nil
}

func (r *Reader) readRun(firstIdx, lastIdx int, out map[int][]byte) error {
	if lastIdx+1 >= len(r.offsets) {
		return &StorageCorruptionError{Reason: "tile index beyond block file size header"}
	}
	runStart := r.offsets[firstIdx]
	runEnd := r.offsets[lastIdx+1]
	if runEnd < runStart {
		return &StorageCorruptionError{Reason: "negative-length tile run"}
	}
	buf := make([]byte, runEnd-runStart)
	if _, err := r.ra.ReadAt(buf, runStart); err != nil {
		return fmt.Errorf("block: reading tile run: %w", err)
	}
	for idx := firstIdx; idx <= lastIdx; idx++ {
		lo := r.offsets[idx] - runStart
		hi := r.offsets[idx+1] - runStart
		out[idx] = buf[lo:hi]
	}
	return nil
}
