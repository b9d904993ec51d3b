// Package server implements the request dispatcher (C7): intake,
// grouping, dispatch across the tile engine, and progress reporting.
package server

import (
	"fmt"

	"github.com/lexcube/lexcube-go/internal/tile"
)

// Request is one tile request within a group: a slice axis, a slice
// index, a LoD, and the list of tile coordinates to serve.
type Request struct {
	IndexDimension string  `json:"indexDimension"` // "by_x" | "by_y" | "by_z"
	IndexValue     int     `json:"indexValue"`
	LoD            int     `json:"lod"`
	XYs            [][2]int `json:"xys"`
}

// RequestGroup is a client-submitted batch of requests tagged with a
// single group id for progress aggregation.
type RequestGroup struct {
	Requests []Request `json:"request_data"`
}

// Response is the per-request reply: the echoed request plus the byte
// length of each tile blob, in request order. The blob bytes themselves
// travel in a side buffer (Buffer), concatenated in the same order.
type Response struct {
	ResponseType string   `json:"response_type"`
	Metadata     Request  `json:"metadata"`
	DataSizes    []uint32 `json:"dataSizes"`
	Buffer       []byte   `json:"-"`
}

// axisFor maps the wire "by_x"/"by_y"/"by_z" dimension name to a tile
// Axis.
func axisFor(indexDimension string) (tile.Axis, error) {
	switch indexDimension {
	case "by_z":
		return tile.AxisZ, nil
	case "by_y":
		return tile.AxisY, nil
	case "by_x":
		return tile.AxisX, nil
	default:
		return 0, &InvalidInputError{Reason: fmt.Sprintf("unknown indexDimension %q", indexDimension)}
	}
}

// InvalidInputError reports a request outside the tile grid, a
// non-sparsity-aligned slice, an unknown dataset/parameter, or a
// malformed message. It is surfaced to the client as an error response.
// Dispatch returns it as the error of the whole group: when one request
// of a group fails this way, no response is returned for the other
// requests of that group either.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("server: invalid input: %s", e.Reason)
}
