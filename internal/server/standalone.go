package server

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/lexcube/lexcube-go/internal/block"
	"github.com/lexcube/lexcube-go/internal/tile"
)

// BlockOpener opens the packed block file holding every tile for one
// (axis, sliceIndex) pair of the server's fixed dataset/parameter.
type BlockOpener func(axis tile.Axis, sliceIndex int) (*block.Reader, error)

// StandaloneServer is the pre-generated-archive counterpart to
// TileServer: instead of generating tiles on demand, it serves them out
// of block files built ahead of time by the build command. Requests for
// a slice index that is not a multiple of Sparsity are rejected, since
// only every Sparsity-th slice was pre-generated.
type StandaloneServer struct {
	DatasetID string
	Parameter string

	Sparsity int
	Layouts  map[tile.Axis]block.Layout
	Open     BlockOpener

	nextGroupID   atomic.Uint64
	nextRequestID atomic.Uint64
	progress      *ProgressTracker
	workers       int
	logger        *log.Logger
}

// NewStandaloneServer builds a StandaloneServer. sparsity of 1 means
// every slice was pre-generated.
func NewStandaloneServer(datasetID, parameter string, sparsity int, layouts map[tile.Axis]block.Layout, open BlockOpener, workers int, logger *log.Logger) *StandaloneServer {
	if sparsity <= 0 {
		sparsity = 1
	}
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = log.Default()
	}
	return &StandaloneServer{
		DatasetID: datasetID,
		Parameter: parameter,
		Sparsity:  sparsity,
		Layouts:   layouts,
		Open:      open,
		workers:   workers,
		logger:    logger,
		progress:  NewProgressTracker(),
	}
}

// Progress exposes the tracker so an HTTP handler can answer progress
// polls.
func (s *StandaloneServer) Progress() *ProgressTracker { return s.progress }

// Intake mirrors TileServer.Intake: one group id, one request id and
// seeded progress per request.
func (s *StandaloneServer) Intake(group RequestGroup) (groupID uint64, requestIDs []uint64) {
	groupID = s.nextGroupID.Add(1)
	requestIDs = make([]uint64, len(group.Requests))
	for i, req := range group.Requests {
		rid := s.nextRequestID.Add(1)
		requestIDs[i] = rid
		s.progress.Seed(groupID, rid, len(req.XYs))
	}
	return groupID, requestIDs
}

// Dispatch serves every request in the group out of its block file. A
// request whose slice index is not sparsity-aligned is rejected outright
// (InvalidInputError) rather than silently degraded, since no block
// file exists for it to read from.
func (s *StandaloneServer) Dispatch(ctx context.Context, group RequestGroup, groupID uint64, requestIDs []uint64) ([]Response, error) {
	responses := make([]Response, len(group.Requests))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, req := range group.Requests {
		i, req, rid := i, req, requestIDs[i]
		g.Go(func() error {
			resp, err := s.dispatchRequest(gctx, req, rid)
			if err != nil {
				return err
			}
			responses[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return responses, nil
}

func (s *StandaloneServer) dispatchRequest(ctx context.Context, req Request, requestID uint64) (Response, error) {
	if req.IndexValue%s.Sparsity != 0 {
		return Response{}, &InvalidInputError{Reason: fmt.Sprintf(
			"slice %d is not aligned to the pre-generation sparsity of %d", req.IndexValue, s.Sparsity)}
	}

	axis, err := axisFor(req.IndexDimension)
	if err != nil {
		return Response{}, err
	}

	reader, err := s.Open(axis, req.IndexValue)
	if err != nil {
		return Response{}, fmt.Errorf("server: opening block file for slice %d: %w", req.IndexValue, err)
	}

	blobs, sizes, err := reader.GetTiles(req.LoD, req.XYs)
	if err != nil {
		return Response{}, err
	}
	for range blobs {
		s.progress.Advance(requestID, false)
	}

	total := 0
	for _, sz := range sizes {
		total += int(sz)
	}
	buf := make([]byte, 0, total)
	for _, b := range blobs {
		buf = append(buf, b...)
	}

	return Response{
		ResponseType: "tile_data",
		Metadata:     req,
		DataSizes:    sizes,
		Buffer:       buf,
	}, nil
}
