package server

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lexcube/lexcube-go/internal/cache"
	"github.com/lexcube/lexcube-go/internal/dataset"
	"github.com/lexcube/lexcube-go/internal/tile"
)

// TileServer is the C7 request dispatcher: it turns request groups into
// responses by fetching from the blob cache (C4) or, on a miss,
// generating through C3 over the proxy (C1), tracking per-request
// progress as it goes. One TileServer instance serves a single fixed
// (dataset, parameter) source, mirroring the original widget's
// one-variable-at-a-time model.
type TileServer struct {
	DatasetID string
	Parameter string

	generator          *tile.Generator
	memCache           *cache.MemoryTileCache
	resampleResolution int
	isAnomaly          bool

	nextGroupID   atomic.Uint64
	nextRequestID atomic.Uint64
	progress      *ProgressTracker
	metrics       *metrics

	workers int
	logger  *log.Logger
}

// NewTileServer wires a generator and blob cache into a dispatcher for
// one dataset/parameter. workers bounds the concurrent tile-generation
// fan-out per request group.
func NewTileServer(datasetID, parameter string, gen *tile.Generator, memCache *cache.MemoryTileCache, resampleResolution int, isAnomaly bool, workers int, logger *log.Logger) *TileServer {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = log.Default()
	}
	return &TileServer{
		DatasetID:           datasetID,
		Parameter:           parameter,
		generator:           gen,
		memCache:            memCache,
		resampleResolution:  resampleResolution,
		isAnomaly:           isAnomaly,
		workers:             workers,
		logger:              logger,
		progress:            NewProgressTracker(),
		metrics:             createMetrics(logger),
	}
}

// Progress exposes the tracker so an HTTP handler can answer progress
// polls.
func (s *TileServer) Progress() *ProgressTracker { return s.progress }

// Intake allocates a fresh group id, allocates a fresh request id per
// request, and seeds progress for each before dispatch begins.
func (s *TileServer) Intake(group RequestGroup) (groupID uint64, requestIDs []uint64) {
	groupID = s.nextGroupID.Add(1)
	requestIDs = make([]uint64, len(group.Requests))
	for i, req := range group.Requests {
		rid := s.nextRequestID.Add(1)
		requestIDs[i] = rid
		s.progress.Seed(groupID, rid, len(req.XYs))
	}
	return groupID, requestIDs
}

// Dispatch runs widget-mode dispatch for an intaken group: each request
// is served by generating/fetching its tiles, in parallel across
// requests and within a request (bounded by s.workers), while
// preserving request order in the returned Response.DataSizes/Buffer.
// A per-tile SourceReadFailed or CodecError does not fail the group; it
// is logged, replaces that tile with a NaN tile, and is reflected in
// the request's Failed progress counter.
func (s *TileServer) Dispatch(ctx context.Context, group RequestGroup, groupID uint64, requestIDs []uint64) ([]Response, error) {
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

func (s *TileServer) dispatchRequest(ctx context.Context, req Request, requestID uint64) (Response, error) {
	start := time.Now()
	axis, err := axisFor(req.IndexDimension)
	if err != nil {
		s.metrics.requests.WithLabelValues(s.DatasetID, s.Parameter, "invalid_input").Inc()
		return Response{}, err
	}

	blobs := make([][]byte, len(req.XYs))
	failed := make([]bool, len(req.XYs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, xy := range req.XYs {
		i, xy := i, xy
		g.Go(func() error {
			blob, isFailed := s.tileFor(gctx, axis, req.IndexValue, req.LoD, xy[0], xy[1])
			blobs[i] = blob
			failed[i] = isFailed
			s.progress.Advance(requestID, isFailed)
			return nil
		})
	}
	_ = g.Wait() // tileFor never returns an error; failures are absorbed into a NaN tile

	sizes := make([]uint32, len(blobs))
	total := 0
	for i, b := range blobs {
		sizes[i] = uint32(len(b))
		total += len(b)
	}
	buf := make([]byte, 0, total)
	for _, b := range blobs {
		buf = append(buf, b...)
	}

	status := "ok"
	for _, isFailed := range failed {
		if isFailed {
			status = "degraded"
			break
		}
	}
	s.metrics.requests.WithLabelValues(s.DatasetID, s.Parameter, status).Inc()
	s.metrics.requestDuration.WithLabelValues(s.DatasetID, s.Parameter).Observe(time.Since(start).Seconds())
	s.metrics.responseSize.WithLabelValues(s.DatasetID, s.Parameter).Observe(float64(total))

	return Response{
		ResponseType: "tile_data",
		Metadata:     req,
		DataSizes:    sizes,
		Buffer:       buf,
	}, nil
}

// tileFor resolves one tile by identity: a cache hit returns directly;
// otherwise it generates, inserts (insertion-wins) into the cache, and
// returns the now-authoritative blob. Generation failures are logged
// and replaced with a NaN tile rather than propagated, per the
// per-tile failure handling in the error taxonomy.
func (s *TileServer) tileFor(ctx context.Context, axis tile.Axis, sliceIndex, lod, tx, ty int) (blob []byte, failed bool) {
	id := tile.Identity{
		DatasetID:  s.DatasetID,
		Parameter:  s.Parameter,
		Axis:       axis,
		SliceIndex: sliceIndex,
		LoD:        lod,
		TX:         tx,
		TY:         ty,
	}
	key := id.Key()
	if cached, ok := s.memCache.Get(key); ok {
		s.metrics.tileCacheHits.WithLabelValues(s.DatasetID, s.Parameter, "hit").Inc()
		return cached, false
	}
	s.metrics.tileCacheHits.WithLabelValues(s.DatasetID, s.Parameter, "miss").Inc()

	generated, err := s.generator.Generate(ctx, id, s.resampleResolution, s.isAnomaly)
	if err != nil {
		s.logger.Printf("tile %s: generation failed, substituting nan tile: %v", key, err)
		generated = tile.EncodeNaNTile(uint32(s.resampleResolution))
		failed = true
	}
	return s.memCache.StoreIfAbsent(key, generated), failed
}

// MarkSliceBuilt records in tracker that a block file now exists for
// sliceIndex.
func MarkSliceBuilt(tracker *dataset.SliceTracker, sliceIndex int) {
	tracker.MarkGenerated(sliceIndex)
}

// ErrUnknownDataset names the (datasetID, parameter) mismatch case for a
// multi-source router, should one be layered above a single TileServer.
var ErrUnknownDataset = fmt.Errorf("server: no source registered for requested dataset/parameter")
