// Command lexcubed serves and builds lexcube tile datasets: "serve"
// runs the HTTP tile dispatcher against one or more configured
// datasets, "build" pre-generates block files for standalone serving,
// and "show" prints a dataset's persisted metadata.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/lexcube/lexcube-go/internal/block"
	"github.com/lexcube/lexcube-go/internal/cache"
	"github.com/lexcube/lexcube-go/internal/codec"
	"github.com/lexcube/lexcube-go/internal/config"
	"github.com/lexcube/lexcube-go/internal/cube"
	"github.com/lexcube/lexcube-go/internal/dataset"
	"github.com/lexcube/lexcube-go/internal/server"
	"github.com/lexcube/lexcube-go/internal/tile"
)

func main() {
	logger := log.New(os.Stdout, "", log.Ldate|log.Ltime|log.Lshortfile)

	if len(os.Args) < 2 {
		fmt.Println(`Usage: lexcubed [COMMAND] [ARGS]

Serve configured datasets over HTTP:
lexcubed serve server.json

Pre-generate block files for standalone serving:
lexcubed build server.json OUTPUT_DIR

Print a dataset's persisted metadata:
lexcubed show OUTPUT_DIR/ds1.temp.param.json`)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		runServe(logger, os.Args[2:])
	case "build":
		runBuild(logger, os.Args[2:])
	case "show":
		runShow(logger, os.Args[2:])
	default:
		logger.Fatalf("unknown command %q", os.Args[1])
	}
}

func dataSourceFor(ctx context.Context, ds config.DatasetConfig) (*cube.DataSourceProxy, error) {
	bucket, err := cube.OpenBucket(ctx, ds.BucketURL, ds.ChunkPrefix)
	if err != nil {
		return nil, err
	}
	dtype := cube.Float32
	if ds.DataType == "float64" {
		dtype = cube.Float64
	}
	grid := cube.NewUniformChunkGrid(ds.Shape, ds.ChunkShape)
	reader := cube.NewBucketReader(bucket, "", grid, dtype)
	source := cube.NewLabeled(reader, grid, dtype, [3]string{ds.ZDimensionName, ds.YDimensionName, ds.XDimensionName}, nil, nil, nil)
	return cube.NewDataSourceProxy(source), nil
}

func runServe(logger *log.Logger, args []string) {
	cmd := flag.NewFlagSet("serve", flag.ExitOnError)
	cmd.Parse(args)
	if cmd.NArg() < 1 {
		logger.Fatal("USAGE: serve CONFIG.json")
	}

	cfg, err := config.Load(cmd.Arg(0))
	if err != nil {
		logger.Fatalf("loading config: %v", err)
	}

	ctx := context.Background()
	mux := http.NewServeMux()
	mux.Handle("/metrics", server.MetricsHandler())
	for _, ds := range cfg.Datasets {
		proxy, err := dataSourceFor(ctx, ds)
		if err != nil {
			logger.Fatalf("opening dataset %s/%s: %v", ds.DatasetID, ds.Parameter, err)
		}
		compressor, err := codec.NewTileCompressor(ds.DefaultTolerance, ds.AnomalyTolerance)
		if err != nil {
			logger.Fatalf("building compressor for %s/%s: %v", ds.DatasetID, ds.Parameter, err)
		}
		gen := tile.NewGenerator(proxy, compressor, ds.TileSize, ds.Lossless)
		memCache := cache.NewMemoryTileCache()
		srv := server.NewTileServer(ds.DatasetID, ds.Parameter, gen, memCache, 1, ds.IsAnomalyParameter, cfg.Workers, logger)

		prefix := fmt.Sprintf("/%s/%s/", ds.DatasetID, ds.Parameter)
		mux.Handle(prefix, http.StripPrefix(prefix, server.NewHandler(srv, corsOrigins(cfg.CORSOrigin))))
		logger.Printf("serving dataset %s/%s under %s", ds.DatasetID, ds.Parameter, prefix)
	}

	logger.Printf("listening on :%s", cfg.Port)
	logger.Fatal(http.ListenAndServe(":"+cfg.Port, mux))
}

func corsOrigins(origin string) []string {
	if origin == "" {
		return nil
	}
	return []string{origin}
}

func runBuild(logger *log.Logger, args []string) {
	cmd := flag.NewFlagSet("build", flag.ExitOnError)
	cmd.Parse(args)
	if cmd.NArg() < 2 {
		logger.Fatal("USAGE: build CONFIG.json OUTPUT_DIR")
	}
	outputDir := cmd.Arg(1)

	cfg, err := config.Load(cmd.Arg(0))
	if err != nil {
		logger.Fatalf("loading config: %v", err)
	}

	ctx := context.Background()
	for _, ds := range cfg.Datasets {
		if err := buildDataset(ctx, logger, ds, outputDir); err != nil {
			logger.Fatalf("building dataset %s/%s: %v", ds.DatasetID, ds.Parameter, err)
		}
	}
}

func buildDataset(ctx context.Context, logger *log.Logger, ds config.DatasetConfig, outputDir string) error {
	proxy, err := dataSourceFor(ctx, ds)
	if err != nil {
		return err
	}

	stats, err := dataset.DiscoverParameterStats(ctx, proxy)
	if err != nil {
		return fmt.Errorf("discovering stats: %w", err)
	}
	metaPath := filepath.Join(outputDir, fmt.Sprintf("%s.%s.param.json", ds.DatasetID, ds.Parameter))
	if err := dataset.SaveParameterMetadata(metaPath, stats); err != nil {
		return fmt.Errorf("saving parameter metadata: %w", err)
	}

	compressor, err := codec.NewTileCompressor(ds.DefaultTolerance, ds.AnomalyTolerance)
	if err != nil {
		return fmt.Errorf("building compressor: %w", err)
	}
	defer compressor.Close()
	gen := tile.NewGenerator(proxy, compressor, ds.TileSize, ds.Lossless)

	shape := proxy.Shape()
	sparsity := ds.PreGenerationSparsity
	tracker := dataset.NewSliceTracker()

	axes := []tile.Axis{tile.AxisZ}
	sliceCount := shape[0]
	bar := server.NewBuildProgress(int64((sliceCount+sparsity-1)/sparsity), fmt.Sprintf("%s/%s", ds.DatasetID, ds.Parameter))
	defer bar.Close()

	for _, axis := range axes {
		maxLoD := tile.MaxLoD(shape, ds.TileSize)
		layout := block.NewLayout(shape, axis, ds.TileSize, maxLoD)

		for sliceIndex := 0; sliceIndex < sliceCount; sliceIndex += sparsity {
			path := dataset.BlockFilePath(outputDir, ds.DatasetID, ds.Parameter, axis.String(), sliceIndex)
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("creating block directory: %w", err)
			}
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("creating block file: %w", err)
			}
			err = block.Build(f, layout, func(lod, x, y int) ([]byte, error) {
				id := tile.Identity{DatasetID: ds.DatasetID, Parameter: ds.Parameter, Axis: axis, SliceIndex: sliceIndex, LoD: lod, TX: x, TY: y}
				return gen.Generate(ctx, id, stats.ResampleResolution, ds.IsAnomalyParameter)
			})
			f.Close()
			if err != nil {
				return fmt.Errorf("building block for slice %d: %w", sliceIndex, err)
			}
			tracker.MarkGenerated(sliceIndex)
			bar.Add(1)
			logger.Printf("built %s", path)
		}
	}

	return nil
}

func runShow(logger *log.Logger, args []string) {
	cmd := flag.NewFlagSet("show", flag.ExitOnError)
	cmd.Parse(args)
	if cmd.NArg() < 1 {
		logger.Fatal("USAGE: show METADATA.json")
	}
	data, err := os.ReadFile(cmd.Arg(0))
	if err != nil {
		logger.Fatalf("reading %s: %v", cmd.Arg(0), err)
	}
	var pretty map[string]any
	if err := json.Unmarshal(data, &pretty); err != nil {
		logger.Fatalf("parsing %s: %v", cmd.Arg(0), err)
	}
	out, _ := json.MarshalIndent(pretty, "", "  ")
	fmt.Println(string(out))
}
