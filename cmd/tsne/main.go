// Command tsne embeds the rows of a numeric CSV file into two or three
// dimensions with t-SNE and writes the embedding as CSV.
//
// Input may be gzip or zstd compressed; the format is detected from its
// first bytes. Settings come from an optional YAML file (-config) and are
// overridden by any flag given explicitly.
//
//	tsne -perplexity 40 -out emb.csv data.csv.gz
//	tsne -config tsne.yaml < data.csv > emb.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/TrevorS/tsne"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("tsne", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: tsne [options] [input.csv]\n")
		fs.PrintDefaults()
	}

	var (
		configPath = fs.String("config", "", "YAML config file")
		outPath    = fs.String("out", "", "output file (default stdout; .gz and .zst are compressed)")
		header     = fs.Bool("header", false, "skip the first input record")
		quiet      = fs.Bool("quiet", false, "only log warnings and errors")
		jsonLogs   = fs.Bool("json", false, "log as JSON")

		perplexity = fs.Float64("perplexity", 0, "target perplexity")
		theta      = fs.Float64("theta", 0, "Barnes-Hut accuracy in [0, 1]; 0 runs the exact algorithm")
		algorithm  = fs.String("algorithm", "", "auto, exact, barnes_hut or barnes_hut_threshold")
		metric     = fs.String("metric", "", "euclidean, manhattan, chebyshev or minkowski")
		iters      = fs.Int("iter", 0, "gradient descent iterations")
		dims       = fs.Int("dims", 0, "output dimensionality")
		seed       = fs.Uint64("seed", 0, "random seed")
		workers    = fs.Int("workers", 0, "worker goroutines (0 = all CPUs)")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return fmt.Errorf("expected at most one input file, got %d", fs.NArg())
	}

	fc, err := loadFileConfig(*configPath)
	if err != nil {
		return err
	}

	// Explicit flags win over the config file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "perplexity":
			fc.Perplexity = *perplexity
		case "theta":
			fc.Theta = *theta
		case "algorithm":
			fc.Algorithm = *algorithm
		case "metric":
			fc.Metric = *metric
		case "iter":
			fc.MaxIter = *iters
		case "dims":
			fc.OutputDims = *dims
		case "seed":
			fc.Seed = *seed
		case "workers":
			fc.Workers = *workers
		}
	})

	cfg, err := fc.toConfig()
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if *quiet {
		level = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(stderr, opts)
	if *jsonLogs {
		handler = slog.NewJSONHandler(stderr, opts)
	}
	logger := slog.New(handler)
	cfg.Reporter = tsne.NewSlogReporter(logger)

	in, closeIn, err := openInput(fs.Arg(0), stdin)
	if err != nil {
		return err
	}
	data, err := readPoints(in, *header)
	closeIn()
	if err != nil {
		return err
	}
	logger.Info("input loaded", "points", len(data))

	result, err := tsne.Embed(ctx, data, cfg)
	if err != nil {
		return err
	}
	logger.Info("embedding done", "algorithm", result.Algorithm, "kl_divergence", result.KLDivergence)

	out, closeOut, err := createOutput(*outPath, stdout)
	if err != nil {
		return err
	}
	if err := writeEmbedding(out, result.Embedding); err != nil {
		_ = closeOut()
		return fmt.Errorf("write output: %w", err)
	}
	return closeOut()
}
