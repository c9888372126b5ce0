package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/TrevorS/tsne"
)

// fileConfig is the YAML form of tsne.Config. Fields missing from the file
// keep the values the struct was prefilled with.
type fileConfig struct {
	OutputDims         int     `yaml:"output_dims"`
	Perplexity         float64 `yaml:"perplexity"`
	Theta              float64 `yaml:"theta"`
	Algorithm          string  `yaml:"algorithm"`
	NeighborK          int     `yaml:"neighbor_k"`
	Threshold          float64 `yaml:"threshold"`
	Metric             string  `yaml:"metric"`
	MinkowskiP         float64 `yaml:"minkowski_p"`
	MaxIter            int     `yaml:"max_iter"`
	StopLyingIter      int     `yaml:"stop_lying_iter"`
	MomentumSwitchIter int     `yaml:"momentum_switch_iter"`
	Momentum           float64 `yaml:"momentum"`
	FinalMomentum      float64 `yaml:"final_momentum"`
	LearningRate       float64 `yaml:"learning_rate"`
	Exaggeration       float64 `yaml:"exaggeration"`
	MinGain            float64 `yaml:"min_gain"`
	ReportEvery        int     `yaml:"report_every"`
	Seed               uint64  `yaml:"seed"`
	Workers            int     `yaml:"workers"`
}

func defaultFileConfig() fileConfig {
	def := tsne.DefaultConfig()
	return fileConfig{
		OutputDims:         def.OutputDims,
		Perplexity:         def.Perplexity,
		Theta:              def.Theta,
		Algorithm:          string(def.Algorithm),
		NeighborK:          def.NeighborK,
		Threshold:          def.Threshold,
		Metric:             "euclidean",
		MinkowskiP:         2,
		MaxIter:            def.MaxIter,
		StopLyingIter:      def.StopLyingIter,
		MomentumSwitchIter: def.MomentumSwitchIter,
		Momentum:           def.Momentum,
		FinalMomentum:      def.FinalMomentum,
		LearningRate:       def.LearningRate,
		Exaggeration:       def.Exaggeration,
		MinGain:            def.MinGain,
		ReportEvery:        def.ReportEvery,
		Seed:               def.Seed,
		Workers:            def.Workers,
	}
}

// loadFileConfig reads a YAML config from path over the defaults. An empty
// path returns the defaults.
func loadFileConfig(path string) (fileConfig, error) {
	fc := defaultFileConfig()
	if path == "" {
		return fc, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fc, fmt.Errorf("parse config %s: %w", path, err)
	}
	return fc, nil
}

// toConfig converts fc into a tsne.Config. Validation of the numeric fields
// is left to the library.
func (fc fileConfig) toConfig() (tsne.Config, error) {
	metric, err := parseMetric(fc.Metric, fc.MinkowskiP)
	if err != nil {
		return tsne.Config{}, err
	}
	return tsne.Config{
		OutputDims:         fc.OutputDims,
		Perplexity:         fc.Perplexity,
		Theta:              fc.Theta,
		Algorithm:          tsne.Algorithm(fc.Algorithm),
		NeighborK:          fc.NeighborK,
		Threshold:          fc.Threshold,
		Metric:             metric,
		MaxIter:            fc.MaxIter,
		StopLyingIter:      fc.StopLyingIter,
		MomentumSwitchIter: fc.MomentumSwitchIter,
		Momentum:           fc.Momentum,
		FinalMomentum:      fc.FinalMomentum,
		LearningRate:       fc.LearningRate,
		Exaggeration:       fc.Exaggeration,
		MinGain:            fc.MinGain,
		ReportEvery:        fc.ReportEvery,
		Seed:               fc.Seed,
		Workers:            fc.Workers,
	}, nil
}

func parseMetric(name string, p float64) (tsne.DistanceMetric, error) {
	switch strings.ToLower(name) {
	case "", "euclidean", "l2":
		return tsne.EuclideanMetric{}, nil
	case "manhattan", "l1", "cityblock":
		return tsne.ManhattanMetric{}, nil
	case "chebyshev", "linf":
		return tsne.ChebyshevMetric{}, nil
	case "minkowski":
		return tsne.MinkowskiMetric{P: p}, nil
	default:
		return nil, fmt.Errorf("unknown metric %q", name)
	}
}
