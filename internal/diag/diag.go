// Package diag provides the per-iteration diagnostic stream described
// in spec.md §6 (the -q flag): when enabled, one structured line per
// force-step energy value and per-sparsify-step overlap value.
//
// The teacher repo has no logging concern of its own — its CLI
// (cmd/hwygen) reports only a couple of fmt.Printf success lines.
// This is enriched from the rest of the retrieval pack:
// nmxmxh-master-ovasabi/logger/logger.go wraps zap.NewProduction /
// zap.NewDevelopment behind a small Logger interface; this package
// follows that shape, scaled down to what a batch numeric CLI needs.
package diag

import "go.uber.org/zap"

// Logger reports per-step simulation diagnostics.
type Logger interface {
	ForceStep(iteration int, energy float64)
	SparsifyStep(iteration int, overlap float64)
	Sync() error
}

type zapLogger struct {
	sugar *zap.SugaredLogger
}

// New builds a Logger writing structured diagnostic lines to stderr.
// When verbose is false, it returns a Logger whose calls are no-ops.
func New(verbose bool) (Logger, error) {
	if !verbose {
		return noop{}, nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &zapLogger{sugar: logger.Sugar()}, nil
}

func (l *zapLogger) ForceStep(iteration int, energy float64) {
	l.sugar.Infow("force step", "iteration", iteration, "energy", energy)
}

func (l *zapLogger) SparsifyStep(iteration int, overlap float64) {
	l.sugar.Infow("sparsify step", "iteration", iteration, "overlap", overlap)
}

func (l *zapLogger) Sync() error {
	return l.sugar.Sync()
}

type noop struct{}

func (noop) ForceStep(int, float64)    {}
func (noop) SparsifyStep(int, float64) {}
func (noop) Sync() error               { return nil }
