package video

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"ai-reel-studio/internal/domain/model"
	"ai-reel-studio/internal/domain/ports/adapter"
)

var _ adapter.VideoGenerator = (*NoopGenerator)(nil)

// NoopGenerator implements adapter.VideoGenerator for local/dev testing.
// It writes an empty artifact instead of calling the vendor.
type NoopGenerator struct {
	log *zerolog.Logger
}

func NewNoopGenerator(logger *zerolog.Logger) *NoopGenerator {
	return &NoopGenerator{log: logger}
}

func (g *NoopGenerator) Generate(ctx context.Context, job model.SceneJob) error {
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return ctx.Err()
	}
	g.log.Debug().Str("scene", string(job.Slot)).Str("out", job.OutputPath).Msg("noop scene generated")
	return os.WriteFile(job.OutputPath, nil, 0o644)
}
