package adapter

import (
	"context"

	"ai-reel-studio/internal/domain/model"
)

// VideoGenerator is the capability surface of the image-to-video vendor.
// Generate submits the job, polls until the vendor reports completion and
// downloads the artifact to job.OutputPath. Implementations must classify
// throttling responses as domain.ErrRateLimited so the retry policy can
// tell waiting apart from rotating.
type VideoGenerator interface {
	Generate(ctx context.Context, job model.SceneJob) error
}

// Keyring holds the ordered vendor credentials and the active cursor.
// Rotate reports false when only one credential exists, signalling that a
// time-based backoff is the only option left.
type Keyring interface {
	Active() string
	Rotate() bool
	Len() int
}
