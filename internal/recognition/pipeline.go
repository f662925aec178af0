package recognition

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"vinscan-service/internal/domain/vin"
	"vinscan-service/internal/metrics"
)

// Recognizer is one recognition stage: image in, candidate or failure out.
type Recognizer interface {
	Recognize(ctx context.Context, img []byte) (vin.OcrCandidate, error)
}

// Pipeline chains the local engine with the cloud fallback. The fallback is
// invoked only when the local stage fails; there is no third tier.
type Pipeline struct {
	local   Recognizer
	cloud   Recognizer
	metrics *metrics.Metrics
	log     zerolog.Logger
}

func NewPipeline(local, cloud Recognizer, m *metrics.Metrics, log zerolog.Logger) *Pipeline {
	return &Pipeline{local: local, cloud: cloud, metrics: m, log: log}
}

// Recognize runs the two-stage recognition. The returned error wraps
// ErrExtractionFailed when both stages failed to produce a usable candidate.
func (p *Pipeline) Recognize(ctx context.Context, img []byte) (vin.OcrCandidate, error) {
	candidate, localErr := p.local.Recognize(ctx, img)
	if localErr == nil {
		p.metrics.RecognitionStage("local", "ok")
		return candidate, nil
	}
	p.metrics.RecognitionStage("local", "failed")

	if ctx.Err() != nil {
		return vin.OcrCandidate{}, ctx.Err()
	}

	p.log.Info().Err(localErr).Msg("local recognition failed, falling back to cloud")

	candidate, cloudErr := p.cloud.Recognize(ctx, img)
	if cloudErr == nil {
		p.metrics.RecognitionStage("cloud", "ok")
		return candidate, nil
	}
	p.metrics.RecognitionStage("cloud", "failed")

	if errors.Is(cloudErr, context.Canceled) || errors.Is(cloudErr, context.DeadlineExceeded) {
		return vin.OcrCandidate{}, cloudErr
	}

	return vin.OcrCandidate{}, fmt.Errorf("%w: local: %v; cloud: %v", ErrExtractionFailed, localErr, cloudErr)
}
