package recognition

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"vinscan-service/internal/domain/vin"
)

type stubRecognizer struct {
	candidate vin.OcrCandidate
	err       error
	calls     int
}

func (s *stubRecognizer) Recognize(ctx context.Context, img []byte) (vin.OcrCandidate, error) {
	s.calls++
	return s.candidate, s.err
}

func TestPipelineLocalSuccessSkipsCloud(t *testing.T) {
	local := &stubRecognizer{candidate: vin.OcrCandidate{Text: "1HGCM82633A004352", Source: vin.SourceLocal}}
	cloud := &stubRecognizer{}
	p := NewPipeline(local, cloud, nil, zerolog.Nop())

	got, err := p.Recognize(context.Background(), []byte{1})
	if err != nil {
		t.Fatal(err)
	}
	if got.Source != vin.SourceLocal {
		t.Errorf("Source = %q, want local", got.Source)
	}
	if cloud.calls != 0 {
		t.Errorf("cloud called %d times, want 0", cloud.calls)
	}
}

func TestPipelineFallsBackToCloud(t *testing.T) {
	local := &stubRecognizer{err: ErrNoUsableText}
	cloud := &stubRecognizer{candidate: vin.OcrCandidate{Text: "1HGCM82633A004352", Source: vin.SourceCloud}}
	p := NewPipeline(local, cloud, nil, zerolog.Nop())

	got, err := p.Recognize(context.Background(), []byte{1})
	if err != nil {
		t.Fatal(err)
	}
	if got.Source != vin.SourceCloud {
		t.Errorf("Source = %q, want cloud", got.Source)
	}
	if local.calls != 1 || cloud.calls != 1 {
		t.Errorf("calls local=%d cloud=%d, want 1/1", local.calls, cloud.calls)
	}
}

func TestPipelineBothStagesFail(t *testing.T) {
	local := &stubRecognizer{err: ErrNoUsableText}
	cloud := &stubRecognizer{err: errors.New("network unreachable")}
	p := NewPipeline(local, cloud, nil, zerolog.Nop())

	_, err := p.Recognize(context.Background(), []byte{1})
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("err = %v, want ErrExtractionFailed", err)
	}
}

func TestPipelineRespectsCancellation(t *testing.T) {
	local := &stubRecognizer{err: ErrNoUsableText}
	cloud := &stubRecognizer{candidate: vin.OcrCandidate{Text: "1HGCM82633A004352"}}
	p := NewPipeline(local, cloud, nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Recognize(ctx, []byte{1})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if cloud.calls != 0 {
		t.Errorf("cloud called %d times after cancellation, want 0", cloud.calls)
	}
}

func TestPipelineCloudTimeoutSurfaces(t *testing.T) {
	local := &stubRecognizer{err: ErrNoUsableText}
	cloud := &stubRecognizer{err: context.DeadlineExceeded}
	p := NewPipeline(local, cloud, nil, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	_, err := p.Recognize(ctx, []byte{1})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want context.DeadlineExceeded", err)
	}
}
