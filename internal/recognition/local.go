package recognition

import (
	"bytes"
	"context"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
	"github.com/rs/zerolog"

	"vinscan-service/internal/domain/vin"
)

// LocalEngine runs the on-device OCR pass. The underlying tesseract client is
// acquired per call and released on every exit path; it is never held across
// recognitions.
type LocalEngine struct {
	clientFactory func() *gosseract.Client
	languages     []string
	log           zerolog.Logger
}

func NewLocalEngine(languages []string, log zerolog.Logger) *LocalEngine {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &LocalEngine{
		clientFactory: gosseract.NewClient,
		languages:     languages,
		log:           log,
	}
}

func (e *LocalEngine) Recognize(ctx context.Context, img []byte) (vin.OcrCandidate, error) {
	select {
	case <-ctx.Done():
		return vin.OcrCandidate{}, ctx.Err()
	default:
	}

	prepared, err := preprocess(img)
	if err != nil {
		return vin.OcrCandidate{}, fmt.Errorf("preprocess image: %w", err)
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetLanguage(e.languages...); err != nil {
		return vin.OcrCandidate{}, fmt.Errorf("set languages: %w", err)
	}
	// VIN plates are short single-line blocks; constrain segmentation and
	// restrict the recognizer to the VIN alphabet.
	if err := c.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return vin.OcrCandidate{}, fmt.Errorf("set page segmentation mode: %w", err)
	}
	if err := c.SetWhitelist(vinAlphabet); err != nil {
		return vin.OcrCandidate{}, fmt.Errorf("set whitelist: %w", err)
	}
	if err := c.SetImageFromBytes(prepared); err != nil {
		return vin.OcrCandidate{}, fmt.Errorf("set image: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return vin.OcrCandidate{}, fmt.Errorf("recognize text: %w", err)
	}

	e.log.Debug().Str("raw_text", text).Msg("local OCR pass completed")
	return buildCandidate(text, vin.SourceLocal)
}

// preprocess decodes the capture, converts it to grayscale and upscales small
// images so plate characters land in tesseract's preferred size range.
func preprocess(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	gray := imaging.Grayscale(img)
	if gray.Bounds().Dx() < 600 {
		gray = imaging.Resize(gray, 1200, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, gray, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
