package imaging

import (
	"context"
	"errors"
	"fmt"
	"image"
	"ms-rsvp/internal/logger"
	"sync"

	imgx "github.com/disintegration/imaging"
)

// BatchSize is how many photos are cropped concurrently.
const BatchSize = 3

type FaceDetector interface {
	Detect(ctx context.Context, img image.Image) ([]Face, error)
}

// DetectorFunc adapts a function to FaceDetector.
type DetectorFunc func(ctx context.Context, img image.Image) ([]Face, error)

func (f DetectorFunc) Detect(ctx context.Context, img image.Image) ([]Face, error) {
	return f(ctx, img)
}

type Variant string

const (
	Portrait Variant = "portrait"
	Square   Variant = "square"
)

type OutputSpec struct {
	Aspect float64
	Width  int
	Height int
}

var Variants = map[Variant]OutputSpec{
	Portrait: {Aspect: 4.0 / 5.0, Width: 400, Height: 500},
	Square:   {Aspect: 1, Width: 500, Height: 500},
}

var ErrUnknownVariant = errors.New("unknown crop variant")

func ParseVariant(s string) (Variant, error) {
	if s == "" {
		return Portrait, nil
	}
	v := Variant(s)
	if _, ok := Variants[v]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownVariant, s)
	}
	return v, nil
}

type Processor struct {
	Detector FaceDetector
	Logger   *logger.Logger
}

func NewProcessor(detector FaceDetector, log *logger.Logger) *Processor {
	if log == nil {
		log = logger.NewWriterLogger(nil)
	}
	return &Processor{Detector: detector, Logger: log}
}

// FaceRegion picks the face anchored crop rectangle for img. ok is false
// when there is no detector, detection fails, no face is found or the image
// is too narrow; the caller then center crops.
func (p *Processor) FaceRegion(ctx context.Context, img image.Image, aspect float64) (region image.Rectangle, ok bool) {
	if p.Detector == nil {
		return image.Rectangle{}, false
	}

	faces, err := p.Detector.Detect(ctx, img)
	if err != nil {
		p.Logger.Warn("IMAGING", fmt.Sprintf("Face detection failed, using center crop: %v", err))
		return image.Rectangle{}, false
	}
	face, found := LargestFace(faces)
	if !found {
		return image.Rectangle{}, false
	}
	return CropArea(img.Bounds(), face.Box, aspect)
}

// Crop returns img cropped and scaled for the variant with nearest neighbour
// sampling. On failure the original image is returned with the error.
func (p *Processor) Crop(ctx context.Context, img image.Image, variant Variant) (image.Image, error) {
	spec, ok := Variants[variant]
	if !ok {
		return img, fmt.Errorf("%w: %q", ErrUnknownVariant, variant)
	}
	if img == nil || img.Bounds().Empty() {
		return img, errors.New("empty image")
	}

	if region, ok := p.FaceRegion(ctx, img, spec.Aspect); ok {
		return imgx.Resize(imgx.Crop(img, region), spec.Width, spec.Height, imgx.NearestNeighbor), nil
	}
	return imgx.Fill(img, spec.Width, spec.Height, imgx.Center, imgx.NearestNeighbor), nil
}

// CropBatch crops imgs BatchSize at a time. Failed crops keep their original
// image. Results are in input order.
func (p *Processor) CropBatch(ctx context.Context, imgs []image.Image, variant Variant) []image.Image {
	out := make([]image.Image, len(imgs))
	for start := 0; start < len(imgs); start += BatchSize {
		end := min(start+BatchSize, len(imgs))

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				cropped, err := p.Crop(ctx, imgs[i], variant)
				if err != nil {
					p.Logger.Warn("IMAGING", fmt.Sprintf("Crop %d failed, keeping original: %v", i, err))
				}
				out[i] = cropped
			}(i)
		}
		wg.Wait()
	}
	return out
}
