// Package imaging crops gallery photos around the most prominent face.
//
// Face detection is a pluggable capability. Without a detector, or when it
// fails or finds nothing, photos fall back to a deterministic center crop.
package imaging

import (
	"image"
	"math"
)

const (
	// face center sits this far down the crop
	faceVerticalAnchor = 0.33
	facePadding        = 0.10
)

type Face struct {
	Box   image.Rectangle
	Score float64
}

// LargestFace returns the face with the biggest box, the one the crop is
// built around.
func LargestFace(faces []Face) (Face, bool) {
	var best Face
	found := false
	bestArea := -1
	for _, f := range faces {
		if f.Box.Empty() {
			continue
		}
		area := f.Box.Dx() * f.Box.Dy()
		if area > bestArea {
			best, bestArea, found = f, area, true
		}
	}
	return best, found
}

// CropArea returns a crop of the given aspect (width/height) that keeps the
// face in the upper third. It returns ok=false when the image is too narrow
// for a full height crop, in which case callers center crop.
func CropArea(bounds, face image.Rectangle, aspect float64) (image.Rectangle, bool) {
	imgW, imgH := bounds.Dx(), bounds.Dy()
	cropH := imgH
	cropW := int(math.Round(float64(cropH) * aspect))
	if cropW > imgW || cropW <= 0 {
		return image.Rectangle{}, false
	}

	cx := float64(face.Min.X+face.Max.X) / 2
	cy := float64(face.Min.Y+face.Max.Y) / 2

	x := int(math.Round(cx - float64(cropW)/2))
	y := int(math.Round(cy - float64(cropH)*faceVerticalAnchor))
	crop := clamp(image.Rect(x, y, x+cropW, y+cropH), bounds)

	if !face.In(crop) {
		padX := int(math.Round(float64(face.Dx()) * facePadding))
		padY := int(math.Round(float64(face.Dy()) * facePadding))
		padded := image.Rect(face.Min.X-padX, face.Min.Y-padY, face.Max.X+padX, face.Max.Y+padY)
		crop = clamp(fitAround(crop, padded), bounds)
	}
	return crop, true
}

// fitAround shifts crop, keeping its size, so that it covers target where
// possible.
func fitAround(crop, target image.Rectangle) image.Rectangle {
	dx, dy := 0, 0
	if target.Min.X < crop.Min.X {
		dx = target.Min.X - crop.Min.X
	} else if target.Max.X > crop.Max.X {
		dx = target.Max.X - crop.Max.X
	}
	if target.Min.Y < crop.Min.Y {
		dy = target.Min.Y - crop.Min.Y
	} else if target.Max.Y > crop.Max.Y {
		dy = target.Max.Y - crop.Max.Y
	}
	return crop.Add(image.Pt(dx, dy))
}

// clamp shifts r inside bounds without resizing it. r must fit in bounds.
func clamp(r, bounds image.Rectangle) image.Rectangle {
	dx, dy := 0, 0
	if r.Min.X < bounds.Min.X {
		dx = bounds.Min.X - r.Min.X
	} else if r.Max.X > bounds.Max.X {
		dx = bounds.Max.X - r.Max.X
	}
	if r.Min.Y < bounds.Min.Y {
		dy = bounds.Min.Y - r.Min.Y
	} else if r.Max.Y > bounds.Max.Y {
		dy = bounds.Max.Y - r.Max.Y
	}
	return r.Add(image.Pt(dx, dy))
}
