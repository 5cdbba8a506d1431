package facedetect

import (
	"fmt"
	"image"

	"github.com/fogleman/gg"
)

// MarkFaces returns a copy of img with a rectangle and score drawn around each face
func MarkFaces(img image.Image, faces []Face) image.Image {
	dc := gg.NewContextForImage(img)
	dc.SetLineWidth(3)

	for _, face := range faces {
		r := face.Bounds
		dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
		dc.SetRGBA(1, 0, 0, 0.9)
		dc.Stroke()

		dc.DrawString(fmt.Sprintf("%.1f", face.Score), float64(r.Min.X), float64(r.Min.Y)-4)
	}

	return dc.Image()
}
