//go:build opencv

package commands

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/jo-hoe/cartoonify/internal/backend/commandstructure"
	"gocv.io/x/gocv"
)

// OpenCVCartoonCommand runs the whole cartoon filter through OpenCV.
// It reads the same parameters as the pure Go pipeline, flattened into one map.
type OpenCVCartoonCommand struct {
	name    string
	first   *BilateralParams
	second  *BilateralParams
	edges   *EdgeOverlayParams
	sharpen *SharpenParams
}

// NewOpenCVCartoonCommand creates a new OpenCV cartoon command from configuration parameters
func NewOpenCVCartoonCommand(params map[string]any) (commandstructure.Command, error) {
	first, err := NewBilateralParamsFromMap(map[string]any{
		"diameter":   commandstructure.GetIntParam(params, "firstDiameter", 9),
		"sigmaColor": commandstructure.GetFloatParam(params, "firstSigmaColor", 180),
		"sigmaSpace": commandstructure.GetFloatParam(params, "firstSigmaSpace", 180),
	})
	if err != nil {
		return nil, fmt.Errorf("invalid first bilateral pass: %w", err)
	}
	second, err := NewBilateralParamsFromMap(map[string]any{
		"diameter":   commandstructure.GetIntParam(params, "secondDiameter", 7),
		"sigmaColor": commandstructure.GetFloatParam(params, "secondSigmaColor", 120),
		"sigmaSpace": commandstructure.GetFloatParam(params, "secondSigmaSpace", 120),
	})
	if err != nil {
		return nil, fmt.Errorf("invalid second bilateral pass: %w", err)
	}
	edges, err := NewEdgeOverlayParamsFromMap(params)
	if err != nil {
		return nil, err
	}
	sharpen, err := NewSharpenParamsFromMap(params)
	if err != nil {
		return nil, err
	}

	return &OpenCVCartoonCommand{
		name:    "OpenCVCartoonCommand",
		first:   first,
		second:  second,
		edges:   edges,
		sharpen: sharpen,
	}, nil
}

// Name returns the command name
func (c *OpenCVCartoonCommand) Name() string {
	return c.name
}

// Execute applies bilateral smoothing, edge overlay and sharpening with OpenCV
func (c *OpenCVCartoonCommand) Execute(frame *commandstructure.Frame) (*commandstructure.Frame, error) {
	color, err := gocv.ImageToMatRGB(frame.Image)
	if err != nil {
		return nil, fmt.Errorf("failed to convert working image: %w", err)
	}
	defer color.Close()

	source, err := gocv.ImageToMatRGB(frame.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to convert source image: %w", err)
	}
	defer source.Close()

	if source.Cols() != color.Cols() || source.Rows() != color.Rows() {
		gocv.Resize(source, &source, image.Pt(color.Cols(), color.Rows()), 0, 0, gocv.InterpolationArea)
	}

	smooth := gocv.NewMat()
	defer smooth.Close()
	smoother := gocv.NewMat()
	defer smoother.Close()
	gocv.BilateralFilter(color, &smooth, c.first.Diameter, c.first.SigmaColor, c.first.SigmaSpace)
	gocv.BilateralFilter(smooth, &smoother, c.second.Diameter, c.second.SigmaColor, c.second.SigmaSpace)

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(source, &gray, gocv.ColorBGRToGray)
	if c.edges.MedianKernel > 1 {
		gocv.MedianBlur(gray, &gray, c.edges.MedianKernel)
	}
	edges := gocv.NewMat()
	defer edges.Close()
	gocv.AdaptiveThreshold(gray, &edges, 255, gocv.AdaptiveThresholdMean, gocv.ThresholdBinary, c.edges.BlockSize, float32(c.edges.Offset))
	gocv.CvtColor(edges, &edges, gocv.ColorGrayToBGR)
	if c.edges.EdgeBlur {
		gocv.GaussianBlur(edges, &edges, image.Pt(3, 3), 0, 0, gocv.BorderDefault)
	}

	cartoon := gocv.NewMat()
	defer cartoon.Close()
	gocv.AddWeighted(smoother, c.edges.ColorWeight, edges, c.edges.EdgeWeight, 0, &cartoon)

	if c.sharpen.Strength > 0 {
		blurred := gocv.NewMat()
		defer blurred.Close()
		gocv.GaussianBlur(cartoon, &blurred, image.Pt(0, 0), c.sharpen.Sigma, 0, gocv.BorderDefault)
		gocv.AddWeighted(cartoon, 1+c.sharpen.Strength, blurred, -c.sharpen.Strength, 0, &cartoon)
	}

	out, err := cartoon.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert cartoon image: %w", err)
	}
	result := commandstructure.ToNRGBA(out)

	// Mats carry no alpha; restore it from the working image
	for i := 3; i < len(result.Pix); i += 4 {
		result.Pix[i] = frame.Image.Pix[i]
	}

	slog.Debug("OpenCVCartoonCommand: cartoon filter complete",
		"width", result.Bounds().Dx(),
		"height", result.Bounds().Dy())

	return frame.WithImage(result), nil
}

func init() {
	// Register the command in the default registry
	if err := commandstructure.DefaultRegistry.Register("OpenCVCartoonCommand", NewOpenCVCartoonCommand); err != nil {
		panic(fmt.Sprintf("failed to register OpenCVCartoonCommand: %v", err))
	}
}
