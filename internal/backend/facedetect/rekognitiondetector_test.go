package facedetect

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

type fakeRekognition struct {
	output *rekognition.DetectFacesOutput
	err    error
	calls  int
	input  *rekognition.DetectFacesInput
}

func (f *fakeRekognition) DetectFaces(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
	f.calls++
	f.input = params
	return f.output, f.err
}

func faceDetail(left, top, width, height, confidence float32) types.FaceDetail {
	return types.FaceDetail{
		BoundingBox: &types.BoundingBox{
			Left:   aws.Float32(left),
			Top:    aws.Float32(top),
			Width:  aws.Float32(width),
			Height: aws.Float32(height),
		},
		Confidence: aws.Float32(confidence),
	}
}

func TestRekognitionDetector_Detect(t *testing.T) {
	client := &fakeRekognition{
		output: &rekognition.DetectFacesOutput{
			FaceDetails: []types.FaceDetail{
				faceDetail(0.25, 0.5, 0.5, 0.25, 99.5),
				faceDetail(0, 0, 0.1, 0.1, 42),
				{Confidence: aws.Float32(95)},
			},
		},
	}
	detector := NewRekognitionDetector(client, 0)

	faces, err := detector.Detect(context.Background(), image.NewNRGBA(image.Rect(0, 0, 200, 100)))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if client.calls != 1 {
		t.Errorf("Expected one call, got %d", client.calls)
	}
	if client.input == nil || len(client.input.Image.Bytes) == 0 {
		t.Error("Expected encoded image bytes to be sent")
	}
	if len(faces) != 1 {
		t.Fatalf("Expected 1 face above the default confidence, got %d", len(faces))
	}
	want := image.Rect(50, 50, 150, 75)
	if faces[0].Bounds != want {
		t.Errorf("Expected bounds %v, got %v", want, faces[0].Bounds)
	}
	if faces[0].Score != 99.5 {
		t.Errorf("Expected score 99.5, got %v", faces[0].Score)
	}
}

func TestRekognitionDetector_MinConfidence(t *testing.T) {
	client := &fakeRekognition{
		output: &rekognition.DetectFacesOutput{
			FaceDetails: []types.FaceDetail{faceDetail(0, 0, 0.5, 0.5, 42)},
		},
	}

	faces, err := NewRekognitionDetector(client, 40).Detect(context.Background(), image.NewNRGBA(image.Rect(0, 0, 10, 10)))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(faces) != 1 {
		t.Errorf("Expected 1 face with lowered confidence, got %d", len(faces))
	}
}

func TestRekognitionDetector_ClientError(t *testing.T) {
	client := &fakeRekognition{err: errors.New("throttled")}

	_, err := NewRekognitionDetector(client, 60).Detect(context.Background(), image.NewNRGBA(image.Rect(0, 0, 10, 10)))
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !errors.Is(err, client.err) {
		t.Errorf("Expected wrapped client error, got %v", err)
	}
}
