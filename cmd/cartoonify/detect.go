package main

import (
	"fmt"
	"os"

	"github.com/disintegration/imaging"
	"github.com/jo-hoe/cartoonify/internal/backend/facedetect"
	"github.com/jo-hoe/cartoonify/internal/core"
	cli "github.com/spf13/cobra"
)

var (
	detectCmd = &cli.Command{
		Use:   "detect <image>",
		Short: "Print the faces found in an image",
		Args:  cli.ExactArgs(1),
		RunE:  Detect,
	}
)

func init() {
	rootCmd.AddCommand(detectCmd)

	detectCmd.Flags().StringP("output", "o", "", "Write a copy of the image with the faces outlined to this path.")
}

func Detect(cmd *cli.Command, args []string) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	img, err := core.DecodeImage(data)
	if err != nil {
		return err
	}

	detector, err := facedetect.NewDetector(cmd.Context(), config.FaceDetectorConfig())
	if err != nil {
		return err
	}
	faces, err := detector.Detect(cmd.Context(), img)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d face(s) in %s\n", len(faces), args[0])
	for i, face := range faces {
		fmt.Fprintf(cmd.OutOrStdout(), "  #%d %v score=%.2f\n", i+1, face.Bounds, face.Score)
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		return nil
	}
	if err := imaging.Save(facedetect.MarkFaces(img, faces), output); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "marked image written to %s\n", output)
	return nil
}
