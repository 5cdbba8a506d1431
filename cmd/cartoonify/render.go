package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jo-hoe/cartoonify/internal/core"
	cli "github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	renderCmd = &cli.Command{
		Use:   "render <image>...",
		Short: "Create avatars for local images",
		Args:  cli.MinimumNArgs(1),
		RunE:  Render,
	}
)

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().IntP("jobs", "j", 2, "Number of images rendered at the same time.")
}

type renderResult struct {
	path    string
	message string
}

// Render runs the full upload flow for every file and prints the avatar paths
// in argument order. Rejected images are reported and skipped.
func Render(cmd *cli.Command, args []string) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	jobs, _ := cmd.Flags().GetInt("jobs")

	service, err := core.NewCoreService(cmd.Context(), config)
	if err != nil {
		return err
	}
	defer func() {
		if err := service.Close(); err != nil {
			slog.Error("failed to close core service", "error", err)
		}
	}()

	results := make([]renderResult, len(args))
	group, ctx := errgroup.WithContext(cmd.Context())
	group.SetLimit(max(jobs, 1))
	for i, path := range args {
		group.Go(func() error {
			result, err := renderFile(ctx, service, config, path)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	failed := 0
	for i, result := range results {
		if result.message != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", args[i], result.message)
			failed++
			continue
		}
		fmt.Fprintln(cmd.OutOrStdout(), result.path)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d images were rejected", failed, len(args))
	}
	return nil
}

func renderFile(ctx context.Context, service *core.CoreService, config *core.ServiceConfig, path string) (renderResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return renderResult{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	avatar, err := service.CreateAvatar(ctx, filepath.Base(path), data)
	if err != nil {
		if message, ok := core.UserMessage(err); ok {
			return renderResult{message: message}, nil
		}
		return renderResult{}, fmt.Errorf("failed to render %s: %w", path, err)
	}
	return renderResult{path: filepath.Join(config.Storage.AvatarDir, avatar.AvatarFilename)}, nil
}
