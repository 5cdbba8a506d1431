package commandstructure

import (
	"fmt"
	"log/slog"
	"time"
)

// CommandInvoker executes a sequence of commands on a frame
type CommandInvoker struct {
	commands []Command
}

// NewCommandInvoker creates a new command invoker
func NewCommandInvoker(commands []Command) *CommandInvoker {
	return &CommandInvoker{
		commands: commands,
	}
}

// Commands returns the commands in execution order
func (i *CommandInvoker) Commands() []Command {
	return i.commands
}

// Execute applies all commands in sequence to the frame
func (i *CommandInvoker) Execute(frame *Frame) (*Frame, error) {
	if frame == nil || frame.Image == nil {
		return nil, fmt.Errorf("frame has no image")
	}
	start := time.Now()
	bounds := frame.Bounds()

	slog.Info("starting image processing pipeline",
		"command_count", len(i.commands),
		"width", bounds.Dx(),
		"height", bounds.Dy())

	if len(i.commands) == 0 {
		slog.Debug("no commands to execute, returning original frame")
		return frame, nil
	}

	current := frame

	for idx, command := range i.commands {
		commandStart := time.Now()

		slog.Debug("executing command",
			"index", idx,
			"command_name", command.Name())

		processed, err := command.Execute(current)
		if err != nil {
			slog.Error("command execution failed",
				"index", idx,
				"command_name", command.Name(),
				"error", err)
			return nil, fmt.Errorf("command %s (index %d) failed: %w", command.Name(), idx, err)
		}
		if processed == nil || processed.Image == nil {
			return nil, fmt.Errorf("command %s (index %d) returned no image", command.Name(), idx)
		}

		slog.Info("command completed",
			"index", idx,
			"command_name", command.Name(),
			"duration_ms", time.Since(commandStart).Milliseconds(),
			"output_width", processed.Bounds().Dx(),
			"output_height", processed.Bounds().Dy())

		current = processed
	}

	slog.Info("image processing pipeline completed",
		"total_duration_ms", time.Since(start).Milliseconds(),
		"command_count", len(i.commands))

	return current, nil
}

// ExecuteCommands creates the configured commands from the default registry and applies them in order
func ExecuteCommands(frame *Frame, commandConfigs []CommandConfig) (*Frame, error) {
	commands, err := DefaultRegistry.BuildCommands(commandConfigs)
	if err != nil {
		return nil, err
	}
	return NewCommandInvoker(commands).Execute(frame)
}
