package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
)

// CLI defines the lifebooks command structure.
type CLI struct {
	// Default command (runs when no subcommand given)
	Interview InterviewCmd `cmd:"" default:"withargs" help:"Start a story interview in the terminal"`

	Types   TypesCmd   `cmd:"" help:"List the available story types"`
	Stories StoriesCmd `cmd:"" help:"List saved stories"`
	Export  ExportCmd  `cmd:"" help:"Export a saved story to a text file"`
	Devices DevicesCmd `cmd:"" help:"List available audio devices"`
	Config  ConfigCmd  `cmd:"" help:"Manage configuration"`
}

func main() {
	//nolint:exhaustruct // Using default values for other HandlerOptions fields
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))

	cli := &CLI{} //nolint:exhaustruct // Kong fills in command fields
	ctx := kong.Parse(cli,
		kong.Name("lifebooks"),
		kong.Description("Record your life stories through a guided interview."),
		kong.UsageOnError(),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
	os.Exit(0)
}
