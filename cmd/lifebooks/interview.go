package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/salcon83/lifebooks-ai/internal/audio/device"
	"github.com/salcon83/lifebooks-ai/internal/config"
	"github.com/salcon83/lifebooks-ai/internal/gateway"
	"github.com/salcon83/lifebooks-ai/internal/interview"
	"github.com/salcon83/lifebooks-ai/internal/logger"
	"github.com/salcon83/lifebooks-ai/internal/recording"
	"github.com/salcon83/lifebooks-ai/internal/story"
	"github.com/salcon83/lifebooks-ai/internal/tui/workflow"
	"github.com/salcon83/lifebooks-ai/internal/workdir"
)

// InterviewCmd is the default command that runs the wizard.
type InterviewCmd struct {
	GatewayURL string   `flag:"" env:"GATEWAY_URL" help:"Use a remote Lifebooks server for AI calls"`
	Attach     []string `flag:"" type:"existingfile" help:"Reference files to attach to the session"`
	NoRecord   bool     `flag:"" help:"Disable voice recording"`
}

// Run executes the interview command.
//
//nolint:funlen // CLI command with multiple setup steps
func (c *InterviewCmd) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if c.GatewayURL != "" {
		cfg.GatewayURL = c.GatewayURL
	}

	paths, err := workdir.Resolve(cfg)
	if err != nil {
		return err
	}
	if err := workdir.Prep(paths); err != nil {
		return fmt.Errorf("failed to prepare working directory: %w", err)
	}

	unlock, err := workdir.Lock(paths)
	if err != nil {
		return err
	}
	defer func() {
		if err := unlock(); err != nil {
			slog.Warn("Failed to release interview lock", "error", err)
		}
	}()

	logFile, err := os.OpenFile(paths.Log, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	log := logger.SetupCLILogger(cfg, logFile)

	attachments, err := loadAttachments(c.Attach)
	if err != nil {
		return err
	}

	catalog, err := interview.DefaultCatalog()
	if err != nil {
		return fmt.Errorf("failed to load story catalog: %w", err)
	}

	store, err := story.Open(ctx, paths.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	gw := gateway.FromConfig(cfg, log)

	controller := interview.NewController(catalog,
		interview.WithAssemblyPolicy(interview.AssemblyPolicy{
			IncludeInterviewerTurns: cfg.IncludeInterviewerTurns,
		}),
		interview.WithLogger(log),
	)

	var p *tea.Program

	deps := workflow.Deps{
		Controller:  controller,
		Gateway:     gw,
		Store:       store,
		ExportDir:   paths.Exports,
		Attachments: attachments,
		Cancel:      cancel,
		Logger:      log,
	}

	var session *recording.Session
	if !c.NoRecord {
		session = recording.NewSession(
			device.NewMicrophone(device.DefaultConfig()),
			gw,
			recording.WithLogger(log),
			recording.WithOnTick(func(elapsed int) {
				p.Send(workflow.ElapsedMsg{Seconds: elapsed})
			}),
			recording.WithOnTranscription(func(t gateway.Transcription) {
				p.Send(workflow.TranscriptionMsg{Result: t})
			}),
		)
		deps.Recorder = session
	}

	p = tea.NewProgram(workflow.New(ctx, deps), tea.WithAltScreen())

	final, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("failed to run interview: %w", err)
	}

	if session != nil {
		if err := session.Close(); err != nil {
			slog.Warn("Failed to close recording session", "error", err)
		}
	}

	if m, ok := final.(*workflow.Model); ok {
		if d, ok := m.Controller().Draft(); ok {
			fmt.Printf("\n%s (%d words)\n", d.Title, d.WordCount())
		}
	}
	fmt.Println("finished. bye!")

	return nil
}

// loadAttachments describes each path for the session's reference materials.
// Images carry their path as a preview.
func loadAttachments(paths []string) ([]workflow.Attachment, error) {
	out := make([]workflow.Attachment, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read attachment: %w", err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("attachment %s is a directory", path)
		}

		mediaType := mediaTypeOf(path)
		a := workflow.Attachment{
			Name:      filepath.Base(path),
			MediaType: mediaType,
			Size:      info.Size(),
		}
		if strings.HasPrefix(mediaType, "image/") {
			if abs, err := filepath.Abs(path); err == nil {
				a.Preview = abs
			}
		}
		out = append(out, a)
	}

	return out, nil
}

func mediaTypeOf(path string) string {
	mediaType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mediaType == "" {
		return "application/octet-stream"
	}
	if base, _, err := mime.ParseMediaType(mediaType); err == nil {
		return base
	}

	return mediaType
}
