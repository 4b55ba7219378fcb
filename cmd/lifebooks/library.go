package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/salcon83/lifebooks-ai/internal/config"
	"github.com/salcon83/lifebooks-ai/internal/interview"
	"github.com/salcon83/lifebooks-ai/internal/story"
	"github.com/salcon83/lifebooks-ai/internal/workdir"
	"github.com/salcon83/lifebooks-ai/pkg/collections"
)

// TypesCmd lists the story types in the catalog.
type TypesCmd struct{}

// Run executes the types command.
func (c *TypesCmd) Run() error {
	catalog, err := interview.DefaultCatalog()
	if err != nil {
		return fmt.Errorf("failed to load story catalog: %w", err)
	}

	rows := collections.Apply(catalog.Types(), func(st interview.StoryType) []string {
		return []string{st.ID, st.Name, strconv.Itoa(len(st.Prompts))}
	})
	fmt.Println(renderTable([]string{"ID", "Name", "Questions"}, rows, 2))

	return nil
}

// StoriesCmd lists saved stories, newest first.
type StoriesCmd struct{}

// Run executes the stories command.
func (c *StoriesCmd) Run() error {
	ctx := context.Background()

	store, _, err := openLibrary(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	stories, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(stories) == 0 {
		fmt.Println("No stories saved yet. Run 'lifebooks' to start an interview.")
		return nil
	}

	rows := collections.Apply(stories, func(s *story.Story) []string {
		return []string{
			strconv.FormatInt(s.ID, 10),
			s.Title,
			s.StoryType,
			strconv.Itoa(s.WordCount),
			s.UpdatedAt.Local().Format("2006-01-02 15:04"),
		}
	})
	fmt.Println(renderTable([]string{"ID", "Title", "Type", "Words", "Updated"}, rows, 0, 3))

	return nil
}

// ExportCmd writes a saved story to a text file.
type ExportCmd struct {
	ID  int64  `arg:"" help:"Story ID (see 'lifebooks stories')"`
	Dir string `flag:"" optional:"" type:"path" help:"Output directory (default: the exports folder)"`
}

// Run executes the export command.
func (c *ExportCmd) Run() error {
	ctx := context.Background()

	store, paths, err := openLibrary(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	saved, err := store.Get(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("failed to load story %d: %w", c.ID, err)
	}

	dir := c.Dir
	if dir == "" {
		dir = paths.Exports
	}

	path, err := story.ExportSaved(saved, dir)
	if err != nil {
		return err
	}

	fmt.Printf("Exported %q to %s\n", saved.Title, path)

	return nil
}

func openLibrary(ctx context.Context) (*story.Store, workdir.Paths, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, workdir.Paths{}, fmt.Errorf("failed to load config: %w", err)
	}

	paths, err := workdir.Resolve(cfg)
	if err != nil {
		return nil, workdir.Paths{}, err
	}
	if err := workdir.Prep(paths); err != nil {
		return nil, workdir.Paths{}, fmt.Errorf("failed to prepare working directory: %w", err)
	}

	store, err := story.Open(ctx, paths.Database)
	if err != nil {
		return nil, workdir.Paths{}, err
	}

	return store, paths, nil
}
