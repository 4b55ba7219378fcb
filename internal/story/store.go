package story

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/salcon83/lifebooks-ai/internal/apperr"
	"github.com/salcon83/lifebooks-ai/pkg/collections"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

// timeLayout keeps a fixed-width fraction so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrSchemaMismatch indicates the database was written by a different schema version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Story is a saved story record.
type Story struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	Summary      string     `json:"summary"`
	StoryType    string     `json:"story_type"`
	Tags         []string   `json:"tags"`
	WordCount    int        `json:"word_count"`
	IsDraft      bool       `json:"is_draft"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastAutoSave *time.Time `json:"last_auto_save,omitempty"`
}

// NewStory carries the fields supplied when a story is first saved.
type NewStory struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Summary   string   `json:"summary"`
	StoryType string   `json:"story_type"`
	Tags      []string `json:"tags"`
}

// FromDraft builds a save request from an assembled draft. Wizard-created
// stories are tagged with their story type plus "ai-generated" and "interview".
func FromDraft(d Draft) NewStory {
	tags := []string{"ai-generated", "interview"}
	if d.StoryType != "" {
		tags = append([]string{d.StoryType}, tags...)
	}

	return NewStory{
		Title:     d.Title,
		Content:   d.Text(),
		Summary:   Summarize(d.Body, 200),
		StoryType: d.StoryType,
		Tags:      tags,
	}
}

// Summarize returns the first n runes of text, with an ellipsis when truncated.
func Summarize(text string, n int) string {
	text = strings.TrimSpace(text)
	r := []rune(text)
	if len(r) <= n {
		return text
	}

	return string(r[:n]) + "..."
}

// Store persists stories in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the story database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("failed to check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to start over)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}

	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema: %w", err)
	}

	return nil
}

// Save inserts a new story and returns the stored record.
func (s *Store) Save(ctx context.Context, in NewStory) (*Story, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: story title is required", apperr.ErrInvalidInput)
	}

	tags := collections.Filter(in.Tags, func(tag string) bool { return strings.TrimSpace(tag) != "" })
	if tags == nil {
		tags = []string{}
	}

	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tags: %w", err)
	}

	timestamp := time.Now().UTC().Format(timeLayout)

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO stories (
            title, content, summary, story_type, tags_json, word_count, is_draft, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		title,
		in.Content,
		in.Summary,
		in.StoryType,
		string(tagsJSON),
		WordCount(in.Content),
		1,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert story: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read story id: %w", err)
	}

	return s.Get(ctx, id)
}

const storyColumns = `id, title, content, summary, story_type, tags_json, word_count, is_draft,
    created_at, updated_at, last_auto_save`

// Get fetches a story by id.
func (s *Store) Get(ctx context.Context, id int64) (*Story, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+storyColumns+" FROM stories WHERE id = ?", id)

	story, err := scanStory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("story %d: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load story %d: %w", id, err)
	}

	return story, nil
}

// List returns all stories, most recently updated first.
func (s *Store) List(ctx context.Context) ([]*Story, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+storyColumns+" FROM stories ORDER BY updated_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	defer rows.Close()

	var stories []*Story
	for rows.Next() {
		story, err := scanStory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan story: %w", err)
		}
		stories = append(stories, story)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stories: %w", err)
	}

	return stories, nil
}

// AutoSave records an auto-save snapshot and updates the story content.
func (s *Store) AutoSave(ctx context.Context, id int64, content string) (*Story, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin auto-save tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	timestamp := time.Now().UTC().Format(timeLayout)
	words := WordCount(content)

	res, err := tx.ExecContext(ctx,
		`UPDATE stories SET content = ?, word_count = ?, updated_at = ?, last_auto_save = ? WHERE id = ?`,
		content, words, timestamp, timestamp, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update story %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("story %d: %w", id, apperr.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO auto_saves (story_id, content, word_count, saved_at) VALUES (?, ?, ?, ?)`,
		id, content, words, timestamp,
	); err != nil {
		return nil, fmt.Errorf("failed to insert auto-save: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit auto-save: %w", err)
	}

	return s.Get(ctx, id)
}

// AutoSaveCount returns how many snapshots exist for a story.
func (s *Store) AutoSaveCount(ctx context.Context, id int64) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM auto_saves WHERE story_id = ?", id).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count auto-saves: %w", err)
	}

	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStory(row scanner) (*Story, error) {
	var (
		story     Story
		tagsJSON  string
		isDraft   int
		createdAt string
		updatedAt string
		autoSave  sql.NullString
	)

	if err := row.Scan(
		&story.ID, &story.Title, &story.Content, &story.Summary, &story.StoryType, &tagsJSON,
		&story.WordCount, &isDraft, &createdAt, &updatedAt, &autoSave,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tagsJSON), &story.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}

	story.IsDraft = isDraft != 0
	story.CreatedAt = parseTime(createdAt)
	story.UpdatedAt = parseTime(updatedAt)

	if autoSave.Valid {
		t := parseTime(autoSave.String)
		story.LastAutoSave = &t
	}

	return &story, nil
}

func parseTime(value string) time.Time {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}

	return t
}
