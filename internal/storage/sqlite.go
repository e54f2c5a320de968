package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"storycraft/internal/model"
	"storycraft/pkg/logger"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// fixed width so that lexical order is chronological order
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStorage stores stories in a single table. AUTOINCREMENT keeps ids of
// deleted rows from ever being handed out again.
type SQLiteStorage struct {
	path string
	db   *sql.DB
	now  func() time.Time
}

func NewSQLiteStorage(path string) *SQLiteStorage {
	return &SQLiteStorage{path: path, now: time.Now}
}

func (s *SQLiteStorage) Init() error {
	if s.path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
			return fmt.Errorf("%w: %v", ErrStorageInit, err)
		}
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrStorageInit, s.path, err)
	}
	// one connection: serialises writers and keeps :memory: to a single database
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return fmt.Errorf("%w: migrate: %v", ErrStorageInit, err)
	}

	s.db = db
	logger.Infof("SQLite storage initialized at %s", s.path)
	return nil
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(gooseLogger{})

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.Up(db, "migrations")
}

type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...interface{}) { logger.Debugf(format, v...) }
func (gooseLogger) Fatalf(format string, v ...interface{}) { logger.Fatalf(format, v...) }

func (s *SQLiteStorage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Backup writes a consistent copy of the database next to it.
func (s *SQLiteStorage) Backup() error {
	if s.path == ":memory:" {
		return nil
	}
	dst := filepath.Join(filepath.Dir(s.path), fmt.Sprintf("backup_%d.db", s.now().Unix()))
	if _, err := s.db.Exec("VACUUM INTO ?", dst); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}
	logger.Infof("Backup completed: %s", dst)
	return nil
}

func (s *SQLiteStorage) CreateStory(ctx context.Context, story *model.Story) error {
	createdAt := story.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	createdAt = createdAt.UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO stories (title, prompt, genre, length, tone, model, content, word_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		story.Title,
		story.Prompt,
		string(story.Genre),
		string(story.Length),
		story.Tone,
		story.Model,
		story.Content,
		story.WordCount,
		createdAt.Format(sqliteTimeLayout),
	)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	story.ID = strconv.FormatInt(id, 10)
	story.CreatedAt = createdAt
	return nil
}

const storyColumns = "id, title, prompt, genre, length, tone, model, content, word_count, created_at"

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStory(row rowScanner) (*model.Story, error) {
	var (
		story     model.Story
		id        int64
		genre     string
		length    string
		createdAt string
	)
	if err := row.Scan(&id, &story.Title, &story.Prompt, &genre, &length, &story.Tone, &story.Model,
		&story.Content, &story.WordCount, &createdAt); err != nil {
		return nil, err
	}

	ts, err := time.Parse(sqliteTimeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("%w: created_at %q: %v", ErrInvalidData, createdAt, err)
	}

	story.ID = strconv.FormatInt(id, 10)
	story.Genre = model.Genre(genre)
	story.Length = model.Length(length)
	story.CreatedAt = ts
	return &story, nil
}

func (s *SQLiteStorage) GetStory(ctx context.Context, id string) (*model.Story, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, ErrStoryNotFound
	}

	row := s.db.QueryRowContext(ctx, "SELECT "+storyColumns+" FROM stories WHERE id = ?", n)
	story, err := scanStory(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStoryNotFound
		}
		return nil, err
	}
	return story, nil
}

func (s *SQLiteStorage) ListStories(ctx context.Context) ([]*model.Story, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+storyColumns+" FROM stories ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stories := []*model.Story{}
	for rows.Next() {
		story, err := scanStory(rows)
		if err != nil {
			return nil, err
		}
		stories = append(stories, story)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stories, nil
}

func (s *SQLiteStorage) DeleteStory(ctx context.Context, id string) error {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return ErrStoryNotFound
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM stories WHERE id = ?", n)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrStoryNotFound
	}
	return nil
}
