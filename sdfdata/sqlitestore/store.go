package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/signadot/go-sdf/debug"
	"github.com/signadot/go-sdf/sdfdata"
	"github.com/signadot/go-sdf/sdfpath"
	"github.com/signadot/go-sdf/textfmt"
)

// Store is an sdfdata.Store backed by a SQLite database.
type Store struct {
	db     *sql.DB
	path   string
	mem    *sdfdata.Mem
	codec  *textfmt.FieldCodec
	logger *slog.Logger
}

var _ sdfdata.Store = (*Store)(nil)

type options struct {
	schema *sdfdata.Schema
	logger *slog.Logger
}

type Option func(*options)

// WithSchema sets the schema used to encode field values.
func WithSchema(s *sdfdata.Schema) Option {
	return func(o *options) { o.schema = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Open opens or creates the database at dbPath and loads its content.
func Open(ctx context.Context, dbPath string, opts ...Option) (*Store, error) {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure database directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection keeps the pragmas below in effect for every
	// statement.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	s := &Store{
		db:     db,
		path:   dbPath,
		mem:    sdfdata.NewMem(),
		codec:  textfmt.NewFieldCodec(o.schema),
		logger: o.logger,
	}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.load(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file name.
func (s *Store) Path() string { return s.path }

func (s *Store) load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT path, spec_type FROM specs`)
	if err != nil {
		return fmt.Errorf("load specs: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			text string
			typ  int
		)
		if err := rows.Scan(&text, &typ); err != nil {
			return err
		}
		p, err := sdfpath.Parse(text)
		if err != nil {
			return fmt.Errorf("load spec %q: %w", text, err)
		}
		if p.IsAbsoluteRoot() {
			continue
		}
		if err := s.mem.CreateSpec(p, sdfdata.SpecType(typ)); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	frows, err := s.db.QueryContext(ctx, `SELECT path, name, value FROM fields`)
	if err != nil {
		return fmt.Errorf("load fields: %w", err)
	}
	defer frows.Close()
	n := 0
	for frows.Next() {
		var text, name, enc string
		if err := frows.Scan(&text, &name, &enc); err != nil {
			return err
		}
		p, err := sdfpath.Parse(text)
		if err != nil {
			return fmt.Errorf("load field %s of %q: %w", name, text, err)
		}
		v, err := s.codec.Decode(name, enc)
		if err != nil {
			return fmt.Errorf("decode %s %s: %w", p, name, err)
		}
		if err := s.mem.WriteField(p, name, v); err != nil {
			return err
		}
		n++
	}
	if debug.Store() {
		debug.Logf("sqlitestore: loaded %d specs and %d fields from %s", s.mem.Len(), n, s.path)
	}
	return frows.Err()
}

func (s *Store) exec(query string, args ...any) error {
	_, err := s.db.ExecContext(context.Background(), query, args...)
	if err != nil {
		s.logger.Warn("sqlite write failed", "db", s.path, "error", err)
	}
	return err
}

func (s *Store) CreateSpec(p sdfpath.Path, t sdfdata.SpecType) error {
	if s.mem.HasSpec(p) {
		return fmt.Errorf("%w: %s", sdfdata.ErrSpecExists, p)
	}
	if err := s.exec(`INSERT INTO specs (path, spec_type) VALUES (?, ?)`, p.String(), int(t)); err != nil {
		return fmt.Errorf("insert spec %s: %w", p, err)
	}
	return s.mem.CreateSpec(p, t)
}

func (s *Store) HasSpec(p sdfpath.Path) bool { return s.mem.HasSpec(p) }

func (s *Store) SpecType(p sdfpath.Path) sdfdata.SpecType { return s.mem.SpecType(p) }

func (s *Store) EraseSpec(p sdfpath.Path) error {
	if !s.mem.HasSpec(p) {
		return fmt.Errorf("%w: %s", sdfdata.ErrNoSpec, p)
	}
	if err := s.exec(`DELETE FROM specs WHERE path = ?`, p.String()); err != nil {
		return fmt.Errorf("delete spec %s: %w", p, err)
	}
	return s.mem.EraseSpec(p)
}

func (s *Store) MoveSpec(from, to sdfpath.Path) error {
	if !s.mem.HasSpec(from) {
		return fmt.Errorf("%w: %s", sdfdata.ErrNoSpec, from)
	}
	if s.mem.HasSpec(to) {
		return fmt.Errorf("%w: %s", sdfdata.ErrSpecExists, to)
	}
	if err := s.exec(`UPDATE specs SET path = ? WHERE path = ?`, to.String(), from.String()); err != nil {
		return fmt.Errorf("move spec %s: %w", from, err)
	}
	return s.mem.MoveSpec(from, to)
}

func (s *Store) VisitSpecs(fn func(sdfpath.Path, sdfdata.SpecType) bool) {
	s.mem.VisitSpecs(fn)
}

func (s *Store) ReadField(p sdfpath.Path, name string) (any, bool) {
	return s.mem.ReadField(p, name)
}

func (s *Store) WriteField(p sdfpath.Path, name string, v any) error {
	if !s.mem.HasSpec(p) {
		return fmt.Errorf("%w: %s", sdfdata.ErrNoSpec, p)
	}
	enc, err := s.codec.Encode(name, v)
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", p, name, err)
	}
	err = s.exec(`INSERT INTO fields (path, name, value) VALUES (?, ?, ?)
        ON CONFLICT(path, name) DO UPDATE SET value = excluded.value`, p.String(), name, enc)
	if err != nil {
		return fmt.Errorf("write %s %s: %w", p, name, err)
	}
	return s.mem.WriteField(p, name, v)
}

func (s *Store) EraseField(p sdfpath.Path, name string) error {
	if !s.mem.HasSpec(p) {
		return fmt.Errorf("%w: %s", sdfdata.ErrNoSpec, p)
	}
	if err := s.exec(`DELETE FROM fields WHERE path = ? AND name = ?`, p.String(), name); err != nil {
		return fmt.Errorf("erase %s %s: %w", p, name, err)
	}
	return s.mem.EraseField(p, name)
}

func (s *Store) ListFields(p sdfpath.Path) []string { return s.mem.ListFields(p) }
