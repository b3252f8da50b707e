package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strconv"
	"sync"

	"github.com/achapweske/silvernote/internal/dbx"
	"github.com/achapweske/silvernote/internal/logging"
	"github.com/achapweske/silvernote/internal/model"
)

//go:embed schema.sql
var schemaSQL string

//go:embed updates/*.sql
var updatesFS embed.FS

var versionDefault = regexp.MustCompile(`(?i)\bversion\s+INTEGER\b[^,\n]*?\bDEFAULT\s+(\d+)`)

// Schema is a baseline schema plus the numbered update scripts that bring
// older stores up to it. Update N lives in "<N>.sql" and moves a store from
// version N-1 to N.
type Schema struct {
	baseline string
	updates  fs.FS
	version  func() (int, error)
}

// NewSchema returns a Schema whose version is the DEFAULT declared for
// Repository.version in baseline. The version is parsed once, on first use.
func NewSchema(baseline string, updates fs.FS) *Schema {
	s := &Schema{baseline: baseline, updates: updates}
	s.version = sync.OnceValues(s.parseVersion)
	return s
}

// DefaultSchema is the schema compiled into this build.
func DefaultSchema() *Schema {
	updates, err := fs.Sub(updatesFS, "updates")
	if err != nil {
		panic(err)
	}
	return NewSchema(schemaSQL, updates)
}

// Version returns the declared schema version.
func (s *Schema) Version() (int, error) {
	return s.version()
}

func (s *Schema) parseVersion() (int, error) {
	m := versionDefault.FindStringSubmatch(s.baseline)
	if m == nil {
		return 0, &model.SchemaError{Code: model.SchemaInvalid, Message: "no default declared for Repository.version"}
	}
	v, err := strconv.Atoi(m[1])
	if err != nil || v < 1 {
		return 0, &model.SchemaError{Code: model.SchemaInvalid, Message: fmt.Sprintf("bad declared version %q", m[1]), Err: err}
	}
	return v, nil
}

// script returns the update script producing version step.
func (s *Schema) script(step int) (string, error) {
	data, err := fs.ReadFile(s.updates, fmt.Sprintf("%d.sql", step))
	if errors.Is(err, fs.ErrNotExist) {
		return "", &model.SchemaError{
			Code:    model.SchemaGap,
			Step:    step,
			Message: fmt.Sprintf("missing update script %d.sql", step),
		}
	}
	if err != nil {
		return "", fmt.Errorf("read update %d: %w", step, err)
	}
	return string(data), nil
}

// Apply brings the database to the declared version. A database without a
// Repository table gets the baseline and a seeded root row. Otherwise every
// update script after the persisted version runs in its own transaction
// together with the version bump; any failure aborts with a SchemaError.
func (s *Schema) Apply(ctx context.Context, db *sql.DB, seed Seed, log logging.Logger) error {
	declared, err := s.Version()
	if err != nil {
		return err
	}

	exists, err := hasTable(ctx, db, "Repository")
	if err != nil {
		return err
	}
	if !exists {
		err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			if _, err := tx.ExecContext(ctx, s.baseline); err != nil {
				return fmt.Errorf("execute baseline schema: %w", err)
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO Repository (uuid, user_id) VALUES (?, ?)`,
				seed.UUID, nullString(seed.UserID))
			if err != nil {
				return fmt.Errorf("seed repository: %w", err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		log.Info(ctx, "store created", "version", declared, "uuid", seed.UUID)
		return nil
	}

	persisted, err := queryInt64(ctx, db, `SELECT version FROM Repository LIMIT 1`)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	current := int(persisted)
	if current > declared {
		return &model.SchemaError{
			Code:    model.SchemaNewer,
			Message: fmt.Sprintf("store version %d is newer than supported version %d", current, declared),
		}
	}

	for step := current + 1; step <= declared; step++ {
		script, err := s.script(step)
		if err != nil {
			return err
		}
		err = dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			if _, err := tx.ExecContext(ctx, script); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, `UPDATE Repository SET version=?`, step)
			return err
		})
		if err != nil {
			return &model.SchemaError{
				Code:    model.SchemaStepFailed,
				Step:    step,
				Message: "update script failed",
				Err:     err,
			}
		}
		log.Info(ctx, "schema updated", "version", step)
	}
	return nil
}

// Seed holds the values written to the root row of a new store.
type Seed struct {
	UUID   string
	UserID string
}

func hasTable(ctx context.Context, db dbx.DBTX, name string) (bool, error) {
	n, err := queryInt64(ctx, db, `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name)
	if err != nil {
		return false, fmt.Errorf("inspect schema: %w", err)
	}
	return n > 0, nil
}
