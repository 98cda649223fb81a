package tokens

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/dashapi/internal/client/migrations"
	"github.com/dmitrijs2005/dashapi/internal/client/models"
	"github.com/dmitrijs2005/dashapi/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/dashapi/internal/dbx"
	"github.com/dmitrijs2005/dashapi/internal/filex"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

const (
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyExpiresAt    = "expires_at"
)

var credentialKeys = []string{keyAccessToken, keyRefreshToken, keyExpiresAt}

// OpenSQLite opens (creating if needed) the local token database at path and
// applies the embedded migrations. Missing parent directories are created;
// ":memory:" gives a private in-memory DB.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if err := filex.EnsureParentDir(path); err != nil {
		return nil, fmt.Errorf("open token db: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open token db: %w", err)
	}
	// One connection keeps ":memory:" databases coherent and serializes writers.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate token db: %w", err)
	}
	return db, nil
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}

	return goose.UpContext(ctx, db, ".")
}

// SQLiteStore persists credentials in the metadata table. The three keys are
// written in one transaction and the last committed value is cached, so Get
// does not hit the database on every request.
type SQLiteStore struct {
	db *sql.DB

	mu     sync.RWMutex
	loaded bool
	cached *models.Credentials
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Get(ctx context.Context) (*models.Credentials, error) {
	s.mu.RLock()
	if s.loaded {
		defer s.mu.RUnlock()
		return clone(s.cached), nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return clone(s.cached), nil
	}

	values, err := metadata.NewSQLiteRepository(s.db).GetMany(ctx, credentialKeys...)
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	creds, err := decode(values)
	if err != nil {
		return nil, err
	}

	s.cached = creds
	s.loaded = true
	return clone(creds), nil
}

func (s *SQLiteStore) Set(ctx context.Context, creds models.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, keyAccessToken, []byte(creds.AccessToken)); err != nil {
			return err
		}
		if err := repo.Set(ctx, keyRefreshToken, []byte(creds.RefreshToken)); err != nil {
			return err
		}
		if creds.ExpiresAt.IsZero() {
			return repo.Delete(ctx, keyExpiresAt)
		}
		return repo.Set(ctx, keyExpiresAt, []byte(creds.ExpiresAt.UTC().Format(time.RFC3339Nano)))
	})
	if err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}

	s.cached = clone(&creds)
	s.loaded = true
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := metadata.NewSQLiteRepository(s.db).Delete(ctx, credentialKeys...); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}

	s.cached = nil
	s.loaded = true
	return nil
}

func decode(values map[string][]byte) (*models.Credentials, error) {
	access := string(values[keyAccessToken])
	if access == "" {
		return nil, nil
	}

	creds := &models.Credentials{
		AccessToken:  access,
		RefreshToken: string(values[keyRefreshToken]),
	}
	if raw := values[keyExpiresAt]; len(raw) > 0 {
		t, err := time.Parse(time.RFC3339Nano, string(raw))
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", keyExpiresAt, err)
		}
		creds.ExpiresAt = t
	}
	return creds, nil
}
