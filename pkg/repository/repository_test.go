package repository_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/rollcall/pkg/domain/interfaces"
	"github.com/secmon-lab/rollcall/pkg/repository/firestore"
	"github.com/secmon-lab/rollcall/pkg/repository/memory"
	"github.com/secmon-lab/rollcall/pkg/repository/rdb"
)

// backends returns every repository constructor exercised by the contract tests.
// Remote backends skip themselves when their environment is not configured.
func backends() map[string]func(t *testing.T) interfaces.Repository {
	return map[string]func(t *testing.T) interfaces.Repository{
		"memory": func(t *testing.T) interfaces.Repository {
			return memory.New()
		},
		"sqlite":    newSQLiteRepository,
		"postgres":  newPostgresRepository,
		"firestore": newFirestoreRepository,
	}
}

func newFirestoreRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}

	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")
	if databaseID == "" {
		t.Skip("TEST_FIRESTORE_DATABASE_ID not set")
	}

	prefix := fmt.Sprintf("test_%d", time.Now().UnixNano())
	repo, err := firestore.New(context.Background(), projectID, databaseID, firestore.WithCollectionPrefix(prefix))
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		gt.NoError(t, repo.Close())
	})
	return repo
}

func newSQLiteRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "rollcall.db")
	repo, err := rdb.New(context.Background(), rdb.DriverSQLite3, dsn)
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		gt.NoError(t, repo.Close())
	})
	return repo
}

func newPostgresRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	repo, err := rdb.New(context.Background(), rdb.DriverPostgres, dsn)
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		gt.NoError(t, repo.Close())
	})
	return repo
}

// uniqueID avoids collisions on backends shared between test runs
func uniqueID(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, time.Now().UnixNano())
}
