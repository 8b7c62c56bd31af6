package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/rollcall/pkg/domain/interfaces"
	"github.com/secmon-lab/rollcall/pkg/repository/firestore"
	"github.com/secmon-lab/rollcall/pkg/repository/memory"
	"github.com/secmon-lab/rollcall/pkg/repository/rdb"
	"github.com/secmon-lab/rollcall/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Repository backends selectable by --repository-backend
const (
	BackendMemory    = "memory"
	BackendFirestore = "firestore"
	BackendSQL       = "sql"
)

// Repository holds CLI flags for repository backend configuration
type Repository struct {
	backend          string
	projectID        string
	databaseID       string
	collectionPrefix string
	sqlDriver        string
	sqlDSN           string
}

// Flags returns CLI flags for repository configuration
func (r *Repository) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "repository-backend",
			Usage:       "Repository backend type (memory, firestore or sql)",
			Category:    "Repository",
			Value:       BackendMemory,
			Sources:     cli.EnvVars("ROLLCALL_REPOSITORY_BACKEND"),
			Destination: &r.backend,
		},
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Firestore Project ID (required when using firestore backend)",
			Category:    "Repository",
			Sources:     cli.EnvVars("ROLLCALL_FIRESTORE_PROJECT_ID"),
			Destination: &r.projectID,
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore Database ID",
			Category:    "Repository",
			Sources:     cli.EnvVars("ROLLCALL_FIRESTORE_DATABASE_ID"),
			Destination: &r.databaseID,
		},
		&cli.StringFlag{
			Name:        "firestore-collection-prefix",
			Usage:       "Prefix for Firestore collection names",
			Category:    "Repository",
			Sources:     cli.EnvVars("ROLLCALL_FIRESTORE_COLLECTION_PREFIX"),
			Destination: &r.collectionPrefix,
		},
		&cli.StringFlag{
			Name:        "sql-driver",
			Usage:       "SQL driver (postgres or sqlite3)",
			Category:    "Repository",
			Value:       rdb.DriverPostgres,
			Sources:     cli.EnvVars("ROLLCALL_SQL_DRIVER"),
			Destination: &r.sqlDriver,
		},
		&cli.StringFlag{
			Name:        "sql-dsn",
			Usage:       "SQL data source name (required when using sql backend)",
			Category:    "Repository",
			Sources:     cli.EnvVars("ROLLCALL_SQL_DSN"),
			Destination: &r.sqlDSN,
		},
	}
}

func (r Repository) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", r.backend),
		slog.String("firestore-project-id", r.projectID),
		slog.String("firestore-database-id", r.databaseID),
		slog.String("sql-driver", r.sqlDriver),
		slog.Bool("sql-dsn", r.sqlDSN != ""),
	)
}

// Backend returns the configured backend type
func (r *Repository) Backend() string {
	return r.backend
}

// ProjectID returns the Firestore project ID
func (r *Repository) ProjectID() string {
	return r.projectID
}

// DatabaseID returns the Firestore database ID
func (r *Repository) DatabaseID() string {
	return r.databaseID
}

// CollectionPrefix returns the Firestore collection prefix
func (r *Repository) CollectionPrefix() string {
	return r.collectionPrefix
}

// Configure initializes and returns a repository based on the configured backend.
// The caller is responsible for calling Close() on the returned repository.
func (r *Repository) Configure(ctx context.Context) (interfaces.Repository, error) {
	switch r.backend {
	case BackendFirestore:
		if r.projectID == "" {
			return nil, goerr.Wrap(ErrMissingArgument, "firestore-project-id is required when using firestore backend",
				goerr.V(FlagKey, "firestore-project-id"))
		}
		repo, err := firestore.New(ctx, r.projectID, r.databaseID, firestore.WithCollectionPrefix(r.collectionPrefix))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize firestore repository")
		}
		logging.Default().Info("Using Firestore repository",
			"project_id", r.projectID,
			"database_id", r.databaseID,
			"collection_prefix", r.collectionPrefix,
		)
		return repo, nil

	case BackendSQL:
		repo, err := r.ConfigureSQL(ctx)
		if err != nil {
			return nil, err
		}
		return repo, nil

	case BackendMemory:
		logging.Default().Info("Using in-memory repository (development mode)")
		return memory.New(), nil

	default:
		return nil, goerr.Wrap(ErrInvalidBackend, "invalid repository backend", goerr.V(BackendKey, r.backend))
	}
}

// ConfigureSQL opens the SQL backend. Opening applies the schema.
func (r *Repository) ConfigureSQL(ctx context.Context) (*rdb.RDB, error) {
	if r.sqlDSN == "" {
		return nil, goerr.Wrap(ErrMissingArgument, "sql-dsn is required when using sql backend",
			goerr.V(FlagKey, "sql-dsn"))
	}
	repo, err := rdb.New(ctx, r.sqlDriver, r.sqlDSN)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize sql repository", goerr.V("driver", r.sqlDriver))
	}
	logging.Default().Info("Using SQL repository", "driver", r.sqlDriver)
	return repo, nil
}
