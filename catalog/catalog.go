// Package catalog stores named query specs in a SQLite database so that they
// can be listed, shared and compiled later. Every mutation and compilation is
// published on an event bus.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/asaidimu/go-events"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/asaidimu/go-influxql/core/query"
	"github.com/asaidimu/go-influxql/influxql"
)

// ErrNotFound is returned when no saved query has the requested name.
var ErrNotFound = errors.New("saved query not found")

// Options provides configuration for the catalog.
type Options struct {
	// TableName is the table holding saved queries.
	TableName string
	// TablePrefix is prepended to TableName.
	TablePrefix string
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() *Options {
	return &Options{TableName: "saved_queries"}
}

// SavedQuery is a named spec together with the strategy used to compile it.
type SavedQuery struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Strategy    string          `json:"strategy"`
	Spec        query.QuerySpec `json:"spec"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Catalog is a SQLite-backed store of saved queries.
type Catalog struct {
	db            *sql.DB
	table         string
	factory       query.QueryGeneratorFactory
	logger        *zap.Logger
	bus           *events.TypedEventBus[Event]
	subscriptions map[string]*SubscriptionInfo
	subMu         sync.RWMutex
}

// New creates the catalog table if needed and returns a catalog using db. A
// nil factory compiles with the influxql generators; a nil logger discards
// logs.
func New(ctx context.Context, db *sql.DB, factory query.QueryGeneratorFactory, logger *zap.Logger, options *Options) (*Catalog, error) {
	if db == nil {
		return nil, fmt.Errorf("database cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := DefaultOptions()
	if options != nil {
		opts.TablePrefix = options.TablePrefix
		if options.TableName != "" {
			opts.TableName = options.TableName
		}
	}
	if factory == nil {
		factory = influxql.NewInfluxQLQueryGeneratorFactory(logger, nil)
	}

	bus, err := events.NewTypedEventBus[Event](events.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("could not initialize event bus: %w", err)
	}

	c := &Catalog{
		db:            db,
		table:         quoteIdentifier(opts.TablePrefix + opts.TableName),
		factory:       factory,
		logger:        logger,
		bus:           bus,
		subscriptions: map[string]*SubscriptionInfo{},
	}
	if err := c.createTable(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// quoteIdentifier properly quotes an identifier for SQLite.
func quoteIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func newID() string {
	return uuid.New().String()
}

func (c *Catalog) createTable(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	"id" TEXT PRIMARY KEY,
	"name" TEXT NOT NULL UNIQUE,
	"description" TEXT NOT NULL DEFAULT '',
	"strategy" TEXT NOT NULL,
	"spec" TEXT NOT NULL,
	"created_at" INTEGER NOT NULL,
	"updated_at" INTEGER NOT NULL
);`, c.table)
	if _, err := c.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create catalog table: %w", err)
	}
	c.logger.Debug("Catalog table ready", zap.String("table", c.table))
	return nil
}

// Save stores spec under name, replacing any query with the same name. The
// spec must compile with the given strategy; otherwise nothing is stored and
// the compilation error is returned.
func (c *Catalog) Save(ctx context.Context, name, description, strategy string, spec query.QuerySpec) (*SavedQuery, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("saved query name cannot be empty")
	}
	strategyName, err := canonicalStrategy(strategy)
	if err != nil {
		return nil, err
	}

	compiled, err := c.compile(name, strategyName, &spec)
	if err != nil {
		return nil, err
	}

	specJSON, err := json.Marshal(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize spec '%s': %w", name, err)
	}

	now := time.Now().UTC()
	saved := &SavedQuery{
		Name:        name,
		Description: description,
		Strategy:    strategyName,
		Spec:        spec,
		UpdatedAt:   now,
	}

	// Upsert by name; an existing row keeps its id and created_at.
	upsert := fmt.Sprintf(`INSERT INTO %s ("id", "name", "description", "strategy", "spec", "created_at", "updated_at")
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT("name") DO UPDATE SET
	"description" = excluded."description",
	"strategy" = excluded."strategy",
	"spec" = excluded."spec",
	"updated_at" = excluded."updated_at"
RETURNING "id", "created_at";`, c.table)

	var createdAt int64
	row := c.db.QueryRowContext(ctx, upsert, newID(), name, description, strategyName, string(specJSON), now.UnixNano(), now.UnixNano())
	if err := row.Scan(&saved.ID, &createdAt); err != nil {
		return nil, fmt.Errorf("failed to save query '%s': %w", name, err)
	}
	saved.CreatedAt = time.Unix(0, createdAt).UTC()

	c.logger.Info("Saved query", zap.String("name", name), zap.String("id", saved.ID))
	c.emit(Event{Type: QuerySaved, Name: name, Strategy: strategyName, Query: compiled})
	return saved, nil
}

// Get returns the saved query with the given name, or ErrNotFound.
func (c *Catalog) Get(ctx context.Context, name string) (*SavedQuery, error) {
	stmt := fmt.Sprintf(`SELECT "id", "name", "description", "strategy", "spec", "created_at", "updated_at" FROM %s WHERE "name" = ?;`, c.table)
	row := c.db.QueryRowContext(ctx, stmt, name)
	saved, err := scanSavedQuery(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: '%s'", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read saved query '%s': %w", name, err)
	}
	return saved, nil
}

// List returns all saved queries ordered by name.
func (c *Catalog) List(ctx context.Context) ([]SavedQuery, error) {
	stmt := fmt.Sprintf(`SELECT "id", "name", "description", "strategy", "spec", "created_at", "updated_at" FROM %s ORDER BY "name";`, c.table)
	rows, err := c.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved queries: %w", err)
	}
	defer rows.Close()

	var out []SavedQuery
	for rows.Next() {
		saved, err := scanSavedQuery(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan saved query: %w", err)
		}
		out = append(out, *saved)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list saved queries: %w", err)
	}
	return out, nil
}

// Delete removes the saved query with the given name, or returns ErrNotFound.
func (c *Catalog) Delete(ctx context.Context, name string) error {
	stmt := fmt.Sprintf(`DELETE FROM %s WHERE "name" = ?;`, c.table)
	res, err := c.db.ExecContext(ctx, stmt, name)
	if err != nil {
		return fmt.Errorf("failed to delete saved query '%s': %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete saved query '%s': %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: '%s'", ErrNotFound, name)
	}

	c.logger.Info("Deleted saved query", zap.String("name", name))
	c.emit(Event{Type: QueryDeleted, Name: name})
	return nil
}

// Compile loads the saved query and compiles it with its stored strategy.
func (c *Catalog) Compile(ctx context.Context, name string) (string, error) {
	saved, err := c.Get(ctx, name)
	if err != nil {
		return "", err
	}
	return c.compile(name, saved.Strategy, &saved.Spec)
}

// compile generates the query text and publishes the outcome.
func (c *Catalog) compile(name, strategy string, spec *query.QuerySpec) (string, error) {
	start := time.Now()
	gen, err := c.factory.CreateGenerator(strategy)
	if err != nil {
		return "", fmt.Errorf("failed to create generator for '%s': %w", name, err)
	}

	stmt, err := gen.GenerateSelect(spec)
	if err != nil {
		errStr := err.Error()
		c.emit(Event{Type: QueryRejected, Name: name, Strategy: strategy, Error: &errStr, Timestamp: start, Duration: time.Since(start)})
		return "", fmt.Errorf("saved query '%s': %w", name, err)
	}

	c.emit(Event{Type: QueryCompiled, Name: name, Strategy: strategy, Query: stmt, Timestamp: start, Duration: time.Since(start)})
	return stmt, nil
}

// canonicalStrategy normalizes a strategy name so that stored rows always
// carry a name the factory accepts.
func canonicalStrategy(name string) (string, error) {
	ws, err := influxql.ParseStrategy(name)
	if err != nil {
		return "", err
	}
	return ws.Name(), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSavedQuery(row rowScanner) (*SavedQuery, error) {
	var (
		saved              SavedQuery
		specJSON           string
		createdAt, updated int64
	)
	if err := row.Scan(&saved.ID, &saved.Name, &saved.Description, &saved.Strategy, &specJSON, &createdAt, &updated); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(specJSON), &saved.Spec); err != nil {
		return nil, fmt.Errorf("failed to decode spec for '%s': %w", saved.Name, err)
	}
	saved.CreatedAt = time.Unix(0, createdAt).UTC()
	saved.UpdatedAt = time.Unix(0, updated).UTC()
	return &saved, nil
}
