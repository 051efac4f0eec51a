package marginconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vutto/pricing-service/internal/database"
	"github.com/vutto/pricing-service/internal/pricing"
	"github.com/vutto/pricing-service/internal/storage"
)

// Default document keys in the config table.
const (
	DefaultMarginKey = "VUTTO_MARGINS"
	DefaultRolesKey  = "CALCULATOR_ROLES"
)

var errMarginsNotFound = pricing.ErrNotFound{Message: "Margins not found"}

// Row is one tier row of the margin document, keyed by sheet column.
type Row = map[string]any

// Store reads and replaces the margin document. Every write archives the
// previous version when an archive is configured.
type Store struct {
	db        database.DBTX
	marginKey string
	rolesKey  string
	archive   storage.Storage
	now       func() time.Time
	logger    zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithKeys overrides the config table keys.
func WithKeys(marginKey, rolesKey string) Option {
	return func(s *Store) {
		if marginKey != "" {
			s.marginKey = marginKey
		}
		if rolesKey != "" {
			s.rolesKey = rolesKey
		}
	}
}

// WithArchive keeps previous document versions in st.
func WithArchive(st storage.Storage) Option {
	return func(s *Store) { s.archive = st }
}

// WithClock replaces the time source used for archive keys.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a margin document store.
func NewStore(db database.DBTX, opts ...Option) *Store {
	s := &Store{
		db:        db,
		marginKey: DefaultMarginKey,
		rolesKey:  DefaultRolesKey,
		now:       time.Now,
		logger:    log.With().Str("component", "margin_config").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Document returns the raw tier rows in document order.
func (s *Store) Document(ctx context.Context) ([]Row, error) {
	var rows []Row
	if err := s.get(ctx, s.db, s.marginKey, &rows, false); err != nil {
		return nil, err
	}
	return rows, nil
}

// Tiers implements pricing.TierSource.
func (s *Store) Tiers(ctx context.Context) ([]pricing.Tier, error) {
	rows, err := s.Document(ctx)
	if err != nil {
		return nil, err
	}
	return pricing.TiersFromRows(rows), nil
}

// UpdateVehicleType replaces the rows scoped to one vehicle type. Rows of
// other types and untagged rows keep their order; the new rows are appended
// and tagged with the type.
func (s *Store) UpdateVehicleType(ctx context.Context, vehicleType string, rows []Row) error {
	category := pricing.ParseCategory(vehicleType)
	if !category.IsKnown() {
		return pricing.ErrNotFound{Message: "Vehicle type not found"}
	}
	if err := Validate(rows); err != nil {
		return err
	}

	return s.update(ctx, "vehicle_type:"+string(category), func(current []Row) ([]Row, error) {
		if current == nil {
			return nil, errMarginsNotFound
		}
		next := make([]Row, 0, len(current)+len(rows))
		for _, row := range current {
			if pricing.ParseCategory(fmt.Sprint(row[pricing.ColVehicleType])) == category {
				continue
			}
			next = append(next, row)
		}
		for _, row := range rows {
			tagged := make(Row, len(row)+1)
			for k, v := range row {
				tagged[k] = v
			}
			tagged[pricing.ColVehicleType] = string(category)
			next = append(next, tagged)
		}
		return next, nil
	})
}

// Replace stores rows as the whole document. Rows are validated first.
func (s *Store) Replace(ctx context.Context, rows []Row, source string) error {
	if err := Validate(rows); err != nil {
		return err
	}
	return s.update(ctx, source, func([]Row) ([]Row, error) {
		return rows, nil
	})
}

// update runs fn against the current document under a row lock and stores
// its result. A missing document is passed as nil.
func (s *Store) update(ctx context.Context, source string, fn func([]Row) ([]Row, error)) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var current []Row
	raw, err := s.getRaw(ctx, tx, s.marginKey, true)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case err != nil:
		return err
	default:
		if err := json.Unmarshal(raw, &current); err != nil {
			return fmt.Errorf("failed to decode %s: %w", s.marginKey, err)
		}
	}

	next, err := fn(current)
	if err != nil {
		return err
	}
	if raw != nil {
		if err := s.archiveVersion(ctx, raw, source); err != nil {
			return err
		}
	}
	if err := put(ctx, tx, s.marginKey, next); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit %s: %w", s.marginKey, err)
	}

	s.logger.Info().
		Str("source", source).
		Int("rows", len(next)).
		Msg("Margin document updated")
	return nil
}

func (s *Store) archiveVersion(ctx context.Context, raw []byte, source string) error {
	if s.archive == nil {
		return nil
	}
	now := s.now()
	key := storage.VersionKey(s.marginKey, now)
	err := s.archive.Put(ctx, key, raw, &storage.Metadata{
		ContentType: "application/json",
		Source:      source,
		ArchivedAt:  now,
	})
	if err != nil {
		return fmt.Errorf("failed to archive %s: %w", s.marginKey, err)
	}
	return nil
}

// AllowedActions returns, in name order, the roles whose member list
// contains email. A missing roles document grants nothing.
func (s *Store) AllowedActions(ctx context.Context, email string) ([]string, error) {
	var roles map[string][]string
	if err := s.get(ctx, s.db, s.rolesKey, &roles, true); err != nil {
		return nil, err
	}
	return RolesFor(roles, email), nil
}

// RolesFor returns the roles listing email, sorted.
func RolesFor(roles map[string][]string, email string) []string {
	out := []string{}
	for role, members := range roles {
		for _, m := range members {
			if strings.EqualFold(m, email) {
				out = append(out, role)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

// get decodes the document at key into dst. A missing margin document is
// ErrNotFound unless allowMissing is set.
func (s *Store) get(ctx context.Context, db database.DBTX, key string, dst any, allowMissing bool) error {
	raw, err := s.getRaw(ctx, db, key, false)
	if errors.Is(err, pgx.ErrNoRows) {
		if allowMissing {
			return nil
		}
		return errMarginsNotFound
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

func (s *Store) getRaw(ctx context.Context, db database.DBTX, key string, forUpdate bool) ([]byte, error) {
	query := `SELECT value FROM config WHERE config_key = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var raw []byte
	err := db.QueryRow(ctx, query, key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return raw, nil
}

func put(ctx context.Context, db database.DBTX, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	_, err = db.Exec(ctx, `
		INSERT INTO config (config_key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (config_key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`, key, data)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// PutRoles stores the roles document.
func (s *Store) PutRoles(ctx context.Context, roles map[string][]string) error {
	return put(ctx, s.db, s.rolesKey, roles)
}
