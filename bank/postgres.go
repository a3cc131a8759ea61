package bank

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type PostgresConfig struct {
	DSN     string        `envconfig:"DSN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"5s"`
}

// Connect opens a bun handle over pgdriver and validates it with a ping.
func Connect(ctx context.Context, cfg PostgresConfig) (*bun.DB, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	return db, nil
}

type customerModel struct {
	bun.BaseModel `bun:"table:customers"`

	Identifier  string    `bun:"identifier,pk"`
	Name        string    `bun:"name,notnull"`
	BirthDate   time.Time `bun:"birth_date,notnull"`
	Score       int       `bun:"score,notnull"`
	CreditLimit float64   `bun:"credit_limit,notnull"`
}

type increaseRequestModel struct {
	bun.BaseModel `bun:"table:increase_requests"`

	ID             int64     `bun:"id,pk,autoincrement"`
	CustomerID     string    `bun:"customer_id,notnull"`
	RequestedAt    time.Time `bun:"requested_at,notnull"`
	CurrentLimit   float64   `bun:"current_limit,notnull"`
	RequestedLimit float64   `bun:"requested_limit,notnull"`
	Status         string    `bun:"status,notnull"`
	Reason         string    `bun:"reason"`
}

// CreateSchema creates the bank tables when they do not exist yet. Meant for
// bootstrap and local development; production schemas migrate out of band.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*customerModel)(nil),
		(*increaseRequestModel)(nil),
	}
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

// PostgresDirectory implements Directory over the customers table.
type PostgresDirectory struct {
	db *bun.DB
}

var _ Directory = (*PostgresDirectory)(nil)

func NewPostgresDirectory(db *bun.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

func (d *PostgresDirectory) Get(ctx context.Context, identifier string) (CustomerRecord, error) {
	var m customerModel
	err := d.db.NewSelect().
		Model(&m).
		Where("identifier = ?", identifier).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CustomerRecord{}, fmt.Errorf("%w: %s", ErrCustomerNotFound, MaskIdentifier(identifier))
		}
		return CustomerRecord{}, fmt.Errorf("select customer: %w", err)
	}

	return CustomerRecord{
		Identifier: m.Identifier,
		Name:       m.Name,
		BirthDate:  m.BirthDate,
		Score:      m.Score,
		Limit:      m.CreditLimit,
	}, nil
}

func (d *PostgresDirectory) UpdateScore(ctx context.Context, identifier string, score int) error {
	if score < 0 || score > MaxScore {
		return fmt.Errorf("%w: %d", ErrScoreOutOfRange, score)
	}

	res, err := d.db.NewUpdate().
		Model((*customerModel)(nil)).
		Set("score = ?", score).
		Where("identifier = ?", identifier).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update score: %w", err)
	}
	return requireRow(res, identifier)
}

func (d *PostgresDirectory) UpdateLimit(ctx context.Context, identifier string, limit float64) error {
	if limit < 0 {
		return fmt.Errorf("%w: %.2f", ErrNegativeLimit, limit)
	}

	res, err := d.db.NewUpdate().
		Model((*customerModel)(nil)).
		Set("credit_limit = ?", limit).
		Where("identifier = ?", identifier).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update limit: %w", err)
	}
	return requireRow(res, identifier)
}

// SeedCustomers upserts seed records, used to bootstrap a fresh database.
func (d *PostgresDirectory) SeedCustomers(ctx context.Context, records []CustomerRecord) error {
	if len(records) == 0 {
		return nil
	}
	models := make([]customerModel, 0, len(records))
	for _, rec := range records {
		models = append(models, customerModel{
			Identifier:  rec.Identifier,
			Name:        rec.Name,
			BirthDate:   rec.BirthDate,
			Score:       rec.Score,
			CreditLimit: rec.Limit,
		})
	}
	_, err := d.db.NewInsert().
		Model(&models).
		On("CONFLICT (identifier) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("seed customers: %w", err)
	}
	return nil
}

// PostgresLedger implements Ledger over the increase_requests table.
type PostgresLedger struct {
	db *bun.DB
}

var _ Ledger = (*PostgresLedger)(nil)

func NewPostgresLedger(db *bun.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

func (l *PostgresLedger) Record(ctx context.Context, req IncreaseRequest) error {
	if err := req.validate(); err != nil {
		return err
	}

	m := increaseRequestModel{
		CustomerID:     req.CustomerID,
		RequestedAt:    req.RequestedAt.UTC(),
		CurrentLimit:   req.CurrentLimit,
		RequestedLimit: req.RequestedLimit,
		Status:         string(req.Status),
		Reason:         req.Reason,
	}
	if _, err := l.db.NewInsert().Model(&m).Exec(ctx); err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

func (l *PostgresLedger) ListByCustomer(ctx context.Context, customerID string) ([]IncreaseRequest, error) {
	var models []increaseRequestModel
	err := l.db.NewSelect().
		Model(&models).
		Where("customer_id = ?", customerID).
		Order("requested_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select ledger entries: %w", err)
	}

	out := make([]IncreaseRequest, 0, len(models))
	for _, m := range models {
		out = append(out, IncreaseRequest{
			CustomerID:     m.CustomerID,
			RequestedAt:    m.RequestedAt,
			CurrentLimit:   m.CurrentLimit,
			RequestedLimit: m.RequestedLimit,
			Status:         RequestStatus(m.Status),
			Reason:         m.Reason,
		})
	}
	return out, nil
}

func requireRow(res sql.Result, identifier string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrCustomerNotFound, MaskIdentifier(identifier))
	}
	return nil
}
