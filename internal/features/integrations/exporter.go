package integrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"go-lpm/internal/config"
	"go-lpm/internal/features/billing"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrExportDisabled = errors.New("external export is not configured")

const createTableSQL = `CREATE TABLE IF NOT EXISTS exported_invoices (
	invoice_id   VARCHAR(32) PRIMARY KEY,
	tenant_id    VARCHAR(32) NOT NULL,
	matter_id    VARCHAR(32) NOT NULL,
	number       VARCHAR(64) NOT NULL,
	status       VARCHAR(16) NOT NULL,
	subtotal     DOUBLE PRECISION NOT NULL,
	tax_total    DOUBLE PRECISION NOT NULL,
	total        DOUBLE PRECISION NOT NULL,
	issue_date   TIMESTAMP NOT NULL,
	due_date     TIMESTAMP NOT NULL
)`

// SQLExporter pushes invoice rows into an external PostgreSQL or MySQL
// reporting database. The connection is opened lazily on first export and
// reused afterwards.
type SQLExporter struct {
	dbType string // "postgresql" or "mysql"
	dsn    string

	mu sync.Mutex
	db *sql.DB
}

func NewSQLExporter(cfg *config.Config) *SQLExporter {
	return &SQLExporter{
		dbType: cfg.ExportDB,
		dsn:    cfg.ExportDSN,
	}
}

func (e *SQLExporter) connect(ctx context.Context) (*sql.DB, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.db != nil {
		return e.db, nil
	}
	if e.dsn == "" {
		return nil, ErrExportDisabled
	}

	driver := e.dbType
	if e.dbType == "postgresql" {
		driver = "postgres"
	}

	db, err := sql.Open(driver, e.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open export database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping export database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create export table: %w", err)
	}

	e.db = db
	return db, nil
}

// Close releases the export connection if one was opened.
func (e *SQLExporter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.db == nil {
		return nil
	}
	err := e.db.Close()
	e.db = nil
	return err
}

// ExportInvoices upserts the invoices into the reporting table inside one
// transaction and returns the number of rows written.
func (e *SQLExporter) ExportInvoices(ctx context.Context, orgID primitive.ObjectID, invoices []billing.Invoice) (int, error) {
	if len(invoices) == 0 {
		return 0, nil
	}

	db, err := e.connect(ctx)
	if err != nil {
		return 0, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin export transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, e.upsertSQL())
	if err != nil {
		return 0, fmt.Errorf("failed to prepare export statement: %w", err)
	}
	defer stmt.Close()

	for _, inv := range invoices {
		_, err := stmt.ExecContext(ctx,
			inv.ID.Hex(), orgID.Hex(), inv.MatterID.Hex(), inv.Number, inv.Status,
			inv.Subtotal, inv.TaxTotal, inv.Total, inv.IssueDate, inv.DueDate,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to export invoice %s: %w", inv.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit export transaction: %w", err)
	}
	return len(invoices), nil
}

func (e *SQLExporter) upsertSQL() string {
	if e.dbType == "mysql" {
		return `INSERT INTO exported_invoices
			(invoice_id, tenant_id, matter_id, number, status, subtotal, tax_total, total, issue_date, due_date)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE
			status = VALUES(status), subtotal = VALUES(subtotal), tax_total = VALUES(tax_total),
			total = VALUES(total), issue_date = VALUES(issue_date), due_date = VALUES(due_date)`
	}
	return `INSERT INTO exported_invoices
		(invoice_id, tenant_id, matter_id, number, status, subtotal, tax_total, total, issue_date, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (invoice_id) DO UPDATE SET
		status = EXCLUDED.status, subtotal = EXCLUDED.subtotal, tax_total = EXCLUDED.tax_total,
		total = EXCLUDED.total, issue_date = EXCLUDED.issue_date, due_date = EXCLUDED.due_date`
}
