package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/casehq/triage/internal/model"
)

// SQLiteStore persists tickets in a single flattened table. The
// classification attachment is spread across columns; classified_at
// doubles as its presence marker.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

const ticketColumns = `id, customer_id, customer_email, customer_name, subject, description,
	status, metadata, category, priority, category_confidence, priority_confidence,
	overall_confidence, category_reasoning, priority_reasoning, keywords_found,
	manual_override, classified_at, created_at, updated_at`

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS tickets (
		id                  TEXT PRIMARY KEY,
		customer_id         TEXT NOT NULL,
		customer_email      TEXT NOT NULL,
		customer_name       TEXT NOT NULL,
		subject             TEXT NOT NULL,
		description         TEXT NOT NULL,
		status              TEXT NOT NULL DEFAULT 'open',
		metadata            TEXT DEFAULT '',
		category            TEXT DEFAULT '',
		priority            TEXT DEFAULT '',
		category_confidence REAL DEFAULT 0,
		priority_confidence REAL DEFAULT 0,
		overall_confidence  REAL DEFAULT 0,
		category_reasoning  TEXT DEFAULT '',
		priority_reasoning  TEXT DEFAULT '',
		keywords_found      TEXT DEFAULT '',
		manual_override     INTEGER DEFAULT 0,
		classified_at       DATETIME,
		created_at          DATETIME NOT NULL,
		updated_at          DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tickets_status ON tickets(status);
	CREATE INDEX IF NOT EXISTS idx_tickets_category ON tickets(category);
	CREATE INDEX IF NOT EXISTS idx_tickets_customer ON tickets(customer_id);
	CREATE INDEX IF NOT EXISTS idx_tickets_created_at ON tickets(created_at);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Create(t model.Ticket) (model.Ticket, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := s.now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	metadata, keywords, err := encodeTicketBlobs(t)
	if err != nil {
		return model.Ticket{}, err
	}

	args := []any{
		t.ID, t.CustomerID, t.CustomerEmail, t.CustomerName, t.Subject, t.Description,
		string(t.Status), metadata,
	}
	args = append(args, classificationArgs(t.Classification, keywords)...)
	args = append(args, t.CreatedAt, t.UpdatedAt)

	_, err = s.db.Exec(
		`INSERT INTO tickets (`+ticketColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		args...,
	)
	if err != nil {
		return model.Ticket{}, fmt.Errorf("insert ticket: %w", err)
	}
	return t, nil
}

func (s *SQLiteStore) Get(id string) (model.Ticket, error) {
	row := s.db.QueryRow(`SELECT `+ticketColumns+` FROM tickets WHERE id = ?`, id)
	t, err := scanTicket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Ticket{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return model.Ticket{}, fmt.Errorf("load ticket: %w", err)
	}
	return t, nil
}

func (s *SQLiteStore) Update(id string, patch model.TicketPatch) (model.Ticket, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return model.Ticket{}, fmt.Errorf("begin update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRow(`SELECT `+ticketColumns+` FROM tickets WHERE id = ?`, id)
	t, err := scanTicket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Ticket{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return model.Ticket{}, fmt.Errorf("load ticket: %w", err)
	}

	updated := patch.Apply(t, s.now())

	metadata, keywords, err := encodeTicketBlobs(updated)
	if err != nil {
		return model.Ticket{}, err
	}

	args := []any{
		updated.CustomerID, updated.CustomerEmail, updated.CustomerName,
		updated.Subject, updated.Description, string(updated.Status), metadata,
	}
	args = append(args, classificationArgs(updated.Classification, keywords)...)
	args = append(args, updated.UpdatedAt, id)

	_, err = tx.Exec(
		`UPDATE tickets SET
			customer_id = ?, customer_email = ?, customer_name = ?,
			subject = ?, description = ?, status = ?, metadata = ?,
			category = ?, priority = ?, category_confidence = ?, priority_confidence = ?,
			overall_confidence = ?, category_reasoning = ?, priority_reasoning = ?,
			keywords_found = ?, manual_override = ?, classified_at = ?,
			updated_at = ?
		 WHERE id = ?`,
		args...,
	)
	if err != nil {
		return model.Ticket{}, fmt.Errorf("update ticket: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return model.Ticket{}, fmt.Errorf("commit update: %w", err)
	}
	return updated, nil
}

func (s *SQLiteStore) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM tickets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete ticket: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete ticket: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *SQLiteStore) List(filter ListFilter) ([]model.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets`
	var clauses []string
	var args []any

	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Category != "" {
		clauses = append(clauses, "category = ? AND classified_at IS NOT NULL")
		args = append(args, filter.Category)
	}
	if filter.Priority != "" {
		clauses = append(clauses, "priority = ? AND classified_at IS NOT NULL")
		args = append(args, filter.Priority)
	}
	if filter.CustomerID != "" {
		clauses = append(clauses, "customer_id = ?")
		args = append(args, filter.CustomerID)
	}
	for i, clause := range clauses {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}

	// rowid preserves insertion order.
	query += " ORDER BY rowid"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	} else if filter.Offset > 0 {
		query += " LIMIT -1"
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	tickets := []model.Ticket{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("list tickets: %w", err)
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// encodeTicketBlobs serializes the map and slice columns.
func encodeTicketBlobs(t model.Ticket) (metadata, keywords string, err error) {
	if len(t.Metadata) > 0 {
		raw, err := json.Marshal(t.Metadata)
		if err != nil {
			return "", "", fmt.Errorf("encode metadata: %w", err)
		}
		metadata = string(raw)
	}
	if t.Classification != nil && len(t.Classification.KeywordsFound) > 0 {
		raw, err := json.Marshal(t.Classification.KeywordsFound)
		if err != nil {
			return "", "", fmt.Errorf("encode keywords: %w", err)
		}
		keywords = string(raw)
	}
	return metadata, keywords, nil
}

// classificationArgs flattens the optional classification into the
// column order category .. classified_at.
func classificationArgs(c *model.Classification, keywords string) []any {
	if c == nil {
		return []any{"", "", 0.0, 0.0, 0.0, "", "", "", 0, sql.NullTime{}}
	}
	override := 0
	if c.ManualOverride {
		override = 1
	}
	return []any{
		string(c.Category), string(c.Priority),
		c.CategoryConfidence, c.PriorityConfidence, c.OverallConfidence,
		c.Reasoning.Category, c.Reasoning.Priority,
		keywords, override,
		sql.NullTime{Time: c.ClassifiedAt, Valid: true},
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (model.Ticket, error) {
	var (
		t            model.Ticket
		status       string
		metadata     string
		category     string
		priority     string
		catConf      float64
		priConf      float64
		overallConf  float64
		catReason    string
		priReason    string
		keywords     string
		override     int
		classifiedAt sql.NullTime
	)

	err := row.Scan(
		&t.ID, &t.CustomerID, &t.CustomerEmail, &t.CustomerName, &t.Subject, &t.Description,
		&status, &metadata, &category, &priority, &catConf, &priConf,
		&overallConf, &catReason, &priReason, &keywords,
		&override, &classifiedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return model.Ticket{}, err
	}

	t.Status = model.Status(status)
	if metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &t.Metadata); err != nil {
			return model.Ticket{}, fmt.Errorf("decode metadata: %w", err)
		}
	}
	if classifiedAt.Valid {
		c := &model.Classification{
			ClassifiedAt:   classifiedAt.Time,
			ManualOverride: override != 0,
		}
		c.Category = model.Category(category)
		c.Priority = model.Priority(priority)
		c.CategoryConfidence = catConf
		c.PriorityConfidence = priConf
		c.OverallConfidence = overallConf
		c.Reasoning = model.Reasoning{Category: catReason, Priority: priReason}
		if keywords != "" {
			if err := json.Unmarshal([]byte(keywords), &c.KeywordsFound); err != nil {
				return model.Ticket{}, fmt.Errorf("decode keywords: %w", err)
			}
		}
		t.Classification = c
	}
	return t, nil
}
