package db

import (
	"context"
	"fmt"
	"time"

	"github.com/akozyrev/tenderwatch/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Store is the Postgres-backed TenderRepository.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// ListParams filters the tender listing exposed through the API.
type ListParams struct {
	Query      string
	Status     string
	TenderType string
	MinPrice   float64
	MaxPrice   float64
	Limit      int
	Offset     int
}

const tenderCols = `id, reg_number, title, customer, initial_price::text, winner_price::text,
	status, tender_type, description, application_deadline, contract_execution_deadline,
	source_url, parsed_at, updated_at`

func scanTender(scan func(dest ...interface{}) error) (models.Tender, error) {
	var t models.Tender
	var initialPrice string
	var winnerPrice, description *string

	err := scan(
		&t.ID, &t.RegNumber, &t.Title, &t.Customer, &initialPrice, &winnerPrice,
		&t.Status, &t.TenderType, &description, &t.ApplicationDeadline, &t.ContractExecutionDeadline,
		&t.SourceURL, &t.ParsedAt, &t.UpdatedAt,
	)
	if err != nil {
		return t, err
	}

	if p, err := decimal.NewFromString(initialPrice); err == nil {
		t.InitialPrice = p
	}
	if winnerPrice != nil {
		if p, err := decimal.NewFromString(*winnerPrice); err == nil {
			t.WinnerPrice = &p
		}
	}
	if description != nil {
		t.Description = *description
	}

	return t, nil
}

// Save upserts a tender and replaces its documents and participants.
func (s *Store) Save(ctx context.Context, tender *models.Tender) error {
	if tender.RegNumber == "" {
		return fmt.Errorf("cannot save tender without registration number")
	}
	if tender.ID == uuid.Nil {
		tender.ID = uuid.New()
	}
	if tender.UpdatedAt.IsZero() {
		tender.UpdatedAt = time.Now()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	var winnerPrice *string
	if tender.WinnerPrice != nil {
		v := tender.WinnerPrice.String()
		winnerPrice = &v
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO tenders (id, reg_number, title, customer, initial_price, winner_price,
			status, tender_type, description, application_deadline, contract_execution_deadline,
			source_url, parsed_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (reg_number) DO UPDATE SET
			title = EXCLUDED.title,
			customer = EXCLUDED.customer,
			initial_price = EXCLUDED.initial_price,
			winner_price = EXCLUDED.winner_price,
			status = EXCLUDED.status,
			tender_type = EXCLUDED.tender_type,
			description = EXCLUDED.description,
			application_deadline = EXCLUDED.application_deadline,
			contract_execution_deadline = EXCLUDED.contract_execution_deadline,
			source_url = EXCLUDED.source_url,
			parsed_at = EXCLUDED.parsed_at,
			updated_at = EXCLUDED.updated_at
	`,
		tender.ID, tender.RegNumber, tender.Title, tender.Customer,
		tender.InitialPrice.String(), winnerPrice,
		string(tender.Status), string(tender.TenderType), nullIfEmpty(tender.Description),
		tender.ApplicationDeadline, tender.ContractExecutionDeadline,
		tender.SourceURL, tender.ParsedAt, tender.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert tender %s failed: %w", tender.RegNumber, err)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM tender_documents WHERE reg_number = $1", tender.RegNumber); err != nil {
		return fmt.Errorf("clear documents failed: %w", err)
	}
	for _, d := range tender.Documents {
		if _, err := tx.Exec(ctx, `
			INSERT INTO tender_documents (reg_number, name, url, original_filename, file_size, file_type, download_path, processed, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, tender.RegNumber, d.Name, d.URL, d.OriginalFilename, d.FileSize, d.FileType, d.DownloadPath, d.Processed, orNow(d.CreatedAt)); err != nil {
			return fmt.Errorf("insert document failed: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, "DELETE FROM tender_participants WHERE reg_number = $1", tender.RegNumber); err != nil {
		return fmt.Errorf("clear participants failed: %w", err)
	}
	for _, p := range tender.Participants {
		if _, err := tx.Exec(ctx, `
			INSERT INTO tender_participants (reg_number, name, inn, kpp, address, is_winner)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, tender.RegNumber, p.Name, p.INN, p.KPP, p.Address, p.IsWinner); err != nil {
			return fmt.Errorf("insert participant failed: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (s *Store) GetByRegNumber(ctx context.Context, regNumber string) (*models.Tender, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+tenderCols+" FROM tenders WHERE reg_number = $1", regNumber)
	t, err := scanTender(row.Scan)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tender %s failed: %w", regNumber, err)
	}

	if err := s.loadChildren(ctx, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) GetAll(ctx context.Context, limit int) ([]models.Tender, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, "SELECT "+tenderCols+" FROM tenders ORDER BY updated_at DESC LIMIT $1", limit)
	if err != nil {
		return nil, fmt.Errorf("list tenders failed: %w", err)
	}
	defer rows.Close()

	var tenders []models.Tender
	for rows.Next() {
		t, err := scanTender(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan tender failed: %w", err)
		}
		tenders = append(tenders, t)
	}
	return tenders, rows.Err()
}

func (s *Store) Delete(ctx context.Context, regNumber string) error {
	_, err := s.pool.Exec(ctx, "DELETE FROM tenders WHERE reg_number = $1", regNumber)
	if err != nil {
		return fmt.Errorf("delete tender %s failed: %w", regNumber, err)
	}
	return nil
}

// List filters tenders for the API surface.
func (s *Store) List(ctx context.Context, params ListParams) ([]models.Tender, error) {
	where := "WHERE 1=1"
	var args []interface{}
	argIdx := 1

	if params.Query != "" {
		where += fmt.Sprintf(" AND (title ILIKE '%%' || $%d || '%%' OR customer ILIKE '%%' || $%d || '%%')", argIdx, argIdx)
		args = append(args, params.Query)
		argIdx++
	}
	if params.Status != "" && params.Status != "all" {
		where += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, params.Status)
		argIdx++
	}
	if params.TenderType != "" {
		where += fmt.Sprintf(" AND tender_type = $%d", argIdx)
		args = append(args, params.TenderType)
		argIdx++
	}
	if params.MinPrice > 0 {
		where += fmt.Sprintf(" AND initial_price >= $%d", argIdx)
		args = append(args, params.MinPrice)
		argIdx++
	}
	if params.MaxPrice > 0 {
		where += fmt.Sprintf(" AND initial_price <= $%d", argIdx)
		args = append(args, params.MaxPrice)
		argIdx++
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}
	sql := fmt.Sprintf("SELECT %s FROM tenders %s ORDER BY updated_at DESC LIMIT %d OFFSET %d",
		tenderCols, where, limit, params.Offset)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list query failed: %w", err)
	}
	defer rows.Close()

	var tenders []models.Tender
	for rows.Next() {
		t, err := scanTender(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan tender failed: %w", err)
		}
		tenders = append(tenders, t)
	}
	return tenders, rows.Err()
}

func (s *Store) loadChildren(ctx context.Context, t *models.Tender) error {
	rows, err := s.pool.Query(ctx, `
		SELECT name, url, original_filename, file_size, file_type, download_path, processed, created_at
		FROM tender_documents WHERE reg_number = $1 ORDER BY id
	`, t.RegNumber)
	if err != nil {
		return fmt.Errorf("load documents failed: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.Name, &d.URL, &d.OriginalFilename, &d.FileSize, &d.FileType, &d.DownloadPath, &d.Processed, &d.CreatedAt); err != nil {
			return fmt.Errorf("scan document failed: %w", err)
		}
		t.Documents = append(t.Documents, d)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	prows, err := s.pool.Query(ctx, `
		SELECT name, inn, kpp, address, is_winner
		FROM tender_participants WHERE reg_number = $1 ORDER BY id
	`, t.RegNumber)
	if err != nil {
		return fmt.Errorf("load participants failed: %w", err)
	}
	defer prows.Close()
	for prows.Next() {
		var p models.Participant
		if err := prows.Scan(&p.Name, &p.INN, &p.KPP, &p.Address, &p.IsWinner); err != nil {
			return fmt.Errorf("scan participant failed: %w", err)
		}
		t.Participants = append(t.Participants, p)
	}
	return prows.Err()
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func orNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
