package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/letterdesk/letterdesk/internal/domain"
	"github.com/letterdesk/letterdesk/internal/domain/letter"
)

// Store implements database.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const letterColumns = `id, customer_name, policy_number, letter_type, content, review_status,
	 user_prompt, approval, total_rounds, deleted, deleted_at, created_at, updated_at`

// scannable abstracts pgx.Row and pgx.Rows for the shared scan helper.
type scannable interface {
	Scan(dest ...any) error
}

func scanLetter(row scannable) (letter.Letter, error) {
	var (
		doc          letter.Letter
		approvalJSON []byte
	)
	err := row.Scan(
		&doc.ID, &doc.CustomerName, &doc.PolicyNumber, &doc.Category, &doc.Content,
		&doc.ReviewStatus, &doc.UserPrompt, &approvalJSON, &doc.TotalRounds,
		&doc.Deleted, &doc.DeletedAt, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return letter.Letter{}, err
	}
	if len(approvalJSON) > 0 {
		if err := json.Unmarshal(approvalJSON, &doc.Approval); err != nil {
			return letter.Letter{}, fmt.Errorf("unmarshal approval: %w", err)
		}
	}
	return doc, nil
}

func (s *Store) SaveLetter(ctx context.Context, doc *letter.Letter) (*letter.Letter, error) {
	approvalJSON, err := json.Marshal(doc.Approval)
	if err != nil {
		return nil, fmt.Errorf("marshal approval: %w", err)
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO letters (customer_name, policy_number, letter_type, content, review_status, user_prompt, approval, total_rounds)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+letterColumns,
		doc.CustomerName, doc.PolicyNumber, doc.Category, doc.Content,
		doc.ReviewStatus, doc.UserPrompt, approvalJSON, doc.TotalRounds)

	saved, err := scanLetter(row)
	if err != nil {
		return nil, fmt.Errorf("save letter: %w", err)
	}
	return &saved, nil
}

func (s *Store) GetLetter(ctx context.Context, id string) (*letter.Letter, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+letterColumns+` FROM letters WHERE id = $1 AND NOT deleted`, id)

	doc, err := scanLetter(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get letter %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get letter %s: %w", id, err)
	}
	return &doc, nil
}

func (s *Store) QueryLetters(ctx context.Context, f letter.Filter) ([]letter.Letter, error) {
	query := `SELECT ` + letterColumns + ` FROM letters WHERE NOT deleted`
	args := []any{}

	if f.CustomerName != "" {
		args = append(args, f.CustomerName)
		query += fmt.Sprintf(" AND customer_name = $%d", len(args))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		query += fmt.Sprintf(" AND letter_type = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query letters: %w", err)
	}
	defer rows.Close()

	var letters []letter.Letter
	for rows.Next() {
		doc, err := scanLetter(rows)
		if err != nil {
			return nil, fmt.Errorf("query letters: %w", err)
		}
		letters = append(letters, doc)
	}
	return letters, rows.Err()
}

func (s *Store) UpdateLetterStatus(ctx context.Context, id string, status letter.ReviewStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE letters SET review_status = $2, updated_at = now() WHERE id = $1 AND NOT deleted`,
		id, status)
	if err != nil {
		return fmt.Errorf("update letter status %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update letter status %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) SoftDeleteLetter(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE letters SET deleted = TRUE, deleted_at = now(), updated_at = now()
		 WHERE id = $1 AND NOT deleted`, id)
	if err != nil {
		return fmt.Errorf("delete letter %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete letter %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
