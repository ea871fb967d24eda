package infrastructure

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sebuszqo/ExpenseTracker/internal/expense/domain"
	expenseErrors "github.com/sebuszqo/ExpenseTracker/internal/expense/errors"
)

const expenseColumns = `id, user_id, title, amount, category, date, note, created_at, updated_at`

// listOrder must stay in line with domain.ListsBefore.
const listOrder = `ORDER BY date DESC, created_at DESC, id DESC`

type ExpenseRepository struct {
	db *sql.DB
}

func NewExpenseRepository(db *sql.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

func (r *ExpenseRepository) Create(ctx context.Context, expense *domain.Expense) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO expenses (user_id, title, amount, category, date, note)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		expense.OwnerID, expense.Title, expense.Amount, string(expense.Category), expense.Date, expense.Note,
	).Scan(&expense.ID, &expense.CreatedAt, &expense.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

func (r *ExpenseRepository) FindByID(ctx context.Context, ownerID string, expenseID uuid.UUID) (*domain.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = $1 AND user_id = $2`,
		expenseID, ownerID,
	)
	expense, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, expenseErrors.ErrExpenseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select expense: %w", err)
	}
	return expense, nil
}

func (r *ExpenseRepository) Update(ctx context.Context, expense *domain.Expense) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE expenses
		SET title = $1, amount = $2, category = $3, date = $4, note = $5, updated_at = $6
		WHERE id = $7 AND user_id = $8`,
		expense.Title, expense.Amount, string(expense.Category), expense.Date, expense.Note, expense.UpdatedAt,
		expense.ID, expense.OwnerID,
	)
	if err != nil {
		return 0, fmt.Errorf("update expense: %w", err)
	}
	return result.RowsAffected()
}

func (r *ExpenseRepository) Delete(ctx context.Context, ownerID string, expenseID uuid.UUID) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = $1 AND user_id = $2`,
		expenseID, ownerID,
	)
	if err != nil {
		return 0, fmt.Errorf("delete expense: %w", err)
	}
	return result.RowsAffected()
}

func (r *ExpenseRepository) List(ctx context.Context, predicate domain.FilterPredicate, offset, limit int) ([]domain.Expense, error) {
	where, args := whereClause(predicate)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM expenses %s %s LIMIT $%d OFFSET $%d`,
		expenseColumns, where, listOrder, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]domain.Expense, 0, limit)
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, *expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

func (r *ExpenseRepository) Count(ctx context.Context, predicate domain.FilterPredicate) (int64, error) {
	where, args := whereClause(predicate)

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM expenses `+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count expenses: %w", err)
	}
	return total, nil
}

func (r *ExpenseRepository) SummarizeByCategory(ctx context.Context, predicate domain.FilterPredicate) ([]domain.CategorySummary, error) {
	where, args := whereClause(predicate)
	query := `SELECT category, SUM(amount), COUNT(*) FROM expenses ` + where +
		` GROUP BY category ORDER BY SUM(amount) DESC, category ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("summarize expenses: %w", err)
	}
	defer rows.Close()

	summaries := make([]domain.CategorySummary, 0)
	for rows.Next() {
		var (
			summary  domain.CategorySummary
			category string
		)
		if err := rows.Scan(&category, &summary.Total, &summary.Count); err != nil {
			return nil, fmt.Errorf("scan category summary: %w", err)
		}
		summary.Category = domain.Category(category)
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("summarize expenses: %w", err)
	}
	return summaries, nil
}

// whereClause renders the predicate as positional parameters starting at $1.
func whereClause(predicate domain.FilterPredicate) (string, []interface{}) {
	conditions := []string{"user_id = $1"}
	args := []interface{}{predicate.OwnerID}

	if predicate.Category != nil {
		args = append(args, string(*predicate.Category))
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if predicate.DateFrom != nil {
		args = append(args, *predicate.DateFrom)
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)))
	}
	if predicate.DateTo != nil {
		args = append(args, *predicate.DateTo)
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)))
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanExpense(row scanner) (*domain.Expense, error) {
	var (
		expense  domain.Expense
		category string
	)
	if err := row.Scan(&expense.ID, &expense.OwnerID, &expense.Title, &expense.Amount, &category,
		&expense.Date, &expense.Note, &expense.CreatedAt, &expense.UpdatedAt); err != nil {
		return nil, err
	}
	expense.Category = domain.Category(category)
	expense.Date = domain.ToDate(expense.Date)
	expense.CreatedAt = expense.CreatedAt.UTC()
	expense.UpdatedAt = expense.UpdatedAt.UTC()
	return &expense, nil
}
