package infrastructure

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sebuszqo/ExpenseTracker/internal/expense/domain"
	expenseErrors "github.com/sebuszqo/ExpenseTracker/internal/expense/errors"
	"github.com/shopspring/decimal"
)

// MemoryExpenseRepository keeps expenses in process memory with the same filtering and
// ordering rules as the PostgreSQL repository.
type MemoryExpenseRepository struct {
	mu       sync.RWMutex
	expenses map[uuid.UUID]domain.Expense
	lastTick time.Time
	now      func() time.Time
	// Err, when set, is returned by every call.
	Err error
}

func NewMemoryExpenseRepository() *MemoryExpenseRepository {
	return &MemoryExpenseRepository{
		expenses: make(map[uuid.UUID]domain.Expense),
		now:      time.Now,
	}
}

func (r *MemoryExpenseRepository) Create(ctx context.Context, expense *domain.Expense) error {
	if err := r.check(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	expense.ID = uuid.New()
	expense.CreatedAt = r.tick()
	expense.UpdatedAt = expense.CreatedAt
	r.expenses[expense.ID] = *expense
	return nil
}

func (r *MemoryExpenseRepository) FindByID(ctx context.Context, ownerID string, expenseID uuid.UUID) (*domain.Expense, error) {
	if err := r.check(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	expense, ok := r.expenses[expenseID]
	if !ok || expense.OwnerID != ownerID {
		return nil, expenseErrors.ErrExpenseNotFound
	}
	return &expense, nil
}

func (r *MemoryExpenseRepository) Update(ctx context.Context, expense *domain.Expense) (int64, error) {
	if err := r.check(ctx); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.expenses[expense.ID]
	if !ok || stored.OwnerID != expense.OwnerID {
		return 0, nil
	}
	stored.Title = expense.Title
	stored.Amount = expense.Amount
	stored.Category = expense.Category
	stored.Date = expense.Date
	stored.Note = expense.Note
	stored.UpdatedAt = expense.UpdatedAt
	r.expenses[expense.ID] = stored
	return 1, nil
}

func (r *MemoryExpenseRepository) Delete(ctx context.Context, ownerID string, expenseID uuid.UUID) (int64, error) {
	if err := r.check(ctx); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.expenses[expenseID]
	if !ok || stored.OwnerID != ownerID {
		return 0, nil
	}
	delete(r.expenses, expenseID)
	return 1, nil
}

func (r *MemoryExpenseRepository) List(ctx context.Context, predicate domain.FilterPredicate, offset, limit int) ([]domain.Expense, error) {
	if err := r.check(ctx); err != nil {
		return nil, err
	}
	matches := r.matching(predicate)
	sort.Slice(matches, func(i, j int) bool {
		return domain.ListsBefore(matches[i], matches[j])
	})

	if offset < 0 || offset >= len(matches) {
		return []domain.Expense{}, nil
	}
	end := len(matches)
	if limit > 0 && limit < end-offset {
		end = offset + limit
	}
	return matches[offset:end], nil
}

func (r *MemoryExpenseRepository) Count(ctx context.Context, predicate domain.FilterPredicate) (int64, error) {
	if err := r.check(ctx); err != nil {
		return 0, err
	}
	return int64(len(r.matching(predicate))), nil
}

func (r *MemoryExpenseRepository) SummarizeByCategory(ctx context.Context, predicate domain.FilterPredicate) ([]domain.CategorySummary, error) {
	if err := r.check(ctx); err != nil {
		return nil, err
	}

	byCategory := make(map[domain.Category]*domain.CategorySummary)
	for _, e := range r.matching(predicate) {
		summary, ok := byCategory[e.Category]
		if !ok {
			summary = &domain.CategorySummary{Category: e.Category, Total: decimal.Zero}
			byCategory[e.Category] = summary
		}
		summary.Total = summary.Total.Add(e.Amount)
		summary.Count++
	}

	summaries := make([]domain.CategorySummary, 0, len(byCategory))
	for _, s := range byCategory {
		summaries = append(summaries, *s)
	}
	domain.SortCategorySummaries(summaries)
	return summaries, nil
}

func (r *MemoryExpenseRepository) matching(predicate domain.FilterPredicate) []domain.Expense {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := make([]domain.Expense, 0)
	for _, e := range r.expenses {
		if predicate.Matches(e) {
			matches = append(matches, e)
		}
	}
	return matches
}

func (r *MemoryExpenseRepository) check(ctx context.Context) error {
	if r.Err != nil {
		return r.Err
	}
	return ctx.Err()
}

// tick returns a creation time strictly after the previous one, so creation order is
// preserved even when the clock does not advance between writes.
func (r *MemoryExpenseRepository) tick() time.Time {
	t := r.now().UTC()
	if !t.After(r.lastTick) {
		t = r.lastTick.Add(time.Microsecond)
	}
	r.lastTick = t
	return t
}
