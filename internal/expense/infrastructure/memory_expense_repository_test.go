package infrastructure

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sebuszqo/ExpenseTracker/internal/expense/domain"
	expenseErrors "github.com/sebuszqo/ExpenseTracker/internal/expense/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryExpense(ownerID, title string, category domain.Category, date time.Time) *domain.Expense {
	return &domain.Expense{
		OwnerID:  ownerID,
		Title:    title,
		Amount:   decimal.NewFromInt(1),
		Category: category,
		Date:     date,
	}
}

func TestMemoryExpenseRepository_CreationTimesAreStrictlyIncreasing(t *testing.T) {
	repo := NewMemoryExpenseRepository()
	frozen := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return frozen }

	first := memoryExpense("owner", "first", domain.CategoryFood, frozen)
	second := memoryExpense("owner", "second", domain.CategoryFood, frozen)
	require.NoError(t, repo.Create(context.Background(), first))
	require.NoError(t, repo.Create(context.Background(), second))

	assert.True(t, second.CreatedAt.After(first.CreatedAt))

	listed, err := repo.List(context.Background(), domain.FilterPredicate{OwnerID: "owner"}, 0, 10)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "second", listed[0].Title)
}

func TestMemoryExpenseRepository_ListWindow(t *testing.T) {
	repo := NewMemoryExpenseRepository()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(context.Background(), memoryExpense("owner", "e", domain.CategoryFood, base.AddDate(0, 0, i))))
	}

	page, err := repo.List(context.Background(), domain.FilterPredicate{OwnerID: "owner"}, 3, 10)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	page, err = repo.List(context.Background(), domain.FilterPredicate{OwnerID: "owner"}, 10, 10)
	require.NoError(t, err)
	assert.NotNil(t, page)
	assert.Empty(t, page)

	page, err = repo.List(context.Background(), domain.FilterPredicate{OwnerID: "owner"}, -80, 100)
	require.NoError(t, err)
	assert.NotNil(t, page)
	assert.Empty(t, page)

	page, err = repo.List(context.Background(), domain.FilterPredicate{OwnerID: "owner"}, 1, math.MaxInt)
	require.NoError(t, err)
	assert.Len(t, page, 4)
}

func TestMemoryExpenseRepository_OwnerScoping(t *testing.T) {
	repo := NewMemoryExpenseRepository()
	expense := memoryExpense("owner-a", "mine", domain.CategoryBills, time.Now())
	require.NoError(t, repo.Create(context.Background(), expense))

	_, err := repo.FindByID(context.Background(), "owner-b", expense.ID)
	assert.ErrorIs(t, err, expenseErrors.ErrExpenseNotFound)

	foreign := *expense
	foreign.OwnerID = "owner-b"
	rows, err := repo.Update(context.Background(), &foreign)
	require.NoError(t, err)
	assert.Zero(t, rows)

	rows, err = repo.Delete(context.Background(), "owner-b", expense.ID)
	require.NoError(t, err)
	assert.Zero(t, rows)

	rows, err = repo.Delete(context.Background(), "owner-a", uuid.New())
	require.NoError(t, err)
	assert.Zero(t, rows)
}

func TestMemoryExpenseRepository_SummarizeByCategory(t *testing.T) {
	repo := NewMemoryExpenseRepository()
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	amounts := []struct {
		category domain.Category
		amount   string
	}{
		{domain.CategoryFood, "2.10"},
		{domain.CategoryFood, "3.20"},
		{domain.CategoryShopping, "5.30"},
		{domain.CategoryOther, "0.99"},
	}
	for _, a := range amounts {
		e := memoryExpense("owner", "x", a.category, day)
		e.Amount = decimal.RequireFromString(a.amount)
		require.NoError(t, repo.Create(context.Background(), e))
	}

	summaries, err := repo.SummarizeByCategory(context.Background(), domain.FilterPredicate{OwnerID: "owner"})
	require.NoError(t, err)

	require.Len(t, summaries, 3)
	assert.Equal(t, domain.CategoryFood, summaries[0].Category)
	assert.Equal(t, int64(2), summaries[0].Count)
	assert.True(t, decimal.RequireFromString("5.30").Equal(summaries[0].Total))
	assert.Equal(t, domain.CategoryShopping, summaries[1].Category, "ties are broken by category name")
	assert.Equal(t, domain.CategoryOther, summaries[2].Category)
}

func TestMemoryExpenseRepository_ErrorsAndCancellation(t *testing.T) {
	repo := NewMemoryExpenseRepository()
	repo.Err = errors.New("store down")

	_, err := repo.Count(context.Background(), domain.FilterPredicate{OwnerID: "owner"})
	assert.EqualError(t, err, "store down")

	repo.Err = nil
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = repo.List(ctx, domain.FilterPredicate{OwnerID: "owner"}, 0, 10)
	assert.ErrorIs(t, err, context.Canceled)
}
