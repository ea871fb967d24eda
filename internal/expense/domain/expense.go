package domain

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	expenseErrors "github.com/sebuszqo/ExpenseTracker/internal/expense/errors"
	"github.com/shopspring/decimal"
)

const (
	DateLayout     = "2006-01-02"
	maxTitleLength = 100
	maxNoteLength  = 500
	// RecentExpensesLimit is the size of the recent-activity slice of a summary.
	RecentExpensesLimit = 5
)

func init() {
	// Clients read amounts as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

type ExpenseRepository interface {
	Create(ctx context.Context, expense *Expense) error
	FindByID(ctx context.Context, ownerID string, expenseID uuid.UUID) (*Expense, error)
	Update(ctx context.Context, expense *Expense) (int64, error)
	Delete(ctx context.Context, ownerID string, expenseID uuid.UUID) (int64, error)
	List(ctx context.Context, predicate FilterPredicate, offset, limit int) ([]Expense, error)
	Count(ctx context.Context, predicate FilterPredicate) (int64, error)
	SummarizeByCategory(ctx context.Context, predicate FilterPredicate) ([]CategorySummary, error)
}

type Expense struct {
	ID        uuid.UUID       `json:"id"`
	OwnerID   string          `json:"ownerId"`
	Title     string          `json:"title"`
	Amount    decimal.Decimal `json:"amount"`
	Category  Category        `json:"category"`
	Date      time.Time       `json:"date"`
	Note      string          `json:"note,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// RecentExpense is the projection of an expense used in summaries.
type RecentExpense struct {
	Title    string          `json:"title"`
	Amount   decimal.Decimal `json:"amount"`
	Category Category        `json:"category"`
	Date     time.Time       `json:"date"`
}

func (e Expense) Recent() RecentExpense {
	return RecentExpense{
		Title:    e.Title,
		Amount:   e.Amount,
		Category: e.Category,
		Date:     e.Date,
	}
}

// Normalize trims text fields, rounds the amount to cents and drops the time of day from Date.
func (e *Expense) Normalize() {
	e.Title = strings.TrimSpace(e.Title)
	e.Note = strings.TrimSpace(e.Note)
	e.Amount = e.Amount.Round(2)
	e.Date = ToDate(e.Date)
}

// Validate reports every invalid field at once.
func (e *Expense) Validate() error {
	errs := &expenseErrors.ValidationErrors{}
	if e.OwnerID == "" {
		return expenseErrors.ErrMissingOwner
	}
	if strings.TrimSpace(e.Title) == "" {
		errs.Add(expenseErrors.NewValidationError("title", "title is required"))
	} else if utf8.RuneCountInString(e.Title) > maxTitleLength {
		errs.Add(expenseErrors.NewFieldValidationError("title", "title must be at most %d characters", maxTitleLength))
	}
	if !e.Amount.IsPositive() {
		errs.Add(expenseErrors.NewValidationError("amount", "amount must be greater than 0"))
	}
	if e.Category == "" {
		errs.Add(expenseErrors.NewValidationError("category", "category is required"))
	} else if !IsValidCategory(e.Category) {
		errs.Add(expenseErrors.NewFieldValidationError("category", "category %q is not supported", string(e.Category)))
	}
	if e.Date.IsZero() {
		errs.Add(expenseErrors.NewValidationError("date", "date is required"))
	}
	if utf8.RuneCountInString(e.Note) > maxNoteLength {
		errs.Add(expenseErrors.NewFieldValidationError("note", "note must be at most %d characters", maxNoteLength))
	}
	return errs.ErrOrNil()
}

// ToDate keeps the calendar date of t and returns it as UTC midnight.
func ToDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp. A timestamp keeps the calendar
// date of its instant in UTC.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(DateLayout, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return ToDate(t.UTC()), nil
}

// ListsBefore reports whether a is listed ahead of b: newer date first, then newer
// creation time, then the larger id so equal timestamps still order deterministically.
func ListsBefore(a, b Expense) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.After(b.Date)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return strings.Compare(a.ID.String(), b.ID.String()) > 0
}

type CategorySummary struct {
	Category Category        `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Count    int64           `json:"count"`
}

// SortCategorySummaries orders by total descending, ties broken by category name.
func SortCategorySummaries(summaries []CategorySummary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		if cmp := summaries[i].Total.Cmp(summaries[j].Total); cmp != 0 {
			return cmp > 0
		}
		return summaries[i].Category < summaries[j].Category
	})
}

type Summary struct {
	Total           decimal.Decimal   `json:"total"`
	CategorySummary []CategorySummary `json:"categorySummary"`
	RecentExpenses  []RecentExpense   `json:"recentExpenses"`
	TotalExpenses   int64             `json:"totalExpenses"`
}

// NewSummary derives the totals from the per-category breakdown so the two always agree.
func NewSummary(byCategory []CategorySummary, recent []Expense) Summary {
	summary := Summary{
		Total:           decimal.Zero,
		CategorySummary: make([]CategorySummary, 0, len(byCategory)),
		RecentExpenses:  make([]RecentExpense, 0, len(recent)),
	}
	for _, c := range byCategory {
		summary.Total = summary.Total.Add(c.Total)
		summary.TotalExpenses += c.Count
		summary.CategorySummary = append(summary.CategorySummary, c)
	}
	SortCategorySummaries(summary.CategorySummary)
	for _, e := range recent {
		summary.RecentExpenses = append(summary.RecentExpenses, e.Recent())
	}
	return summary
}

type Pagination struct {
	CurrentPage   int   `json:"currentPage"`
	TotalPages    int   `json:"totalPages"`
	TotalExpenses int64 `json:"totalExpenses"`
	HasNext       bool  `json:"hasNext"`
	HasPrev       bool  `json:"hasPrev"`
}

// NewPagination describes a page of returned records out of total matches.
// Zero matches yield zero pages.
func NewPagination(page PageRequest, returned int, total int64) Pagination {
	totalPages := int64(0)
	if page.PageSize > 0 {
		totalPages = (total + int64(page.PageSize) - 1) / int64(page.PageSize)
	}
	return Pagination{
		CurrentPage:   page.Page,
		TotalPages:    int(totalPages),
		TotalExpenses: total,
		HasNext:       int64(page.Offset()+returned) < total,
		HasPrev:       page.Page > 1,
	}
}

type ExpensePage struct {
	Expenses   []Expense  `json:"expenses"`
	Pagination Pagination `json:"pagination"`
}
