package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sebuszqo/ExpenseTracker/internal/expense/domain"
	expenseErrors "github.com/sebuszqo/ExpenseTracker/internal/expense/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type CreateExpenseInput struct {
	Title    string          `json:"title"`
	Amount   decimal.Decimal `json:"amount"`
	Category domain.Category `json:"category"`
	// Date is YYYY-MM-DD or RFC 3339; empty means today.
	Date string `json:"date"`
	Note string `json:"note"`
}

// UpdateExpenseInput carries only the fields to change. Nil fields are left as stored.
type UpdateExpenseInput struct {
	Title    *string          `json:"title"`
	Amount   *decimal.Decimal `json:"amount"`
	Category *domain.Category `json:"category"`
	Date     *string          `json:"date"`
	Note     *string          `json:"note"`
}

type ExpenseService struct {
	repo      domain.ExpenseRepository
	resolver  domain.FilterResolver
	publisher domain.EventPublisher
	now       func() time.Time
}

func NewExpenseService(repo domain.ExpenseRepository, resolver domain.FilterResolver, publisher domain.EventPublisher) *ExpenseService {
	return &ExpenseService{
		repo:      repo,
		resolver:  resolver,
		publisher: publisher,
		now:       time.Now,
	}
}

// ListExpenses returns one page of the owner's expenses matching params, newest first.
func (s *ExpenseService) ListExpenses(ctx context.Context, ownerID string, params domain.FilterParams) (*domain.ExpensePage, error) {
	resolved, err := s.resolve(ctx, ownerID, params)
	if err != nil {
		return nil, err
	}

	var (
		expenses []domain.Expense
		total    int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		expenses, err = s.repo.List(gctx, resolved.Predicate, resolved.Page.Offset(), resolved.Page.Limit())
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.Count(gctx, resolved.Predicate)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	if expenses == nil {
		expenses = []domain.Expense{}
	}
	return &domain.ExpensePage{
		Expenses:   expenses,
		Pagination: domain.NewPagination(resolved.Page, len(expenses), total),
	}, nil
}

// SummarizeExpenses aggregates the owner's expenses within the date bounds of params.
// The category of params is never applied: a summary always covers every category.
func (s *ExpenseService) SummarizeExpenses(ctx context.Context, ownerID string, params domain.FilterParams) (*domain.Summary, error) {
	resolved, err := s.resolve(ctx, ownerID, params)
	if err != nil {
		return nil, err
	}
	predicate := resolved.Predicate.WithoutCategory()

	var (
		byCategory []domain.CategorySummary
		recent     []domain.Expense
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		byCategory, err = s.repo.SummarizeByCategory(gctx, predicate)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.repo.List(gctx, predicate, 0, domain.RecentExpensesLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to summarize expenses: %w", err)
	}

	summary := domain.NewSummary(byCategory, recent)
	return &summary, nil
}

func (s *ExpenseService) GetExpense(ctx context.Context, ownerID string, expenseID uuid.UUID) (*domain.Expense, error) {
	if ownerID == "" {
		return nil, expenseErrors.ErrMissingOwner
	}
	return s.repo.FindByID(ctx, ownerID, expenseID)
}

func (s *ExpenseService) CreateExpense(ctx context.Context, ownerID string, input CreateExpenseInput) (*domain.Expense, error) {
	if ownerID == "" {
		return nil, expenseErrors.ErrMissingOwner
	}

	expense := &domain.Expense{
		OwnerID:  ownerID,
		Title:    input.Title,
		Amount:   input.Amount,
		Category: input.Category,
		Note:     input.Note,
		Date:     s.now().UTC(),
	}
	var dateErr error
	if input.Date != "" {
		expense.Date, dateErr = parseInputDate(input.Date, expense.Date)
	}

	expense.Normalize()
	if err := validate(expense, dateErr); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, expense); err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}

	s.publish(ctx, domain.ExpenseCreated, expense)
	return expense, nil
}

func (s *ExpenseService) UpdateExpense(ctx context.Context, ownerID string, expenseID uuid.UUID, input UpdateExpenseInput) (*domain.Expense, error) {
	if ownerID == "" {
		return nil, expenseErrors.ErrMissingOwner
	}

	expense, err := s.repo.FindByID(ctx, ownerID, expenseID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		expense.Title = *input.Title
	}
	if input.Amount != nil {
		expense.Amount = *input.Amount
	}
	if input.Category != nil {
		expense.Category = *input.Category
	}
	if input.Note != nil {
		expense.Note = *input.Note
	}
	var dateErr error
	if input.Date != nil {
		expense.Date, dateErr = parseInputDate(*input.Date, expense.Date)
	}

	expense.Normalize()
	if err := validate(expense, dateErr); err != nil {
		return nil, err
	}
	expense.UpdatedAt = s.now().UTC()

	rowsAffected, err := s.repo.Update(ctx, expense)
	if err != nil {
		return nil, fmt.Errorf("failed to update expense: %w", err)
	}
	if rowsAffected == 0 {
		return nil, expenseErrors.ErrExpenseNotFound
	}

	s.publish(ctx, domain.ExpenseUpdated, expense)
	return expense, nil
}

func (s *ExpenseService) DeleteExpense(ctx context.Context, ownerID string, expenseID uuid.UUID) error {
	if ownerID == "" {
		return expenseErrors.ErrMissingOwner
	}

	rowsAffected, err := s.repo.Delete(ctx, ownerID, expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if rowsAffected == 0 {
		return expenseErrors.ErrExpenseNotFound
	}

	s.publish(ctx, domain.ExpenseDeleted, &domain.Expense{ID: expenseID, OwnerID: ownerID})
	return nil
}

func (s *ExpenseService) Categories() []domain.Category {
	return domain.Categories()
}

func (s *ExpenseService) resolve(ctx context.Context, ownerID string, params domain.FilterParams) (domain.ResolvedFilter, error) {
	resolved, err := s.resolver.Resolve(ownerID, params)
	if err != nil {
		return domain.ResolvedFilter{}, err
	}
	if len(resolved.DroppedBounds) > 0 {
		zerolog.Ctx(ctx).Warn().
			Strs("params", resolved.DroppedBounds).
			Str("startDate", params.StartDate).
			Str("endDate", params.EndDate).
			Msg("ignoring unparseable date filter")
	}
	return resolved, nil
}

// publish runs after the write is committed, so a broker failure is only logged.
func (s *ExpenseService) publish(ctx context.Context, eventType domain.EventType, expense *domain.Expense) {
	if s.publisher == nil {
		return
	}
	event := domain.NewExpenseEvent(eventType, expense.ID, expense.OwnerID, s.now())
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).
			Str("event", string(eventType)).
			Str("expense_id", expense.ID.String()).
			Msg("failed to publish expense event")
	}
}

// parseInputDate keeps fallback when value is not a date. Unlike read filters, a write
// with a bad date is rejected.
func parseInputDate(value string, fallback time.Time) (time.Time, error) {
	date, err := domain.ParseDate(value)
	if err != nil {
		return fallback, expenseErrors.NewValidationError("date", "date must be YYYY-MM-DD or RFC 3339")
	}
	return date, nil
}

// validate reports a date error together with every other field failure of the same write.
func validate(expense *domain.Expense, dateErr error) error {
	err := expense.Validate()
	if dateErr == nil {
		return err
	}
	errs := &expenseErrors.ValidationErrors{}
	errs.Add(dateErr)
	var fieldErrs *expenseErrors.ValidationErrors
	if errors.As(err, &fieldErrs) {
		errs.Errors = append(errs.Errors, fieldErrs.Errors...)
	} else if err != nil {
		return err
	}
	return errs
}
