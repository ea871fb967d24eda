package domain

import (
	"math"
	"strconv"
	"strings"
	"time"

	expenseErrors "github.com/sebuszqo/ExpenseTracker/internal/expense/errors"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// FilterParams are the raw, untrusted filter values of a request. Empty means absent.
type FilterParams struct {
	Category  string
	StartDate string
	EndDate   string
	Page      string
	Limit     string
}

// FilterPredicate is the owner-scoped constraint shared by listing and summary queries.
// Nil bounds are not applied. DateFrom and DateTo are inclusive calendar dates.
type FilterPredicate struct {
	OwnerID  string
	Category *Category
	DateFrom *time.Time
	DateTo   *time.Time
}

// WithoutCategory returns the owner and date scope only.
func (p FilterPredicate) WithoutCategory() FilterPredicate {
	p.Category = nil
	return p
}

// Matches evaluates the predicate against a single record.
func (p FilterPredicate) Matches(e Expense) bool {
	if e.OwnerID != p.OwnerID {
		return false
	}
	if p.Category != nil && e.Category != *p.Category {
		return false
	}
	date := ToDate(e.Date)
	if p.DateFrom != nil && date.Before(*p.DateFrom) {
		return false
	}
	if p.DateTo != nil && date.After(*p.DateTo) {
		return false
	}
	return true
}

type PageRequest struct {
	Page     int
	PageSize int
}

func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func (p PageRequest) Limit() int {
	return p.PageSize
}

type ResolvedFilter struct {
	Predicate FilterPredicate
	Page      PageRequest
	// DroppedBounds names the date parameters that were present but unparseable and
	// therefore not applied.
	DroppedBounds []string
}

type FilterResolver struct {
	defaultPageSize int
	maxPageSize     int
}

func NewFilterResolver(defaultPageSize, maxPageSize int) FilterResolver {
	if defaultPageSize < 1 {
		defaultPageSize = DefaultPageSize
	}
	if maxPageSize < defaultPageSize {
		maxPageSize = defaultPageSize
	}
	return FilterResolver{defaultPageSize: defaultPageSize, maxPageSize: maxPageSize}
}

// Resolve turns raw parameters into an owner-scoped predicate and page request.
// Malformed optional values never fail the call: a bad date bound is dropped and
// reported in DroppedBounds, bad paging values fall back to their defaults.
// Only a missing owner is an error.
func (r FilterResolver) Resolve(ownerID string, params FilterParams) (ResolvedFilter, error) {
	if ownerID == "" {
		return ResolvedFilter{}, expenseErrors.ErrMissingOwner
	}

	resolved := ResolvedFilter{
		Predicate: FilterPredicate{OwnerID: ownerID},
		Page: PageRequest{
			Page:     1,
			PageSize: r.defaultPageSize,
		},
	}

	if category := strings.TrimSpace(params.Category); category != "" && category != AllCategoriesFilter {
		c := Category(category)
		resolved.Predicate.Category = &c
	}

	if params.StartDate != "" {
		if from, err := ParseDate(params.StartDate); err == nil {
			resolved.Predicate.DateFrom = &from
		} else {
			resolved.DroppedBounds = append(resolved.DroppedBounds, "startDate")
		}
	}
	if params.EndDate != "" {
		if to, err := ParseDate(params.EndDate); err == nil {
			resolved.Predicate.DateTo = &to
		} else {
			resolved.DroppedBounds = append(resolved.DroppedBounds, "endDate")
		}
	}

	if size, err := strconv.Atoi(strings.TrimSpace(params.Limit)); err == nil && size > 0 {
		if size > r.maxPageSize {
			size = r.maxPageSize
		}
		resolved.Page.PageSize = size
	}
	if page, err := strconv.Atoi(strings.TrimSpace(params.Page)); err == nil && page > 1 {
		// Keep Offset()+PageSize within int so the offset can never wrap negative.
		if maxPage := math.MaxInt / resolved.Page.PageSize; page > maxPage {
			page = maxPage
		}
		resolved.Page.Page = page
	}

	return resolved, nil
}
