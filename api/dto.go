/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

AMOUNTS:
  Internally amounts are int64 minor units. DTOs carry both the raw minor
  units (for clients that compute) and a fixed-point display string built
  with shopspring/decimal (for clients that render).

VALIDATION:
  Validation is done in handlers and in forecast.PatternBuilder, not in
  DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/pattern.go: PatternJSON type
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/openbudget/forecast-engine/factory"
	"github.com/openbudget/forecast-engine/recurrence"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// BudgetDTO represents a budget in API responses.
type BudgetDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CreateBudgetRequest creates or renames a budget.
type CreateBudgetRequest struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// ContainerDTO represents an account container in API responses.
type ContainerDTO struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	StartBalance        int64  `json:"start_balance"`
	StartBalanceDisplay string `json:"start_balance_display"`
}

// SaveContainerRequest creates or updates a container.
type SaveContainerRequest struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`
	StartBalance int64  `json:"start_balance"`
}

// PostDTO represents a budget post with its amount patterns.
type PostDTO struct {
	ID            string                `json:"id"`
	Name          string                `json:"name"`
	Direction     string                `json:"direction"`
	Category      string                `json:"category,omitempty"`
	Accumulate    bool                  `json:"accumulate,omitempty"`
	FromContainer string                `json:"from_container,omitempty"`
	ToContainer   string                `json:"to_container,omitempty"`
	Patterns      []factory.PatternJSON `json:"patterns"`
}

// SavePostRequest creates or updates a post. Patterns replace the stored
// list wholesale.
type SavePostRequest struct {
	ID            string                `json:"id,omitempty"`
	Name          string                `json:"name"`
	Direction     string                `json:"direction"`
	Category      string                `json:"category,omitempty"`
	Accumulate    bool                  `json:"accumulate,omitempty"`
	FromContainer string                `json:"from_container,omitempty"`
	ToContainer   string                `json:"to_container,omitempty"`
	Patterns      []factory.PatternJSON `json:"patterns"`
}

// SetCategoryPoolRequest declares which containers a category may draw from.
type SetCategoryPoolRequest struct {
	Path       string   `json:"path"`
	Containers []string `json:"containers"`
}

// HolidayDTO represents a bank holiday.
type HolidayDTO struct {
	Date string `json:"date"`
	Name string `json:"name,omitempty"`
}

// =============================================================================
// PREVIEW
// =============================================================================

// PreviewRequest asks for a day-by-day timeline of draft patterns. The
// patterns need not be stored anywhere.
type PreviewRequest struct {
	Patterns []factory.PatternJSON `json:"patterns"`
	From     string                `json:"from"`
	To       string                `json:"to"`
}

// TimelineEntryDTO is one dated occurrence in a preview.
type TimelineEntryDTO struct {
	Date          string `json:"date"`
	Amount        int64  `json:"amount"`
	AmountDisplay string `json:"amount_display"`
	PatternIndex  int    `json:"pattern_index"`
	Period        bool   `json:"period,omitempty"`
}

// PreviewResponse carries the timeline plus the non-bank days in range so
// the client can shade weekends and holidays.
type PreviewResponse struct {
	Entries     []TimelineEntryDTO `json:"entries"`
	NonBankDays []string           `json:"non_bank_days"`
}

// =============================================================================
// FORECAST
// =============================================================================

// MonthProjectionDTO is one month of a balance forecast.
type MonthProjectionDTO struct {
	Month            string `json:"month"`
	StartBalance     int64  `json:"start_balance"`
	ExpectedIncome   int64  `json:"expected_income"`
	ExpectedExpenses int64  `json:"expected_expenses"`
	EndBalance       int64  `json:"end_balance"`
	EndDisplay       string `json:"end_display"`
}

// LowestPointDTO marks the projected low watermark.
type LowestPointDTO struct {
	Month   string `json:"month"`
	Balance int64  `json:"balance"`
	Display string `json:"display"`
}

// LargeExpenseDTO flags the next upcoming expense over the threshold.
type LargeExpenseDTO struct {
	PostName string `json:"post_name"`
	Amount   int64  `json:"amount"`
	Display  string `json:"display"`
	Date     string `json:"date"`
}

// ForecastResponse is the projection for one budget.
type ForecastResponse struct {
	BudgetID         string               `json:"budget_id"`
	Months           []MonthProjectionDTO `json:"months"`
	ContainerEnd     map[string]int64     `json:"container_end"`
	LowestPoint      *LowestPointDTO      `json:"lowest_point,omitempty"`
	NextLargeExpense *LargeExpenseDTO     `json:"next_large_expense,omitempty"`
}

// DashboardBudgetDTO is the per-budget summary on the dashboard.
type DashboardBudgetDTO struct {
	BudgetID    string          `json:"budget_id"`
	Name        string          `json:"name"`
	EndBalance  int64           `json:"end_balance"`
	EndDisplay  string          `json:"end_display"`
	LowestPoint *LowestPointDTO `json:"lowest_point,omitempty"`
}

// DashboardResponse aggregates every budget's short-range projection.
type DashboardResponse struct {
	Budgets []DashboardBudgetDTO `json:"budgets"`
}

// displayAmount renders minor units as a fixed two-decimal string.
func displayAmount(a recurrence.Amount) string {
	return decimal.NewFromInt(int64(a)).Div(decimal.NewFromInt(100)).StringFixed(2)
}
