/*
handlers.go - HTTP request handlers

PURPOSE:
  Implements the REST endpoints over the store and the engine. Handlers
  validate input, call the store or the engine, and shape DTOs. No
  recurrence math lives here.

ENGINE WIRING:
  Preview and forecast both expand patterns through ONE generator built
  over the current calendar snapshot, so what the editor shows is exactly
  what the projection sums.

ERROR MAPPING:
  - Pattern/window validation errors -> 400
  - Missing records -> 404
  - Everything else -> 500
  Malformed stored patterns panic inside the engine; chi's Recoverer turns
  that into a 500, which is correct for corrupted data.

SEE ALSO:
  - dto.go:       request/response shapes
  - refresher.go: calendar snapshot lifecycle
  - server.go:    route wiring
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/openbudget/forecast-engine/factory"
	"github.com/openbudget/forecast-engine/forecast"
	"github.com/openbudget/forecast-engine/recurrence"
	"github.com/openbudget/forecast-engine/store/sqlite"
)

const (
	defaultForecastMonths = 12
	maxForecastMonths     = 120
	dashboardMonths       = 6
	dashboardConcurrency  = 4
)

// Handler holds the dependencies for all HTTP handlers.
type Handler struct {
	Store    *sqlite.Store
	Calendar *CalendarHolder
}

// NewHandler creates a handler over the store and calendar holder.
func NewHandler(store *sqlite.Store, calendar *CalendarHolder) *Handler {
	return &Handler{Store: store, Calendar: calendar}
}

// generator returns an engine generator over the current calendar snapshot.
func (h *Handler) generator() *recurrence.Generator {
	return recurrence.NewGenerator(h.Calendar.Current())
}

// =============================================================================
// BUDGET ENDPOINTS
// =============================================================================

// ListBudgets returns all budgets.
// GET /api/budgets
func (h *Handler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := h.Store.ListBudgets(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list budgets", err)
		return
	}

	dtos := make([]BudgetDTO, 0, len(budgets))
	for _, b := range budgets {
		dtos = append(dtos, BudgetDTO{ID: b.ID, Name: b.Name})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateBudget creates or renames a budget.
// POST /api/budgets
func (h *Handler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	var req CreateBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Budget name is required", nil)
		return
	}

	record := sqlite.BudgetRecord{ID: req.ID, Name: req.Name}
	if err := h.Store.SaveBudget(r.Context(), &record); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save budget", err)
		return
	}
	writeJSON(w, http.StatusCreated, BudgetDTO{ID: record.ID, Name: record.Name})
}

// GetBudget returns one budget.
// GET /api/budgets/{id}
func (h *Handler) GetBudget(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	budget, err := h.Store.GetBudget(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get budget", err)
		return
	}
	if budget == nil {
		writeError(w, http.StatusNotFound, "Budget not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, BudgetDTO{ID: budget.ID, Name: budget.Name})
}

// DeleteBudget removes a budget and everything under it.
// DELETE /api/budgets/{id}
func (h *Handler) DeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteBudget(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete budget", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// CONTAINER ENDPOINTS
// =============================================================================

// ListContainers returns a budget's containers.
// GET /api/budgets/{id}/containers
func (h *Handler) ListContainers(w http.ResponseWriter, r *http.Request) {
	containers, err := h.Store.ListContainers(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list containers", err)
		return
	}

	dtos := make([]ContainerDTO, 0, len(containers))
	for _, c := range containers {
		dtos = append(dtos, ContainerDTO{
			ID:                  c.ID,
			Name:                c.Name,
			StartBalance:        int64(c.StartBalance),
			StartBalanceDisplay: displayAmount(c.StartBalance),
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveContainer creates or updates a container.
// POST /api/budgets/{id}/containers
func (h *Handler) SaveContainer(w http.ResponseWriter, r *http.Request) {
	var req SaveContainerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Container name is required", nil)
		return
	}

	record := sqlite.ContainerRecord{
		ID:           req.ID,
		BudgetID:     chi.URLParam(r, "id"),
		Name:         req.Name,
		StartBalance: recurrence.Amount(req.StartBalance),
	}
	if err := h.Store.SaveContainer(r.Context(), &record); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save container", err)
		return
	}
	writeJSON(w, http.StatusCreated, ContainerDTO{
		ID:                  record.ID,
		Name:                record.Name,
		StartBalance:        int64(record.StartBalance),
		StartBalanceDisplay: displayAmount(record.StartBalance),
	})
}

// =============================================================================
// POST ENDPOINTS
// =============================================================================

// ListPosts returns a budget's posts with decoded patterns.
// GET /api/budgets/{id}/posts
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.Store.LoadPosts(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list posts", err)
		return
	}

	dtos := make([]PostDTO, 0, len(posts))
	for _, p := range posts {
		dtos = append(dtos, toPostDTO(p))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SavePost creates or updates a post; the patterns in the body replace the
// stored list.
// POST /api/budgets/{id}/posts
func (h *Handler) SavePost(w http.ResponseWriter, r *http.Request) {
	var req SavePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	direction := forecast.Direction(req.Direction)
	switch direction {
	case forecast.Income, forecast.Expense, forecast.Transfer:
	default:
		writeError(w, http.StatusBadRequest, "Direction must be income, expense or transfer", nil)
		return
	}
	if direction == forecast.Transfer && (req.FromContainer == "" || req.ToContainer == "") {
		writeError(w, http.StatusBadRequest, "Transfer posts need from_container and to_container", nil)
		return
	}

	patterns := make([]recurrence.AmountPattern, 0, len(req.Patterns))
	for i, pj := range req.Patterns {
		p, err := factory.ParsePattern(pj, direction == forecast.Transfer)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid pattern at index "+strconv.Itoa(i), err)
			return
		}
		patterns = append(patterns, p)
	}

	budgetID := chi.URLParam(r, "id")
	post := forecast.BudgetPost{
		ID:            req.ID,
		Name:          req.Name,
		Direction:     direction,
		Category:      req.Category,
		Patterns:      patterns,
		Accumulate:    req.Accumulate,
		FromContainer: recurrence.ContainerID(req.FromContainer),
		ToContainer:   recurrence.ContainerID(req.ToContainer),
	}

	tree, err := h.Store.CategoryTree(r.Context(), budgetID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load categories", err)
		return
	}
	if err := tree.CheckPost(post); err != nil {
		writeError(w, http.StatusBadRequest, "Post draws from a container outside its category pool", err)
		return
	}

	if err := h.Store.SavePost(r.Context(), budgetID, &post); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save post", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPostDTO(post))
}

// DeletePost removes a post.
// DELETE /api/posts/{id}
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeletePost(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete post", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetCategoryPool declares the container pool for a category path.
// PUT /api/budgets/{id}/categories
func (h *Handler) SetCategoryPool(w http.ResponseWriter, r *http.Request) {
	var req SetCategoryPoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "Category path is required", nil)
		return
	}

	pool := make([]recurrence.ContainerID, 0, len(req.Containers))
	for _, c := range req.Containers {
		pool = append(pool, recurrence.ContainerID(c))
	}
	if err := h.Store.SetCategoryPool(r.Context(), chi.URLParam(r, "id"), req.Path, pool); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to set category pool", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HOLIDAY ENDPOINTS
// =============================================================================

// ListHolidays returns all bank holidays.
// GET /api/holidays
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Store.ListHolidays(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list holidays", err)
		return
	}

	dtos := make([]HolidayDTO, 0, len(holidays))
	for _, hol := range holidays {
		dtos = append(dtos, HolidayDTO{Date: hol.Date.String(), Name: hol.Name})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveHoliday adds or renames a bank holiday and refreshes the calendar
// snapshot so the next generation call sees it.
// POST /api/holidays
func (h *Handler) SaveHoliday(w http.ResponseWriter, r *http.Request) {
	var req HolidayDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := recurrence.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	if err := h.Store.SaveHoliday(r.Context(), date, req.Name); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save holiday", err)
		return
	}
	if err := h.Calendar.Refresh(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to refresh calendar", err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// DeleteHoliday removes a bank holiday and refreshes the calendar snapshot.
// DELETE /api/holidays/{date}
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	date, err := recurrence.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	if err := h.Store.DeleteHoliday(r.Context(), date); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete holiday", err)
		return
	}
	if err := h.Calendar.Refresh(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to refresh calendar", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PREVIEW ENDPOINT
// =============================================================================

// Preview expands draft patterns into a day-by-day timeline. Patterns come
// straight from the editor; nothing is persisted.
// POST /api/preview
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	from, err := recurrence.ParseDate(req.From)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from date (use YYYY-MM-DD)", err)
		return
	}
	to, err := recurrence.ParseDate(req.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to date (use YYYY-MM-DD)", err)
		return
	}

	patterns := make([]recurrence.AmountPattern, 0, len(req.Patterns))
	for i, pj := range req.Patterns {
		p, err := factory.ParsePattern(pj, false)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid pattern at index "+strconv.Itoa(i), err)
			return
		}
		patterns = append(patterns, p)
	}

	svc := forecast.NewPreviewService(h.generator())
	preview, err := svc.Preview(patterns, from, to)
	if err != nil {
		if errors.Is(err, recurrence.ErrInvalidWindow) {
			writeError(w, http.StatusBadRequest, "Window end precedes start", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to build preview", err)
		return
	}

	resp := PreviewResponse{
		Entries:     make([]TimelineEntryDTO, 0, len(preview.Entries)),
		NonBankDays: make([]string, 0, len(preview.NonBankDays)),
	}
	for _, e := range preview.Entries {
		resp.Entries = append(resp.Entries, TimelineEntryDTO{
			Date:          e.Date.String(),
			Amount:        int64(e.Amount),
			AmountDisplay: displayAmount(e.Amount),
			PatternIndex:  e.PatternIndex,
			Period:        e.Kind == recurrence.KindPeriod,
		})
	}
	for _, d := range preview.NonBankDays {
		resp.NonBankDays = append(resp.NonBankDays, d.String())
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// FORECAST ENDPOINTS
// =============================================================================

// Forecast projects a budget's balances forward.
// GET /api/budgets/{id}/forecast?months=12&large=50000&from=YYYY-MM-DD
func (h *Handler) Forecast(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	budgetID := chi.URLParam(r, "id")

	budget, err := h.Store.GetBudget(ctx, budgetID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get budget", err)
		return
	}
	if budget == nil {
		writeError(w, http.StatusNotFound, "Budget not found", nil)
		return
	}

	months := defaultForecastMonths
	if raw := r.URL.Query().Get("months"); raw != "" {
		months, err = strconv.Atoi(raw)
		if err != nil || months < 1 || months > maxForecastMonths {
			writeError(w, http.StatusBadRequest, "months must be between 1 and 120", err)
			return
		}
	}

	var threshold recurrence.Amount
	if raw := r.URL.Query().Get("large"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "large must be an integer amount in minor units", err)
			return
		}
		threshold = recurrence.Amount(v)
	}

	start := recurrence.Today()
	if raw := r.URL.Query().Get("from"); raw != "" {
		start, err = recurrence.ParseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid from date (use YYYY-MM-DD)", err)
			return
		}
	}

	projection, err := h.project(ctx, budgetID, start, months, threshold)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to project budget", err)
		return
	}

	resp := ForecastResponse{
		BudgetID:     budgetID,
		Months:       make([]MonthProjectionDTO, 0, len(projection.Months)),
		ContainerEnd: make(map[string]int64, len(projection.ContainerEnd)),
	}
	for _, m := range projection.Months {
		resp.Months = append(resp.Months, MonthProjectionDTO{
			Month:            monthString(m.Month),
			StartBalance:     int64(m.StartBalance),
			ExpectedIncome:   int64(m.ExpectedIncome),
			ExpectedExpenses: int64(m.ExpectedExpenses),
			EndBalance:       int64(m.EndBalance),
			EndDisplay:       displayAmount(m.EndBalance),
		})
	}
	for id, balance := range projection.ContainerEnd {
		resp.ContainerEnd[string(id)] = int64(balance)
	}
	if len(projection.Months) > 0 {
		resp.LowestPoint = &LowestPointDTO{
			Month:   monthString(projection.LowestPoint.Month),
			Balance: int64(projection.LowestPoint.Balance),
			Display: displayAmount(projection.LowestPoint.Balance),
		}
	}
	if le := projection.NextLargeExpense; le != nil {
		resp.NextLargeExpense = &LargeExpenseDTO{
			PostName: le.PostName,
			Amount:   int64(le.Amount),
			Display:  displayAmount(le.Amount),
			Date:     le.Date.String(),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Dashboard projects every budget a few months out, fanned out with a
// bounded errgroup. Reads share the WAL snapshot.
// GET /api/dashboard
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	budgets, err := h.Store.ListBudgets(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list budgets", err)
		return
	}

	start := recurrence.Today()
	results := make([]DashboardBudgetDTO, len(budgets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(dashboardConcurrency)
	for i, b := range budgets {
		i, b := i, b
		g.Go(func() error {
			projection, err := h.project(gctx, b.ID, start, dashboardMonths, 0)
			if err != nil {
				return err
			}
			dto := DashboardBudgetDTO{BudgetID: b.ID, Name: b.Name}
			if n := len(projection.Months); n > 0 {
				end := projection.Months[n-1].EndBalance
				dto.EndBalance = int64(end)
				dto.EndDisplay = displayAmount(end)
				dto.LowestPoint = &LowestPointDTO{
					Month:   monthString(projection.LowestPoint.Month),
					Balance: int64(projection.LowestPoint.Balance),
					Display: displayAmount(projection.LowestPoint.Balance),
				}
			}
			results[i] = dto
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to project budgets", err)
		return
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	writeJSON(w, http.StatusOK, DashboardResponse{Budgets: results})
}

// project loads a budget's posts and balances and runs one projection.
func (h *Handler) project(ctx context.Context, budgetID string, start recurrence.Date, months int, threshold recurrence.Amount) (*forecast.Projection, error) {
	posts, err := h.Store.LoadPosts(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	balances, err := h.Store.StartingBalances(ctx, budgetID)
	if err != nil {
		return nil, err
	}

	projector := forecast.NewProjector(h.generator())
	return projector.Project(forecast.ProjectionInput{
		Posts:                 posts,
		StartingBalances:      balances,
		StartMonth:            start,
		Months:                months,
		LargeExpenseThreshold: threshold,
	})
}

// Reset clears the database. Dev only.
// POST /api/reset
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	if err := h.Calendar.Refresh(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to refresh calendar", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func toPostDTO(p forecast.BudgetPost) PostDTO {
	dto := PostDTO{
		ID:            p.ID,
		Name:          p.Name,
		Direction:     string(p.Direction),
		Category:      p.Category,
		Accumulate:    p.Accumulate,
		FromContainer: string(p.FromContainer),
		ToContainer:   string(p.ToContainer),
		Patterns:      make([]factory.PatternJSON, 0, len(p.Patterns)),
	}
	for _, pat := range p.Patterns {
		dto.Patterns = append(dto.Patterns, factory.ToJSON(pat))
	}
	return dto
}

func monthString(d recurrence.Date) string {
	return d.Time().Format("2006-01")
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
