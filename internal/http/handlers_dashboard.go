package http

import (
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
	"expensetracker/internal/report"
)

// msgFillAllFields is shown when the form is submitted without amount or description.
const msgFillAllFields = "Please fill in all fields"

var templateFuncs = template.FuncMap{
	"money":   report.FormatAmount,
	"percent": report.FormatPercent,
	// barWidth clamps a share to a CSS width.
	"barWidth": func(p report.Percent) string {
		f := min(max(p.Float64(), 0), 100)
		return strconv.FormatFloat(f, 'f', 1, 64) + "%"
	},
	"trend": func(p report.Percent) string {
		switch p.Sign() {
		case 1:
			return "up"
		case -1:
			return "down"
		}
		return "flat"
	},
	"shortDate": func(d core.Date) string { return d.Format("Jan 2, 2006") },
}

// formView is the add/edit form as rendered.
type formView struct {
	ID          string
	Amount      string
	Category    string
	Description string
	Date        string
}

type dashboardData struct {
	Stats      report.Stats
	Breakdown  []report.CategoryTotal
	Rows       []core.Expense
	Count      int
	Filter     string
	Filters    []string
	Categories []core.Category
	Form       formView
	Editing    bool
	Error      string
	ExportURL  string
}

// handleDashboard renders the main dashboard page
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.renderDashboard(w, r, http.StatusOK, categoryFilter(q), s.formFor(r, q.Get("edit")), "")
}

// handleDashboardCreate handles the add form.
func (s *Server) handleDashboardCreate(w http.ResponseWriter, r *http.Request) {
	s.submitDashboardForm(w, r, "")
}

// handleDashboardUpdate handles the edit form.
func (s *Server) handleDashboardUpdate(w http.ResponseWriter, r *http.Request) {
	s.submitDashboardForm(w, r, r.PathValue("id"))
}

func (s *Server) submitDashboardForm(w http.ResponseWriter, r *http.Request, id string) {
	parser := NewRequestBodyParser(w, r)
	draft, err := parser.Draft()
	filter := parser.Get("filter")
	if filter == "" {
		filter = report.FilterAll
	}
	form := formView{
		ID:          id,
		Amount:      parser.Get("amount"),
		Category:    parser.Get("category"),
		Description: parser.Get("description"),
		Date:        parser.Get("date"),
	}
	if err != nil {
		s.renderDashboard(w, r, StatusFor(err), filter, form, messageFor(err))
		return
	}
	if draft.Amount == nil || draft.Description == "" {
		s.renderDashboard(w, r, http.StatusBadRequest, filter, form, msgFillAllFields)
		return
	}

	op := log.OpCreate
	var saved core.Expense
	if id == "" {
		saved, err = s.svc.Create(r.Context(), draft)
	} else {
		op = log.OpUpdate
		saved, err = s.svc.Update(r.Context(), id, draft)
	}
	if err != nil {
		s.logger.WarnContext(r.Context(), "Dashboard form rejected",
			log.FieldOperation, op,
			log.FieldError, err.Error())
		s.renderDashboard(w, r, StatusFor(err), filter, form, messageFor(err))
		return
	}

	if id == "" {
		atomic.AddInt64(&s.appMetrics.expensesCreated, 1)
	} else {
		atomic.AddInt64(&s.appMetrics.expensesUpdated, 1)
	}
	s.structured.LogExpenseChange(r.Context(), op, saved)
	http.Redirect(w, r, dashboardURL(filter), http.StatusSeeOther)
}

// handleDashboardDelete handles the per-row delete button.
func (s *Server) handleDashboardDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	parser := NewRequestBodyParser(w, r)
	_ = parser.ParseForm()
	filter := parser.Get("filter")

	if err := s.svc.Delete(r.Context(), id); err != nil {
		s.structured.LogError(r.Context(), "Failed to delete expense", err, log.ComponentExpense, log.OpDelete,
			log.NewFields().With(log.FieldExpenseID, id))
		s.renderDashboard(w, r, StatusFor(err), filter, s.defaultForm(), messageFor(err))
		return
	}

	atomic.AddInt64(&s.appMetrics.expensesDeleted, 1)
	http.Redirect(w, r, dashboardURL(filter), http.StatusSeeOther)
}

func (s *Server) renderDashboard(w http.ResponseWriter, r *http.Request, status int, filter string, form formView, errMsg string) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded",
			log.FieldPath, r.URL.Path,
			"error_type", log.ErrorTypeConfiguration)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	expenses, err := s.svc.List(r.Context())
	if err != nil {
		s.structured.LogError(r.Context(), "Failed to load expenses for dashboard", err, log.ComponentExpense, log.OpList, nil)
		if errMsg == "" {
			errMsg = messageFor(err)
		}
		status = http.StatusInternalServerError
	}

	filters := make([]string, 0, len(core.Categories)+1)
	filters = append(filters, report.FilterAll)
	for _, c := range core.Categories {
		filters = append(filters, c.String())
	}

	rows := report.Filter(expenses, filter)
	data := dashboardData{
		Stats:      report.Summarize(expenses, s.now()),
		Breakdown:  report.Breakdown(expenses),
		Rows:       rows,
		Count:      len(expenses),
		Filter:     filter,
		Filters:    filters,
		Categories: core.Categories,
		Form:       form,
		Editing:    form.ID != "",
		Error:      errMsg,
		ExportURL:  s.apiPrefix + "/expenses/export?category=" + url.QueryEscape(filter),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Dashboard template execution failed",
			log.FieldError, err,
			log.FieldOperation, log.OpRender)
	}
}

// formFor returns the form prefilled from the expense being edited, or the
// blank form when editID is empty or unknown.
func (s *Server) formFor(r *http.Request, editID string) formView {
	editID = strings.TrimSpace(editID)
	if editID == "" {
		return s.defaultForm()
	}
	expenses, err := s.svc.List(r.Context())
	if err != nil {
		return s.defaultForm()
	}
	for _, e := range expenses {
		if e.ID == editID {
			return formView{
				ID:          e.ID,
				Amount:      e.Amount.String(),
				Category:    e.Category.String(),
				Description: e.Description,
				Date:        e.Date.String(),
			}
		}
	}
	return s.defaultForm()
}

func (s *Server) defaultForm() formView {
	return formView{
		Category: core.Food.String(),
		Date:     core.DateOf(s.now()).String(),
	}
}

func dashboardURL(filter string) string {
	if filter == "" || filter == report.FilterAll {
		return "/"
	}
	return "/?category=" + url.QueryEscape(filter)
}
