package http

import (
	"bytes"
	"net/http"
	"sync/atomic"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
	"expensetracker/internal/report"
)

// statsResponse is the body of GET /expenses/stats.
type statsResponse struct {
	report.Stats
	Count     int                    `json:"count"`
	Breakdown []report.CategoryTotal `json:"breakdown"`
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.svc.List(r.Context())
	if err != nil {
		s.fail(w, r, err, log.OpList, nil)
		return
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}
	NewJSONResponse().JSON(expenses).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	draft, err := NewRequestBodyParser(w, r).Draft()
	if err != nil {
		s.fail(w, r, err, log.OpParse, nil)
		return
	}

	created, err := s.svc.Create(r.Context(), draft)
	if err != nil {
		s.fail(w, r, err, log.OpCreate, nil)
		return
	}

	atomic.AddInt64(&s.appMetrics.expensesCreated, 1)
	s.structured.LogExpenseChange(r.Context(), log.OpCreate, created)

	NewJSONResponse().Status(http.StatusCreated).JSON(created).Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	draft, err := NewRequestBodyParser(w, r).Draft()
	if err != nil {
		s.fail(w, r, err, log.OpParse, nil)
		return
	}

	updated, err := s.svc.Update(r.Context(), id, draft)
	if err != nil {
		s.fail(w, r, err, log.OpUpdate, log.NewFields().With(log.FieldExpenseID, id))
		return
	}

	atomic.AddInt64(&s.appMetrics.expensesUpdated, 1)
	s.structured.LogExpenseChange(r.Context(), log.OpUpdate, updated)

	NewJSONResponse().JSON(updated).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.svc.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err, log.OpDelete, log.NewFields().With(log.FieldExpenseID, id))
		return
	}

	atomic.AddInt64(&s.appMetrics.expensesDeleted, 1)
	NewJSONResponse().Message("Expense deleted").Write(w)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.svc.List(r.Context())
	if err != nil {
		s.fail(w, r, err, log.OpStats, nil)
		return
	}
	NewJSONResponse().JSON(statsResponse{
		Stats:     report.Summarize(expenses, s.now()),
		Count:     len(expenses),
		Breakdown: report.Breakdown(expenses),
	}).Write(w)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.svc.List(r.Context())
	if err != nil {
		s.fail(w, r, err, log.OpExport, nil)
		return
	}
	filter := categoryFilter(r.URL.Query())
	rows := report.Filter(expenses, filter)

	// Render fully before writing headers so a failure still yields JSON.
	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, rows, report.CSVOptions{DateLayout: s.csvLayout}); err != nil {
		s.fail(w, r, err, log.OpExport, nil)
		return
	}

	atomic.AddInt64(&s.appMetrics.exports, 1)
	s.logger.InfoContext(r.Context(), "Expenses exported",
		log.FieldOperation, log.OpExport,
		log.FieldCategory, filter,
		"rows", len(rows))

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.ExportFilename(s.now())+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(core.Categories).Write(w)
}

// fail logs err at a level matching its status and writes the error response.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, op string, fields log.LogFields) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.structured.LogError(r.Context(), "Expense request failed", err, log.ComponentExpense, op, fields)
	} else {
		s.logger.WarnContext(r.Context(), "Expense request rejected",
			log.FieldOperation, op,
			log.FieldStatusCode, status,
			log.FieldError, err.Error())
	}
	FromError(err).Write(w)
}
