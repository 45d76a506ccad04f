package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-labs/aura/internal/todos"
)

// handleListTodos returns the task list ordered for the user's current
// energy state.
func (d *Dependencies) handleListTodos(w http.ResponseWriter, r *http.Request) {
	items, err := d.Store.ListTodos(r.Context())
	if err != nil {
		d.Logger.Error("failed to list todos", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to list todos"})
		return
	}

	// Ordering consults a side-effect-free read of the current state;
	// listing tasks must never trigger an intervention.
	snap := d.Session.Observe(r.Context())
	writeJSON(w, http.StatusOK, todos.OrderByEnergy(items, snap.FatigueScore, snap.FuelGauge))
}

func (d *Dependencies) handleCreateTodo(w http.ResponseWriter, r *http.Request) {
	var req CreateTodoReq
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "title is required"})
		return
	}
	if req.Effort < 1 || req.Effort > 5 || req.Impact < 1 || req.Impact > 5 {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "effort and impact must be between 1 and 5"})
		return
	}

	todo, err := d.Store.CreateTodo(r.Context(), strings.TrimSpace(req.Title), req.Effort, req.Impact)
	if err != nil {
		d.Logger.Error("failed to create todo", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to create todo"})
		return
	}
	writeJSON(w, http.StatusCreated, todo)
}

func (d *Dependencies) handleUpdateTodo(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("todo_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid todo id"})
		return
	}

	var req UpdateTodoReq
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}
	if req.Done == nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "done is required"})
		return
	}

	if err := d.Store.SetTodoDone(r.Context(), id, *req.Done); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, ErrorResp{Detail: "Todo not found."})
			return
		}
		d.Logger.Error("failed to update todo", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to update todo"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (d *Dependencies) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("todo_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid todo id"})
		return
	}

	if err := d.Store.DeleteTodo(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, ErrorResp{Detail: "Todo not found."})
			return
		}
		d.Logger.Error("failed to delete todo", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to delete todo"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
