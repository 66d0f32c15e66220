package handlers

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/crumley/taskdeck/internal/metrics"
	"github.com/crumley/taskdeck/internal/middleware"
	"github.com/crumley/taskdeck/internal/models"
	"github.com/crumley/taskdeck/internal/repo"
	"github.com/crumley/taskdeck/internal/upload"
)

// multipartMaxMemory is how much of the form is kept in memory before
// spilling to temp files. The overall body cap comes from MaxBytes middleware.
const multipartMaxMemory = 8 << 20

type TaskHandler struct {
	Repo    *repo.TaskRepo
	Uploads *upload.Store
}

//
// ==========================
// Create Task
// ==========================
//
// Multipart form: "title" (required) plus an optional "image" file.

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(multipartMaxMemory); err != nil {
		JSONError(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		JSONError(w, "title is required", http.StatusBadRequest)
		return
	}

	var imagePath *string
	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		path, saveErr := h.Uploads.Save(file, header.Filename)
		if saveErr != nil {
			if errors.Is(saveErr, upload.ErrUnsupportedType) {
				metrics.IncUpload("rejected")
				JSONError(w, "unsupported image type", http.StatusBadRequest)
				return
			}
			log.Printf("CreateTask: save image: %v", saveErr)
			JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
			return
		}
		metrics.IncUpload("stored")
		imagePath = &path
	case errors.Is(err, http.ErrMissingFile):
		// No attachment; fine.
	default:
		JSONError(w, "invalid image upload", http.StatusBadRequest)
		return
	}

	task, err := h.Repo.Create(r.Context(), userID, title, imagePath)
	if err != nil {
		log.Printf("CreateTask: insert: %v", err)
		JSONError(w, "failed to create task", http.StatusInternalServerError)
		return
	}

	JSON(w, task, http.StatusCreated)
}

//
// ==========================
// List Tasks
// ==========================
//

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	tasks, err := h.Repo.ListByOwner(r.Context(), userID)
	if err != nil {
		log.Printf("ListTasks: %v", err)
		JSONError(w, "failed to fetch tasks", http.StatusInternalServerError)
		return
	}

	if tasks == nil {
		tasks = []models.Task{}
	}
	JSON(w, tasks, http.StatusOK)
}

//
// ==========================
// Toggle Task
// ==========================
//
// PUT /tasks/{id} flips is_completed. A task owned by another user returns
// the same 404 as a missing one.

func (h *TaskHandler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid task id", http.StatusBadRequest)
		return
	}

	task, err := h.Repo.ToggleCompleted(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			JSONError(w, "task not found", http.StatusNotFound)
			return
		}
		log.Printf("ToggleTask: %v", err)
		JSONError(w, "failed to update task", http.StatusInternalServerError)
		return
	}

	JSON(w, task, http.StatusOK)
}

//
// ==========================
// Delete Task
// ==========================
//

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid task id", http.StatusBadRequest)
		return
	}

	if err := h.Repo.Delete(r.Context(), userID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			JSONError(w, "task not found", http.StatusNotFound)
			return
		}
		log.Printf("DeleteTask: %v", err)
		JSONError(w, "failed to delete task", http.StatusInternalServerError)
		return
	}

	JSON(w, map[string]string{"message": "task deleted"}, http.StatusOK)
}
