package handler

import (
	"fmt"
	"net/http"

	"tagwise-console/internal/model"
	"tagwise-console/internal/service"
)

type TaskHandler struct {
	tasks *service.TaskService
	views *Views
}

func NewTaskHandler(tasks *service.TaskService, views *Views) *TaskHandler {
	return &TaskHandler{tasks: tasks, views: views}
}

type taskListView struct {
	Tasks    []model.Task
	Progress model.TaskProgress
}

func (h *TaskHandler) MyTasks(w http.ResponseWriter, r *http.Request) {
	identity, ok := currentIdentity(r)
	if !ok {
		h.views.fail(w, r, model.ErrUnauthorized)
		return
	}

	tasks, progress, err := h.tasks.MyTasks(r.Context(), identity)
	if err != nil {
		h.views.fail(w, r, err)
		return
	}

	h.views.Render(w, r, http.StatusOK, "annotator_tasks", "My tasks", taskListView{Tasks: tasks, Progress: progress})
}

func (h *TaskHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		h.views.ErrorPage(w, r, http.StatusNotFound, "Task not found")
		return
	}

	task, err := h.tasks.Get(r.Context(), id)
	if err != nil {
		h.views.fail(w, r, err)
		return
	}

	h.views.Render(w, r, http.StatusOK, "annotate", fmt.Sprintf("Task #%d", task.ID), task)
}

func (h *TaskHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		h.views.ErrorPage(w, r, http.StatusNotFound, "Task not found")
		return
	}

	identity, ok := currentIdentity(r)
	if !ok {
		h.views.fail(w, r, model.ErrUnauthorized)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.views.ErrorPage(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}

	if _, err := h.tasks.Annotate(r.Context(), identity, id, r.PostForm.Get("annotation")); err != nil {
		h.views.failForm(w, r, err, fmt.Sprintf("/annotator/tasks/%d", id))
		return
	}

	h.views.notifyAndRedirect(w, r, model.SeveritySuccess, "Annotation saved.", "/annotator")
}
