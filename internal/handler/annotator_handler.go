package handler

import (
	"net/http"

	"tagwise-console/internal/model"
	"tagwise-console/internal/service"
)

type AnnotatorHandler struct {
	annotators *service.AnnotatorService
	views      *Views
}

func NewAnnotatorHandler(annotators *service.AnnotatorService, views *Views) *AnnotatorHandler {
	return &AnnotatorHandler{annotators: annotators, views: views}
}

func (h *AnnotatorHandler) List(w http.ResponseWriter, r *http.Request) {
	annotators, err := h.annotators.List(r.Context())
	if err != nil {
		h.views.fail(w, r, err)
		return
	}

	h.views.Render(w, r, http.StatusOK, "annotators", "Annotators", annotators)
}

func (h *AnnotatorHandler) Add(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.views.ErrorPage(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}

	added, err := h.annotators.Add(r.Context(), model.SignupRequest{
		Email:     r.PostForm.Get("email"),
		FirstName: r.PostForm.Get("firstName"),
		LastName:  r.PostForm.Get("lastName"),
		Gender:    model.Gender(r.PostForm.Get("gender")),
		Password:  r.PostForm.Get("password"),
	})
	if err != nil {
		h.views.failForm(w, r, err, "/admin/annotators")
		return
	}

	h.views.notifyAndRedirect(w, r, model.SeveritySuccess, "Annotator "+added.FullName()+" added.", "/admin/annotators")
}

func (h *AnnotatorHandler) Validate(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		h.views.ErrorPage(w, r, http.StatusNotFound, "Annotator not found")
		return
	}

	if err := h.annotators.Validate(r.Context(), id); err != nil {
		h.views.failForm(w, r, err, "/admin/annotators")
		return
	}

	h.views.notifyAndRedirect(w, r, model.SeveritySuccess, "Annotator account validated.", "/admin/annotators")
}
