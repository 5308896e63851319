package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"tagwise-console/internal/model"
	"tagwise-console/internal/service"
)

type DatasetHandler struct {
	datasets   *service.DatasetService
	annotators *service.AnnotatorService
	views      *Views
}

func NewDatasetHandler(datasets *service.DatasetService, annotators *service.AnnotatorService, views *Views) *DatasetHandler {
	return &DatasetHandler{datasets: datasets, annotators: annotators, views: views}
}

func (h *DatasetHandler) List(w http.ResponseWriter, r *http.Request) {
	datasets, err := h.datasets.List(r.Context())
	if err != nil {
		h.views.fail(w, r, err)
		return
	}

	h.views.Render(w, r, http.StatusOK, "datasets", "Datasets", datasets)
}

type datasetForm struct {
	Name        string
	Classes     string
	Description string
	MaxUploadMB int64
}

func (h *DatasetHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, r, http.StatusOK, "dataset_new", "New dataset", datasetForm{MaxUploadMB: h.datasets.MaxUploadSize() >> 20})
}

func (h *DatasetHandler) Create(w http.ResponseWriter, r *http.Request) {
	maxSize := h.datasets.MaxUploadSize()
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+(1<<20))

	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.views.notifyAndRedirect(w, r, model.SeverityError,
				fmt.Sprintf("The dataset file exceeds the %d MB limit.", maxSize>>20), "/admin/datasets/new")
			return
		}
		h.views.notifyAndRedirect(w, r, model.SeverityError, "The upload form could not be read.", "/admin/datasets/new")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	form := datasetForm{
		Name:        r.FormValue("name"),
		Classes:     r.FormValue("classes"),
		Description: r.FormValue("description"),
		MaxUploadMB: maxSize >> 20,
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.renderFormError(w, r, form, "Choose a CSV file to upload.")
		return
	}
	defer file.Close()

	identity, _ := currentIdentity(r)
	created, err := h.datasets.Upload(r.Context(), model.DatasetUpload{
		Name:        form.Name,
		Classes:     form.Classes,
		Description: form.Description,
		FileName:    header.Filename,
		Content:     file,
	}, identity.Email)
	if err != nil {
		if errors.Is(err, model.ErrUnauthorized) || errors.Is(err, model.ErrForbidden) {
			h.views.fail(w, r, err)
			return
		}
		_, body := classify(err)
		h.renderFormError(w, r, form, body.Message)
		return
	}

	target := "/admin/datasets"
	if created.ID > 0 {
		target = fmt.Sprintf("/admin/datasets/%d", created.ID)
	}
	h.views.notifyAndRedirect(w, r, model.SeveritySuccess, "Dataset uploaded.", target)
}

func (h *DatasetHandler) renderFormError(w http.ResponseWriter, r *http.Request, form datasetForm, message string) {
	_ = h.views.manager.SetNotification(r.Context(), clientID(r), model.Notification{Message: message, Severity: model.SeverityError})
	h.views.Render(w, r, http.StatusUnprocessableEntity, "dataset_new", "New dataset", form)
}

func (h *DatasetHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		h.views.ErrorPage(w, r, http.StatusNotFound, "Dataset not found")
		return
	}

	details, err := h.datasets.Details(r.Context(), id)
	if err != nil {
		h.views.fail(w, r, err)
		return
	}

	h.views.Render(w, r, http.StatusOK, "dataset_detail", details.Name, details)
}

type assignView struct {
	Dataset    model.DatasetDetails
	Candidates []model.Annotator
}

func (h *DatasetHandler) AssignForm(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		h.views.ErrorPage(w, r, http.StatusNotFound, "Dataset not found")
		return
	}

	details, err := h.datasets.Details(r.Context(), id)
	if err != nil {
		h.views.fail(w, r, err)
		return
	}

	annotators, err := h.annotators.List(r.Context())
	if err != nil {
		h.views.fail(w, r, err)
		return
	}

	h.views.Render(w, r, http.StatusOK, "dataset_assign", "Assign annotators", assignView{
		Dataset:    details,
		Candidates: service.Assignable(annotators, details),
	})
}

func (h *DatasetHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		h.views.ErrorPage(w, r, http.StatusNotFound, "Dataset not found")
		return
	}

	if err := r.ParseForm(); err != nil {
		h.views.ErrorPage(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}

	ids := make([]int64, 0, len(r.PostForm["annotatorIds"]))
	for _, raw := range r.PostForm["annotatorIds"] {
		annotatorID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || annotatorID <= 0 {
			continue
		}
		ids = append(ids, annotatorID)
	}

	assignURL := fmt.Sprintf("/admin/datasets/%d/assign", id)
	identity, _ := currentIdentity(r)
	if err := h.datasets.Assign(r.Context(), id, ids, identity.Email); err != nil {
		h.views.failForm(w, r, err, assignURL)
		return
	}

	h.views.notifyAndRedirect(w, r, model.SeveritySuccess, "Annotators assigned successfully.", fmt.Sprintf("/admin/datasets/%d", id))
}

func (h *DatasetHandler) RemoveAnnotator(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	annotatorID, ok2 := int64Param(r, "annotatorID")
	if !ok || !ok2 {
		h.views.ErrorPage(w, r, http.StatusNotFound, "Annotator not found")
		return
	}

	detailURL := fmt.Sprintf("/admin/datasets/%d", id)
	if err := h.datasets.RemoveAnnotator(r.Context(), id, annotatorID); err != nil {
		h.views.failForm(w, r, err, detailURL)
		return
	}

	h.views.notifyAndRedirect(w, r, model.SeveritySuccess, "Annotator removed from the dataset.", detailURL)
}
