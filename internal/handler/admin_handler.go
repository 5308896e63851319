package handler

import (
	"net/http"

	"tagwise-console/internal/model"
	"tagwise-console/internal/service"
)

type AdminHandler struct {
	dashboard *service.DashboardService
	options   *service.OptionsService
	views     *Views
}

func NewAdminHandler(dashboard *service.DashboardService, options *service.OptionsService, views *Views) *AdminHandler {
	return &AdminHandler{dashboard: dashboard, options: options, views: views}
}

type dashboardView struct {
	Stats    model.DashboardStats
	Datasets []model.DatasetSummary
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, datasets, err := h.dashboard.Overview(r.Context())
	if err != nil {
		h.views.fail(w, r, err)
		return
	}

	if len(datasets) > 5 {
		datasets = datasets[:5]
	}

	h.views.Render(w, r, http.StatusOK, "admin_dashboard", "Dashboard", dashboardView{Stats: stats, Datasets: datasets})
}

func (h *AdminHandler) OptionsPage(w http.ResponseWriter, r *http.Request) {
	opts, err := h.options.Get(r.Context())
	if err != nil {
		h.views.fail(w, r, err)
		return
	}

	h.views.Render(w, r, http.StatusOK, "options", "Advanced options", opts)
}

// UpdateOptions reads checkboxes: an unchecked box is absent from the form.
func (h *AdminHandler) UpdateOptions(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.views.ErrorPage(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}

	opts := model.AdvancedOptions{
		AnnotatorRegistrationEnabled:  r.PostForm.Has("annotatorRegistrationEnabled"),
		AnnotatorLoginEnabled:         r.PostForm.Has("annotatorLoginEnabled"),
		AnnotatorProfileUpdateEnabled: r.PostForm.Has("annotatorProfileUpdateEnabled"),
	}

	if err := h.options.Update(r.Context(), opts); err != nil {
		h.views.failForm(w, r, err, "/admin/options")
		return
	}

	h.views.notifyAndRedirect(w, r, model.SeveritySuccess, "Options saved.", "/admin/options")
}
