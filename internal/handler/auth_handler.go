package handler

import (
	"net/http"
	"net/url"
	"strings"

	"tagwise-console/internal/model"
	"tagwise-console/internal/service"
	"tagwise-console/internal/session"
)

type AuthHandler struct {
	manager *session.Manager
	views   *Views
}

func NewAuthHandler(manager *session.Manager, views *Views) *AuthHandler {
	return &AuthHandler{manager: manager, views: views}
}

type loginForm struct {
	Email string
	From  string
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	state := session.StateFromContext(r.Context())
	if state != nil && state.IsAuthenticated() {
		http.Redirect(w, r, homeFor(state), http.StatusSeeOther)
		return
	}

	h.views.Render(w, r, http.StatusOK, "login", "Log in", loginForm{
		Email: r.URL.Query().Get("email"),
		From:  safeReturnPath(r.URL.Query().Get("from"), ""),
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.views.ErrorPage(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}

	form := loginForm{
		Email: strings.TrimSpace(r.PostForm.Get("email")),
		From:  safeReturnPath(r.PostForm.Get("from"), ""),
	}
	password := r.PostForm.Get("password")

	if form.Email == "" || password == "" {
		h.views.notifyAndRedirect(w, r, model.SeverityError, "Email and password are required.", loginURL(form))
		return
	}

	state, err := h.manager.Login(r.Context(), clientID(r), form.Email, password)
	if err != nil {
		// The manager already recorded the notification.
		h.views.Render(w, r, http.StatusUnprocessableEntity, "login", "Log in", form)
		return
	}

	if current := session.StateFromContext(r.Context()); current != nil {
		*current = state
	}

	http.Redirect(w, r, safeReturnPath(form.From, homeFor(&state)), http.StatusSeeOther)
}

func loginURL(form loginForm) string {
	query := url.Values{}
	if form.Email != "" {
		query.Set("email", form.Email)
	}
	if form.From != "" {
		query.Set("from", form.From)
	}
	if len(query) == 0 {
		return "/login"
	}
	return "/login?" + query.Encode()
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.manager.Logout(r.Context(), clientID(r))
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

type signupForm struct {
	Email     string
	FirstName string
	LastName  string
	Gender    string
}

func (h *AuthHandler) SignupPage(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, r, http.StatusOK, "signup", "Create an account", signupForm{})
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.views.ErrorPage(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}

	req := model.SignupRequest{
		Email:     r.PostForm.Get("email"),
		FirstName: r.PostForm.Get("firstName"),
		LastName:  r.PostForm.Get("lastName"),
		Gender:    model.Gender(r.PostForm.Get("gender")),
		Password:  r.PostForm.Get("password"),
	}
	form := signupForm{Email: req.Email, FirstName: req.FirstName, LastName: req.LastName, Gender: string(req.Gender)}

	if r.PostForm.Get("password") != r.PostForm.Get("confirmPassword") {
		h.renderSignupError(w, r, form, "The passwords do not match.")
		return
	}

	normalized, err := service.NormalizeSignup(req)
	if err != nil {
		_, body := classify(err)
		h.renderSignupError(w, r, form, body.Message)
		return
	}

	if err := h.manager.Signup(r.Context(), clientID(r), normalized); err != nil {
		h.views.Render(w, r, http.StatusOK, "signup", "Create an account", form)
		return
	}

	http.Redirect(w, r, "/verify?email="+url.QueryEscape(normalized.Email), http.StatusSeeOther)
}

func (h *AuthHandler) renderSignupError(w http.ResponseWriter, r *http.Request, form signupForm, message string) {
	_ = h.manager.SetNotification(r.Context(), clientID(r), model.Notification{Message: message, Severity: model.SeverityError})
	h.views.Render(w, r, http.StatusUnprocessableEntity, "signup", "Create an account", form)
}

type verifyForm struct {
	Email string
}

func (h *AuthHandler) VerifyPage(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, r, http.StatusOK, "verify", "Verify your email", verifyForm{Email: r.URL.Query().Get("email")})
}

func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.views.ErrorPage(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}

	email := strings.TrimSpace(r.PostForm.Get("email"))
	code := strings.TrimSpace(r.PostForm.Get("code"))
	if email == "" || code == "" {
		h.views.notifyAndRedirect(w, r, model.SeverityError, "Email and verification code are required.",
			"/verify?email="+url.QueryEscape(email))
		return
	}

	if err := h.manager.VerifyEmail(r.Context(), clientID(r), email, code); err != nil {
		http.Redirect(w, r, "/verify?email="+url.QueryEscape(email), http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/login?email="+url.QueryEscape(email), http.StatusSeeOther)
}

func (h *AuthHandler) ResendCode(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.views.ErrorPage(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}

	email := strings.TrimSpace(r.PostForm.Get("email"))
	if email == "" {
		h.views.notifyAndRedirect(w, r, model.SeverityError, "Enter the email you signed up with.", "/verify")
		return
	}

	// Failures are reported through the notification either way.
	_ = h.manager.ResendVerificationCode(r.Context(), clientID(r), email)
	http.Redirect(w, r, "/verify?email="+url.QueryEscape(email), http.StatusSeeOther)
}
