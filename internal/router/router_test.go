package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tagwise-console/internal/backend"
	"tagwise-console/internal/config"
	"tagwise-console/internal/handler"
	"tagwise-console/internal/middleware"
	"tagwise-console/internal/model"
	"tagwise-console/internal/service"
	"tagwise-console/internal/session"
	"tagwise-console/internal/storage"
)

const cookieName = "tagwise_client"

type fakeBackend struct {
	role         string
	rejectTokens atomic.Bool
	lastAuth     atomic.Value

	mu       sync.Mutex
	calls    []string
	options  model.AdvancedOptions
	added    model.SignupRequest
	uploaded map[string]string
}

// inspect runs fn under the backend lock.
func (f *fakeBackend) inspect(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn()
}

func (f *fakeBackend) called(call string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Contains(f.calls, call)
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api/auth/login" {
		var req model.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "correct-horse" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
			return
		}
		raw, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":       req.Email,
			"userId":    float64(42),
			"firstName": "Ada",
			"lastName":  "Lovelace",
			"gender":    "FEMALE",
			"role":      f.role,
			"exp":       time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte("backend-secret"))
		_ = json.NewEncoder(w).Encode(map[string]any{"token": raw, "expiresIn": 3600000})
		return
	}

	f.lastAuth.Store(r.Header.Get("Authorization"))
	if f.rejectTokens.Load() {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/api/admin/advanced-options":
		if r.Method == http.MethodPut {
			_ = json.NewDecoder(r.Body).Decode(&f.options)
			return
		}
		_ = json.NewEncoder(w).Encode(f.options)
	case "/api/admin/annotators/add":
		_ = json.NewDecoder(r.Body).Decode(&f.added)
		_ = json.NewEncoder(w).Encode(model.Annotator{
			ID:        9,
			FirstName: f.added.FirstName,
			LastName:  f.added.LastName,
			Email:     f.added.Email,
			Gender:    f.added.Gender,
			Enabled:   true,
		})
	case "/api/admin/annotators/users/validate/9":
	case "/api/admin/datasets/upload":
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		content, _ := io.ReadAll(file)
		_ = file.Close()
		f.uploaded = map[string]string{
			"name":        r.FormValue("name"),
			"classes":     r.FormValue("classes"),
			"description": r.FormValue("description"),
			"filename":    header.Filename,
			"content":     string(content),
		}
		_, _ = w.Write([]byte(`{"id":12,"name":"Reviews"}`))
	case "/api/admin/datasets/list":
		_, _ = w.Write([]byte(`[{"id":7,"name":"Sentiment batch","classes":"pos;neg","completionPercentage":50}]`))
	case "/api/admin/annotators":
		_, _ = w.Write([]byte(`[]`))
	case "/api/tasks/count":
		_, _ = w.Write([]byte(`10`))
	case "/api/tasks/completed/count":
		_, _ = w.Write([]byte(`5`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type console struct {
	server  *httptest.Server
	client  *http.Client
	store   *storage.MemoryStore
	backend *fakeBackend
}

func newConsole(t *testing.T, role string) *console {
	t.Helper()

	fake := &fakeBackend{role: role}
	backendServer := httptest.NewServer(fake)
	t.Cleanup(backendServer.Close)

	cfg := &config.Config{
		RequestTimeout:   5 * time.Second,
		RateLimitRPM:     -1,
		AuthRateLimitRPM: 100,
		CORSOrigins:      []string{"*"},
		MaxUploadSize:    1 << 20,
	}

	store := storage.NewMemoryStore()
	client := backend.NewClient(backendServer.URL, "", time.Second)
	manager := session.NewManager(store, client)
	client.SetTokenSource(session.TokenFromContext)
	client.OnUnauthorized(manager.HandleUnauthorized)

	views, err := handler.NewViews(manager)
	require.NoError(t, err)

	annotators := service.NewAnnotatorService(client)
	h := Handlers{
		Session:   handler.NewSessionHandler(manager, views, nil),
		Auth:      handler.NewAuthHandler(manager, views),
		Admin:     handler.NewAdminHandler(service.NewDashboardService(client), service.NewOptionsService(client), views),
		Dataset:   handler.NewDatasetHandler(service.NewDatasetService(client, nil, cfg.MaxUploadSize), annotators, views),
		Annotator: handler.NewAnnotatorHandler(annotators, views),
		Task:      handler.NewTaskHandler(service.NewTaskService(client, nil), views),
	}

	srv := httptest.NewServer(New(cfg, middleware.NewSessionMiddleware(manager, cookieName, false, time.Hour), h))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &console{
		server: srv,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		store:   store,
		backend: fake,
	}
}

func (c *console) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := c.client.Get(c.server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func (c *console) login(t *testing.T, password string, from string) *http.Response {
	t.Helper()
	form := url.Values{"email": {"ada@example.com"}, "password": {password}}
	if from != "" {
		form.Set("from", from)
	}
	resp, err := c.client.PostForm(c.server.URL+"/login", form)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp
}

func (c *console) post(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	resp, err := c.client.PostForm(c.server.URL+path, form)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp
}

func (c *console) upload(t *testing.T, fields url.Values, fileName string, content []byte) (*http.Response, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key := range fields {
		require.NoError(t, writer.WriteField(key, fields.Get(key)))
	}
	part, err := writer.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	resp, err := c.client.Post(c.server.URL+"/admin/datasets/new", writer.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func (c *console) clientID(t *testing.T) string {
	t.Helper()
	u, err := url.Parse(c.server.URL)
	require.NoError(t, err)
	for _, cookie := range c.client.Jar.Cookies(u) {
		if cookie.Name == cookieName {
			return cookie.Value
		}
	}
	t.Fatal("client cookie not issued")
	return ""
}

func TestUnauthenticatedVisitorIsSentToLogin(t *testing.T) {
	c := newConsole(t, "ROLE_ADMIN")

	resp, _ := c.get(t, "/admin/datasets?page=2")

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login?from="+url.QueryEscape("/admin/datasets?page=2"), resp.Header.Get("Location"))
	assert.NotEmpty(t, c.clientID(t))
}

func TestAdminLoginRendersDashboard(t *testing.T) {
	c := newConsole(t, "ROLE_ADMIN")

	resp := c.login(t, "correct-horse", "")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin", resp.Header.Get("Location"))

	resp, body := c.get(t, "/admin")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Sentiment batch")
	assert.Contains(t, body, "Ada Lovelace")
	assert.True(t, strings.HasPrefix(c.backend.lastAuth.Load().(string), "Bearer "))

	token, ok, err := storage.NewTokenStore(c.store, c.clientID(t)).Get(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Bearer "+token, c.backend.lastAuth.Load())
}

func TestLoginReturnsToRequestedPage(t *testing.T) {
	c := newConsole(t, "ROLE_ADMIN")

	resp := c.login(t, "correct-horse", "/admin/datasets")
	assert.Equal(t, "/admin/datasets", resp.Header.Get("Location"))
}

func TestLoginIgnoresOffSiteReturnPath(t *testing.T) {
	c := newConsole(t, "ROLE_ADMIN")

	for _, from := range []string{"/\t/evil.example", "//evil.example", "https://evil.example/admin"} {
		resp := c.login(t, "correct-horse", from)
		assert.Equal(t, "/admin", resp.Header.Get("Location"), "from %q", from)
	}
}

func TestFailedLoginStaysOnForm(t *testing.T) {
	c := newConsole(t, "ROLE_ADMIN")

	form := url.Values{"email": {"ada@example.com"}, "password": {"wrong"}}
	resp, err := c.client.PostForm(c.server.URL+"/login", form)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, string(body), "Bad credentials")
}

func TestAnnotatorCannotOpenAdminPages(t *testing.T) {
	c := newConsole(t, "ROLE_USER")

	resp := c.login(t, "correct-horse", "")
	assert.Equal(t, "/annotator", resp.Header.Get("Location"))

	resp, _ = c.get(t, "/admin/datasets")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/unauthorized", resp.Header.Get("Location"))

	resp, _ = c.get(t, "/unauthorized")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestBackendRejectionEndsSession(t *testing.T) {
	c := newConsole(t, "ROLE_ADMIN")
	c.login(t, "correct-horse", "")

	c.backend.rejectTokens.Store(true)
	resp, _ := c.get(t, "/admin")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login?from=%2Fadmin", resp.Header.Get("Location"))

	_, ok, err := storage.NewTokenStore(c.store, c.clientID(t)).Get(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	c.backend.rejectTokens.Store(false)
	resp, _ = c.get(t, "/admin")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestLogoutClearsSession(t *testing.T) {
	c := newConsole(t, "ROLE_ADMIN")
	c.login(t, "correct-horse", "")

	resp, err := c.client.PostForm(c.server.URL+"/logout", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp, _ = c.get(t, "/annotator")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "/login")
}

func TestSessionSnapshot(t *testing.T) {
	c := newConsole(t, "ROLE_ADMIN")
	c.login(t, "correct-horse", "")

	resp, body := c.get(t, "/api/v1/session")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Data model.SessionSnapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	assert.True(t, payload.Data.IsAuthenticated)
	assert.Equal(t, model.RoleAdmin, payload.Data.UserRole)
	require.NotNil(t, payload.Data.User)
	assert.Equal(t, "42", payload.Data.User.UserID)
	assert.True(t, payload.Data.SidebarOpen)
}

func TestAdvancedOptions(t *testing.T) {
	c := newConsole(t, "ROLE_ADMIN")
	c.login(t, "correct-horse", "")
	c.backend.inspect(func() { c.backend.options = model.AdvancedOptions{AnnotatorLoginEnabled: true} })

	resp, body := c.get(t, "/admin/options")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `name="annotatorLoginEnabled" checked`)
	assert.NotContains(t, body, `name="annotatorRegistrationEnabled" checked`)

	resp = c.post(t, "/admin/options", url.Values{
		"annotatorRegistrationEnabled":  {"on"},
		"annotatorProfileUpdateEnabled": {"on"},
	})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/options", resp.Header.Get("Location"))
	assert.True(t, c.backend.called("PUT /api/admin/advanced-options"))
	c.backend.inspect(func() {
		assert.Equal(t, model.AdvancedOptions{
			AnnotatorRegistrationEnabled:  true,
			AnnotatorProfileUpdateEnabled: true,
		}, c.backend.options)
	})

	_, body = c.get(t, "/admin/options")
	assert.Contains(t, body, "Options saved.")
	assert.Contains(t, body, `name="annotatorRegistrationEnabled" checked`)
	assert.NotContains(t, body, `name="annotatorLoginEnabled" checked`)
}

func TestAddAnnotator(t *testing.T) {
	c := newConsole(t, "ROLE_ADMIN")
	c.login(t, "correct-horse", "")

	resp := c.post(t, "/admin/annotators", url.Values{
		"email":     {"  grace@example.com "},
		"firstName": {" Grace "},
		"lastName":  {"Hopper"},
		"gender":    {"female"},
		"password":  {"cobol-1959"},
	})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/annotators", resp.Header.Get("Location"))
	c.backend.inspect(func() {
		assert.Equal(t, model.SignupRequest{
			Email:     "grace@example.com",
			FirstName: "Grace",
			LastName:  "Hopper",
			Gender:    model.GenderFemale,
			Password:  "cobol-1959",
		}, c.backend.added)
	})

	_, body := c.get(t, "/admin/annotators")
	assert.Contains(t, body, "Annotator Grace Hopper added.")
}

func TestAddAnnotatorRejectsShortPassword(t *testing.T) {
	c := newConsole(t, "ROLE_ADMIN")
	c.login(t, "correct-horse", "")

	resp := c.post(t, "/admin/annotators", url.Values{
		"email":     {"grace@example.com"},
		"firstName": {"Grace"},
		"lastName":  {"Hopper"},
		"gender":    {"FEMALE"},
		"password":  {"short"},
	})
	assert.Equal(t, "/admin/annotators", resp.Header.Get("Location"))
	assert.False(t, c.backend.called("POST /api/admin/annotators/add"))

	_, body := c.get(t, "/admin/annotators")
	assert.Contains(t, body, "at least 8 characters")
}

func TestValidateAnnotator(t *testing.T) {
	c := newConsole(t, "ROLE_ADMIN")
	c.login(t, "correct-horse", "")

	resp := c.post(t, "/admin/annotators/9/validate", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/annotators", resp.Header.Get("Location"))
	assert.True(t, c.backend.called("POST /api/admin/annotators/users/validate/9"))

	_, body := c.get(t, "/admin/annotators")
	assert.Contains(t, body, "Annotator account validated.")
}

func TestUploadDataset(t *testing.T) {
	c := newConsole(t, "ROLE_ADMIN")
	c.login(t, "correct-horse", "")

	resp, _ := c.upload(t, url.Values{
		"name":        {"Reviews"},
		"classes":     {"pos; neg;pos"},
		"description": {"Product reviews"},
	}, "reviews.csv", []byte("text\ngreat product\nbroke in a day\n"))

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/datasets/12", resp.Header.Get("Location"))
	c.backend.inspect(func() {
		assert.Equal(t, map[string]string{
			"name":        "Reviews",
			"classes":     "pos;neg",
			"description": "Product reviews",
			"filename":    "reviews.csv",
			"content":     "text\ngreat product\nbroke in a day\n",
		}, c.backend.uploaded)
	})
}

func TestUploadDatasetRejectsBinaryFile(t *testing.T) {
	c := newConsole(t, "ROLE_ADMIN")
	c.login(t, "correct-horse", "")

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
	resp, body := c.upload(t, url.Values{"name": {"Reviews"}, "classes": {"pos;neg"}}, "reviews.csv", png)

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "does not look like CSV text")
	assert.Contains(t, body, `value="Reviews"`)
	assert.False(t, c.backend.called("POST /api/admin/datasets/upload"))
}

func TestHealth(t *testing.T) {
	c := newConsole(t, "ROLE_ADMIN")

	resp, body := c.get(t, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"status":"ok"`)
}
