package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tagwise-console/internal/model"
	"tagwise-console/pkg/apierror"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, "/api/auth", 5*time.Second)
	client.SetTokenSource(func(context.Context) string { return "tok-123" })
	return client
}

func TestLogin(t *testing.T) {
	t.Run("posts credentials and returns the token", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/auth/login", r.URL.Path)
			assert.Empty(t, r.Header.Get("Authorization"))

			var req model.LoginRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "a@b.com", req.Email)
			assert.Equal(t, "secret", req.Password)

			_, _ = w.Write([]byte(`{"token":"jwt-value","expiresIn":3600000}`))
		})

		resp, err := client.Login(context.Background(), model.LoginRequest{Email: "a@b.com", Password: "secret"})
		require.NoError(t, err)
		assert.Equal(t, "jwt-value", resp.Token)
	})

	t.Run("bad credentials surface the backend message without the 401 hook", func(t *testing.T) {
		var hooked atomic.Bool
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
		})
		client.OnUnauthorized(func(context.Context) { hooked.Store(true) })

		_, err := client.Login(context.Background(), model.LoginRequest{Email: "a@b.com", Password: "x"})
		require.Error(t, err)
		assert.NotErrorIs(t, err, model.ErrUnauthorized)
		assert.Equal(t, "Bad credentials", apierror.UserMessage(err, ""))
		assert.False(t, hooked.Load())
	})
}

func TestOpaqueAuthResponses(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "json message", body: `{"message":"Code sent"}`, want: "Code sent"},
		{name: "json string", body: `"Verified"`, want: "Verified"},
		{name: "plain text", body: `User registered successfully`, want: "User registered successfully"},
		{name: "empty", body: ``, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/auth/resend-code", r.URL.Path)
				_, _ = w.Write([]byte(tt.body))
			})

			resp, err := client.ResendCode(context.Background(), model.ResendCodeRequest{Email: "a@b.com"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.Message)
		})
	}
}

func TestVerifyEmail_Failure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/verify-email", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`Invalid verification code`))
	})

	_, err := client.VerifyEmail(context.Background(), model.VerifyEmailRequest{Email: "a@b.com", Code: "000000"})
	require.Error(t, err)
	assert.Equal(t, "Invalid verification code", apierror.UserMessage(err, ""))
}

func TestAuthenticatedCalls_UnauthorizedContract(t *testing.T) {
	var hookCalls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
	})
	client.OnUnauthorized(func(context.Context) { hookCalls.Add(1) })

	calls := map[string]func() error{
		"datasets": func() error { _, err := client.ListDatasets(context.Background()); return err },
		"details":  func() error { _, err := client.DatasetDetails(context.Background(), 1); return err },
		"tasks":    func() error { _, err := client.TasksForAnnotator(context.Background(), "7"); return err },
		"options":  func() error { _, err := client.AdvancedOptions(context.Background()); return err },
		"validate": func() error { return client.ValidateAnnotator(context.Background(), 3) },
	}

	for name, call := range calls {
		err := call()
		assert.ErrorIs(t, err, model.ErrUnauthorized, name)
	}
	assert.Equal(t, int32(len(calls)), hookCalls.Load())
}

type hookKey struct{}

func TestUnauthorizedHookOutlivesCancelledRequest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), hookKey{}, "client-1"))
	defer cancel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"expired"}`))
	})

	var hookCtx context.Context
	client.OnUnauthorized(func(ctx context.Context) {
		// A sibling call failing first cancels the shared context.
		cancel()
		hookCtx = ctx
	})

	_, err := client.ListDatasets(ctx)
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	require.NotNil(t, hookCtx)
	assert.Error(t, ctx.Err())
	assert.NoError(t, hookCtx.Err())
	assert.Equal(t, "client-1", hookCtx.Value(hookKey{}))
}

func TestAuthenticatedCalls_Forbidden(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := client.ListAnnotators(context.Background())
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestUploadDataset(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/admin/datasets/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Paraphrases", r.FormValue("name"))
		assert.Equal(t, "yes;no", r.FormValue("classes"))
		assert.Equal(t, "first batch", r.FormValue("description"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		content, _ := io.ReadAll(file)
		assert.Equal(t, "pairs.csv", header.Filename)
		assert.Equal(t, "text1,text2\na,b\n", string(content))

		_, _ = w.Write([]byte(`{"id":42,"name":"Paraphrases"}`))
	})

	created, err := client.UploadDataset(context.Background(), model.DatasetUpload{
		Name:        "Paraphrases",
		Classes:     "yes;no",
		Description: "first batch",
		FileName:    "pairs.csv",
		Content:     strings.NewReader("text1,text2\na,b\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), created.ID)
}

func TestAssignAndRemoveAnnotators(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/admin/datasets/5/assign-users":
			var ids []int64
			require.NoError(t, json.NewDecoder(r.Body).Decode(&ids))
			assert.Equal(t, []int64{1, 2, 3}, ids)
			_, _ = w.Write([]byte(`{"id":5}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/api/admin/annotators/remove/5/2":
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	require.NoError(t, client.AssignAnnotators(context.Background(), 5, []int64{1, 2, 3}))
	require.NoError(t, client.RemoveAnnotator(context.Background(), 5, 2))
}

func TestTasks(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tasks/count":
			_, _ = w.Write([]byte(`12`))
		case "/api/tasks/completed/count":
			_, _ = w.Write([]byte(`4`))
		case "/api/tasks/9/annotate":
			assert.Equal(t, "7", r.URL.Query().Get("annotatorId"))
			assert.Equal(t, "entailment", r.URL.Query().Get("annotation"))
			_, _ = w.Write([]byte(`{"id":9,"annotation":"entailment","completed":true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Task not found"}`))
		}
	})

	total, err := client.TaskCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)

	done, err := client.CompletedTaskCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), done)

	task, err := client.Annotate(context.Background(), 9, "7", "entailment")
	require.NoError(t, err)
	assert.True(t, task.Completed)

	_, err = client.Task(context.Background(), 100)
	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.HTTPStatus)
	assert.Equal(t, "Task not found", apiErr.Message)
}

func TestBackendUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	client := NewClient(srv.URL, "", time.Second)
	_, err := client.Login(context.Background(), model.LoginRequest{Email: "a@b.com", Password: "x"})

	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "BACKEND_UNAVAILABLE", apiErr.Code)
}
