// internal/api/handler_test.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	custom_errors "gitnote-backend/internal/errors"
	"gitnote-backend/internal/model"
	"gitnote-backend/internal/pipeline"
	"gitnote-backend/internal/store"
)

// MockRunner is a mock of the ReportRunner interface.
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, req pipeline.Request) (pipeline.Result, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(pipeline.Result), args.Error(1)
}

func (m *MockRunner) RunBatch(ctx context.Context, reqs []pipeline.Request) pipeline.BatchResult {
	args := m.Called(ctx, reqs)
	return args.Get(0).(pipeline.BatchResult)
}

// MockGateway is a mock of the GithubGateway interface.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) ExchangeCode(ctx context.Context, code, redirectURI string) (string, error) {
	args := m.Called(ctx, code, redirectURI)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) RevokeToken(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockGateway) GetUserInfo(ctx context.Context, token string) (*model.UserInfo, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserInfo), args.Error(1)
}

func (m *MockGateway) GetRateLimit(ctx context.Context, token string) (*model.RateLimit, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RateLimit), args.Error(1)
}

func (m *MockGateway) ListRepositories(ctx context.Context, token, username string) ([]model.Repository, error) {
	args := m.Called(ctx, token, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Repository), args.Error(1)
}

func (m *MockGateway) ListCommits(ctx context.Context, token, owner, repo string, since, until time.Time) []model.Commit {
	args := m.Called(ctx, token, owner, repo, since, until)
	return args.Get(0).([]model.Commit)
}

func (m *MockGateway) ListCommitsWithDetails(ctx context.Context, token, owner, repo string, since, until time.Time) []model.Commit {
	args := m.Called(ctx, token, owner, repo, since, until)
	return args.Get(0).([]model.Commit)
}

// MockReports is a mock of the ReportReader interface.
type MockReports struct {
	mock.Mock
}

func (m *MockReports) Save(ctx context.Context, repository, user, content, generatedAt string) error {
	return m.Called(ctx, repository, user, content, generatedAt).Error(0)
}

func (m *MockReports) GetByKey(ctx context.Context, repository, generatedAt string) (*model.Report, error) {
	args := m.Called(ctx, repository, generatedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Report), args.Error(1)
}

func (m *MockReports) ListAll(ctx context.Context) ([]model.Report, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Report), args.Error(1)
}

// MockPrefs is a mock of the PreferenceManager interface.
type MockPrefs struct {
	mock.Mock
}

func (m *MockPrefs) Upsert(ctx context.Context, userID string, update store.PreferenceUpdate) (*model.Preference, error) {
	args := m.Called(ctx, userID, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Preference), args.Error(1)
}

func (m *MockPrefs) GetByUser(ctx context.Context, userID string) (*model.Preference, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Preference), args.Error(1)
}

func (m *MockPrefs) DeleteByUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockPrefs) UpdateEmail(ctx context.Context, userID, email string, enabled bool) (*model.Preference, error) {
	args := m.Called(ctx, userID, email, enabled)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Preference), args.Error(1)
}

func (m *MockPrefs) UpdateStyle(ctx context.Context, userID, style string) (*model.Preference, error) {
	args := m.Called(ctx, userID, style)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Preference), args.Error(1)
}

func (m *MockPrefs) UpdateFrequency(ctx context.Context, userID, frequency string) (*model.Preference, error) {
	args := m.Called(ctx, userID, frequency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Preference), args.Error(1)
}

// MockArchive is a mock of the Archiver interface.
type MockArchive struct {
	mock.Mock
}

func (m *MockArchive) Upload(ctx context.Context, key, content string) error {
	return m.Called(ctx, key, content).Error(0)
}

func (m *MockArchive) List(ctx context.Context) ([]store.ArchiveObject, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.ArchiveObject), args.Error(1)
}

func (m *MockArchive) PresignGet(key string) (string, error) {
	args := m.Called(key)
	return args.String(0), args.Error(1)
}

type testRouter struct {
	router  http.Handler
	runner  *MockRunner
	gh      *MockGateway
	reports *MockReports
	prefs   *MockPrefs
	archive *MockArchive
}

func newTestRouter(t *testing.T) *testRouter {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	tr := &testRouter{
		runner:  new(MockRunner),
		gh:      new(MockGateway),
		reports: new(MockReports),
		prefs:   new(MockPrefs),
		archive: new(MockArchive),
	}
	tr.router = NewRouter(tr.runner, tr.gh, tr.reports, tr.prefs, tr.archive, time.Minute, logger)
	return tr
}

func (tr *testRouter) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	tr.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	return got
}

func authHeader() map[string]string {
	return map[string]string{"Authorization": "Bearer gho_test123"}
}

func TestHealthCheck(t *testing.T) {
	tr := newTestRouter(t)

	rec := tr.do(t, http.MethodGet, "/health", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestGenerateReport(t *testing.T) {
	reqBody := pipeline.Request{
		AccessToken: "gho_test123",
		Repository:  "acme/widgets",
		Since:       "2024-06-01",
		Until:       "2024-06-14",
		ReportStyle: "summary",
		UserID:      "octocat",
	}

	t.Run("success", func(t *testing.T) {
		tr := newTestRouter(t)
		tr.runner.On("Run", mock.Anything, reqBody).Return(pipeline.Result{
			Repository:   "acme/widgets",
			UserID:       "octocat",
			CommitsCount: 7,
			Since:        "2024-06-01",
			Until:        "2024-06-14",
			Message:      "Report generated and saved successfully",
		}, nil).Once()

		rec := tr.do(t, http.MethodPost, "/api/auto-report/generate", reqBody, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		got := decodeBody(t, rec)
		assert.Equal(t, true, got["success"])
		assert.Equal(t, "acme/widgets", got["reportId"])
		assert.Equal(t, "octocat", got["userId"])
		assert.Equal(t, float64(7), got["commitsCount"])
		tr.runner.AssertExpectations(t)
	})

	t.Run("no commits responds 200 with success false", func(t *testing.T) {
		tr := newTestRouter(t)
		tr.runner.On("Run", mock.Anything, reqBody).Return(pipeline.Result{
			Repository: "acme/widgets",
			Since:      "2024-06-01",
			Until:      "2024-06-14",
			Message:    "No commits found for the specified period",
			NoCommits:  true,
		}, nil).Once()

		rec := tr.do(t, http.MethodPost, "/api/auto-report/generate", reqBody, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		got := decodeBody(t, rec)
		assert.Equal(t, false, got["success"])
		assert.Equal(t, "No commits found for the specified period", got["message"])
	})

	t.Run("invalid repository format responds 400", func(t *testing.T) {
		tr := newTestRouter(t)
		tr.runner.On("Run", mock.Anything, mock.Anything).
			Return(pipeline.Result{}, &custom_errors.ErrInvalidRepoFormat{Repo: "ownerOnly"}).Once()

		rec := tr.do(t, http.MethodPost, "/api/auto-report/generate", reqBody, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		got := decodeBody(t, rec)
		assert.Equal(t, false, got["success"])
		assert.Equal(t, "Invalid repository format. Expected: owner/repo", got["error"])
	})

	t.Run("generation failure responds 500", func(t *testing.T) {
		tr := newTestRouter(t)
		tr.runner.On("Run", mock.Anything, mock.Anything).
			Return(pipeline.Result{}, &custom_errors.ErrGeneration{StatusCode: 503, Body: "overloaded"}).Once()

		rec := tr.do(t, http.MethodPost, "/api/auto-report/generate", reqBody, nil)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		got := decodeBody(t, rec)
		assert.Contains(t, got["error"], "Failed to generate report")
	})

	t.Run("malformed body responds 400", func(t *testing.T) {
		tr := newTestRouter(t)

		req := httptest.NewRequest(http.MethodPost, "/api/auto-report/generate", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		tr.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		tr.runner.AssertNotCalled(t, "Run")
	})
}

func TestGenerateBatchReports(t *testing.T) {
	t.Run("empty batch responds 400", func(t *testing.T) {
		tr := newTestRouter(t)

		rec := tr.do(t, http.MethodPost, "/api/auto-report/generate-batch", map[string]any{"reports": []any{}}, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "No reports to generate", decodeBody(t, rec)["error"])
		tr.runner.AssertNotCalled(t, "RunBatch")
	})

	t.Run("batch always responds 200 with counts", func(t *testing.T) {
		tr := newTestRouter(t)
		tr.runner.On("RunBatch", mock.Anything, mock.Anything).Return(pipeline.BatchResult{
			Total:        3,
			SuccessCount: 2,
			FailCount:    1,
			Errors:       "Repository acme/broken: content generation failed: status 500: boom\n",
		}).Once()

		body := map[string]any{"reports": []pipeline.Request{
			{AccessToken: "t", Repository: "acme/widgets", Since: "2024-06-01", Until: "2024-06-14", UserID: "octocat"},
			{AccessToken: "t", Repository: "acme/broken", Since: "2024-06-01", Until: "2024-06-14", UserID: "octocat"},
			{AccessToken: "t", Repository: "acme/gadgets", Since: "2024-06-01", Until: "2024-06-14", UserID: "octocat"},
		}}
		rec := tr.do(t, http.MethodPost, "/api/auto-report/generate-batch", body, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		got := decodeBody(t, rec)
		assert.Equal(t, true, got["success"])
		assert.Equal(t, float64(3), got["total"])
		assert.Equal(t, float64(2), got["successCount"])
		assert.Equal(t, float64(1), got["failCount"])
		assert.Contains(t, got["errors"], "acme/broken")
	})
}

func TestExchangeToken(t *testing.T) {
	t.Run("returns token and user profile", func(t *testing.T) {
		tr := newTestRouter(t)
		tr.gh.On("ExchangeCode", mock.Anything, "the-code", "http://localhost:3000/callback").
			Return("gho_test123", nil).Once()
		tr.gh.On("GetUserInfo", mock.Anything, "gho_test123").
			Return(&model.UserInfo{Login: "octocat", ID: 583231}, nil).Once()

		rec := tr.do(t, http.MethodPost, "/api/auth/github/token", map[string]string{
			"code":        "the-code",
			"redirectUri": "http://localhost:3000/callback",
		}, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		got := decodeBody(t, rec)
		assert.Equal(t, "gho_test123", got["accessToken"])
		user := got["user"].(map[string]any)
		assert.Equal(t, "octocat", user["login"])
	})

	t.Run("missing code responds 400", func(t *testing.T) {
		tr := newTestRouter(t)

		rec := tr.do(t, http.MethodPost, "/api/auth/github/token", map[string]string{}, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		tr.gh.AssertNotCalled(t, "ExchangeCode")
	})

	t.Run("stale code responds 401 with login hint", func(t *testing.T) {
		tr := newTestRouter(t)
		tr.gh.On("ExchangeCode", mock.Anything, "stale", "").
			Return("", &custom_errors.ErrAuthentication{Msg: "failed to exchange authorization code"}).Once()

		rec := tr.do(t, http.MethodPost, "/api/auth/github/token", map[string]string{"code": "stale"}, nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, true, decodeBody(t, rec)["needLogin"])
	})
}

func TestBearerTokenRequired(t *testing.T) {
	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/github/repositories"},
		{http.MethodGet, "/api/github/commits"},
		{http.MethodGet, "/api/github/rate-limit"},
		{http.MethodDelete, "/api/auth/github/token"},
	}

	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			tr := newTestRouter(t)

			rec := tr.do(t, p.method, p.path, nil, nil)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			got := decodeBody(t, rec)
			assert.Equal(t, true, got["needLogin"])
			assert.Equal(t, "Not authenticated. Please login first", got["error"])
		})
	}
}

func TestGetCommits(t *testing.T) {
	t.Run("lists commits in the window", func(t *testing.T) {
		tr := newTestRouter(t)
		since := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		until := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)
		tr.gh.On("ListCommits", mock.Anything, "gho_test123", "acme", "widgets", since, until).
			Return([]model.Commit{{SHA: "abc123"}}).Once()

		rec := tr.do(t, http.MethodGet,
			"/api/github/commits?owner=acme&repo=widgets&since=2024-06-01&until=2024-06-14", nil, authHeader())

		assert.Equal(t, http.StatusOK, rec.Code)
		got := decodeBody(t, rec)
		assert.Equal(t, float64(1), got["count"])
		tr.gh.AssertNotCalled(t, "ListCommitsWithDetails")
	})

	t.Run("includeDetails switches to the enriched listing", func(t *testing.T) {
		tr := newTestRouter(t)
		tr.gh.On("ListCommitsWithDetails", mock.Anything, "gho_test123", "acme", "widgets", mock.Anything, mock.Anything).
			Return([]model.Commit{{SHA: "abc123"}}).Once()

		rec := tr.do(t, http.MethodGet,
			"/api/github/commits?owner=acme&repo=widgets&since=2024-06-01&until=2024-06-14&includeDetails=true", nil, authHeader())

		assert.Equal(t, http.StatusOK, rec.Code)
		tr.gh.AssertExpectations(t)
	})

	t.Run("bad date responds 400", func(t *testing.T) {
		tr := newTestRouter(t)

		rec := tr.do(t, http.MethodGet,
			"/api/github/commits?owner=acme&repo=widgets&since=June&until=2024-06-14", nil, authHeader())

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing owner responds 400", func(t *testing.T) {
		tr := newTestRouter(t)

		rec := tr.do(t, http.MethodGet,
			"/api/github/commits?repo=widgets&since=2024-06-01&until=2024-06-14", nil, authHeader())

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetRepositories(t *testing.T) {
	t.Run("defaults to the authenticated user", func(t *testing.T) {
		tr := newTestRouter(t)
		tr.gh.On("GetUserInfo", mock.Anything, "gho_test123").
			Return(&model.UserInfo{Login: "octocat"}, nil).Once()
		tr.gh.On("ListRepositories", mock.Anything, "gho_test123", "octocat").
			Return([]model.Repository{{FullName: "octocat/widgets"}}, nil).Once()

		rec := tr.do(t, http.MethodGet, "/api/github/repositories", nil, authHeader())

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, float64(1), decodeBody(t, rec)["count"])
		tr.gh.AssertExpectations(t)
	})

	t.Run("rate limited responds 429", func(t *testing.T) {
		tr := newTestRouter(t)
		tr.gh.On("ListRepositories", mock.Anything, "gho_test123", "someone").
			Return(nil, &custom_errors.ErrRateLimit{Msg: "GitHub API rate limit exceeded, retry later"}).Once()

		rec := tr.do(t, http.MethodGet, "/api/github/repositories?username=someone", nil, authHeader())

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})
}

func TestSaveReport(t *testing.T) {
	t.Run("derives the user from the report id", func(t *testing.T) {
		tr := newTestRouter(t)
		tr.reports.On("Save", mock.Anything, "acme/widgets", "acme", "# Report", mock.Anything).
			Return(nil).Once()

		rec := tr.do(t, http.MethodPost, "/api/user/report", map[string]string{
			"userId":   "octocat",
			"reportId": "acme/widgets",
			"content":  "# Report",
		}, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		tr.reports.AssertExpectations(t)
	})

	t.Run("missing fields respond 400", func(t *testing.T) {
		tr := newTestRouter(t)

		rec := tr.do(t, http.MethodPost, "/api/user/report", map[string]string{"userId": "octocat"}, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		tr.reports.AssertNotCalled(t, "Save")
	})
}

func TestViewReport(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		tr := newTestRouter(t)
		tr.reports.On("GetByKey", mock.Anything, "acme/widgets", "2024-06-15T12:00:00").
			Return(&model.Report{Repository: "acme/widgets", GeneratedAt: "2024-06-15T12:00:00", Content: "# Report"}, nil).Once()

		rec := tr.do(t, http.MethodGet,
			"/api/user/report/view?pk=acme%2Fwidgets&sk=2024-06-15T12:00:00", nil, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing responds 404", func(t *testing.T) {
		tr := newTestRouter(t)
		tr.reports.On("GetByKey", mock.Anything, "acme/widgets", "2024-06-15T12:00:00").
			Return(nil, nil).Once()

		rec := tr.do(t, http.MethodGet,
			"/api/user/report/view?pk=acme%2Fwidgets&sk=2024-06-15T12:00:00", nil, nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestPresetEndpoints(t *testing.T) {
	t.Run("upsert passes only the provided fields", func(t *testing.T) {
		tr := newTestRouter(t)
		tr.prefs.On("Upsert", mock.Anything, "octocat", mock.MatchedBy(func(u store.PreferenceUpdate) bool {
			return u.ReportStyle != nil && *u.ReportStyle == "summary" &&
				u.Email == nil && u.AutoReportEnabled == nil
		})).Return(&model.Preference{UserID: "octocat"}, nil).Once()

		rec := tr.do(t, http.MethodPost, "/api/user/preset", map[string]any{
			"userId":      "octocat",
			"reportStyle": "summary",
		}, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		tr.prefs.AssertExpectations(t)
	})

	t.Run("upsert without userId responds 400", func(t *testing.T) {
		tr := newTestRouter(t)

		rec := tr.do(t, http.MethodPost, "/api/user/preset", map[string]any{"reportStyle": "summary"}, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		tr.prefs.AssertNotCalled(t, "Upsert")
	})

	t.Run("get missing preset responds 404", func(t *testing.T) {
		tr := newTestRouter(t)
		tr.prefs.On("GetByUser", mock.Anything, "ghost").Return(nil, nil).Once()

		rec := tr.do(t, http.MethodGet, "/api/user/preset?userId=ghost", nil, nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("email update on a missing row responds 404", func(t *testing.T) {
		tr := newTestRouter(t)
		tr.prefs.On("UpdateEmail", mock.Anything, "ghost", "a@b.com", true).
			Return(nil, &custom_errors.ErrNotFound{Resource: "user preference"}).Once()

		rec := tr.do(t, http.MethodPut, "/api/user/preset/email", map[string]any{
			"userId":  "ghost",
			"email":   "a@b.com",
			"enabled": true,
		}, nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		tr := newTestRouter(t)
		tr.prefs.On("DeleteByUser", mock.Anything, "octocat").Return(nil).Once()

		rec := tr.do(t, http.MethodDelete, "/api/user/preset?userId=octocat", nil, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		tr.prefs.AssertExpectations(t)
	})
}

func TestArchiveEndpoints(t *testing.T) {
	t.Run("upload", func(t *testing.T) {
		tr := newTestRouter(t)
		tr.archive.On("Upload", mock.Anything, "reports/acme.txt", "raw export").Return(nil).Once()

		rec := tr.do(t, http.MethodPost, "/api/s3/upload", map[string]string{
			"fileName": "reports/acme.txt",
			"content":  "raw export",
		}, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "reports/acme.txt", decodeBody(t, rec)["fileName"])
	})

	t.Run("upload without content responds 400", func(t *testing.T) {
		tr := newTestRouter(t)

		rec := tr.do(t, http.MethodPost, "/api/s3/upload", map[string]string{"fileName": "x.txt"}, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		tr.archive.AssertNotCalled(t, "Upload")
	})

	t.Run("presign", func(t *testing.T) {
		tr := newTestRouter(t)
		tr.archive.On("PresignGet", "reports/acme.txt").
			Return("https://bucket.s3.amazonaws.com/reports/acme.txt?sig=abc", nil).Once()

		rec := tr.do(t, http.MethodGet, "/api/s3/presign?fileName=reports%2Facme.txt", nil, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, decodeBody(t, rec)["url"], "sig=abc")
	})

	t.Run("list", func(t *testing.T) {
		tr := newTestRouter(t)
		tr.archive.On("List", mock.Anything).Return([]store.ArchiveObject{
			{Key: "reports/acme.txt", Size: 42},
		}, nil).Once()

		rec := tr.do(t, http.MethodGet, "/api/s3/list", nil, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, float64(1), decodeBody(t, rec)["count"])
	})
}
