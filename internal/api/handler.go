// internal/api/handler.go
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	custom_errors "gitnote-backend/internal/errors"
	"gitnote-backend/internal/model"
	"gitnote-backend/internal/pipeline"
	"gitnote-backend/internal/store"
)

// ReportRunner runs the report pipeline for one request or a batch.
type ReportRunner interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
	RunBatch(ctx context.Context, reqs []pipeline.Request) pipeline.BatchResult
}

// GithubGateway is the subset of the GitHub client the handlers need.
type GithubGateway interface {
	ExchangeCode(ctx context.Context, code, redirectURI string) (string, error)
	RevokeToken(ctx context.Context, token string) error
	GetUserInfo(ctx context.Context, token string) (*model.UserInfo, error)
	GetRateLimit(ctx context.Context, token string) (*model.RateLimit, error)
	ListRepositories(ctx context.Context, token, username string) ([]model.Repository, error)
	ListCommits(ctx context.Context, token, owner, repo string, since, until time.Time) []model.Commit
	ListCommitsWithDetails(ctx context.Context, token, owner, repo string, since, until time.Time) []model.Commit
}

// ReportReader reads and writes persisted reports outside the pipeline.
type ReportReader interface {
	Save(ctx context.Context, repository, user, content, generatedAt string) error
	GetByKey(ctx context.Context, repository, generatedAt string) (*model.Report, error)
	ListAll(ctx context.Context) ([]model.Report, error)
}

// PreferenceManager is the preference store surface used by the handlers.
type PreferenceManager interface {
	Upsert(ctx context.Context, userID string, update store.PreferenceUpdate) (*model.Preference, error)
	GetByUser(ctx context.Context, userID string) (*model.Preference, error)
	DeleteByUser(ctx context.Context, userID string) error
	UpdateEmail(ctx context.Context, userID, email string, enabled bool) (*model.Preference, error)
	UpdateStyle(ctx context.Context, userID, style string) (*model.Preference, error)
	UpdateFrequency(ctx context.Context, userID, frequency string) (*model.Preference, error)
}

// Archiver stores raw commit-log exports as objects.
type Archiver interface {
	Upload(ctx context.Context, key, content string) error
	List(ctx context.Context) ([]store.ArchiveObject, error)
	PresignGet(key string) (string, error)
}

// Handler is the container for API dependencies.
type Handler struct {
	pipeline ReportRunner
	gh       GithubGateway
	reports  ReportReader
	prefs    PreferenceManager
	archive  Archiver
	logger   *slog.Logger
}

// NewRouter creates and configures a new chi router with all API routes.
func NewRouter(p ReportRunner, gh GithubGateway, reports ReportReader, prefs PreferenceManager, archive Archiver, requestTimeout time.Duration, logger *slog.Logger) http.Handler {
	h := &Handler{
		pipeline: p,
		gh:       gh,
		reports:  reports,
		prefs:    prefs,
		archive:  archive,
		logger:   logger,
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", h.healthCheck)
	r.Route("/api", func(r chi.Router) {
		r.Route("/auto-report", func(r chi.Router) {
			r.Post("/generate", h.generateReport)
			r.Post("/generate-batch", h.generateBatchReports)
		})
		r.Route("/auth/github", func(r chi.Router) {
			r.Post("/token", h.exchangeToken)
			r.Delete("/token", h.revokeToken)
		})
		r.Route("/github", func(r chi.Router) {
			r.Get("/repositories", h.getRepositories)
			r.Get("/commits", h.getCommits)
			r.Get("/rate-limit", h.getRateLimit)
		})
		r.Route("/user", func(r chi.Router) {
			r.Post("/report", h.saveReport)
			r.Get("/report/list", h.listReports)
			r.Get("/report/view", h.viewReport)
			r.Post("/preset", h.upsertPreset)
			r.Get("/preset", h.getPreset)
			r.Delete("/preset", h.deletePreset)
			r.Put("/preset/email", h.updatePresetEmail)
			r.Put("/preset/report-style", h.updatePresetStyle)
			r.Put("/preset/report-frequency", h.updatePresetFrequency)
		})
		r.Route("/s3", func(r chi.Router) {
			r.Post("/upload", h.uploadArchive)
			r.Get("/list", h.listArchive)
			r.Get("/presign", h.presignArchive)
		})
	})

	return r
}

// healthCheck is a simple health endpoint.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// generateReport runs the full report pipeline for one request.
// POST /api/auto-report/generate
func (h *Handler) generateReport(w http.ResponseWriter, r *http.Request) {
	var req pipeline.Request
	if !decodeJSONBody(w, r, &req) {
		return
	}

	res, err := h.pipeline.Run(r.Context(), req)
	if err != nil {
		h.respondPipelineError(w, err)
		return
	}

	if res.NoCommits {
		respondWithJSON(w, http.StatusOK, map[string]any{
			"success":    false,
			"message":    res.Message,
			"repository": res.Repository,
			"period":     map[string]string{"since": res.Since, "until": res.Until},
		})
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"reportId":     res.Repository,
		"userId":       res.UserID,
		"commitsCount": res.CommitsCount,
		"period":       map[string]string{"since": res.Since, "until": res.Until},
		"message":      res.Message,
	})
}

// generateBatchReports runs the pipeline for every item in the batch. The
// batch itself always responds 200; only its items can fail.
// POST /api/auto-report/generate-batch
func (h *Handler) generateBatchReports(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reports []pipeline.Request `json:"reports"`
	}
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if len(req.Reports) == 0 {
		respondWithJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "No reports to generate",
		})
		return
	}

	res := h.pipeline.RunBatch(r.Context(), req.Reports)
	respondWithJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"total":        res.Total,
		"successCount": res.SuccessCount,
		"failCount":    res.FailCount,
		"errors":       res.Errors,
	})
}

// respondPipelineError maps a pipeline hard failure onto the wire format.
func (h *Handler) respondPipelineError(w http.ResponseWriter, err error) {
	var invalidRepo *custom_errors.ErrInvalidRepoFormat
	if errors.As(err, &invalidRepo) {
		respondWithJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "Invalid repository format. Expected: owner/repo",
		})
		return
	}
	var validation *custom_errors.ErrValidation
	if errors.As(err, &validation) {
		respondWithJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   validation.Msg,
		})
		return
	}

	h.logger.Error("Report generation failed", "error", err)
	respondWithJSON(w, http.StatusInternalServerError, map[string]any{
		"success": false,
		"error":   "Failed to generate report: " + err.Error(),
	})
}

// exchangeToken trades an OAuth authorization code for an access token and
// returns it with the authenticated user's profile.
// POST /api/auth/github/token
func (h *Handler) exchangeToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code        string `json:"code"`
		RedirectURI string `json:"redirectUri"`
	}
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Code == "" {
		respondWithError(w, http.StatusBadRequest, "Missing required parameter: code")
		return
	}

	token, err := h.gh.ExchangeCode(r.Context(), req.Code, req.RedirectURI)
	if err != nil {
		h.respondTypedError(w, err)
		return
	}

	user, err := h.gh.GetUserInfo(r.Context(), token)
	if err != nil {
		h.respondTypedError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"accessToken": token,
		"user":        user,
	})
}

// revokeToken invalidates the caller's access token.
// DELETE /api/auth/github/token
func (h *Handler) revokeToken(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(w, r)
	if !ok {
		return
	}

	if err := h.gh.RevokeToken(r.Context(), token); err != nil {
		h.logger.Error("Failed to revoke token", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to revoke token")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Token revoked"})
}

// getRepositories lists the authenticated user's repositories.
// GET /api/github/repositories?username=NAME
func (h *Handler) getRepositories(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(w, r)
	if !ok {
		return
	}

	username := r.URL.Query().Get("username")
	if username == "" {
		user, err := h.gh.GetUserInfo(r.Context(), token)
		if err != nil {
			h.respondTypedError(w, err)
			return
		}
		username = user.Login
	}

	repos, err := h.gh.ListRepositories(r.Context(), token, username)
	if err != nil {
		h.respondTypedError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"repositories": repos,
		"count":        len(repos),
	})
}

// getCommits lists commits for a repository in a date window, optionally
// enriched with per-file change details.
// GET /api/github/commits?owner&repo&since&until&includeDetails
func (h *Handler) getCommits(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	owner, repo := q.Get("owner"), q.Get("repo")
	if owner == "" || repo == "" {
		respondWithError(w, http.StatusBadRequest, "Missing required parameters: owner, repo")
		return
	}

	since, err := time.Parse("2006-01-02", q.Get("since"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid 'since' parameter. Expected YYYY-MM-DD.")
		return
	}
	until, err := time.Parse("2006-01-02", q.Get("until"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid 'until' parameter. Expected YYYY-MM-DD.")
		return
	}

	var commits []model.Commit
	if q.Get("includeDetails") == "true" {
		commits = h.gh.ListCommitsWithDetails(r.Context(), token, owner, repo, since, until)
	} else {
		commits = h.gh.ListCommits(r.Context(), token, owner, repo, since, until)
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"commits": commits,
		"count":   len(commits),
	})
}

// getRateLimit reports the caller's GitHub API quota.
// GET /api/github/rate-limit
func (h *Handler) getRateLimit(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(w, r)
	if !ok {
		return
	}

	limit, err := h.gh.GetRateLimit(r.Context(), token)
	if err != nil {
		h.respondTypedError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, limit)
}

// saveReport persists a report row directly.
// POST /api/user/report
func (h *Handler) saveReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string `json:"userId"`
		ReportID string `json:"reportId"`
		Content  string `json:"content"`
	}
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.UserID == "" || req.ReportID == "" || req.Content == "" {
		respondWithError(w, http.StatusBadRequest, "Missing required parameters: userId, reportId, content")
		return
	}

	user := req.ReportID
	if idx := strings.Index(req.ReportID, "/"); idx > 0 {
		user = req.ReportID[:idx]
	}

	generatedAt := time.Now().Format("2006-01-02T15:04:05")
	if err := h.reports.Save(r.Context(), req.ReportID, user, req.Content, generatedAt); err != nil {
		h.logger.Error("Failed to save report", "report_id", req.ReportID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to save report")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Report saved"})
}

// listReports returns every stored report.
// GET /api/user/report/list
func (h *Handler) listReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.reports.ListAll(r.Context())
	if err != nil {
		h.logger.Error("Failed to list reports", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to list reports")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"reports": reports,
		"count":   len(reports),
	})
}

// viewReport fetches one report by its exact composite key.
// GET /api/user/report/view?pk=REPO&sk=TIMESTAMP
func (h *Handler) viewReport(w http.ResponseWriter, r *http.Request) {
	pk, sk := r.URL.Query().Get("pk"), r.URL.Query().Get("sk")
	if pk == "" || sk == "" {
		respondWithError(w, http.StatusBadRequest, "Missing required parameters: pk, sk")
		return
	}

	report, err := h.reports.GetByKey(r.Context(), pk, sk)
	if err != nil {
		h.logger.Error("Failed to get report", "pk", pk, "sk", sk, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to get report")
		return
	}
	if report == nil {
		respondWithError(w, http.StatusNotFound, "Report not found")
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}

// presetRequest is the upsert body. Optional fields use pointers so an absent
// field can be told apart from an explicit empty value.
type presetRequest struct {
	UserID                   string  `json:"userId"`
	AutoReportEnabled        *bool   `json:"autoReportEnabled"`
	Email                    *string `json:"email"`
	EmailNotificationEnabled *bool   `json:"emailNotificationEnabled"`
	ReportStyle              *string `json:"reportStyle"`
	ReportFrequency          *string `json:"reportFrequency"`
	Repository               *string `json:"repository"`
}

// upsertPreset creates or merges the user's preference row.
// POST /api/user/preset
func (h *Handler) upsertPreset(w http.ResponseWriter, r *http.Request) {
	var req presetRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.UserID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing required parameter: userId")
		return
	}

	pref, err := h.prefs.Upsert(r.Context(), req.UserID, store.PreferenceUpdate{
		AutoReportEnabled:        req.AutoReportEnabled,
		Email:                    req.Email,
		EmailNotificationEnabled: req.EmailNotificationEnabled,
		ReportStyle:              req.ReportStyle,
		ReportFrequency:          req.ReportFrequency,
		Repository:               req.Repository,
	})
	if err != nil {
		h.respondTypedError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, pref)
}

// getPreset fetches the user's preference row.
// GET /api/user/preset?userId=ID
func (h *Handler) getPreset(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing required parameter: userId")
		return
	}

	pref, err := h.prefs.GetByUser(r.Context(), userID)
	if err != nil {
		h.respondTypedError(w, err)
		return
	}
	if pref == nil {
		respondWithError(w, http.StatusNotFound, "User preference not found")
		return
	}
	respondWithJSON(w, http.StatusOK, pref)
}

// deletePreset removes the user's preference row.
// DELETE /api/user/preset?userId=ID
func (h *Handler) deletePreset(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing required parameter: userId")
		return
	}

	if err := h.prefs.DeleteByUser(r.Context(), userID); err != nil {
		h.respondTypedError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Preference deleted"})
}

// updatePresetEmail overwrites the notification email settings.
// PUT /api/user/preset/email
func (h *Handler) updatePresetEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID  string `json:"userId"`
		Email   string `json:"email"`
		Enabled bool   `json:"enabled"`
	}
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.UserID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing required parameter: userId")
		return
	}

	pref, err := h.prefs.UpdateEmail(r.Context(), req.UserID, req.Email, req.Enabled)
	if err != nil {
		h.respondTypedError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, pref)
}

// updatePresetStyle overwrites the report style.
// PUT /api/user/preset/report-style
func (h *Handler) updatePresetStyle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID      string `json:"userId"`
		ReportStyle string `json:"reportStyle"`
	}
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.UserID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing required parameter: userId")
		return
	}

	pref, err := h.prefs.UpdateStyle(r.Context(), req.UserID, req.ReportStyle)
	if err != nil {
		h.respondTypedError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, pref)
}

// updatePresetFrequency overwrites the report frequency.
// PUT /api/user/preset/report-frequency
func (h *Handler) updatePresetFrequency(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID          string `json:"userId"`
		ReportFrequency string `json:"reportFrequency"`
	}
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.UserID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing required parameter: userId")
		return
	}

	pref, err := h.prefs.UpdateFrequency(r.Context(), req.UserID, req.ReportFrequency)
	if err != nil {
		h.respondTypedError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, pref)
}

// uploadArchive stores a commit-log export or report object.
// POST /api/s3/upload
func (h *Handler) uploadArchive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FileName string `json:"fileName"`
		Content  string `json:"content"`
	}
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.FileName == "" || req.Content == "" {
		respondWithError(w, http.StatusBadRequest, "Missing required parameters: fileName, content")
		return
	}

	if err := h.archive.Upload(r.Context(), req.FileName, req.Content); err != nil {
		h.logger.Error("Failed to upload archive object", "key", req.FileName, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "File uploaded", "fileName": req.FileName})
}

// listArchive lists every stored object.
// GET /api/s3/list
func (h *Handler) listArchive(w http.ResponseWriter, r *http.Request) {
	objects, err := h.archive.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list archive objects", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to list files")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"files": objects,
		"count": len(objects),
	})
}

// presignArchive returns a time-limited download URL for an object.
// GET /api/s3/presign?fileName=KEY
func (h *Handler) presignArchive(w http.ResponseWriter, r *http.Request) {
	fileName := r.URL.Query().Get("fileName")
	if fileName == "" {
		respondWithError(w, http.StatusBadRequest, "Missing required parameter: fileName")
		return
	}

	url, err := h.archive.PresignGet(fileName)
	if err != nil {
		h.logger.Error("Failed to presign archive object", "key", fileName, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to presign file")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"url": url})
}

// respondTypedError maps the application error taxonomy onto HTTP statuses.
// 401 responses carry a re-login hint; 429 tells the client to back off.
func (h *Handler) respondTypedError(w http.ResponseWriter, err error) {
	var authErr *custom_errors.ErrAuthentication
	if errors.As(err, &authErr) {
		respondWithJSON(w, http.StatusUnauthorized, map[string]any{
			"error":     authErr.Msg,
			"needLogin": true,
		})
		return
	}
	var rateErr *custom_errors.ErrRateLimit
	if errors.As(err, &rateErr) {
		respondWithError(w, http.StatusTooManyRequests, rateErr.Msg)
		return
	}
	var notFoundErr *custom_errors.ErrNotFound
	if errors.As(err, &notFoundErr) {
		respondWithError(w, http.StatusNotFound, notFoundErr.Error())
		return
	}
	var validationErr *custom_errors.ErrValidation
	if errors.As(err, &validationErr) {
		respondWithError(w, http.StatusBadRequest, validationErr.Msg)
		return
	}

	h.logger.Error("Request failed", "error", err)
	respondWithError(w, http.StatusInternalServerError, "Internal server error")
}
