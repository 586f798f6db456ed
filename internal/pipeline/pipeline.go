// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	custom_errors "gitnote-backend/internal/errors"
	"gitnote-backend/internal/model"
	"gitnote-backend/internal/report"
)

// Timestamp layout for report sort keys. Second resolution: two reports for
// the same repository within the same second overwrite each other.
const reportKeyLayout = "2006-01-02T15:04:05"

const dateLayout = "2006-01-02"

// CommitFetcher lists commits for a repository inside a date window. An empty
// result means there is nothing to report, whatever the cause.
type CommitFetcher interface {
	ListCommits(ctx context.Context, token, owner, repo string, since, until time.Time) []model.Commit
}

// Generator turns a formatted commit log into report text.
type Generator interface {
	Generate(ctx context.Context, promptBody, style string) (string, error)
}

// ReportSaver persists one generated report row.
type ReportSaver interface {
	Save(ctx context.Context, repository, user, content, generatedAt string) error
}

// PreferenceReader looks up a user's notification settings.
type PreferenceReader interface {
	GetByUser(ctx context.Context, userID string) (*model.Preference, error)
}

// Notifier sends the report-ready email.
type Notifier interface {
	SendReportReadyEmail(ctx context.Context, to, userID, repository, period, reportURL string) error
}

// Pipeline orchestrates one report-generation request: fetch commits, format,
// generate, persist, optionally notify. It is the only component that sees all
// collaborators and enforces their ordering and failure isolation.
type Pipeline struct {
	fetcher   CommitFetcher
	generator Generator
	reports   ReportSaver
	prefs     PreferenceReader
	notifier  Notifier
	logger    *slog.Logger
	now       func() time.Time
}

// NewPipeline creates a new Pipeline instance.
func NewPipeline(fetcher CommitFetcher, generator Generator, reports ReportSaver, prefs PreferenceReader, notifier Notifier, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		fetcher:   fetcher,
		generator: generator,
		reports:   reports,
		prefs:     prefs,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// Request is one report-generation request.
type Request struct {
	AccessToken string `json:"accessToken"`
	Repository  string `json:"repository"`
	Since       string `json:"since"`
	Until       string `json:"until"`
	ReportStyle string `json:"reportStyle"`
	UserID      string `json:"userId"`
}

// Result is the outcome of a successful pipeline run. NoCommits marks the run
// that found nothing to report; PersistFailed marks a run whose report was
// generated but could not be stored.
type Result struct {
	Repository    string
	UserID        string
	CommitsCount  int
	Since         string
	Until         string
	Message       string
	NoCommits     bool
	PersistFailed bool
}

// Run executes the single-request flow. It returns an error only for the hard
// failures: *custom_errors.ErrValidation or *custom_errors.ErrInvalidRepoFormat
// for a bad request, *custom_errors.ErrGeneration when the text backend fails.
// Persistence and notification failures never fail the run.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	// 1. Validate
	owner, repo, since, until, err := validate(req)
	if err != nil {
		return Result{}, err
	}

	logger := p.logger.With("user_id", req.UserID, "repository", req.Repository)

	// 2. Fetch commits; an empty window is a successful "nothing to report".
	commits := p.fetcher.ListCommits(ctx, req.AccessToken, owner, repo, since, until)
	if len(commits) == 0 {
		logger.Info("No commits found for period", "since", req.Since, "until", req.Until)
		return Result{
			Repository: req.Repository,
			UserID:     req.UserID,
			Since:      req.Since,
			Until:      req.Until,
			Message:    "No commits found for the specified period",
			NoCommits:  true,
		}, nil
	}
	logger.Info("Fetched commits", "count", len(commits))

	// 3. Format
	commitsText := report.FormatAsText(commits, req.Repository, since, until)

	// 4. Generate; failure here fails the whole request.
	content, err := p.generator.Generate(ctx, commitsText, req.ReportStyle)
	if err != nil {
		logger.Error("Report generation failed", "error", err)
		return Result{}, err
	}

	// 5. Persist. A storage failure is logged but the user still receives the
	// generated report; batch accounting records it as a failure.
	result := Result{
		Repository:   req.Repository,
		UserID:       req.UserID,
		CommitsCount: len(commits),
		Since:        req.Since,
		Until:        req.Until,
		Message:      "Report generated and saved successfully",
	}
	generatedAt := p.now().Format(reportKeyLayout)
	if err := p.reports.Save(ctx, req.Repository, owner, content, generatedAt); err != nil {
		logger.Error("Failed to persist report", "generated_at", generatedAt, "error", err)
		result.PersistFailed = true
		result.Message = "Report generated but could not be saved"
	}

	// 6. Conditionally notify; never propagates.
	p.notifyIfEnabled(ctx, logger, req)

	// 7. Respond success.
	return result, nil
}

// notifyIfEnabled sends the report-ready email when the user opted in. Every
// failure in this step, lookup or send, is logged and swallowed: notification
// is best-effort and must never fail an otherwise-successful run.
func (p *Pipeline) notifyIfEnabled(ctx context.Context, logger *slog.Logger, req Request) {
	pref, err := p.prefs.GetByUser(ctx, req.UserID)
	if err != nil {
		logger.Error("Notification skipped: preference lookup failed", "error", err)
		return
	}
	if pref == nil {
		logger.Info("Notification skipped: no preference row")
		return
	}
	if !pref.EmailNotificationEnabled || pref.Email == nil {
		logger.Info("Notification skipped: disabled or no email address",
			"enabled", pref.EmailNotificationEnabled, "has_email", pref.Email != nil)
		return
	}

	period := fmt.Sprintf("%s ~ %s", req.Since, req.Until)
	if err := p.notifier.SendReportReadyEmail(ctx, *pref.Email, req.UserID, req.Repository, period, ""); err != nil {
		logger.Error("Notification skipped: email send failed", "error", err)
		return
	}
	logger.Info("Report-ready notification sent")
}

// validate checks required fields, the repository coordinate and the date
// range. The repository string must split into exactly two non-empty parts.
func validate(req Request) (owner, repo string, since, until time.Time, err error) {
	if req.AccessToken == "" || req.Repository == "" || req.Since == "" || req.Until == "" || req.UserID == "" {
		err = &custom_errors.ErrValidation{Msg: "Missing required parameters: accessToken, repository, since, until, userId"}
		return
	}

	parts := strings.Split(req.Repository, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		err = &custom_errors.ErrInvalidRepoFormat{Repo: req.Repository}
		return
	}
	owner, repo = parts[0], parts[1]

	since, err = time.Parse(dateLayout, req.Since)
	if err != nil {
		err = &custom_errors.ErrValidation{Msg: fmt.Sprintf("Invalid since date: %q, expected YYYY-MM-DD", req.Since)}
		return
	}
	until, err = time.Parse(dateLayout, req.Until)
	if err != nil {
		err = &custom_errors.ErrValidation{Msg: fmt.Sprintf("Invalid until date: %q, expected YYYY-MM-DD", req.Until)}
		return
	}

	return owner, repo, since, until, nil
}

// BatchResult aggregates a batch run. A batch itself never fails; only its
// constituent items can.
type BatchResult struct {
	Total        int    `json:"total"`
	SuccessCount int    `json:"successCount"`
	FailCount    int    `json:"failCount"`
	Errors       string `json:"errors"`
}

// RunBatch runs the single-request flow for each item sequentially, isolating
// each item's failure so one bad entry cannot abort its siblings.
func (p *Pipeline) RunBatch(ctx context.Context, reqs []Request) BatchResult {
	var result BatchResult
	result.Total = len(reqs)

	var errorLines []string
	for _, req := range reqs {
		res, err := p.Run(ctx, req)
		switch {
		case err != nil:
			result.FailCount++
			errorLines = append(errorLines, fmt.Sprintf("Repository %s: %s", req.Repository, err.Error()))
		case res.NoCommits:
			result.FailCount++
			errorLines = append(errorLines, fmt.Sprintf("Repository %s: %s", req.Repository, res.Message))
		case res.PersistFailed:
			result.FailCount++
			errorLines = append(errorLines, fmt.Sprintf("Repository %s: %s", req.Repository, res.Message))
		default:
			result.SuccessCount++
		}
	}

	if len(errorLines) > 0 {
		result.Errors = strings.Join(errorLines, "\n") + "\n"
	}
	return result
}
