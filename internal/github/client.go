// internal/github/client.go
package github

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"
	oauthgithub "golang.org/x/oauth2/github"
	"golang.org/x/sync/errgroup"

	custom_errors "gitnote-backend/internal/errors"
	"gitnote-backend/internal/model"
)

const (
	perPage = 100 // Max per page

	// Number of commit-detail lookups to run in parallel
	detailConcurrency = 5

	connectTimeout = 10 * time.Second
	requestTimeout = 30 * time.Second
)

// Client is a wrapper around the go-github client. Unlike a fixed-token
// client, every call takes the caller's access token because each request
// arrives with its own user credential.
type Client struct {
	clientID     string
	clientSecret string
	httpClient   *http.Client
	logger       *slog.Logger

	// Overridden in tests to point at a httptest server.
	apiBaseURL string
	tokenURL   string
}

// NewClient creates and configures a new Client instance.
func NewClient(clientID, clientSecret string, logger *slog.Logger) *Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{Timeout: connectTimeout}).DialContext,
	}
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient: &http.Client{
			Timeout:   requestTimeout,
			Transport: transport,
		},
		logger: logger,
	}
}

// api returns a go-github client authenticated with the given token.
func (c *Client) api(ctx context.Context, token string) *github.Client {
	httpClient := c.httpClient
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
		httpClient = oauth2.NewClient(ctx, ts)
	}

	gh := github.NewClient(httpClient)
	if c.apiBaseURL != "" {
		gh, _ = gh.WithEnterpriseURLs(c.apiBaseURL, c.apiBaseURL)
	}
	return gh
}

// ExchangeCode trades an OAuth authorization code for an access token.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (string, error) {
	conf := &oauth2.Config{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		Endpoint:     oauthgithub.Endpoint,
		RedirectURL:  redirectURI,
	}
	if c.tokenURL != "" {
		conf.Endpoint = oauth2.Endpoint{TokenURL: c.tokenURL}
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return "", &custom_errors.ErrAuthentication{Msg: "failed to exchange authorization code: " + err.Error()}
	}
	return tok.AccessToken, nil
}

// RevokeToken invalidates the given access token for this OAuth app.
func (c *Client) RevokeToken(ctx context.Context, token string) error {
	transport := &github.BasicAuthTransport{
		Username:  c.clientID,
		Password:  c.clientSecret,
		Transport: c.httpClient.Transport,
	}
	gh := github.NewClient(transport.Client())
	if c.apiBaseURL != "" {
		gh, _ = gh.WithEnterpriseURLs(c.apiBaseURL, c.apiBaseURL)
	}

	_, err := gh.Authorizations.Revoke(ctx, c.clientID, token)
	return err
}

// GetUserInfo fetches the authenticated user's profile.
func (c *Client) GetUserInfo(ctx context.Context, token string) (*model.UserInfo, error) {
	user, _, err := c.api(ctx, token).Users.Get(ctx, "")
	if err != nil {
		return nil, translateAPIError(err)
	}
	return &model.UserInfo{
		Login:       user.GetLogin(),
		ID:          user.GetID(),
		Name:        user.GetName(),
		Email:       user.GetEmail(),
		AvatarURL:   user.GetAvatarURL(),
		PublicRepos: user.GetPublicRepos(),
		Followers:   user.GetFollowers(),
		Following:   user.GetFollowing(),
	}, nil
}

// GetRateLimit returns the caller's current core API quota state.
func (c *Client) GetRateLimit(ctx context.Context, token string) (*model.RateLimit, error) {
	limits, _, err := c.api(ctx, token).RateLimit.Get(ctx)
	if err != nil {
		return nil, translateAPIError(err)
	}
	core := limits.GetCore()
	return &model.RateLimit{
		Limit:     core.Limit,
		Remaining: core.Remaining,
		Reset:     core.Reset.Time,
	}, nil
}

// ListRepositories fetches the user's repositories, most recently updated
// first. Quota and credential failures surface as typed errors because each
// needs a different user-facing remediation.
func (c *Client) ListRepositories(ctx context.Context, token, username string) ([]model.Repository, error) {
	gh := c.api(ctx, token)

	var all []model.Repository
	opts := &github.RepositoryListByUserOptions{
		Sort:        "updated",
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	for {
		repos, resp, err := gh.Repositories.ListByUser(ctx, username, opts)
		if err != nil {
			return nil, translateAPIError(err)
		}
		for _, r := range repos {
			all = append(all, toInternalRepository(r))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// ListCommits fetches commits authored inside the inclusive [since, until]
// date window. The since bound is the start of day and the until bound the end
// of day. Any transport or API error is logged and yields an empty list so the
// caller can treat the window as having nothing to report.
func (c *Client) ListCommits(ctx context.Context, token, owner, repo string, since, until time.Time) []model.Commit {
	gh := c.api(ctx, token)

	opts := &github.CommitsListOptions{
		Since:       startOfDay(since),
		Until:       endOfDay(until),
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	var all []model.Commit
	for {
		c.logger.Debug("Fetching commits page", "owner", owner, "repo", repo, "page", opts.Page)

		commits, resp, err := gh.Repositories.ListCommits(ctx, owner, repo, opts)
		if err != nil {
			c.logger.Error("Failed to list commits", "owner", owner, "repo", repo, "error", err)
			return nil
		}

		for _, commit := range commits {
			all = append(all, toInternalCommit(commit))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all
}

// GetCommitDetail enriches a single commit with file-level diffs and change
// statistics. Returns nil on failure so the caller can skip that commit.
func (c *Client) GetCommitDetail(ctx context.Context, token, owner, repo, sha string) *model.Commit {
	detail, _, err := c.api(ctx, token).Repositories.GetCommit(ctx, owner, repo, sha, nil)
	if err != nil {
		c.logger.Error("Failed to get commit detail", "owner", owner, "repo", repo, "sha", sha, "error", err)
		return nil
	}

	commit := toInternalCommit(detail)
	for _, f := range detail.Files {
		commit.Files = append(commit.Files, model.FileChange{
			Filename:  f.GetFilename(),
			Status:    f.GetStatus(),
			Additions: f.GetAdditions(),
			Deletions: f.GetDeletions(),
		})
	}
	if detail.Stats != nil {
		commit.Stats = &model.CommitStats{
			Additions: detail.Stats.GetAdditions(),
			Deletions: detail.Stats.GetDeletions(),
			Total:     detail.Stats.GetTotal(),
		}
	}
	return &commit
}

// ListCommitsWithDetails lists commits in the window and enriches each with a
// detail lookup. Commits whose detail fetch fails are skipped; input order is
// preserved for the rest.
func (c *Client) ListCommitsWithDetails(ctx context.Context, token, owner, repo string, since, until time.Time) []model.Commit {
	commits := c.ListCommits(ctx, token, owner, repo, since, until)
	if len(commits) == 0 {
		return nil
	}

	detailed := make([]*model.Commit, len(commits))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(detailConcurrency)

	for i, commit := range commits {
		i, sha := i, commit.SHA
		g.Go(func() error {
			detailed[i] = c.GetCommitDetail(gctx, token, owner, repo, sha)
			return nil
		})
	}
	_ = g.Wait()

	result := make([]model.Commit, 0, len(commits))
	for _, d := range detailed {
		if d != nil {
			result = append(result, *d)
		}
	}
	return result
}

// translateAPIError maps go-github error types onto the application taxonomy.
func translateAPIError(err error) error {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return &custom_errors.ErrRateLimit{Msg: "GitHub API rate limit exceeded, retry later"}
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return &custom_errors.ErrRateLimit{Msg: "GitHub API secondary rate limit hit, retry later"}
	}
	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch respErr.Response.StatusCode {
		case http.StatusUnauthorized:
			return &custom_errors.ErrAuthentication{Msg: "GitHub credential expired or invalid, please log in again"}
		case http.StatusForbidden:
			return &custom_errors.ErrRateLimit{Msg: "GitHub API rate limit exceeded, retry later"}
		}
	}
	return err
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// toInternalRepository translates a github.Repository object to our internal model.Repository.
func toInternalRepository(r *github.Repository) model.Repository {
	return model.Repository{
		GithubRepoID: r.GetID(),
		Owner:        r.GetOwner().GetLogin(),
		Name:         r.GetName(),
		FullName:     r.GetFullName(),
		Description:  r.Description,
		URL:          r.GetHTMLURL(),
		Language:     r.Language,
		Private:      r.GetPrivate(),
		StarsCount:   r.GetStargazersCount(),
		ForksCount:   r.GetForksCount(),
		UpdatedAt:    r.GetUpdatedAt().Time,
	}
}

// toInternalCommit translates a github.RepositoryCommit object to our internal model.Commit.
func toInternalCommit(c *github.RepositoryCommit) model.Commit {
	return model.Commit{
		SHA:         c.GetSHA(),
		Message:     c.GetCommit().GetMessage(),
		AuthorName:  c.GetCommit().GetAuthor().GetName(),
		AuthorEmail: c.GetCommit().GetAuthor().GetEmail(),
		AuthorDate:  c.GetCommit().GetAuthor().GetDate().Time,
		URL:         c.GetHTMLURL(),
	}
}
