// internal/model/models.go
package model

import "time"

// Repository represents the metadata of a GitHub repository.
type Repository struct {
	GithubRepoID int64     `json:"github_repo_id"`
	Owner        string    `json:"owner"`
	Name         string    `json:"name"`
	FullName     string    `json:"full_name"`
	Description  *string   `json:"description,omitempty"`
	URL          string    `json:"url"`
	Language     *string   `json:"language,omitempty"`
	Private      bool      `json:"private"`
	StarsCount   int       `json:"stars_count"`
	ForksCount   int       `json:"forks_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Commit is a single commit fetched from the GitHub API. Files and Stats are
// only populated when the commit was enriched with a detail lookup.
type Commit struct {
	SHA         string       `json:"sha"`
	Message     string       `json:"message"`
	AuthorName  string       `json:"author_name"`
	AuthorEmail string       `json:"author_email"`
	AuthorDate  time.Time    `json:"author_date"`
	URL         string       `json:"url"`
	Files       []FileChange `json:"files,omitempty"`
	Stats       *CommitStats `json:"stats,omitempty"`
}

// FileChange describes one file touched by a commit.
type FileChange struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// CommitStats is the aggregate line-change summary of a commit.
type CommitStats struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
	Total     int `json:"total"`
}

// UserInfo is the authenticated GitHub user's profile.
type UserInfo struct {
	Login       string `json:"login"`
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	AvatarURL   string `json:"avatar_url"`
	PublicRepos int    `json:"public_repos"`
	Followers   int    `json:"followers"`
	Following   int    `json:"following"`
}

// RateLimit is the caller's core API quota state.
type RateLimit struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Reset     time.Time `json:"reset"`
}

// Report is one generated report row. The partition key is the repository full
// name and the sort key the generation timestamp, so reports for a repository
// sort chronologically.
type Report struct {
	Repository  string `json:"repository" dynamodbav:"PK"`
	GeneratedAt string `json:"generatedAt" dynamodbav:"SK"`
	User        string `json:"user" dynamodbav:"User"`
	Content     string `json:"content" dynamodbav:"Content"`
}

// Preference holds one user's report settings. Optional string fields use
// pointers because the preference store cannot persist empty strings.
type Preference struct {
	UserID                   string    `json:"userId" dynamodbav:"PK"`
	AutoReportEnabled        bool      `json:"autoReportEnabled" dynamodbav:"AutoReportEnabled"`
	Email                    *string   `json:"email,omitempty" dynamodbav:"Email,omitempty"`
	EmailNotificationEnabled bool      `json:"emailNotificationEnabled" dynamodbav:"EmailNotificationEnabled"`
	ReportStyle              *string   `json:"reportStyle,omitempty" dynamodbav:"ReportStyle,omitempty"`
	ReportFrequency          *string   `json:"reportFrequency,omitempty" dynamodbav:"ReportFrequency,omitempty"`
	Repository               *string   `json:"repository,omitempty" dynamodbav:"Repository,omitempty"`
	CreatedAt                time.Time `json:"createdAt" dynamodbav:"CreatedAt"`
	UpdatedAt                time.Time `json:"updatedAt" dynamodbav:"UpdatedAt"`
}
