// internal/report/formatter.go
package report

import (
	"fmt"
	"strings"
	"time"

	"gitnote-backend/internal/model"
)

const bannerWidth = 80

// FormatAsText renders a commit list as a single plain-text document, suitable
// as model input or as an audit record. The same commits in the same order
// always produce byte-identical output.
func FormatAsText(commits []model.Commit, repositoryName string, since, until time.Time) string {
	var sb strings.Builder

	banner := strings.Repeat("=", bannerWidth)
	divider := strings.Repeat("-", bannerWidth)

	sb.WriteString(banner + "\n")
	fmt.Fprintf(&sb, "Commit Report: %s\n", repositoryName)
	fmt.Fprintf(&sb, "Period: %s ~ %s\n", since.Format("2006-01-02"), until.Format("2006-01-02"))
	fmt.Fprintf(&sb, "Total commits: %d\n", len(commits))
	sb.WriteString(banner + "\n\n")

	for i, commit := range commits {
		fmt.Fprintf(&sb, "[%d] Commit #%d\n", i+1, i+1)
		sb.WriteString(divider + "\n")
		fmt.Fprintf(&sb, "SHA: %s\n", commit.SHA)
		fmt.Fprintf(&sb, "Message: %s\n", commit.Message)
		fmt.Fprintf(&sb, "Author: %s <%s>\n", commit.AuthorName, commit.AuthorEmail)
		fmt.Fprintf(&sb, "Date: %s\n", commit.AuthorDate.Format(time.RFC3339))
		fmt.Fprintf(&sb, "URL: %s\n", commit.URL)

		if len(commit.Files) > 0 {
			fmt.Fprintf(&sb, "\nChanged files (%d):\n", len(commit.Files))
			for _, f := range commit.Files {
				fmt.Fprintf(&sb, "  - %s (%s) [+%d/-%d]\n", f.Filename, f.Status, f.Additions, f.Deletions)
			}
		}

		if commit.Stats != nil {
			fmt.Fprintf(&sb, "\nStats: +%d / -%d (total %d changes)\n",
				commit.Stats.Additions, commit.Stats.Deletions, commit.Stats.Total)
		}

		sb.WriteString("\n")
	}

	sb.WriteString(banner + "\n")
	sb.WriteString("End of report\n")
	sb.WriteString(banner + "\n")

	return sb.String()
}
