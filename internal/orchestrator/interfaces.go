package orchestrator

import "context"

// ReviewComment is one inline comment the orchestrator asks the forge
// client to attach to a specific line of the pull request diff.
type ReviewComment struct {
	Path string
	Line int
	Side string
	Body string
}

// ReviewSubmission is everything needed to post one pull request review.
type ReviewSubmission struct {
	CommitID string
	Body     string
	Event    string // APPROVE, COMMENT, or REQUEST_CHANGES
	Comments []ReviewComment
}

// ForgeClient is the source-control capability the orchestrator depends
// on: fetching the diff and selected file contents, and posting the
// finished review plus an optional check run. Concrete implementations
// (GitHub, GitLab, ...) live outside this package.
type ForgeClient interface {
	FetchDiff(ctx context.Context, owner, repo string, number int) (string, error)
	FetchFileContent(ctx context.Context, owner, repo, path, ref string) (string, bool, error)
	PostReview(ctx context.Context, owner, repo string, number int, submission ReviewSubmission) error
	CreateCheckRun(ctx context.Context, owner, repo, headSHA string) (string, error)
	UpdateCheckRun(ctx context.Context, owner, repo, checkRunID string, conclusion, title, summary string) error
}
