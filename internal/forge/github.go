package forge

import (
	"context"
	"fmt"
	"strconv"

	gh "github.com/google/go-github/v82/github"

	"github.com/antinvestor/reviewbot/internal/orchestrator"
)

// Compile-time interface satisfaction check.
var _ orchestrator.ForgeClient = (*Client)(nil)

const checkRunName = "reviewbot"

// FetchDiff retrieves a pull request's unified diff via the GitHub diff
// media type, so callers get exactly the text spec.md's diff parser
// expects without a separate clone.
func (c *Client) FetchDiff(ctx context.Context, owner, repo string, number int) (string, error) {
	client, err := c.clientFor(ctx, owner, repo)
	if err != nil {
		return "", err
	}

	diff, _, err := client.PullRequests.GetRaw(ctx, owner, repo, number, gh.RawOptions{Type: gh.Diff})
	if err != nil {
		return "", fmt.Errorf("fetch diff for %s/%s#%d: %w", owner, repo, number, err)
	}
	return diff, nil
}

// FetchFileContent retrieves one file's content at ref. A 404 is not an
// error: it reports ok=false so callers treat a missing file (renamed,
// deleted, binary with no text representation) as absent evidence rather
// than aborting the review.
func (c *Client) FetchFileContent(ctx context.Context, owner, repo, path, ref string) (string, bool, error) {
	client, err := c.clientFor(ctx, owner, repo)
	if err != nil {
		return "", false, err
	}

	file, _, resp, err := client.Repositories.GetContents(ctx, owner, repo, path, &gh.RepositoryContentGetOptions{Ref: ref})
	if err != nil {
		if resp != nil && resp.StatusCode == 404 {
			return "", false, nil
		}
		return "", false, fmt.Errorf("fetch content %s/%s:%s@%s: %w", owner, repo, path, ref, err)
	}
	if file == nil {
		// path resolved to a directory, not a file.
		return "", false, nil
	}

	content, err := file.GetContent()
	if err != nil {
		return "", false, fmt.Errorf("decode content %s/%s:%s@%s: %w", owner, repo, path, ref, err)
	}
	return content, true, nil
}

// PostReview submits the finished review as a single GitHub pull request
// review, with one inline comment per submission.Comments entry.
func (c *Client) PostReview(ctx context.Context, owner, repo string, number int, submission orchestrator.ReviewSubmission) error {
	client, err := c.clientFor(ctx, owner, repo)
	if err != nil {
		return err
	}

	comments := make([]*gh.DraftReviewComment, 0, len(submission.Comments))
	for _, comment := range submission.Comments {
		comments = append(comments, &gh.DraftReviewComment{
			Path: gh.Ptr(comment.Path),
			Line: gh.Ptr(comment.Line),
			Side: gh.Ptr(comment.Side),
			Body: gh.Ptr(comment.Body),
		})
	}

	req := &gh.PullRequestReviewRequest{
		CommitID: gh.Ptr(submission.CommitID),
		Body:     gh.Ptr(submission.Body),
		Event:    gh.Ptr(submission.Event),
		Comments: comments,
	}

	if _, _, err := client.PullRequests.CreateReview(ctx, owner, repo, number, req); err != nil {
		return fmt.Errorf("post review for %s/%s#%d: %w", owner, repo, number, err)
	}
	return nil
}

// CreateCheckRun opens an in-progress check run against headSHA, returning
// its ID for a later UpdateCheckRun call once the review completes.
func (c *Client) CreateCheckRun(ctx context.Context, owner, repo, headSHA string) (string, error) {
	client, err := c.clientFor(ctx, owner, repo)
	if err != nil {
		return "", err
	}

	run, _, err := client.Checks.CreateCheckRun(ctx, owner, repo, gh.CreateCheckRunOptions{
		Name:    checkRunName,
		HeadSHA: headSHA,
		Status:  gh.Ptr("in_progress"),
	})
	if err != nil {
		return "", fmt.Errorf("create check run for %s/%s@%s: %w", owner, repo, headSHA, err)
	}
	return strconv.FormatInt(run.GetID(), 10), nil
}

// UpdateCheckRun marks a check run completed with the given conclusion and
// output. conclusion is one of GitHub's enum values (success, failure,
// neutral, ...); the orchestrator maps risk level to conclusion.
func (c *Client) UpdateCheckRun(ctx context.Context, owner, repo, checkRunID string, conclusion, title, summary string) error {
	client, err := c.clientFor(ctx, owner, repo)
	if err != nil {
		return err
	}

	id, err := strconv.ParseInt(checkRunID, 10, 64)
	if err != nil {
		return fmt.Errorf("parse check run id %q: %w", checkRunID, err)
	}

	_, _, err = client.Checks.UpdateCheckRun(ctx, owner, repo, id, gh.UpdateCheckRunOptions{
		Name:       checkRunName,
		Status:     gh.Ptr("completed"),
		Conclusion: gh.Ptr(conclusion),
		Output: &gh.CheckRunOutput{
			Title:   gh.Ptr(title),
			Summary: gh.Ptr(summary),
		},
	})
	if err != nil {
		return fmt.Errorf("update check run %s for %s/%s: %w", checkRunID, owner, repo, err)
	}
	return nil
}
