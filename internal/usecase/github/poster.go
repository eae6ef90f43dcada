// Package github provides the use case for delivering an aggregated
// feedback bundle to a GitHub pull request.
package github

import (
	"context"
	"log"
	"strings"

	"github.com/cpp-linter/cpp-linter/internal/adapter/github"
	"github.com/cpp-linter/cpp-linter/internal/domain"
	"github.com/cpp-linter/cpp-linter/internal/usecase/feedback"
)

// ReviewClient defines the GitHub operations the poster needs.
// This interface allows for mocking in tests.
type ReviewClient interface {
	CreateReview(ctx context.Context, input github.CreateReviewInput) (*github.CreateReviewResponse, error)
	ListReviews(ctx context.Context, owner, repo string, pullNumber int) ([]github.ReviewSummary, error)
	DismissReview(ctx context.Context, owner, repo string, pullNumber int, reviewID int64, message string) (*github.DismissReviewResponse, error)
	ListComments(ctx context.Context, owner, repo string, pullNumber int) ([]github.IssueComment, error)
	CreateComment(ctx context.Context, owner, repo string, pullNumber int, text string) (*github.IssueComment, error)
	UpdateComment(ctx context.Context, owner, repo string, commentID int64, text string) (*github.IssueComment, error)
	DeleteComment(ctx context.Context, owner, repo string, commentID int64) error
}

// Poster delivers one run's output bundle to a pull request: it submits the
// review, retires the previous run's review afterwards, and keeps a single
// persistent summary comment on the conversation thread when asked to.
type Poster struct {
	client ReviewClient
}

// NewPoster creates a Poster backed by the given client.
func NewPoster(client ReviewClient) *Poster {
	return &Poster{client: client}
}

// PostRequest contains everything one delivery needs.
type PostRequest struct {
	// Owner is the repository owner (user or organization).
	Owner string

	// Repo is the repository name.
	Repo string

	// PullNumber is the PR number.
	PullNumber int

	// Bundle is the aggregated output for this run. A nil Bundle.Review
	// means nothing is submitted; prior feedback stays in place.
	Bundle domain.OutputBundle

	// Prior identifies feedback posted by an earlier run, if any.
	Prior *domain.PriorState

	// ThreadComments maintains a summary comment on the PR conversation
	// in addition to the review body.
	ThreadComments bool

	// BotUsername, when set, scopes stale-review dismissal to reviews
	// authored by that user. Example: "github-actions[bot]".
	BotUsername string
}

// PostResult describes what the delivery actually did.
type PostResult struct {
	// ReviewID is the ID of the newly submitted review, zero when no
	// review was submitted.
	ReviewID int64

	// CommentID is the ID of the persistent summary comment, zero when
	// thread comments are disabled.
	CommentID int64

	// SuggestionsPosted is the number of inline suggestions submitted.
	SuggestionsPosted int

	// DismissedCount is the number of previous reviews dismissed.
	DismissedCount int

	// HTMLURL links to the submitted review.
	HTMLURL string

	// State is the prior-state record the next run should receive.
	State domain.PriorState
}

// Post delivers the bundle.
//
// The new review is submitted first; only after it lands are previous
// reviews dismissed, so the PR never loses its review signal to a failed
// post. Dismiss failures are logged and do not fail the delivery. The
// payload's ReplaceReviewID is always dismissed; when BotUsername is set,
// every other submitted review by that user is dismissed as well.
func (p *Poster) Post(ctx context.Context, req PostRequest) (*PostResult, error) {
	result := &PostResult{}
	if req.Prior != nil {
		result.State = *req.Prior
	}

	review := req.Bundle.Review
	if review != nil {
		resp, err := p.client.CreateReview(ctx, github.CreateReviewInput{
			Owner:      req.Owner,
			Repo:       req.Repo,
			PullNumber: req.PullNumber,
			Payload:    *review,
		})
		if err != nil {
			return nil, err
		}
		result.ReviewID = resp.ID
		result.HTMLURL = resp.HTMLURL
		result.SuggestionsPosted = len(review.Suggestions)
		result.DismissedCount = p.dismissStaleReviews(ctx, req, resp.ID)

		result.State.ReviewID = resp.ID
		result.State.Fingerprints = fingerprintSet(review.Suggestions)
	}

	// The summary comment follows the bundle, not the review: a run that
	// posts no review still refreshes the conversation thread.
	if req.ThreadComments {
		if req.Bundle.SummaryComment == "" {
			p.deleteSummaryComment(ctx, req)
			result.State.CommentID = 0
		} else {
			commentID, err := p.upsertSummaryComment(ctx, req, req.Bundle.SummaryComment)
			if err != nil {
				return nil, err
			}
			result.CommentID = commentID
			result.State.CommentID = commentID
		}
	}

	return result, nil
}

// dismissStaleReviews retires the prior run's review and, when a bot
// username is configured, every other submitted review by that user. The
// freshly created review is never dismissed.
func (p *Poster) dismissStaleReviews(ctx context.Context, req PostRequest, newReviewID int64) int {
	stale := map[int64]bool{}
	if req.Bundle.Review.ReplaceReviewID != 0 {
		stale[req.Bundle.Review.ReplaceReviewID] = true
	}

	if req.BotUsername != "" {
		reviews, err := p.client.ListReviews(ctx, req.Owner, req.Repo, req.PullNumber)
		if err != nil {
			log.Printf("warning: failed to list reviews for dismissal: %v", err)
		}
		for _, review := range reviews {
			if shouldDismissReview(review, req.BotUsername) {
				stale[review.ID] = true
			}
		}
	}
	delete(stale, newReviewID)

	var dismissed int
	for id := range stale {
		if _, err := p.client.DismissReview(ctx, req.Owner, req.Repo, req.PullNumber, id, "Superseded by new review"); err != nil {
			log.Printf("warning: failed to dismiss review %d: %v", id, err)
			continue
		}
		dismissed++
	}
	return dismissed
}

// shouldDismissReview reports whether a review belongs to the bot and is
// still in a submitted state. GitHub usernames compare case-insensitively.
func shouldDismissReview(review github.ReviewSummary, botUsername string) bool {
	if !strings.EqualFold(review.User.Login, botUsername) {
		return false
	}
	switch review.State {
	case string(github.StateDismissed), string(github.StatePending):
		return false
	}
	return true
}

// upsertSummaryComment updates the persistent summary comment in place, or
// creates it when no prior comment can be found. The marker prefix is how a
// later run recognizes its own comment without a stored ID.
func (p *Poster) upsertSummaryComment(ctx context.Context, req PostRequest, body string) (int64, error) {
	commentID := int64(0)
	if req.Prior != nil {
		commentID = req.Prior.CommentID
	}
	if commentID == 0 {
		comments, err := p.client.ListComments(ctx, req.Owner, req.Repo, req.PullNumber)
		if err != nil {
			return 0, err
		}
		commentID = findSummaryComment(comments, req.BotUsername)
	}

	if commentID != 0 {
		updated, err := p.client.UpdateComment(ctx, req.Owner, req.Repo, commentID, body)
		if err == nil {
			return updated.ID, nil
		}
		// Stored ID may point at a deleted comment; fall through and
		// create a fresh one.
		log.Printf("warning: failed to update summary comment %d: %v", commentID, err)
	}

	created, err := p.client.CreateComment(ctx, req.Owner, req.Repo, req.PullNumber, body)
	if err != nil {
		return 0, err
	}
	return created.ID, nil
}

// deleteSummaryComment removes the previous run's summary comment, if one
// exists. Used on a clean pass with the approval suppressed, where leaving
// a stale "concerns" comment behind would misrepresent the PR's state.
// Deletion failures are logged and do not fail the delivery.
func (p *Poster) deleteSummaryComment(ctx context.Context, req PostRequest) {
	commentID := int64(0)
	if req.Prior != nil {
		commentID = req.Prior.CommentID
	}
	if commentID == 0 {
		comments, err := p.client.ListComments(ctx, req.Owner, req.Repo, req.PullNumber)
		if err != nil {
			log.Printf("warning: failed to list comments for deletion: %v", err)
			return
		}
		commentID = findSummaryComment(comments, req.BotUsername)
	}
	if commentID == 0 {
		return
	}
	if err := p.client.DeleteComment(ctx, req.Owner, req.Repo, commentID); err != nil {
		log.Printf("warning: failed to delete summary comment %d: %v", commentID, err)
	}
}

// findSummaryComment returns the ID of the first marker-tagged comment,
// preferring an author match when a bot username is known.
func findSummaryComment(comments []github.IssueComment, botUsername string) int64 {
	for _, c := range comments {
		if !strings.HasPrefix(c.Body, feedback.CommentMarker) {
			continue
		}
		if botUsername != "" && !strings.EqualFold(c.User.Login, botUsername) {
			continue
		}
		return c.ID
	}
	return 0
}

func fingerprintSet(suggestions []domain.Suggestion) map[domain.Fingerprint]bool {
	if len(suggestions) == 0 {
		return nil
	}
	set := make(map[domain.Fingerprint]bool, len(suggestions))
	for _, s := range suggestions {
		set[domain.SuggestionFingerprint(s)] = true
	}
	return set
}
