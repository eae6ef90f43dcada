package github

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpp-linter/cpp-linter/internal/adapter/github"
	"github.com/cpp-linter/cpp-linter/internal/domain"
	"github.com/cpp-linter/cpp-linter/internal/usecase/feedback"
)

type fakeClient struct {
	createInput    *github.CreateReviewInput
	createErr      error
	reviews        []github.ReviewSummary
	listReviewsErr error
	dismissed      []int64
	dismissErr     error
	comments       []github.IssueComment
	created        []string
	updated        map[int64]string
	deleted        []int64
	updateErr      error
	deleteErr      error
	nextReviewID   int64
	nextCommentID  int64
}

func (f *fakeClient) CreateReview(_ context.Context, input github.CreateReviewInput) (*github.CreateReviewResponse, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.createInput = &input
	return &github.CreateReviewResponse{ID: f.nextReviewID, HTMLURL: "https://example.test/review"}, nil
}

func (f *fakeClient) ListReviews(_ context.Context, _, _ string, _ int) ([]github.ReviewSummary, error) {
	return f.reviews, f.listReviewsErr
}

func (f *fakeClient) DismissReview(_ context.Context, _, _ string, _ int, reviewID int64, _ string) (*github.DismissReviewResponse, error) {
	if f.dismissErr != nil {
		return nil, f.dismissErr
	}
	f.dismissed = append(f.dismissed, reviewID)
	return &github.DismissReviewResponse{ID: reviewID, State: "DISMISSED"}, nil
}

func (f *fakeClient) ListComments(_ context.Context, _, _ string, _ int) ([]github.IssueComment, error) {
	return f.comments, nil
}

func (f *fakeClient) CreateComment(_ context.Context, _, _ string, _ int, text string) (*github.IssueComment, error) {
	f.created = append(f.created, text)
	return &github.IssueComment{ID: f.nextCommentID, Body: text}, nil
}

func (f *fakeClient) UpdateComment(_ context.Context, _, _ string, commentID int64, text string) (*github.IssueComment, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	if f.updated == nil {
		f.updated = map[int64]string{}
	}
	f.updated[commentID] = text
	return &github.IssueComment{ID: commentID, Body: text}, nil
}

func (f *fakeClient) DeleteComment(_ context.Context, _, _ string, commentID int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, commentID)
	return nil
}

func bundleWithReview() domain.OutputBundle {
	return domain.OutputBundle{
		SummaryComment: feedback.CommentMarker + "## Cpp-linter Review\n",
		Review: &domain.ReviewPayload{
			SummaryBody: feedback.CommentMarker + "## Cpp-linter Review\n",
			Verdict:     domain.VerdictRequestChanges,
			CommitSHA:   "abc123",
			Suggestions: []domain.Suggestion{
				{File: "src/a.cpp", AnchorStart: 3, AnchorEnd: 3, Replacement: "int x = 0;", Tool: domain.ToolClangFormat},
			},
		},
	}
}

func TestPost_SubmitsReviewAndRecordsState(t *testing.T) {
	client := &fakeClient{nextReviewID: 77}
	poster := NewPoster(client)

	result, err := poster.Post(context.Background(), PostRequest{
		Owner:      "octo",
		Repo:       "widgets",
		PullNumber: 12,
		Bundle:     bundleWithReview(),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(77), result.ReviewID)
	assert.Equal(t, 1, result.SuggestionsPosted)
	assert.Equal(t, "https://example.test/review", result.HTMLURL)
	require.NotNil(t, client.createInput)
	assert.Equal(t, "abc123", client.createInput.Payload.CommitSHA)

	assert.Equal(t, int64(77), result.State.ReviewID)
	assert.Len(t, result.State.Fingerprints, 1)
}

func TestPost_NoReviewPayloadPostsNothing(t *testing.T) {
	client := &fakeClient{}
	poster := NewPoster(client)

	result, err := poster.Post(context.Background(), PostRequest{
		Owner:      "octo",
		Repo:       "widgets",
		PullNumber: 12,
		Bundle:     domain.OutputBundle{Counts: domain.SummaryCounts{}},
		Prior:      &domain.PriorState{ReviewID: 5, CommentID: 9},
	})
	require.NoError(t, err)

	assert.Nil(t, client.createInput)
	assert.Zero(t, result.ReviewID)
	// Prior state survives untouched so the next run still sees it.
	assert.Equal(t, int64(5), result.State.ReviewID)
	assert.Equal(t, int64(9), result.State.CommentID)
}

func TestPost_DismissesReplacedReviewAfterPosting(t *testing.T) {
	client := &fakeClient{nextReviewID: 80}
	poster := NewPoster(client)

	bundle := bundleWithReview()
	bundle.Review.ReplaceReviewID = 44

	result, err := poster.Post(context.Background(), PostRequest{
		Owner: "octo", Repo: "widgets", PullNumber: 12,
		Bundle: bundle,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.DismissedCount)
	assert.Equal(t, []int64{44}, client.dismissed)
}

func TestPost_DismissesStaleBotReviews(t *testing.T) {
	client := &fakeClient{
		nextReviewID: 90,
		reviews: []github.ReviewSummary{
			{ID: 90, User: github.User{Login: "cpp-linter[bot]"}, State: "CHANGES_REQUESTED"},
			{ID: 31, User: github.User{Login: "cpp-linter[bot]"}, State: "CHANGES_REQUESTED"},
			{ID: 32, User: github.User{Login: "cpp-linter[bot]"}, State: "DISMISSED"},
			{ID: 33, User: github.User{Login: "human"}, State: "APPROVED"},
		},
	}
	poster := NewPoster(client)

	result, err := poster.Post(context.Background(), PostRequest{
		Owner: "octo", Repo: "widgets", PullNumber: 12,
		Bundle:      bundleWithReview(),
		BotUsername: "cpp-linter[bot]",
	})
	require.NoError(t, err)

	// The fresh review (90), the already-dismissed one, and the human's
	// review all stay; only the stale bot review goes.
	assert.Equal(t, 1, result.DismissedCount)
	assert.Equal(t, []int64{31}, client.dismissed)
}

func TestPost_DismissFailureDoesNotFailDelivery(t *testing.T) {
	client := &fakeClient{nextReviewID: 91, dismissErr: errors.New("boom")}
	poster := NewPoster(client)

	bundle := bundleWithReview()
	bundle.Review.ReplaceReviewID = 44

	result, err := poster.Post(context.Background(), PostRequest{
		Owner: "octo", Repo: "widgets", PullNumber: 12,
		Bundle: bundle,
	})
	require.NoError(t, err)
	assert.Zero(t, result.DismissedCount)
}

func TestPost_CreateReviewErrorLeavesPriorReviewsAlone(t *testing.T) {
	client := &fakeClient{createErr: errors.New("503")}
	poster := NewPoster(client)

	bundle := bundleWithReview()
	bundle.Review.ReplaceReviewID = 44

	_, err := poster.Post(context.Background(), PostRequest{
		Owner: "octo", Repo: "widgets", PullNumber: 12,
		Bundle: bundle,
	})
	require.Error(t, err)
	assert.Empty(t, client.dismissed)
}

func TestPost_ThreadCommentUpdatesPriorComment(t *testing.T) {
	client := &fakeClient{nextReviewID: 92}
	poster := NewPoster(client)

	result, err := poster.Post(context.Background(), PostRequest{
		Owner: "octo", Repo: "widgets", PullNumber: 12,
		Bundle:         bundleWithReview(),
		Prior:          &domain.PriorState{CommentID: 501},
		ThreadComments: true,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(501), result.CommentID)
	assert.Contains(t, client.updated[501], feedback.CommentMarker)
	assert.Empty(t, client.created)
}

func TestPost_ThreadCommentFindsMarkerWithoutStoredID(t *testing.T) {
	client := &fakeClient{
		nextReviewID: 93,
		comments: []github.IssueComment{
			{ID: 600, User: github.User{Login: "human"}, Body: "looks fine"},
			{ID: 601, User: github.User{Login: "cpp-linter[bot]"}, Body: feedback.CommentMarker + "old summary"},
		},
	}
	poster := NewPoster(client)

	result, err := poster.Post(context.Background(), PostRequest{
		Owner: "octo", Repo: "widgets", PullNumber: 12,
		Bundle:         bundleWithReview(),
		ThreadComments: true,
		BotUsername:    "cpp-linter[bot]",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(601), result.CommentID)
	assert.Equal(t, int64(601), result.State.CommentID)
}

func TestPost_ThreadCommentCreatesWhenUpdateFails(t *testing.T) {
	client := &fakeClient{
		nextReviewID:  94,
		nextCommentID: 700,
		updateErr:     errors.New("404"),
	}
	poster := NewPoster(client)

	result, err := poster.Post(context.Background(), PostRequest{
		Owner: "octo", Repo: "widgets", PullNumber: 12,
		Bundle:         bundleWithReview(),
		Prior:          &domain.PriorState{CommentID: 501},
		ThreadComments: true,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(700), result.CommentID)
	require.Len(t, client.created, 1)
	assert.Contains(t, client.created[0], "Cpp-linter Review")
}

func TestPost_ThreadCommentPostsWithoutReview(t *testing.T) {
	client := &fakeClient{nextCommentID: 800}
	poster := NewPoster(client)

	// A run that submits no review still maintains the conversation
	// comment, matching the thread-comments setting's independence from
	// the review setting.
	result, err := poster.Post(context.Background(), PostRequest{
		Owner: "octo", Repo: "widgets", PullNumber: 12,
		Bundle: domain.OutputBundle{
			SummaryComment: feedback.CommentMarker + "## Cpp-linter Review\nNo concerns from clang-tidy.\n",
			Counts:         domain.SummaryCounts{},
		},
		ThreadComments: true,
	})
	require.NoError(t, err)

	assert.Zero(t, result.ReviewID)
	assert.Equal(t, int64(800), result.CommentID)
	assert.Equal(t, int64(800), result.State.CommentID)
	require.Len(t, client.created, 1)
	assert.Contains(t, client.created[0], "No concerns from clang-tidy.")
}

func TestPost_EmptySummaryDeletesPriorComment(t *testing.T) {
	client := &fakeClient{}
	poster := NewPoster(client)

	// An empty summary means a clean pass with the approval suppressed:
	// the stale comment comes down rather than being rewritten.
	result, err := poster.Post(context.Background(), PostRequest{
		Owner: "octo", Repo: "widgets", PullNumber: 12,
		Bundle:         domain.OutputBundle{},
		Prior:          &domain.PriorState{CommentID: 501},
		ThreadComments: true,
	})
	require.NoError(t, err)

	assert.Equal(t, []int64{501}, client.deleted)
	assert.Zero(t, result.CommentID)
	assert.Zero(t, result.State.CommentID)
	assert.Empty(t, client.created)
	assert.Empty(t, client.updated)
}

func TestPost_EmptySummaryDeletesMarkerCommentWithoutStoredID(t *testing.T) {
	client := &fakeClient{
		comments: []github.IssueComment{
			{ID: 600, User: github.User{Login: "human"}, Body: "looks fine"},
			{ID: 601, User: github.User{Login: "cpp-linter[bot]"}, Body: feedback.CommentMarker + "old summary"},
		},
	}
	poster := NewPoster(client)

	_, err := poster.Post(context.Background(), PostRequest{
		Owner: "octo", Repo: "widgets", PullNumber: 12,
		Bundle:         domain.OutputBundle{},
		ThreadComments: true,
		BotUsername:    "cpp-linter[bot]",
	})
	require.NoError(t, err)

	assert.Equal(t, []int64{601}, client.deleted)
}

func TestPost_DeleteFailureDoesNotFailDelivery(t *testing.T) {
	client := &fakeClient{deleteErr: errors.New("403")}
	poster := NewPoster(client)

	_, err := poster.Post(context.Background(), PostRequest{
		Owner: "octo", Repo: "widgets", PullNumber: 12,
		Bundle:         domain.OutputBundle{},
		Prior:          &domain.PriorState{CommentID: 501},
		ThreadComments: true,
	})
	require.NoError(t, err)
}
