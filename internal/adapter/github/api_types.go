package github

// GitHub REST API types for pull request reviews, changed-file listings,
// and issue comments.
// See: https://docs.github.com/en/rest/pulls/reviews#create-a-review-for-a-pull-request

// ReviewState is the lifecycle state of a submitted review.
type ReviewState string

const (
	StatePending          ReviewState = "PENDING"
	StateApproved         ReviewState = "APPROVED"
	StateChangesRequested ReviewState = "CHANGES_REQUESTED"
	StateCommented        ReviewState = "COMMENTED"
	StateDismissed        ReviewState = "DISMISSED"
)

// ReviewEvent represents the action to take when submitting a review.
type ReviewEvent string

const (
	// EventComment submits the review without approval.
	EventComment ReviewEvent = "COMMENT"

	// EventApprove approves the pull request.
	EventApprove ReviewEvent = "APPROVE"

	// EventRequestChanges requests changes to the pull request.
	EventRequestChanges ReviewEvent = "REQUEST_CHANGES"
)

// CreateReviewRequest is the request body for POST /repos/{owner}/{repo}/pulls/{pull_number}/reviews.
type CreateReviewRequest struct {
	// CommitID is the SHA of the commit to review (must be the head commit of the PR).
	CommitID string `json:"commit_id"`

	// Event is the review action: APPROVE, REQUEST_CHANGES, or COMMENT.
	Event ReviewEvent `json:"event"`

	// Body is the review summary comment.
	Body string `json:"body"`

	// Comments are the inline review comments anchored to diff lines.
	Comments []ReviewComment `json:"comments,omitempty"`
}

// ReviewComment is an inline review comment anchored with the line-based
// addressing of the modern reviews API. Single-line comments set Line only;
// multi-line comments additionally set StartLine.
type ReviewComment struct {
	// Path is the relative path of the file to comment on.
	Path string `json:"path"`

	// Line is the last (or only) new-side line of the commented range.
	Line int `json:"line"`

	// StartLine is the first line of a multi-line range; omitted for
	// single-line comments.
	StartLine int `json:"start_line,omitempty"`

	// Side is always RIGHT: anchors refer to new-side line numbers.
	Side string `json:"side"`

	// Body is the comment text (supports GitHub-flavored Markdown).
	Body string `json:"body"`
}

// CreateReviewResponse is the response from POST /repos/{owner}/{repo}/pulls/{pull_number}/reviews.
type CreateReviewResponse struct {
	ID          int64  `json:"id"`
	NodeID      string `json:"node_id"`
	User        User   `json:"user"`
	Body        string `json:"body"`
	State       string `json:"state"` // PENDING, APPROVED, CHANGES_REQUESTED, COMMENTED, DISMISSED
	HTMLURL     string `json:"html_url"`
	SubmittedAt string `json:"submitted_at"`
}

// ReviewSummary is one element of GET /repos/{owner}/{repo}/pulls/{pull_number}/reviews.
type ReviewSummary struct {
	ID    int64  `json:"id"`
	User  User   `json:"user"`
	Body  string `json:"body"`
	State string `json:"state"`
}

// DismissReviewRequest is the request body for PUT .../reviews/{review_id}/dismissals.
type DismissReviewRequest struct {
	Message string `json:"message"`
	Event   string `json:"event,omitempty"`
}

// DismissReviewResponse is the response from dismissing a review.
type DismissReviewResponse struct {
	ID    int64  `json:"id"`
	State string `json:"state"`
}

// PullFile is one element of GET /repos/{owner}/{repo}/pulls/{pull_number}/files.
// Patch holds the file's hunks without the diff --git header line.
type PullFile struct {
	Filename         string `json:"filename"`
	PreviousFilename string `json:"previous_filename"`
	Status           string `json:"status"` // added, removed, modified, renamed
	Additions        int    `json:"additions"`
	Deletions        int    `json:"deletions"`
	Patch            string `json:"patch"`
}

// IssueComment is a comment on the PR conversation thread, used for the
// persistent summary comment.
type IssueComment struct {
	ID   int64  `json:"id"`
	User User   `json:"user"`
	Body string `json:"body"`
}

// User represents a GitHub user in API responses.
type User struct {
	Login string `json:"login"`
	ID    int64  `json:"id"`
	Type  string `json:"type"` // "User" or "Bot"
}

// ErrorResponse represents an error response from the GitHub API.
type ErrorResponse struct {
	Message          string `json:"message"`
	DocumentationURL string `json:"documentation_url"`
	Errors           []struct {
		Resource string `json:"resource"`
		Field    string `json:"field"`
		Code     string `json:"code"`
		Message  string `json:"message"`
	} `json:"errors,omitempty"`
}
