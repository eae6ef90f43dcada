package config

// Config represents the full application configuration.
type Config struct {
	GitHub  GitHubConfig  `yaml:"github"`
	Filter  FilterConfig  `yaml:"filter"`
	Review  ReviewConfig  `yaml:"review"`
	Output  OutputConfig  `yaml:"output"`
	Git     GitConfig     `yaml:"git"`
	HTTP    HTTPConfig    `yaml:"http"`
	Store   StoreConfig   `yaml:"store"`
	Logging LoggingConfig `yaml:"logging"`
}

// GitHubConfig locates the pull request under review and the credentials
// for it. In Actions these come from the event environment.
type GitHubConfig struct {
	Token      string `yaml:"token"`
	APIURL     string `yaml:"apiUrl"`
	Repository string `yaml:"repository"` // owner/name
	PullNumber int    `yaml:"pullNumber"`
	CommitSHA  string `yaml:"commitSha"`
}

// FilterConfig restricts which changed lines receive feedback.
type FilterConfig struct {
	// LinesChangedOnly is "none", "added-only", or "full-diff".
	LinesChangedOnly string `yaml:"linesChangedOnly"`

	// Extensions limits analysis to files with these extensions.
	Extensions []string `yaml:"extensions"`

	// IgnorePaths drops files under the given path prefixes.
	IgnorePaths []string `yaml:"ignorePaths"`
}

// ReviewConfig configures pull request review behavior.
type ReviewConfig struct {
	TidyReview     bool `yaml:"tidyReview"`
	FormatReview   bool `yaml:"formatReview"`
	NoLGTM         bool `yaml:"noLgtm"`
	PassiveReviews bool `yaml:"passiveReviews"`
	ThreadComments bool `yaml:"threadComments"`
}

// OutputConfig configures where run artifacts are rendered.
type OutputConfig struct {
	FileAnnotations bool `yaml:"fileAnnotations"`
	StepSummary     bool `yaml:"stepSummary"`
}

type GitConfig struct {
	RepositoryDir string `yaml:"repositoryDir"`
	BaseRef       string `yaml:"baseRef"`
	TargetRef     string `yaml:"targetRef"`
}

// HTTPConfig holds global HTTP client settings.
type HTTPConfig struct {
	Timeout           string  `yaml:"timeout"`
	MaxRetries        int     `yaml:"maxRetries"`
	InitialBackoff    string  `yaml:"initialBackoff"`
	MaxBackoff        string  `yaml:"maxBackoff"`
	BackoffMultiplier float64 `yaml:"backoffMultiplier"`
}

// StoreConfig configures the prior-state persistence layer.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoggingConfig configures request/response logging.
type LoggingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Level       string `yaml:"level"`  // debug, info, error
	Format      string `yaml:"format"` // json, human
	RedactToken bool   `yaml:"redactToken"`
}
