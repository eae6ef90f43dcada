package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cpp-linter/cpp-linter/internal/adapter/cli"
	"github.com/cpp-linter/cpp-linter/internal/adapter/git"
	githubadapter "github.com/cpp-linter/cpp-linter/internal/adapter/github"
	"github.com/cpp-linter/cpp-linter/internal/adapter/httpx"
	"github.com/cpp-linter/cpp-linter/internal/adapter/output/actions"
	"github.com/cpp-linter/cpp-linter/internal/adapter/output/console"
	"github.com/cpp-linter/cpp-linter/internal/adapter/store/sqlite"
	"github.com/cpp-linter/cpp-linter/internal/config"
	"github.com/cpp-linter/cpp-linter/internal/diff"
	usecasegithub "github.com/cpp-linter/cpp-linter/internal/usecase/github"
	"github.com/cpp-linter/cpp-linter/internal/usecase/review"
	"github.com/cpp-linter/cpp-linter/internal/version"
)

func main() {
	err := run()
	if err == nil {
		return
	}
	if errors.Is(err, cli.ErrChecksFailed) {
		// The annotations and summary already say what failed.
		os.Exit(1)
	}
	log.Println(err)
	os.Exit(1)
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	if cfg.GitHub.Token == "" {
		cfg.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	}

	deps := cli.Dependencies{
		NewRunner: runnerFactory(cfg),
		Config:    cfg,
		Version:   version.Value(),
		Console:   console.NewWriter(),
	}
	if os.Getenv("GITHUB_ACTIONS") == "true" {
		deps.Actions = actions.NewWriter()
	}

	root := cli.NewRootCommand(deps)
	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		return err
	}
	return nil
}

// runnerFactory wires an orchestrator for the resolved source options: the
// GitHub diff endpoint when a pull request is addressed, the local git
// engine otherwise.
func runnerFactory(cfg config.Config) cli.RunnerFactory {
	return func(opts cli.SourceOptions) (cli.Runner, error) {
		var source review.DiffSource
		var poster review.Poster

		if opts.Repository != "" && opts.PullNumber > 0 {
			client, err := buildGitHubClient(cfg, opts)
			if err != nil {
				return nil, err
			}
			owner, repo, ok := splitOnce(opts.Repository)
			if !ok {
				return nil, fmt.Errorf("repository %q is not in owner/name form", opts.Repository)
			}
			source = &githubSource{client: client, owner: owner, repo: repo, pull: opts.PullNumber}
			if opts.Post {
				poster = usecasegithub.NewPoster(client)
			}
		} else {
			repoDir := opts.RepoDir
			if repoDir == "" {
				repoDir = "."
			}
			source = &gitSource{
				engine:      git.NewEngine(repoDir),
				base:        opts.BaseRef,
				target:      opts.TargetRef,
				uncommitted: opts.IncludeUncommitted,
			}
		}

		store, err := buildStore(cfg)
		if err != nil {
			return nil, err
		}
		return review.NewOrchestrator(source, poster, store), nil
	}
}

func buildGitHubClient(cfg config.Config, opts cli.SourceOptions) (*githubadapter.Client, error) {
	if opts.Token == "" {
		return nil, fmt.Errorf("a GitHub token is required to address a pull request")
	}
	client := githubadapter.NewClient(opts.Token)
	if opts.APIURL != "" {
		client.SetBaseURL(opts.APIURL)
	}
	if cfg.HTTP.Timeout != "" {
		if timeout, err := time.ParseDuration(cfg.HTTP.Timeout); err == nil {
			client.SetTimeout(timeout)
		} else {
			log.Printf("warning: invalid http timeout %q, using default", cfg.HTTP.Timeout)
		}
	}
	if cfg.HTTP.MaxRetries > 0 {
		client.SetMaxRetries(cfg.HTTP.MaxRetries)
	}
	if cfg.Logging.Enabled {
		client.SetLogger(buildLogger(cfg.Logging))
	}
	return client, nil
}

func buildLogger(cfg config.LoggingConfig) httpx.Logger {
	level := httpx.LogLevelInfo
	switch cfg.Level {
	case "debug":
		level = httpx.LogLevelDebug
	case "error":
		level = httpx.LogLevelError
	}
	format := httpx.LogFormatHuman
	if cfg.Format == "json" {
		format = httpx.LogFormatJSON
	}
	return httpx.NewDefaultLogger(level, format, cfg.RedactToken)
}

func buildStore(cfg config.Config) (review.StateStore, error) {
	if !cfg.Store.Enabled {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	store, err := sqlite.NewStore(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}
	return store, nil
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "cpp-linter"))
	}
	return paths
}

func splitOnce(repository string) (owner, repo string, ok bool) {
	for i := 0; i < len(repository); i++ {
		if repository[i] == '/' {
			return repository[:i], repository[i+1:], i > 0 && i < len(repository)-1
		}
	}
	return "", "", false
}

// githubSource feeds the paginated PR diff into the pipeline.
type githubSource struct {
	client *githubadapter.Client
	owner  string
	repo   string
	pull   int
}

func (s *githubSource) DiffPages(ctx context.Context) ([]diff.Page, error) {
	return s.client.FetchDiffPages(ctx, s.owner, s.repo, s.pull)
}

// gitSource feeds a locally computed diff into the pipeline.
type gitSource struct {
	engine      *git.Engine
	base        string
	target      string
	uncommitted bool
}

func (s *gitSource) DiffPages(ctx context.Context) ([]diff.Page, error) {
	return s.engine.DiffPages(ctx, s.base, s.target, s.uncommitted)
}
