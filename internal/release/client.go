package release

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/go-github/v57/github"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/move-everything/installer/internal/common"
	"github.com/move-everything/installer/internal/models"
)

const (
	releasesPerPage    = 10
	corePrefix         = "v"
	installerPrefix    = "installer-v"
	defaultDownloadURL = "https://github.com"
)

// Client fetches releases, the module catalog and release assets. It is the
// only component that talks to GitHub; the installer only ever sees local
// artifact paths.
type Client struct {
	github      *github.Client
	http        *resty.Client
	owner       string
	repo        string
	catalogURL  string
	downloadURL string
	downloadDir string
}

type Options struct {
	Owner       string
	Repo        string
	Token       string
	CatalogURL  string
	DownloadDir string
	UserAgent   string
	Timeout     time.Duration

	// Overrides for tests and GitHub Enterprise.
	APIBaseURL      string
	DownloadBaseURL string
	HTTPClient      *http.Client
}

func OptionsFromConfig(cfg models.ReleaseConfig, catalogURL, downloadDir string) Options {
	return Options{
		Owner:       cfg.Owner,
		Repo:        cfg.Repo,
		Token:       cfg.GithubToken,
		CatalogURL:  catalogURL,
		DownloadDir: downloadDir,
		UserAgent:   cfg.UserAgent,
	}
}

func NewClient(opts Options) (*Client, error) {
	if len(opts.UserAgent) == 0 {
		opts.UserAgent = "move-installer"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}
	if len(opts.DownloadBaseURL) == 0 {
		opts.DownloadBaseURL = defaultDownloadURL
	}

	httpClient := opts.HTTPClient
	if len(strings.TrimSpace(opts.Token)) > 0 {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: opts.Token},
		)
		ctx := context.Background()
		if httpClient != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
		}
		httpClient = oauth2.NewClient(ctx, ts)
	} else {
		logrus.Debugln("GitHub token not provided; using unauthenticated API access")
	}

	gh := github.NewClient(httpClient)
	gh.UserAgent = common.GetUserAgent(opts.UserAgent)
	if len(opts.APIBaseURL) > 0 {
		base, err := url.Parse(strings.TrimSuffix(opts.APIBaseURL, "/") + "/")
		if err != nil {
			return nil, models.WrapError(models.KindInvalidArgument, err,
				"invalid GitHub API URL %q", opts.APIBaseURL)
		}
		gh.BaseURL = base
	}

	rc := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", common.GetUserAgent(opts.UserAgent))
	if opts.HTTPClient != nil {
		rc = resty.NewWithClient(opts.HTTPClient).
			SetTimeout(opts.Timeout).
			SetHeader("User-Agent", common.GetUserAgent(opts.UserAgent))
	}

	return &Client{
		github:      gh,
		http:        rc,
		owner:       opts.Owner,
		repo:        opts.Repo,
		catalogURL:  opts.CatalogURL,
		downloadURL: strings.TrimSuffix(opts.DownloadBaseURL, "/"),
		downloadDir: opts.DownloadDir,
	}, nil
}

// LatestRelease returns the newest core release. Only tags starting with
// "v" count; installer releases published in the same repository are
// skipped.
func (c *Client) LatestRelease(ctx context.Context) (models.Release, error) {
	return c.latestWithPrefix(ctx, c.owner, c.repo, corePrefix)
}

func (c *Client) latestWithPrefix(ctx context.Context, owner, repo, prefix string) (models.Release, error) {
	logrus.WithFields(logrus.Fields{
		"owner":  owner,
		"repo":   repo,
		"prefix": prefix,
	}).Debugln("Listing releases")

	releases, _, err := c.github.Repositories.ListReleases(ctx, owner, repo,
		&github.ListOptions{PerPage: releasesPerPage})
	if err != nil {
		return models.Release{}, models.WrapError(models.KindNetworkError, err,
			"failed to list releases for %s/%s", owner, repo)
	}

	for _, rel := range releases {
		if rel.GetDraft() || !strings.HasPrefix(rel.GetTagName(), prefix) {
			continue
		}
		return toRelease(rel, prefix), nil
	}

	return models.Release{}, models.NewError(models.KindNotFound,
		"no %s* release found for %s/%s", prefix, owner, repo)
}

// LatestVersion returns the version of a repository's latest release with
// any leading "v" removed. repository is "owner/name".
func (c *Client) LatestVersion(ctx context.Context, repository string) (string, error) {
	owner, repo, ok := strings.Cut(repository, "/")
	if !ok || len(owner) == 0 || len(repo) == 0 {
		return "", models.NewError(models.KindInvalidArgument, "invalid repository %q", repository)
	}

	rel, _, err := c.github.Repositories.GetLatestRelease(ctx, owner, repo)
	if err != nil {
		return "", models.WrapError(models.KindNetworkError, err,
			"failed to get latest release for %s", repository)
	}
	return strings.TrimPrefix(rel.GetTagName(), "v"), nil
}

// CoreDownloadURL is the stable URL of the core asset in the latest release.
func (c *Client) CoreDownloadURL(assetName string) string {
	return c.latestDownloadURL(c.owner+"/"+c.repo, assetName)
}

// ModuleDownloadURL is the stable URL of a module's asset in its latest release.
func (c *Client) ModuleDownloadURL(module models.Module) string {
	return c.latestDownloadURL(module.GithubRepo, module.AssetName)
}

func (c *Client) latestDownloadURL(repository, assetName string) string {
	return fmt.Sprintf("%s/%s/releases/latest/download/%s", c.downloadURL, repository, assetName)
}

func toRelease(rel *github.RepositoryRelease, prefix string) models.Release {
	out := models.Release{
		TagName: rel.GetTagName(),
		Name:    rel.GetName(),
		Version: strings.TrimPrefix(rel.GetTagName(), prefix),
		Assets:  make([]models.Asset, 0, len(rel.Assets)),
	}
	for _, asset := range rel.Assets {
		out.Assets = append(out.Assets, models.Asset{
			Name:               asset.GetName(),
			BrowserDownloadURL: asset.GetBrowserDownloadURL(),
		})
	}
	return out
}
