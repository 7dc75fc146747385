package release

import (
	"context"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/move-everything/installer/internal/common"
	"github.com/move-everything/installer/internal/models"
)

// Download saves url under the download directory as name and returns the
// local path. A partial file never replaces a previous download.
func (c *Client) Download(ctx context.Context, url, name string) (string, error) {
	if len(name) == 0 || filepath.Base(name) != name {
		return "", models.NewError(models.KindInvalidArgument, "invalid download name %q", name)
	}

	dir := c.downloadDir
	if len(dir) == 0 {
		dir = filepath.Join(os.TempDir(), "move-installer")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", models.WrapError(models.KindIOError, err, "failed to create %s", dir)
	}

	target := filepath.Join(dir, name)

	// Concurrent downloads of the same asset must not share a partial file
	suffix, err := common.RandomSuffix(8)
	if err != nil {
		return "", models.WrapError(models.KindIOError, err, "failed to name download")
	}
	partial := target + "." + suffix + ".part"

	logrus.WithFields(logrus.Fields{
		"url":  url,
		"path": target,
	}).Debugln("Downloading release asset")

	resp, err := c.http.R().
		SetContext(ctx).
		SetOutput(partial).
		Get(url)
	if err != nil {
		os.Remove(partial)
		return "", models.WrapError(models.KindNetworkError, err, "download failed")
	}
	if !resp.IsSuccess() {
		os.Remove(partial)
		return "", models.NewError(models.KindNetworkError, "download error: %s", resp.Status())
	}

	if err := os.Rename(partial, target); err != nil {
		os.Remove(partial)
		return "", models.WrapError(models.KindIOError, err, "failed to save %s", target)
	}

	if info, err := os.Stat(target); err == nil {
		logrus.WithFields(logrus.Fields{
			"path":  target,
			"bytes": info.Size(),
		}).Infoln("Downloaded release asset")
	}

	return target, nil
}

// DownloadCore downloads the core asset of the latest release.
func (c *Client) DownloadCore(ctx context.Context, rel models.Release, assetName string) (string, error) {
	url := c.CoreDownloadURL(assetName)
	if asset, ok := rel.FindAsset(assetName); ok && len(asset.BrowserDownloadURL) > 0 {
		url = asset.BrowserDownloadURL
	}
	return c.Download(ctx, url, assetName)
}

// DownloadModule downloads a module asset from its latest release.
func (c *Client) DownloadModule(ctx context.Context, module models.Module) (string, error) {
	if len(module.GithubRepo) == 0 || len(module.AssetName) == 0 {
		return "", models.NewError(models.KindInvalidArgument,
			"module %s has no release asset", module.ID)
	}
	url := module.DownloadURL
	if len(url) == 0 {
		url = c.ModuleDownloadURL(module)
	}
	return c.Download(ctx, url, module.ID+"-"+filepath.Base(module.AssetName))
}
