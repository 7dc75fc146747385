package release

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/inconshreveable/go-update"
	"github.com/sirupsen/logrus"

	"github.com/move-everything/installer/internal/common"
	"github.com/move-everything/installer/internal/models"
)

// Updater replaces the running installer binary with the newest
// installer-v* release asset for this platform.
type Updater struct {
	client  *Client
	owner   string
	repo    string
	current string
	goos    string
	goarch  string
	apply   func(io.Reader, update.Options) error
}

func NewUpdater(client *Client, owner, repo, current string) *Updater {
	return &Updater{
		client:  client,
		owner:   owner,
		repo:    repo,
		current: current,
		goos:    runtime.GOOS,
		goarch:  runtime.GOARCH,
		apply:   update.Apply,
	}
}

// AssetName is the release asset carrying the binary for this platform.
func (u *Updater) AssetName() string {
	name := fmt.Sprintf("move-installer_%s_%s", u.goos, u.goarch)
	if u.goos == "windows" {
		name += ".exe"
	}
	return name
}

// CheckForUpdate returns the newer release, or nil when the running
// version is current.
func (u *Updater) CheckForUpdate(ctx context.Context) (*models.Release, error) {
	rel, err := u.client.latestWithPrefix(ctx, u.owner, u.repo, installerPrefix)
	if err != nil {
		return nil, err
	}

	if !common.IsNewerVersion(u.current, rel.Version) {
		logrus.WithFields(logrus.Fields{
			"current": u.current,
			"latest":  rel.Version,
		}).Debugln("Installer is up to date")
		return nil, nil
	}
	return &rel, nil
}

// Update downloads and applies the newer release. It returns nil, nil when
// there is nothing to do.
func (u *Updater) Update(ctx context.Context) (*models.Release, error) {
	rel, err := u.CheckForUpdate(ctx)
	if err != nil || rel == nil {
		return nil, err
	}

	asset, ok := rel.FindAsset(u.AssetName())
	if !ok {
		return nil, models.NewError(models.KindNotFound,
			"release %s has no asset %s", rel.TagName, u.AssetName())
	}

	logrus.WithFields(logrus.Fields{
		"release": rel.TagName,
		"asset":   asset.Name,
	}).Infoln("Downloading installer update")

	resp, err := u.client.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(asset.BrowserDownloadURL)
	if err != nil {
		return nil, models.WrapError(models.KindNetworkError, err, "failed to download update")
	}
	body := resp.RawBody()
	defer body.Close()

	if !resp.IsSuccess() {
		return nil, models.NewError(models.KindNetworkError, "update download error: %s", resp.Status())
	}

	if err := u.apply(body, update.Options{}); err != nil {
		if rerr := update.RollbackError(err); rerr != nil {
			logrus.WithError(rerr).Errorln("Failed to roll back a failed update")
		}
		return nil, models.WrapError(models.KindIOError, err, "failed to apply update")
	}

	logrus.WithField("release", rel.TagName).Infoln("Installer updated")
	return rel, nil
}
