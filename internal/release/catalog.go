package release

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/move-everything/installer/internal/common"
	"github.com/move-everything/installer/internal/models"
)

// FetchCatalog loads the module catalog. Both the versioned document and a
// bare module array are accepted. A catalog URL without an http scheme is
// read from the local filesystem.
func (c *Client) FetchCatalog(ctx context.Context) (models.ModuleCatalog, error) {
	data, err := c.catalogBytes(ctx)
	if err != nil {
		return models.ModuleCatalog{}, err
	}
	return ParseCatalog(data)
}

func (c *Client) catalogBytes(ctx context.Context) ([]byte, error) {
	if !strings.HasPrefix(c.catalogURL, "http://") && !strings.HasPrefix(c.catalogURL, "https://") {
		data, err := os.ReadFile(c.catalogURL)
		if err != nil {
			return nil, models.WrapError(models.KindIOError, err, "failed to read catalog %s", c.catalogURL)
		}
		return data, nil
	}

	logrus.WithField("url", c.catalogURL).Debugln("Fetching module catalog")

	resp, err := c.http.R().SetContext(ctx).Get(c.catalogURL)
	if err != nil {
		return nil, models.WrapError(models.KindNetworkError, err, "failed to fetch catalog")
	}
	if !resp.IsSuccess() {
		return nil, models.NewError(models.KindNetworkError,
			"failed to fetch catalog: %s", resp.Status())
	}
	return resp.Body(), nil
}

// ParseCatalog decodes a catalog document.
func ParseCatalog(data []byte) (models.ModuleCatalog, error) {
	data = bytes.TrimSpace(data)

	if bytes.HasPrefix(data, []byte("[")) {
		var modules []models.Module
		if err := json.Unmarshal(data, &modules); err != nil {
			return models.ModuleCatalog{}, models.WrapError(models.KindUnexpected, err,
				"failed to parse catalog")
		}
		return models.ModuleCatalog{Modules: modules}, nil
	}

	catalog, err := common.DecodeDocument[models.ModuleCatalog](data)
	if err != nil {
		return models.ModuleCatalog{}, models.WrapError(models.KindUnexpected, err,
			"failed to parse catalog")
	}
	if catalog.Modules == nil {
		catalog.Modules = []models.Module{}
	}
	return catalog, nil
}

// ResolveCatalog fetches the catalog and fills in download URLs. Latest
// versions are only looked up for installed modules to stay inside the
// unauthenticated API rate limit.
func (c *Client) ResolveCatalog(ctx context.Context, installedIDs []string) ([]models.Module, error) {
	catalog, err := c.FetchCatalog(ctx)
	if err != nil {
		return nil, err
	}

	installed := make(map[string]bool, len(installedIDs))
	for _, id := range installedIDs {
		installed[id] = true
	}

	modules := make([]models.Module, 0, len(catalog.Modules))
	for _, module := range catalog.Modules {
		module.DownloadURL = c.ModuleDownloadURL(module)

		if installed[module.ID] {
			version, err := c.LatestVersion(ctx, module.GithubRepo)
			if err != nil {
				logrus.WithError(err).WithField("module", module.ID).
					Debugln("Could not fetch latest module version")
			} else {
				module.Version = version
			}
		}
		modules = append(modules, module)
	}

	return modules, nil
}

// FindModule returns the catalog entry with the given id.
func FindModule(modules []models.Module, id string) (models.Module, bool) {
	for _, module := range modules {
		if module.ID == id {
			return module, true
		}
	}
	return models.Module{}, false
}
