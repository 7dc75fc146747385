package models

// Release is the subset of a GitHub release the installer consumes.
type Release struct {
	TagName string  `json:"tag_name"`
	Name    string  `json:"name"`
	Version string  `json:"version"`
	Assets  []Asset `json:"assets"`
}

type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

func (r Release) FindAsset(name string) (Asset, bool) {
	for _, asset := range r.Assets {
		if asset.Name == name {
			return asset, true
		}
	}
	return Asset{}, false
}

// Module is one entry of the module catalog.
type Module struct {
	ID             string `json:"id" yaml:"id"`
	Name           string `json:"name" yaml:"name"`
	Description    string `json:"description" yaml:"description"`
	Author         string `json:"author" yaml:"author"`
	ComponentType  string `json:"component_type" yaml:"component_type"`
	GithubRepo     string `json:"github_repo" yaml:"github_repo"`
	AssetName      string `json:"asset_name" yaml:"asset_name"`
	MinHostVersion string `json:"min_host_version" yaml:"min_host_version"`
	Requires       string `json:"requires,omitempty" yaml:"requires,omitempty"`

	// Filled in by the catalog client, not part of the published file.
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`
	DownloadURL string `json:"download_url,omitempty" yaml:"download_url,omitempty"`
}

// HostInfo describes the core package in a v2 catalog.
type HostInfo struct {
	Name           string `json:"name"`
	GithubRepo     string `json:"github_repo"`
	AssetName      string `json:"asset_name"`
	LatestVersion  string `json:"latest_version"`
	DownloadURL    string `json:"download_url"`
	MinHostVersion string `json:"min_host_version"`
}

// ModuleCatalog is the published catalog document.
type ModuleCatalog struct {
	CatalogVersion int      `json:"catalog_version"`
	Host           HostInfo `json:"host"`
	Modules        []Module `json:"modules"`
}
