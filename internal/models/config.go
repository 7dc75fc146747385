package models

import "time"

type DeviceConfig struct {
	Hostname        string        `mapstructure:"hostname" default:"move.local"`
	Match           string        `mapstructure:"match" default:"move"`
	ServiceType     string        `mapstructure:"service_type" default:"_http._tcp.local."`
	HTTPPort        int           `mapstructure:"http_port" default:"80"`
	ProbeTimeout    time.Duration `mapstructure:"probe_timeout"`
	ResolveTimeout  time.Duration `mapstructure:"resolve_timeout"`
	DiscoveryWindow time.Duration `mapstructure:"discovery_window"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	Address         string        `mapstructure:"address"` // Skip discovery and use this address
}

type AuthConfig struct {
	CookieName string        `mapstructure:"cookie_name" default:"Ableton-Challenge-Response-Token"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type SSHConfig struct {
	User             string        `mapstructure:"user" default:"ableton"`
	Dir              string        `mapstructure:"dir"`
	KeyName          string        `mapstructure:"key_name" default:"ableton_move"`
	ConventionalKeys []string      `mapstructure:"conventional_keys"`
	ConnectTimeout   time.Duration `mapstructure:"connect_timeout"`
	ResourceDir      string        `mapstructure:"resource_dir"` // Bundled binaries on windows
	NativeKeygen     bool          `mapstructure:"native_keygen"`
	HostAlias        string        `mapstructure:"host_alias" default:"move"`
}

type InstallConfig struct {
	RemoteTempDir   string `mapstructure:"remote_temp_dir" default:"/tmp"`
	CoreArchiveName string `mapstructure:"core_archive_name" default:"move-anything.tar.gz"`
	CoreExtractDir  string `mapstructure:"core_extract_dir" default:"move-anything"`
	InstallScript   string `mapstructure:"install_script" default:"install.sh"`
	BinaryPath      string `mapstructure:"binary_path" default:"/opt/move/Move"`
	BackupPath      string `mapstructure:"backup_path" default:"/opt/move/MoveOriginal"`
	DataRoot        string `mapstructure:"data_root" default:"/data/UserData/move-anything"`
	ModulesRoot     string `mapstructure:"modules_root" default:"/data/UserData/move-anything/modules"`
	ShimPath        string `mapstructure:"shim_path" default:"/usr/lib/move-anything-shim.so"`
	ServiceName     string `mapstructure:"service_name" default:"move-anything"`
	Sudo            string `mapstructure:"sudo" default:"sudo"` // Prefix for privileged commands, empty to run them directly
}

type TrustStoreConfig struct {
	Backend string `mapstructure:"backend" default:"keyring"` // keyring | file
	Service string `mapstructure:"service" default:"move-installer"`
	Key     string `mapstructure:"key" default:"auth-cookie"`
	Path    string `mapstructure:"path"` // file backend location
}

type ReleaseConfig struct {
	Owner          string `mapstructure:"owner" default:"charlesvestal"`
	Repo           string `mapstructure:"repo" default:"move-anything"`
	CatalogURL     string `mapstructure:"catalog_url"`
	GithubToken    string `mapstructure:"github_token"`
	DownloadDir    string `mapstructure:"download_dir"`
	UserAgent      string `mapstructure:"user_agent" default:"move-installer"`
	CoreAssetName  string `mapstructure:"core_asset_name" default:"move-anything.tar.gz"`
	InstallerOwner string `mapstructure:"installer_owner"`
	InstallerRepo  string `mapstructure:"installer_repo"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" default:"info"`
	Format string `mapstructure:"format" default:"text"`
	Output string `mapstructure:"output"`
}
