package cli

import (
	"context"
	"errors"
	"fmt"
	"net/netip"

	"github.com/charmbracelet/huh"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/move-everything/installer/internal/auth"
	"github.com/move-everything/installer/internal/common"
	"github.com/move-everything/installer/internal/discovery"
	"github.com/move-everything/installer/internal/installer"
	"github.com/move-everything/installer/internal/keys"
	"github.com/move-everything/installer/internal/models"
	"github.com/move-everything/installer/internal/release"
	"github.com/move-everything/installer/internal/remote"
	"github.com/move-everything/installer/internal/truststore"
)

// resolveDevice returns the configured address or runs discovery.
func resolveDevice(ctx context.Context) (models.DeviceHandle, error) {
	addr, ok, err := cfg.GetDeviceAddress()
	if err != nil {
		return models.DeviceHandle{}, err
	}
	if ok {
		logrus.WithField("address", addr.String()).Debugln("Using configured device address")
		return models.DeviceHandle{Hostname: cfg.Device.Hostname, Address: addr}, nil
	}

	fmt.Println(infoStyle.Render("Looking for your Move on the network..."))
	resolver := discovery.NewResolver(discovery.OptionsFromConfig(cfg.Device))
	handle, err := resolver.Resolve(ctx)
	if err != nil {
		return models.DeviceHandle{}, err
	}

	fmt.Printf("%s %s (%s)\n", successStyle.Render("Found Move:"), handle.Hostname, handle.Address)
	return handle, nil
}

func newKeyManager() (*keys.Manager, error) {
	sshDir, err := cfg.GetSSHDir()
	if err != nil {
		return nil, err
	}

	paths := remote.DefaultPaths(cfg.Environment.OperatingSystem, cfg.SSH.ResourceDir)

	return keys.NewManager(keys.Options{
		SSHDir:            sshDir,
		MachineName:       cfg.GetMachineName(),
		KeyName:           cfg.SSH.KeyName,
		ConventionalNames: cfg.SSH.ConventionalKeys,
		KeygenPath:        paths.Keygen,
		NativeFallback:    cfg.SSH.NativeKeygen,
		HostAlias:         cfg.SSH.HostAlias,
		DeviceHostname:    cfg.Device.Hostname,
		User:              cfg.SSH.User,
	}), nil
}

func newTokenStore() (*truststore.TokenStore, error) {
	path, err := cfg.GetTrustStorePath()
	if err != nil {
		return nil, err
	}
	store, err := truststore.NewStore(cfg.TrustStore, path)
	if err != nil {
		return nil, err
	}
	return truststore.NewTokenStore(store, cfg.TrustStore.Key), nil
}

func newAuthClient() *auth.Client {
	return auth.NewClient(auth.OptionsFromConfig(cfg.Auth, cfg.Device))
}

// newExecutor builds the remote shell. The key pair is optional; without it
// ssh falls back to its own key search.
func newExecutor(pair *models.KeyPair) *remote.Executor {
	opts := remote.Options{
		Paths:          remote.DefaultPaths(cfg.Environment.OperatingSystem, cfg.SSH.ResourceDir),
		User:           cfg.SSH.User,
		ConnectTimeout: cfg.SSH.ConnectTimeout,
	}
	if pair != nil {
		opts.IdentityFile = pair.PrivateKeyPath
	}
	return remote.NewExecutor(opts)
}

func newOrchestrator(shell installer.Shell, sink installer.ProgressFunc) *installer.Orchestrator {
	var opts []installer.OrchestratorOption
	if sink != nil {
		opts = append(opts, installer.WithProgress(sink))
	}
	return installer.NewOrchestrator(shell, cfg.Install, opts...)
}

func newReleaseClient() (*release.Client, error) {
	downloadDir, err := cfg.GetDownloadDir()
	if err != nil {
		return nil, err
	}
	return release.NewClient(release.OptionsFromConfig(cfg.Release, cfg.GetCatalogURL(), downloadDir))
}

// deviceSession is what every command that talks to the device over ssh needs.
type deviceSession struct {
	device   models.DeviceHandle
	keys     *keys.Manager
	pair     *models.KeyPair
	executor *remote.Executor
}

func (s *deviceSession) addr() netip.Addr {
	return s.device.Address
}

// connectDevice resolves the device and checks that the current key is
// accepted. When it is not, the user is walked through pairing.
func connectDevice(ctx context.Context) (*deviceSession, error) {
	device, err := resolveDevice(ctx)
	if err != nil {
		return nil, err
	}

	manager, err := newKeyManager()
	if err != nil {
		return nil, err
	}

	pair, _ := manager.FindExisting()
	session := &deviceSession{
		device:   device,
		keys:     manager,
		pair:     pair,
		executor: newExecutor(pair),
	}

	if session.executor.TestConnection(ctx, device.Address) {
		return session, nil
	}

	fmt.Println(warningStyle.Render("This computer is not paired with your Move yet."))
	if err := pairDevice(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// pairDevice ensures a key pair exists, authorizes it on the device and
// verifies the ssh connection.
func pairDevice(ctx context.Context, session *deviceSession) error {
	pair, generated, err := session.keys.EnsureKeyPair(ctx)
	if err != nil {
		return err
	}
	if generated {
		fmt.Println(successStyle.Render("Generated a new ssh key: ") + pair.PrivateKeyPath)
	}
	session.pair = &pair
	session.executor = newExecutor(&pair)

	if err := session.keys.WriteRemoteShellConfig(); err != nil {
		logrus.WithError(err).Warnln("Failed to update ssh config")
	}

	publicKey, err := keys.ReadPublicKey(pair)
	if err != nil {
		return err
	}

	tokens, err := newTokenStore()
	if err != nil {
		return err
	}
	client := newAuthClient()

	err = auth.AuthorizeStoredKey(ctx, client, tokens, session.addr(), publicKey)
	if errors.Is(err, models.ErrSessionExpired) {
		if _, err := loginInteractive(ctx, client, tokens, session.addr(), ""); err != nil {
			return err
		}
		err = auth.AuthorizeStoredKey(ctx, client, tokens, session.addr(), publicKey)
	}
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render("Key authorized on the device"))

	if !session.executor.TestConnection(ctx, session.addr()) {
		return models.NewError(models.KindUnreachable,
			"the device accepted the key but ssh still fails, check that ssh is enabled on the Move")
	}
	return nil
}

// confirm asks a yes/no question unless --yes was given.
func confirm(cmd *cobra.Command, title, description string) (bool, error) {
	if yes, err := cmd.Flags().GetBool("yes"); err == nil && yes {
		return true, nil
	}

	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Value(&ok),
		),
	)
	if err := form.Run(); err != nil {
		return false, err
	}
	return ok, nil
}

// commandContext cancels on Ctrl+C
func commandContext() (context.Context, context.CancelFunc) {
	return common.WithInterrupt(context.Background())
}

func plainOutput(cmd *cobra.Command) bool {
	plain, err := cmd.Flags().GetBool("plain")
	return err == nil && plain
}
