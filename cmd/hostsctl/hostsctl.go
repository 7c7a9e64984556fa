package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Eagerod/hostsfile-tools/pkg/hostsfile"
	"github.com/Eagerod/hostsfile-tools/pkg/interrupt"
	"github.com/Eagerod/hostsfile-tools/pkg/kube"
	"github.com/Eagerod/hostsfile-tools/pkg/logging"
	"github.com/Eagerod/hostsfile-tools/pkg/privilege"
)

var VersionBuild string = "unstable-dev"

const (
	backendDisk      = "disk"
	backendConfigMap = "configmap"
)

type Options struct {
	HostsFile      string
	Backup         bool
	Remove         bool
	RemoveHostname string
	GetEntry       bool
	Verbose        bool
	NoElevate      bool

	Backend            string
	ConfigMapNamespace string
	ConfigMapName      string
}

// The pieces of the outside world the command reaches for, so tests can
// stand in for them.
type Runner struct {
	Escalator     privilege.Escalator
	NewKubeConfig func() (*kube.ClientConfig, error)
}

func Run() error {
	ctx, cancel := interrupt.WithAnySignal(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	r := Runner{privilege.NewSudoEscalator(), kubeConfigFromEnvironment}
	cmd := r.NewCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		logging.NewLogger(os.Stderr, false).Error(err)
		return err
	}
	return nil
}

// If running in the cluster, use the service account, else pull the API
// server and token from the environment.
func kubeConfigFromEnvironment() (*kube.ClientConfig, error) {
	clientConfig, err := kube.NewClientConfigInCluster()
	if err == nil {
		return clientConfig, nil
	}

	serverIp := os.Getenv("SERVER_IP")
	sat := os.Getenv("SERVICE_ACCOUNT_TOKEN")
	return kube.NewClientConfig(serverIp, sat)
}

func (r *Runner) NewCommand() *cobra.Command {
	opts := Options{}

	cmd := &cobra.Command{
		Use:   "hostsctl <ip_address> [hostnames...]",
		Short: "Manage entries in the hosts file",
		Long: `hostsctl adds, removes and looks up the hostnames mapped to an IPv4
address in a hosts file.

With only an address and hostnames, the hostnames are merged into the
address's entry, creating it if needed. A hostname given more than once,
or already present in the entry, is only written once.

Example:
  hostsctl 10.0.0.1 alpha beta
  hostsctl 10.0.0.1 --remove-hostname alpha
  hostsctl 10.0.0.1 --remove --backup
  hostsctl 10.0.0.1 --get-entry --hosts-file ./hosts`,
		Version:       VersionBuild,
		Args:          cobra.MinimumNArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateArgs(&opts, args); err != nil {
				return err
			}
			cmd.SilenceUsage = true

			return r.run(cmd, &opts, args[0], args[1:])
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&opts.Remove, "remove", "r", false, "Remove the entry for the given IP address (removes the entire line)")
	flags.StringVar(&opts.RemoveHostname, "remove-hostname", "", "Remove a specific hostname from the entry for the given IP address")
	flags.BoolVar(&opts.GetEntry, "get-entry", false, "Get the entry for the given IP address")
	flags.StringVar(&opts.HostsFile, "hosts-file", hostsfile.DefaultHostsFilePath, "Path to the hosts file")
	flags.BoolVar(&opts.Backup, "backup", false, "Create a backup of the hosts file before making changes")
	flags.BoolVar(&opts.NoElevate, "no-elevate", false, "Don't re-run under sudo when editing the system hosts file")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "Enable verbose output")
	flags.StringVar(&opts.Backend, "backend", backendDisk, "Where the hosts file lives, options: disk, configmap")
	flags.StringVar(&opts.ConfigMapNamespace, "configmap-namespace", "default", "Namespace of the ConfigMap for the configmap backend")
	flags.StringVar(&opts.ConfigMapName, "configmap-name", "hostsfile", "Name of the ConfigMap for the configmap backend")
	cmd.MarkFlagsMutuallyExclusive("remove", "remove-hostname", "get-entry")

	return cmd
}

func validateArgs(opts *Options, args []string) error {
	hostnames := args[1:]

	if opts.Backend != backendDisk && opts.Backend != backendConfigMap {
		return fmt.Errorf("unknown backend %s, supported backends are: disk, configmap", opts.Backend)
	}

	if opts.Remove && len(hostnames) > 0 {
		return errors.New("the --remove option cannot be used with hostnames")
	}

	if isAppend(opts) && len(hostnames) == 0 {
		return errors.New("the following arguments are required: hostnames (unless --remove, --remove-hostname or --get-entry is used)")
	}

	return nil
}

func (r *Runner) run(cmd *cobra.Command, opts *Options, ip string, hostnames []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	log := logging.NewLogger(out, opts.Verbose)

	// Nothing is read, written or escalated for input that would be rejected
	// anyway.
	if err := hostsfile.ValidateIPv4(ip); err != nil {
		return err
	}

	if isAppend(opts) {
		if err := hostsfile.ValidateHostnames(hostnames); err != nil {
			return err
		}
	}

	store, err := r.newStore(opts)
	if err != nil {
		return err
	}

	if opts.Backend == backendDisk && opts.HostsFile == hostsfile.DefaultHostsFilePath && !opts.NoElevate {
		if err := r.Escalator.Escalate(); err != nil {
			return err
		}
	}

	hf := hostsfile.NewHostsFile(store, log)

	if opts.Backup {
		backupPath, err := hf.Backup(ctx)
		if errors.Is(err, hostsfile.ErrNothingToBackup) {
			log.Warnf("Skipping backup: %v", err)
		} else if err != nil {
			return fmt.Errorf("failed to back up hosts file: %w", err)
		} else {
			log.Infof("Backup of hosts file created at: %s", backupPath)
		}
	}

	log.Infof("Using hosts file: %s", store.Name())

	switch {
	case opts.Remove:
		return removeEntry(ctx, hf, log, out, ip)
	case opts.RemoveHostname != "":
		return removeHostname(ctx, hf, log, out, ip, opts.RemoveHostname)
	case opts.GetEntry:
		return getEntries(ctx, hf, log, out, ip)
	default:
		line, err := hf.Append(ctx, ip, hostnames)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, strings.TrimSpace(line))
		return nil
	}
}

func isAppend(opts *Options) bool {
	return !opts.Remove && opts.RemoveHostname == "" && !opts.GetEntry
}

func (r *Runner) newStore(opts *Options) (hostsfile.Store, error) {
	if opts.Backend == backendDisk {
		return hostsfile.NewDiskStore(opts.HostsFile), nil
	}

	clientConfig, err := r.NewKubeConfig()
	if err != nil {
		return nil, fmt.Errorf("error creating Kubernetes client: %w", err)
	}
	return hostsfile.NewConfigMapStore(clientConfig.KubernetesClientSet, opts.ConfigMapNamespace, opts.ConfigMapName), nil
}

func removeEntry(ctx context.Context, hf *hostsfile.HostsFile, log logrus.FieldLogger, out io.Writer, ip string) error {
	removed, err := hf.RemoveEntry(ctx, ip)
	if err != nil {
		return err
	}

	if removed == nil {
		log.Warnf("No entries found for %s; nothing removed", ip)
		return nil
	}

	log.Infof("Removed %d line(s):", len(removed))
	printLines(out, removed)
	return nil
}

func removeHostname(ctx context.Context, hf *hostsfile.HostsFile, log logrus.FieldLogger, out io.Writer, ip, hostname string) error {
	modified, err := hf.RemoveHostname(ctx, ip, hostname)
	if err != nil {
		return err
	}

	if !modified {
		log.Warnf("Hostname '%s' not found for %s; hosts file unchanged", hostname, ip)
		return nil
	}

	log.Infof("Removed hostname '%s' from %s", hostname, ip)
	remaining, err := hf.GetEntries(ctx, ip)
	if err != nil {
		return err
	}
	printLines(out, remaining)
	return nil
}

func getEntries(ctx context.Context, hf *hostsfile.HostsFile, log logrus.FieldLogger, out io.Writer, ip string) error {
	entries, err := hf.GetEntries(ctx, ip)
	if err != nil {
		return err
	}

	if entries == nil {
		log.Warnf("No entries found for %s", ip)
		return nil
	}

	log.Infof("Found %d line(s) for %s:", len(entries), ip)
	printLines(out, entries)
	return nil
}

// Lines are printed exactly as they appear in the file.
func printLines(out io.Writer, lines []string) {
	for _, line := range lines {
		fmt.Fprint(out, line)
		if !strings.HasSuffix(line, "\n") {
			fmt.Fprintln(out)
		}
	}
}
