package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/stubrouter/pkg/config"
	"github.com/getmockd/stubrouter/pkg/stubclient"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// globals holds the persistent flags and the configuration they resolve to.
type globals struct {
	configPath string
	adminURL   string
	token      string
	jsonOutput bool

	cfg *config.Config
}

// NewRootCommand builds the stubrouter command tree.
func NewRootCommand() *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:   "stubrouter",
		Short: "stubrouter manages HTTP stubs for mock targets",
		Long: `stubrouter keeps canned HTTP responses ("stubs") per mock target and
serves an editor to manage them.

Configuration can be provided via flags, STUBROUTER_* environment variables,
or a YAML/TOML configuration file (.stubrouter.yaml in the working directory
or ~/.config/stubrouter/config.yaml).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.load(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&g.configPath, "config", "", "Config file (YAML or TOML)")
	flags.StringVar(&g.adminURL, "admin-url", "", "Stub store base URL (default: "+config.DefaultAdminURL+")")
	flags.StringVar(&g.token, "token", "", "Bearer token for the stub store API")
	flags.BoolVar(&g.jsonOutput, "json", false, "Output command results in JSON format")

	rootCmd.AddCommand(
		newServeCmd(g),
		newStubsCmd(g),
		newTokenCmd(g),
		newVersionCmd(g),
	)
	return rootCmd
}

// Execute runs the root command with the process arguments.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// load resolves the configuration and applies flags on top of it.
func (g *globals) load(cmd *cobra.Command) error {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return err
	}

	flagCfg := &config.Config{}
	if cmd.Flags().Changed("admin-url") {
		flagCfg.AdminURL = g.adminURL
	}
	if cmd.Flags().Changed("token") {
		flagCfg.Token = g.token
	}
	config.Merge(cfg, flagCfg, config.SourceFlag)

	g.cfg = cfg
	return nil
}

// client returns a stub store client for the resolved admin URL.
func (g *globals) client() *stubclient.Client {
	var opts []stubclient.Option
	if g.cfg.Token != "" {
		opts = append(opts, stubclient.WithToken(g.cfg.Token))
	}
	return stubclient.New(g.cfg.AdminURL, opts...)
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
