package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/lemma-network/lemma/lemma-app/config"
	"github.com/lemma-network/lemma/log"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "lemma",
		Short: "Lemma theorem bounty service",
		Long:  banner + "\n\nSubmit machine-checked proofs for theorem bounties published on the challenge ledger.",
		RunE:  runServe,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API service",
		RunE:  runServe,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run:   runVersion,
	}
)

const banner = `
██╗     ███████╗███╗   ███╗███╗   ███╗ █████╗
██║     ██╔════╝████╗ ████║████╗ ████║██╔══██╗
██║     █████╗  ██╔████╔██║██╔████╔██║███████║
██║     ██╔══╝  ██║╚██╔╝██║██║╚██╔╝██║██╔══██║
███████╗███████╗██║ ╚═╝ ██║██║ ╚═╝ ██║██║  ██║
╚══════╝╚══════╝╚═╝     ╚═╝╚═╝     ╚═╝╚═╝  ╚═╝`

func main() {
	if err := execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func execute() error {
	initCommands()
	return rootCmd.Execute()
}

func initCommands() {
	// Add subcommands
	rootCmd.AddCommand(serveCmd, challengesCmd, createCmd, submitCmd, claimCmd, configCmd, versionCmd)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (defaults and environment only when empty)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-pretty", false, "enable pretty logging")

	// Endpoint flags
	rootCmd.PersistentFlags().String("rpc-endpoint", "", "ledger RPC endpoint")
	rootCmd.PersistentFlags().String("contract", "", "challenge ledger contract address")
	rootCmd.PersistentFlags().String("prover-url", "", "proving service base URL")

	// Server flags
	serveCmd.Flags().String("listen-addr", "", "HTTP API listen address")
	rootCmd.Flags().String("listen-addr", "", "HTTP API listen address")

	initCommandFlags()
}

// loadConfig loads the config file and applies command line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, *log.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, log.New(cfg.Log.Level, cfg.Log.Pretty), nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	fmt.Println(banner)
	fmt.Println()

	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Str("go_version", runtime.Version()).
		Msg("Build information")

	log.Info().
		Str("config_file", cfgFile).
		Str("listen_addr", cfg.API.ListenAddr).
		Bool("metrics_enabled", cfg.Metrics.Enabled).
		Str("log_level", cfg.Log.Level).
		Msg("Configuration loaded")

	application, err := NewApp(cmd.Context(), cfg, log.Logger)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	return application.Run()
}

func runVersion(*cobra.Command, []string) {
	fmt.Println(banner)
	fmt.Println()
	fmt.Printf("Lemma\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)
	fmt.Printf("Go Version: %s\n", runtime.Version())
	fmt.Printf("OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}

	if changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if changed("log-pretty") {
		cfg.Log.Pretty, _ = flags.GetBool("log-pretty")
	}

	if changed("rpc-endpoint") {
		cfg.Ledger.RPCEndpoint, _ = flags.GetString("rpc-endpoint")
	}
	if changed("contract") {
		cfg.Ledger.ContractAddress, _ = flags.GetString("contract")
	}
	if changed("prover-url") {
		cfg.Prover.BaseURL, _ = flags.GetString("prover-url")
	}

	if changed("listen-addr") {
		cfg.API.ListenAddr, _ = flags.GetString("listen-addr")
	}
}
