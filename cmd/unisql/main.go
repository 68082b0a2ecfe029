package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kadirbelkuyu/unisql/internal/app"
	"github.com/kadirbelkuyu/unisql/internal/config"
	"github.com/kadirbelkuyu/unisql/internal/database"
	"github.com/kadirbelkuyu/unisql/internal/profiles"
	"github.com/kadirbelkuyu/unisql/internal/ui/explorer"
	"github.com/kadirbelkuyu/unisql/pkg/logger"
)

const appName = "Unified SQL Toolkit"

const asciiBanner = `
 █████  █████ ██████   █████ █████  █████████   ██████    █████      
░░███  ░░███ ░░██████ ░░███ ░░███  ███░░░░░███ ███░░░░███ ░░███       
 ░███   ░███  ░███░███ ░███  ░███ ░███    ░░░ ███    ░░███ ░███       
 ░███   ░███  ░███░░███░███  ░███ ░░█████████░███     ░███ ░███       
 ░███   ░███  ░███ ░░██████  ░███  ░░░░░░░░███░███   ██░███ ░███       
 ░███   ░███  ░███  ░░█████  ░███  ███    ░███░░███ ░░████  ░███      █
 ░░████████   █████  ░░█████ █████░░█████████  ░░░██████░██ ███████████
  ░░░░░░░░   ░░░░░    ░░░░░ ░░░░░  ░░░░░░░░░     ░░░░░░ ░░ ░░░░░░░░░░░ 
`

var rootCmd = &cobra.Command{
	Use:   "unisql",
	Short: "One toolkit for PostgreSQL, MySQL and SQLite",
	Long:  `Query databases and inspect their schemas through a single value model, whichever of PostgreSQL, MySQL or SQLite sits behind the URL.`,
	RunE:  runInteractive,
}

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List tables and views grouped by schema",
	Args:  cobra.NoArgs,
	RunE:  runTables,
}

var describeCmd = &cobra.Command{
	Use:   "describe [table]",
	Short: "Show the columns and keys of a table",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDescribe,
}

var queryCmd = &cobra.Command{
	Use:   "query <sql> [params...]",
	Short: "Run a statement and print its rows",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuery,
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List database users",
	Args:  cobra.NoArgs,
	RunE:  runUsers,
}

var rolesCmd = &cobra.Command{
	Use:   "roles <user>",
	Short: "List the roles granted to a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runRoles,
}

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Open an interactive SQL shell",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Browse tables and data in the terminal explorer",
	Args:  cobra.NoArgs,
	RunE:  runExplore,
}

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Launch the guided interactive workflow",
	Args:  cobra.NoArgs,
	RunE:  runInteractive,
}

var (
	configPath   string
	connURL      string
	profileName  string
	schemaFilter string
	describeAll  bool
	showDDL      bool
	verbose      bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the database configuration file")
	rootCmd.PersistentFlags().StringVar(&connURL, "url", "", "Connection URL (postgres://, mysql://, sqlite:)")
	rootCmd.PersistentFlags().StringVar(&profileName, "profile", "", "Name of a saved configuration in "+app.DefaultConfigDir)
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")

	tablesCmd.Flags().StringVar(&schemaFilter, "schema", "", "Only list this schema")

	describeCmd.Flags().BoolVar(&describeAll, "all", false, "Describe every table")
	describeCmd.Flags().StringVar(&schemaFilter, "schema", "", "Only describe tables of this schema (with --all)")
	describeCmd.Flags().BoolVar(&showDDL, "ddl", false, "Print CREATE statements instead of the column listing")

	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(rolesCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(exploreCmd)
	rootCmd.AddCommand(interactiveCmd)

	cobra.OnInitialize(func() {
		rootCmd.SilenceUsage = true
		rootCmd.SilenceErrors = true
	})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig picks the connection settings: --url wins over --profile, which
// wins over --config.
func loadConfig() (*config.Config, error) {
	switch {
	case connURL != "":
		return config.FromURL(connURL)
	case profileName != "":
		cfg, err := profiles.NewManager(app.DefaultConfigDir).Load(profileName)
		if err != nil {
			return nil, fmt.Errorf("cannot load profile %s: %w", profileName, err)
		}
		return cfg, nil
	case configPath != "":
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("cannot load config: %w", err)
		}
		return cfg, nil
	default:
		return nil, errors.New("no connection given: use --url, --profile or --config")
	}
}

// withConnection opens the configured database, runs fn and closes the pool.
func withConnection(cmd *cobra.Command, fn func(context.Context, *database.Connection, *app.Service) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	timeout, err := cfg.GetAcquireTimeout()
	if err != nil {
		return err
	}

	log := logger.NewLogger(verbose)
	pool := database.NewPool(timeout, log)
	defer func() {
		if err := pool.Close(); err != nil {
			log.WithError(err).Warn("failed to close connections")
		}
	}()

	ctx := cmd.Context()
	conn, err := pool.Ensure(ctx, cfg.GetConnectionURL())
	if err != nil {
		return err
	}
	log.WithPlatform(conn.Name()).Debug("connected")

	return fn(ctx, conn, app.NewService(cmd.OutOrStdout(), log))
}

func runTables(cmd *cobra.Command, args []string) error {
	return withConnection(cmd, func(ctx context.Context, conn *database.Connection, svc *app.Service) error {
		return svc.ListTables(ctx, conn, schemaFilter)
	})
}

func runDescribe(cmd *cobra.Command, args []string) error {
	if describeAll == (len(args) == 1) {
		return errors.New("describe needs either a table name or --all")
	}
	return withConnection(cmd, func(ctx context.Context, conn *database.Connection, svc *app.Service) error {
		if describeAll {
			return svc.DescribeAll(ctx, conn, schemaFilter, showDDL)
		}
		return svc.Describe(ctx, conn, app.ParseTableName(args[0]), showDDL)
	})
}

func runQuery(cmd *cobra.Command, args []string) error {
	return withConnection(cmd, func(ctx context.Context, conn *database.Connection, svc *app.Service) error {
		return svc.Query(ctx, conn, args[0], args[1:])
	})
}

func runUsers(cmd *cobra.Command, args []string) error {
	return withConnection(cmd, func(ctx context.Context, conn *database.Connection, svc *app.Service) error {
		return svc.Users(ctx, conn)
	})
}

func runRoles(cmd *cobra.Command, args []string) error {
	return withConnection(cmd, func(ctx context.Context, conn *database.Connection, svc *app.Service) error {
		return svc.Roles(ctx, conn, args[0])
	})
}

func runShell(cmd *cobra.Command, args []string) error {
	return withConnection(cmd, func(ctx context.Context, conn *database.Connection, svc *app.Service) error {
		return app.NewShell(conn, svc, cmd.InOrStdin(), cmd.OutOrStdout()).Run(ctx)
	})
}

func runExplore(cmd *cobra.Command, args []string) error {
	return withConnection(cmd, func(ctx context.Context, conn *database.Connection, _ *app.Service) error {
		return explorer.Run(ctx, conn)
	})
}

func runInteractive(cmd *cobra.Command, args []string) error {
	application := app.NewApplication(cmd.InOrStdin(), cmd.OutOrStdout(), app.DefaultConfigDir, logger.NewLogger(verbose), printBanner)
	return application.RunInteractive(cmd.Context())
}

func printBanner() {
	fmt.Print(asciiBanner)
	fmt.Println(appName)
	fmt.Println(strings.Repeat("-", len(appName)))
}
