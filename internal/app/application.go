package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kadirbelkuyu/unisql/internal/config"
	"github.com/kadirbelkuyu/unisql/internal/database"
	"github.com/kadirbelkuyu/unisql/internal/profiles"
	"github.com/kadirbelkuyu/unisql/internal/ui/explorer"
	"github.com/kadirbelkuyu/unisql/pkg/logger"
)

const DefaultConfigDir = "configs"

// Application is the menu-driven mode: pick or create a connection profile,
// then inspect the database through the shared workflows.
type Application struct {
	reader         *bufio.Reader
	out            io.Writer
	printBanner    func()
	profileManager *profiles.Manager
	logger         *logger.Logger
	service        *Service
}

func NewApplication(r io.Reader, out io.Writer, profileDir string, log *logger.Logger, printBanner func()) *Application {
	if r == nil {
		r = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	if log == nil {
		log = logger.Discard()
	}

	reader, ok := r.(*bufio.Reader)
	if !ok {
		reader = bufio.NewReader(r)
	}

	return &Application{
		reader:         reader,
		out:            out,
		printBanner:    printBanner,
		profileManager: profiles.NewManager(profileDir),
		logger:         log,
		service:        NewService(out, log),
	}
}

func (a *Application) RunInteractive(ctx context.Context) error {
	if a.printBanner != nil {
		a.printBanner()
	}
	fmt.Fprintln(a.out, "Interactive mode is ready. Press Ctrl+C or choose option 6 to exit.")

	cfg, err := a.loadOrPromptConfig()
	if err != nil {
		return a.exitOnEOF(err)
	}

	conn, err := database.Connect(ctx, cfg.GetConnectionURL(), a.logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	for {
		fmt.Fprintln(a.out)
		fmt.Fprintf(a.out, "Connected to %s. Select an operation:\n", conn.Name())
		fmt.Fprintln(a.out, "  1) Open the SQL shell")
		fmt.Fprintln(a.out, "  2) List tables")
		fmt.Fprintln(a.out, "  3) Describe a table")
		fmt.Fprintln(a.out, "  4) List users")
		fmt.Fprintln(a.out, "  5) Explore the database with the TUI")
		fmt.Fprintln(a.out, "  6) Exit")

		fmt.Fprint(a.out, "\nChoice: ")
		choice, err := a.readLine()
		if err != nil {
			return a.exitOnEOF(err)
		}

		var opErr error
		switch strings.ToLower(strings.TrimSpace(choice)) {
		case "1", "shell":
			opErr = NewShell(conn, a.service, a.reader, a.out).Run(ctx)
		case "2", "tables":
			opErr = a.service.ListTables(ctx, conn, "")
		case "3", "describe":
			var name string
			name, opErr = a.promptString("Table (schema.table)", true)
			if opErr == nil {
				opErr = a.service.Describe(ctx, conn, ParseTableName(name), false)
			}
		case "4", "users":
			opErr = a.service.Users(ctx, conn)
		case "5", "explore":
			opErr = explorer.Run(ctx, conn)
		case "6", "exit", "quit", "q":
			return a.exitOnEOF(io.EOF)
		default:
			fmt.Fprintln(a.out, "Invalid selection. Try again.")
		}

		if opErr != nil {
			if errors.Is(opErr, io.EOF) {
				return a.exitOnEOF(opErr)
			}
			fmt.Fprintf(a.out, "Operation failed: %v\n", opErr)
		}
	}
}

func (a *Application) exitOnEOF(err error) error {
	if errors.Is(err, io.EOF) {
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Exiting interactive mode.")
		return nil
	}
	return err
}

func (a *Application) loadOrPromptConfig() (*config.Config, error) {
	for {
		fmt.Fprintln(a.out, "\nConfigure the connection")

		if cfg, ok, err := a.selectProfile(); err != nil {
			return nil, err
		} else if ok {
			return cfg, nil
		}

		dbType, err := a.promptDatabaseType()
		if err != nil {
			return nil, err
		}

		cfg, err := a.promptManualConfig(dbType)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, err
			}
			fmt.Fprintf(a.out, "Error: %v\n", err)
			continue
		}

		if err := a.persistConfig(cfg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, err
			}
			fmt.Fprintf(a.out, "Warning: failed to save config: %v\n", err)
		}

		return cfg, nil
	}
}

func (a *Application) promptManualConfig(dbType string) (*config.Config, error) {
	cfg := &config.Config{Database: config.DatabaseConfig{Type: dbType}}

	if dbType == config.TypeSQLite {
		path, err := a.promptStringWithDefault("Database file", ":memory:")
		if err != nil {
			return nil, err
		}
		cfg.Database.Path = path
		return cfg, nil
	}

	defaultPort, defaultDB := 5432, "postgres"
	if dbType == config.TypeMySQL {
		defaultPort, defaultDB = 3306, "mysql"
	}

	fmt.Fprintf(a.out, "\nEnter %s connection details:\n", dbType)
	host, err := a.promptStringWithDefault("Host", "localhost")
	if err != nil {
		return nil, err
	}
	port, err := a.promptInt("Port", defaultPort)
	if err != nil {
		return nil, err
	}
	dbName, err := a.promptStringWithDefault("Database name", defaultDB)
	if err != nil {
		return nil, err
	}
	username, err := a.promptString("Username (leave blank for none)", false)
	if err != nil {
		return nil, err
	}
	password, err := a.promptString("Password (leave blank for none)", false)
	if err != nil {
		return nil, err
	}

	cfg.Database.Host = host
	cfg.Database.Port = port
	cfg.Database.Database = dbName
	cfg.Database.Username = username
	cfg.Database.Password = password

	if dbType == config.TypePostgres {
		sslMode, err := a.promptStringWithDefault("SSL mode", "disable")
		if err != nil {
			return nil, err
		}
		cfg.Database.SSLMode = strings.TrimSpace(sslMode)
	}
	return cfg, nil
}

func (a *Application) promptDatabaseType() (string, error) {
	for {
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Select database type:")
		fmt.Fprintln(a.out, "1. PostgreSQL")
		fmt.Fprintln(a.out, "2. MySQL")
		fmt.Fprintln(a.out, "3. SQLite")
		fmt.Fprint(a.out, "Selection: ")

		input, err := a.readLine()
		if err != nil {
			return "", err
		}

		switch strings.ToLower(strings.TrimSpace(input)) {
		case "1", "postgres", "postgresql":
			return config.TypePostgres, nil
		case "2", "mysql", "mariadb":
			return config.TypeMySQL, nil
		case "3", "sqlite":
			return config.TypeSQLite, nil
		default:
			fmt.Fprintln(a.out, "Please choose 1, 2 or 3.")
		}
	}
}

func (a *Application) selectProfile() (*config.Config, bool, error) {
	saved, err := a.profileManager.List("")
	if err != nil {
		return nil, false, err
	}
	if len(saved) == 0 {
		return nil, false, nil
	}

	for {
		fmt.Fprintln(a.out, "Saved configurations:")
		for i, profile := range saved {
			fmt.Fprintf(a.out, "  %d) %s (%s)\n", i+1, profile.Name, profile.Target)
		}
		fmt.Fprintln(a.out, "  n) Create a new configuration")

		choice, err := a.promptString("Select a configuration (number) or 'n'", true)
		if err != nil {
			return nil, false, err
		}

		choice = strings.ToLower(strings.TrimSpace(choice))
		if choice == "n" || choice == "new" {
			return nil, false, nil
		}

		index, err := strconv.Atoi(choice)
		if err != nil || index < 1 || index > len(saved) {
			fmt.Fprintln(a.out, "Please choose a valid option.")
			continue
		}

		cfg, err := config.LoadConfig(saved[index-1].Path)
		if err != nil {
			fmt.Fprintf(a.out, "Failed to load %s: %v\n", saved[index-1].Name, err)
			continue
		}
		return cfg, true, nil
	}
}

func (a *Application) persistConfig(cfg *config.Config) error {
	save, err := a.promptYesNo("Save this configuration for future use?", true)
	if err != nil || !save {
		return err
	}

	// Dots would be read as a file extension by the profile manager.
	label := strings.ReplaceAll(cfg.Database.Host, ".", "-")
	if cfg.Database.Type == config.TypeSQLite {
		label = "local"
	}
	defaultName := fmt.Sprintf("%s-%s_%s", cfg.Database.Type, label, time.Now().Format("20060102_150405"))
	name, err := a.promptStringWithDefault("Configuration name", defaultName)
	if err != nil {
		return err
	}

	profile, err := a.profileManager.Save(name, cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved %s\n", profile.Path)
	return nil
}

func (a *Application) promptString(label string, required bool) (string, error) {
	for {
		fmt.Fprintf(a.out, "%s: ", label)
		input, err := a.readLine()
		if err != nil {
			return "", err
		}
		if input == "" && required {
			fmt.Fprintln(a.out, "Please provide a value.")
			continue
		}
		return input, nil
	}
}

func (a *Application) promptStringWithDefault(label, defaultValue string) (string, error) {
	fmt.Fprintf(a.out, "%s [%s]: ", label, defaultValue)
	input, err := a.readLine()
	if err != nil {
		return "", err
	}
	if input == "" {
		return defaultValue, nil
	}
	return input, nil
}

func (a *Application) promptYesNo(question string, defaultValue bool) (bool, error) {
	suffix := "(y/N)"
	if defaultValue {
		suffix = "(Y/n)"
	}

	for {
		fmt.Fprintf(a.out, "%s %s ", question, suffix)
		input, err := a.readLine()
		if err != nil {
			return false, err
		}
		if input == "" {
			return defaultValue, nil
		}

		switch strings.ToLower(input) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			fmt.Fprintln(a.out, "Please answer with y or n.")
		}
	}
}

func (a *Application) promptInt(question string, defaultValue int) (int, error) {
	for {
		fmt.Fprintf(a.out, "%s [%d]: ", question, defaultValue)
		input, err := a.readLine()
		if err != nil {
			return 0, err
		}
		if input == "" {
			return defaultValue, nil
		}

		n, err := strconv.Atoi(input)
		if err != nil {
			fmt.Fprintln(a.out, "Please enter a valid number.")
			continue
		}
		return n, nil
	}
}

func (a *Application) readLine() (string, error) {
	line, err := a.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
