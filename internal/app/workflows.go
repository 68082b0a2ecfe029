package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/kadirbelkuyu/unisql/internal/database"
	"github.com/kadirbelkuyu/unisql/internal/render"
	"github.com/kadirbelkuyu/unisql/internal/schema"
	"github.com/kadirbelkuyu/unisql/internal/value"
	"github.com/kadirbelkuyu/unisql/pkg/logger"
	"github.com/kadirbelkuyu/unisql/pkg/progress"
)

// Service runs the read-only workflows shared by the CLI and the interactive
// menu. Results go to out; logs go through the logger.
type Service struct {
	out          io.Writer
	logger       *logger.Logger
	showProgress bool
}

func NewService(out io.Writer, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{out: out, logger: log, showProgress: true}
}

// WithoutProgress disables the progress bar of DescribeAll.
func (s *Service) WithoutProgress() *Service {
	s.showProgress = false
	return s
}

// ParseTableName splits "schema.table". Double quotes protect dots.
func ParseTableName(text string) schema.TableName {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, `"`) && strings.HasSuffix(text, `"`) && !strings.Contains(text[1:len(text)-1], `"`) {
		return schema.TableName{Name: text[1 : len(text)-1]}
	}
	if schemaName, name, ok := strings.Cut(text, "."); ok {
		return schema.NewTableName(strings.Trim(schemaName, `"`), strings.Trim(name, `"`))
	}
	return schema.TableName{Name: text}
}

func (s *Service) ListTables(ctx context.Context, conn *database.Connection, schemaFilter string) error {
	groups, err := conn.GetGroupedTables(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}

	total := 0
	for _, group := range groups {
		if schemaFilter != "" && group.Schema != schemaFilter {
			continue
		}
		fmt.Fprintf(s.out, "\n%s\n", group.Schema)
		fmt.Fprintln(s.out, strings.Repeat("=", 36))
		for _, name := range group.Tablenames {
			fmt.Fprintf(s.out, "  %s\n", name)
		}
		for _, name := range group.Views {
			fmt.Fprintf(s.out, "  %s (view)\n", name)
		}
		total += len(group.Tablenames) + len(group.Views)
	}
	fmt.Fprintf(s.out, "\nTotal tables: %d\n", total)
	return nil
}

// Describe prints one reflected table, or its DDL script when ddl is set.
func (s *Service) Describe(ctx context.Context, conn *database.Connection, name schema.TableName, ddl bool) error {
	table, err := conn.GetTable(ctx, name)
	if err != nil {
		return err
	}
	return s.writeTable(conn, table, ddl)
}

// DescribeAll reflects every table. Tables that fail are reported at the end
// while the others are still printed.
func (s *Service) DescribeAll(ctx context.Context, conn *database.Connection, schemaFilter string, ddl bool) error {
	names, err := conn.GetTableNames(ctx, schemaFilter)
	if err != nil {
		return err
	}

	var onTable func(schema.TableName)
	if s.showProgress {
		bar := progress.NewBar(int64(len(names)), "Reflecting tables")
		defer bar.Finish()
		onTable = func(name schema.TableName) {
			bar.Describe(name.CompleteName())
			bar.Increment()
		}
	}

	tables, extractErr := conn.GetAllTables(ctx, schemaFilter, onTable)
	for _, table := range tables {
		if err := s.writeTable(conn, table, ddl); err != nil {
			return err
		}
	}
	if extractErr != nil {
		return fmt.Errorf("%d of %d tables could not be reflected: %w", len(names)-len(tables), len(names), extractErr)
	}
	return nil
}

func (s *Service) writeTable(conn *database.Connection, table schema.Table, ddl bool) error {
	if !ddl {
		if err := render.WriteTable(s.out, table); err != nil {
			return err
		}
		_, err := fmt.Fprintln(s.out)
		return err
	}

	for _, stmt := range schema.NewCreator(conn.Dialect()).Script(table) {
		if _, err := fmt.Fprintf(s.out, "%s;\n", stmt); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(s.out)
	return err
}

// Query runs sql with text parameters and prints the result grid.
func (s *Service) Query(ctx context.Context, conn *database.Connection, sql string, args []string) error {
	params := make([]value.Value, len(args))
	for i, arg := range args {
		params[i] = value.Text(arg)
	}
	rows, err := conn.ExecuteSQLWithReturn(ctx, sql, params...)
	if err != nil {
		return err
	}
	return render.WriteRows(s.out, rows)
}

func (s *Service) Users(ctx context.Context, conn *database.Connection) error {
	users, err := conn.GetUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	fmt.Fprintf(s.out, "%-24s %-6s %-6s %-9s %-11s %-6s %-10s\n", "User", "Super", "Login", "CreateDB", "CreateRole", "Limit", "Valid until")
	fmt.Fprintln(s.out, strings.Repeat("-", 80))
	for _, u := range users {
		until := "n/a"
		if u.ValidUntil != nil {
			until = u.ValidUntil.Format("2006-01-02")
		}
		fmt.Fprintf(s.out, "%-24s %-6s %-6s %-9s %-11s %-6d %-10s\n",
			u.Username, yesNo(u.IsSuperuser), yesNo(u.CanLogin), yesNo(u.CanCreateDB), yesNo(u.CanCreateRole), u.ConnLimit, until)
	}
	fmt.Fprintf(s.out, "\nTotal users: %d\n", len(users))
	return nil
}

func (s *Service) Roles(ctx context.Context, conn *database.Connection, user string) error {
	roles, err := conn.GetRoles(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to list roles of %s: %w", user, err)
	}
	if len(roles) == 0 {
		fmt.Fprintf(s.out, "%s has no roles\n", user)
		return nil
	}
	for _, role := range roles {
		fmt.Fprintln(s.out, role.RoleName)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
