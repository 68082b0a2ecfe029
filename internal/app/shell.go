package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kadirbelkuyu/unisql/internal/database"
)

const shellHelp = `Statements end with ';' and may span lines.
  \dt [schema]   list tables
  \d <table>     describe a table
  \ddl <table>   print the CREATE script of a table
  \du            list users
  \q             quit`

// Shell is a line-oriented SQL prompt over one connection.
type Shell struct {
	conn    *database.Connection
	service *Service
	in      *bufio.Reader
	out     io.Writer
}

func NewShell(conn *database.Connection, service *Service, in io.Reader, out io.Writer) *Shell {
	return &Shell{conn: conn, service: service, in: bufio.NewReader(in), out: out}
}

// Run reads until \q or end of input. Statement errors are printed and the
// prompt continues.
func (s *Shell) Run(ctx context.Context) error {
	fmt.Fprintf(s.out, "Connected to %s. Type \\? for help.\n", s.conn.Name())

	var pending strings.Builder
	for {
		prompt := s.conn.Name() + "> "
		if pending.Len() > 0 {
			prompt = strings.Repeat(" ", len(s.conn.Name())) + "> "
		}
		fmt.Fprint(s.out, prompt)

		line, err := s.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := err != nil
		line = strings.TrimSpace(line)

		switch {
		case line == "":
		case pending.Len() == 0 && strings.HasPrefix(line, `\`):
			if quit := s.meta(ctx, line); quit {
				return nil
			}
		default:
			if pending.Len() > 0 {
				pending.WriteByte('\n')
			}
			pending.WriteString(line)
			if strings.HasSuffix(line, ";") {
				s.execute(ctx, strings.TrimSuffix(pending.String(), ";"))
				pending.Reset()
			}
		}

		if eof {
			fmt.Fprintln(s.out)
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func (s *Shell) execute(ctx context.Context, sql string) {
	if err := s.service.Query(ctx, s.conn, sql, nil); err != nil {
		fmt.Fprintf(s.out, "ERROR: %v\n", err)
	}
}

// meta runs a backslash command and reports whether the shell should exit.
func (s *Shell) meta(ctx context.Context, line string) bool {
	command, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	var err error
	switch command {
	case `\q`:
		return true
	case `\?`, `\h`:
		fmt.Fprintln(s.out, shellHelp)
	case `\dt`:
		err = s.service.ListTables(ctx, s.conn, arg)
	case `\d`, `\ddl`:
		if arg == "" {
			fmt.Fprintf(s.out, "usage: %s <table>\n", command)
			return false
		}
		err = s.service.Describe(ctx, s.conn, ParseTableName(arg), command == `\ddl`)
	case `\du`:
		err = s.service.Users(ctx, s.conn)
	default:
		fmt.Fprintf(s.out, "unknown command %s, try \\?\n", command)
	}
	if err != nil {
		fmt.Fprintf(s.out, "ERROR: %v\n", err)
	}
	return false
}
