// Package explorer is a terminal browser over any connected platform: a
// table list, a data preview, the reflected structure and an SQL prompt.
package explorer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/kadirbelkuyu/unisql/internal/dao"
	"github.com/kadirbelkuyu/unisql/internal/database"
	"github.com/kadirbelkuyu/unisql/internal/render"
	"github.com/kadirbelkuyu/unisql/internal/schema"
)

const (
	previewLimit = 200
	queryTimeout = 15 * time.Second
	sqlModalName = "sql"
	helpLine     = "':' run SQL • 's' structure • 'r' refresh • 'q' exit"
)

type explorer struct {
	ctx  context.Context
	conn *database.Connection

	app       *tview.Application
	pages     *tview.Pages
	list      *tview.List
	dataTable *tview.Table
	meta      *tview.TextView

	mu     sync.Mutex
	tables []schema.TableName
}

// Run blocks until the user quits.
func Run(ctx context.Context, conn *database.Connection) error {
	e := &explorer{
		ctx:       ctx,
		conn:      conn,
		app:       tview.NewApplication(),
		pages:     tview.NewPages(),
		list:      tview.NewList().ShowSecondaryText(false),
		dataTable: tview.NewTable().SetFixed(1, 0).SetSelectable(true, false),
		meta:      tview.NewTextView().SetDynamicColors(true),
	}

	e.list.AddItem("Loading tables…", "", 0, nil)
	e.meta.SetText(fmt.Sprintf("Connecting to %s…", conn.Name()))

	e.list.SetChangedFunc(func(index int, _, _ string, _ rune) {
		e.preview(index)
	})

	var loadOnce sync.Once
	e.app.SetBeforeDrawFunc(func(tcell.Screen) bool {
		loadOnce.Do(func() { go e.loadTables() })
		return false
	})

	layout := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(e.list.SetBorder(true).SetTitle("Tables"), 32, 1, true).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(e.dataTable.SetBorder(true).SetTitle("Preview"), 0, 3, false).
			AddItem(e.meta.SetBorder(true).SetTitle("Details"), 9, 1, false),
			0, 3, false)
	e.pages.AddPage("main", layout, true, true)

	e.app.SetRoot(e.pages, true).SetInputCapture(e.handleKey)

	if err := e.app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

func (e *explorer) handleKey(event *tcell.EventKey) *tcell.EventKey {
	if e.pages.HasPage(sqlModalName) || event.Key() != tcell.KeyRune {
		return event
	}
	switch event.Rune() {
	case 'q', 'Q':
		e.app.Stop()
	case 'r', 'R':
		e.preview(e.list.GetCurrentItem())
	case 's', 'S':
		if name, ok := e.tableAt(e.list.GetCurrentItem()); ok {
			go e.showStructure(name)
		}
	case ':':
		e.showCommandModal()
	default:
		return event
	}
	return nil
}

func (e *explorer) tableAt(index int) (schema.TableName, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if index < 0 || index >= len(e.tables) {
		return schema.TableName{}, false
	}
	return e.tables[index], true
}

func (e *explorer) loadTables() {
	ctx, cancel := context.WithTimeout(e.ctx, queryTimeout)
	defer cancel()

	names, err := e.conn.GetTableNames(ctx, "")
	e.queueUpdate(func() {
		e.list.Clear()
		switch {
		case err != nil:
			e.list.AddItem("Failed to load tables", "", 0, nil)
			e.meta.SetText(fmt.Sprintf("[red]%v", err))
			return
		case len(names) == 0:
			e.list.AddItem("No tables found", "", 0, nil)
			e.meta.SetText("No tables detected")
			return
		}

		e.mu.Lock()
		e.tables = names
		e.mu.Unlock()
		for _, name := range names {
			e.list.AddItem(name.CompleteName(), "", 0, nil)
		}
		e.list.SetCurrentItem(0)
		e.meta.SetText("[::b]Select a table to inspect.[-:-:-]\n" + helpLine)
	})
	if err == nil && len(names) > 0 {
		e.preview(0)
	}
}

func (e *explorer) preview(index int) {
	name, ok := e.tableAt(index)
	if !ok {
		return
	}
	go e.renderPreview(name)
}

func (e *explorer) renderPreview(name schema.TableName) {
	e.queueUpdate(func() {
		e.meta.SetText(fmt.Sprintf("Loading %s…", name.CompleteName()))
		e.dataTable.Clear()
	})

	ctx, cancel := context.WithTimeout(e.ctx, queryTimeout)
	defer cancel()

	qualified := render.QualifiedName(e.conn.Dialect(), name)
	rows, err := e.conn.ExecuteSQLWithReturn(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", qualified, previewLimit))
	if err != nil {
		e.showError(err)
		return
	}
	count := "?"
	if row, err := e.conn.ExecuteSQLWithOneReturn(ctx, "SELECT COUNT(*) AS n FROM "+qualified); err == nil {
		count = row.Get("n").String()
	}

	e.queueUpdate(func() {
		fillTable(e.dataTable, rows)
		e.meta.SetText(fmt.Sprintf("[::b]%s[-:-:-]\nRows: %s\nPreview size: %d\n%s",
			name.CompleteName(), count, min(rows.Len(), previewLimit), helpLine))
	})
}

func (e *explorer) showStructure(name schema.TableName) {
	ctx, cancel := context.WithTimeout(e.ctx, queryTimeout)
	defer cancel()

	table, err := e.conn.GetTable(ctx, name)
	if err != nil {
		e.showError(err)
		return
	}
	var b strings.Builder
	if err := render.WriteTable(&b, table); err != nil {
		e.showError(err)
		return
	}
	e.queueUpdate(func() {
		e.meta.SetText(tview.Escape(b.String()))
		e.meta.ScrollToBeginning()
	})
}

func (e *explorer) showCommandModal() {
	input := tview.NewInputField().
		SetLabel("SQL> ").
		SetFieldWidth(80)

	info := tview.NewTextView().
		SetDynamicColors(true).
		SetText(fmt.Sprintf("Results render in the preview (max %d rows).\nOther statements execute immediately against this %s database.", previewLimit, e.conn.Name()))

	closeModal := func() {
		e.pages.RemovePage(sqlModalName)
		e.app.SetFocus(e.list)
	}

	form := tview.NewForm().
		AddFormItem(input).
		AddButton("Run", func() {
			text := strings.TrimSpace(input.GetText())
			closeModal()
			if text != "" {
				go e.runCommand(text)
			}
		}).
		AddButton("Cancel", closeModal)
	form.SetBorder(true).SetTitle("Execute SQL")

	wrapper := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(info, 3, 1, false).
		AddItem(form, 0, 2, true)

	e.pages.AddPage(sqlModalName, newModal(wrapper, 100, 12), true, true)
	e.app.SetFocus(input)
}

func (e *explorer) runCommand(text string) {
	ctx, cancel := context.WithTimeout(e.ctx, queryTimeout)
	defer cancel()

	rows, err := e.conn.ExecuteSQLWithReturn(ctx, text)
	if err != nil {
		e.queueUpdate(func() { e.meta.SetText(fmt.Sprintf("[red]SQL error: %s", tview.Escape(err.Error()))) })
		return
	}

	e.queueUpdate(func() {
		if render.IsQuery(text) || len(rows.Columns) > 0 {
			fillTable(e.dataTable, rows)
			e.meta.SetText(fmt.Sprintf("[::b]Query result[-:-:-]\nRows returned: %d\nPreview limited to %d rows.", rows.Len(), previewLimit))
			return
		}
		e.meta.SetText("[green]Statement executed.[-:-:-]")
	})
}

func (e *explorer) showError(err error) {
	e.queueUpdate(func() {
		e.dataTable.Clear()
		e.meta.SetText(fmt.Sprintf("[red]%s", tview.Escape(err.Error())))
	})
}

func (e *explorer) queueUpdate(fn func()) {
	if e.app == nil {
		fn()
		return
	}
	e.app.QueueUpdateDraw(fn)
}

func fillTable(view *tview.Table, rows *dao.Rows) {
	view.Clear()
	header, data := render.Grid(rows, previewLimit)
	for i, col := range header {
		view.SetCell(0, i, tview.NewTableCell(col).
			SetSelectable(false).
			SetAlign(tview.AlignCenter).
			SetAttributes(tcell.AttrBold))
	}
	for r, line := range data {
		for c, cell := range line {
			view.SetCell(r+1, c, tview.NewTableCell(tview.Escape(cell)).SetExpansion(1))
		}
	}
}

func newModal(content tview.Primitive, width, height int) tview.Primitive {
	return tview.NewGrid().
		SetRows(0, height, 0).
		SetColumns(0, width, 0).
		AddItem(content, 1, 1, 1, 1, 0, 0, true)
}
