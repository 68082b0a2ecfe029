package explorer

import (
	"testing"

	"github.com/rivo/tview"

	"github.com/kadirbelkuyu/unisql/internal/dao"
	"github.com/kadirbelkuyu/unisql/internal/value"
)

func TestFillTable(t *testing.T) {
	rows := dao.NewRows([]string{"film_id", "title"})
	rows.Push([]value.Value{value.Int(1), value.Text("ACADEMY [DINOSAUR]")})
	rows.Push([]value.Value{value.Int(2), value.Nil()})

	view := tview.NewTable()
	fillTable(view, rows)

	if got := view.GetRowCount(); got != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", got)
	}
	if got := view.GetCell(0, 1).Text; got != "title" {
		t.Fatalf("expected header title, got %q", got)
	}
	if got := view.GetCell(2, 1).Text; got != "NULL" {
		t.Fatalf("expected NULL cell, got %q", got)
	}
	if got := view.GetCell(1, 1).Text; got != tview.Escape("ACADEMY [DINOSAUR]") {
		t.Fatalf("expected escaped title, got %q", got)
	}

	fillTable(view, dao.NewRows([]string{"n"}))
	if got := view.GetRowCount(); got != 1 {
		t.Fatalf("expected only the header after refill, got %d", got)
	}
}

func TestQueueUpdateWithoutApplication(t *testing.T) {
	e := &explorer{}
	ran := false
	e.queueUpdate(func() { ran = true })
	if !ran {
		t.Fatalf("expected the update to run inline")
	}
}

func TestTableAtBounds(t *testing.T) {
	e := &explorer{}
	if _, ok := e.tableAt(0); ok {
		t.Fatalf("expected no table before loading")
	}
}
