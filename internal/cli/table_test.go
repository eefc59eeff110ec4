package cli

import (
	"strings"
	"testing"
)

func TestTableRender(t *testing.T) {
	table := NewTable([]string{"KEY", "VALUE"})
	table.AddRow([]string{"brightness", "0.2"})
	table.AddRow([]string{"pin"})
	table.AddRow([]string{"order", "GRBW", "extra"})

	want := strings.Join([]string{
		"KEY         VALUE",
		"----------  -----",
		"brightness  0.2",
		"pin         ",
		"order       GRBW",
		"",
	}, "\n")
	if got := table.Render(); got != want {
		t.Errorf("Render() =\n%q\nwant\n%q", got, want)
	}
}

func TestTableEmpty(t *testing.T) {
	if got := NewTable(nil).Render(); got != "" {
		t.Errorf("Render() = %q", got)
	}
}
