package output

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCSVWriter_HeaderThenRows(t *testing.T) {
	buf := &bytes.Buffer{}
	rows := append(sampleRows(), testRow{Name: `Son, Heung-min "Sonny"`, Goals: "17"})
	writeTestRows(t, NewCSVWriter(buf), rows)

	got, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	want := [][]string{
		{"Name", "Goals"},
		{"Haaland", "27"},
		{"Salah", "19"},
		{`Son, Heung-min "Sonny"`, "17"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("csv mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(buf.String(), `"Son, Heung-min ""Sonny"""`) {
		t.Errorf("expected quoted field, got %q", buf.String())
	}
}

type wideRow struct{}

func (wideRow) Header() []string { return []string{"a", "b", "c"} }
func (wideRow) Values() []string { return []string{"1", "2", "3"} }

func TestCSVWriter_ColumnMismatch(t *testing.T) {
	w := NewCSVWriter(&bytes.Buffer{})
	if err := w.Write(testRow{Name: "x", Goals: "1"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Write(wideRow{}); err == nil {
		t.Fatal("expected error for row with extra columns")
	}
}

func TestCSVWriter_EmptyWritesNothing(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewCSVWriter(buf)
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}
