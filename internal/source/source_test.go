package source

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"
)

// writeWorkbook saves a workbook with the given sheets to a temp dir.
// Sheet order follows the names slice.
func writeWorkbook(t *testing.T, names []string, sheets map[string][][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, name := range names {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				t.Fatalf("SetSheetName() error = %v", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("NewSheet(%q) error = %v", name, err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				t.Fatalf("CoordinatesToCellName() error = %v", err)
			}
			row := row
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				t.Fatalf("SetSheetRow() error = %v", err)
			}
		}
	}

	path := filepath.Join(t.TempDir(), "roster.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs() error = %v", err)
	}
	return path
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{path: "roster.xlsx", want: FormatXLSX},
		{path: "ROSTER.XLSM", want: FormatXLSX},
		{path: "data/roster.csv", want: FormatCSV},
		{path: "roster.ods", wantErr: true},
		{path: "roster", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := DetectFormat(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DetectFormat(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Errorf("error = %v, want ErrUnsupportedFormat", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("DetectFormat(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestReadXLSX(t *testing.T) {
	path := writeWorkbook(t, []string{"Summary", "MCA"}, map[string][][]any{
		"Summary": {{"Total", 2}},
		"MCA": {
			{"S.No", "Enrollment", "RFID", "Batch", "Phone", "Name"},
			{1, "E100", 9869497, "2024", "", "Asha Rao"},
			{2, "E101", "0011770", "2024", "", "Ravi"},
		},
	})

	t.Run("named sheet", func(t *testing.T) {
		table, err := Read(path, "MCA")
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if table.Sheet != "MCA" {
			t.Errorf("Sheet = %q, want MCA", table.Sheet)
		}
		if len(table.Rows) != 3 {
			t.Fatalf("len(Rows) = %d, want 3", len(table.Rows))
		}
		want := []string{"1", "E100", "9869497", "2024", "", "Asha Rao"}
		if diff := cmp.Diff(want, table.Rows[1]); diff != "" {
			t.Errorf("row 1 mismatch (-want +got):\n%s", diff)
		}
		if got := table.Rows[2][2]; got != "0011770" {
			t.Errorf("text RFID = %q, want leading zeros kept", got)
		}
	})

	t.Run("first sheet by default", func(t *testing.T) {
		table, err := Read(path, "")
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if table.Sheet != "Summary" {
			t.Errorf("Sheet = %q, want Summary", table.Sheet)
		}
	})

	t.Run("missing sheet", func(t *testing.T) {
		_, err := Read(path, "BCA")
		var se *SourceError
		if !errors.As(err, &se) {
			t.Fatalf("Read() error = %v, want *SourceError", err)
		}
		if !errors.Is(err, ErrSheetNotFound) {
			t.Errorf("error = %v, want ErrSheetNotFound", err)
		}
	})
}

func TestRead_MissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.xlsx"), "")
	var se *SourceError
	if !errors.As(err, &se) || se.Op != "open" {
		t.Fatalf("Read() error = %v, want open *SourceError", err)
	}
}

func TestReadCSV(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Name,RFID\n\"Asha \"\"A\"\" Rao\",A1\nRavi,A2,extra\nBad\xffByte,A3\n")...)
	path := writeFile(t, "mca.csv", data)

	table, err := Read(path, "ignored")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	want := [][]string{
		{"Name", "RFID"},
		{`Asha "A" Rao`, "A1"},
		{"Ravi", "A2", "extra"},
		{"Bad\uFFFDByte", "A3"},
	}
	if diff := cmp.Diff(want, table.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	if table.Sheet != "mca" {
		t.Errorf("Sheet = %q, want mca", table.Sheet)
	}
}

func TestParseCSV_LazyQuotes(t *testing.T) {
	rows, err := ParseCSV(strings.NewReader("a,b\"c,d\n"))
	if err != nil {
		t.Fatalf("ParseCSV() error = %v", err)
	}
	want := [][]string{{"a", `b"c`, "d"}}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestCleanReader(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{name: "valid unchanged", input: []byte("Meera"), want: "Meera"},
		{name: "valid multibyte", input: []byte("Zoë"), want: "Zoë"},
		{name: "invalid byte replaced", input: []byte{'a', 0xff, 'b'}, want: "a\uFFFDb"},
		{name: "bom skipped", input: []byte("\xef\xbb\xbfName"), want: "Name"},
		{name: "only bom", input: []byte{0xEF, 0xBB, 0xBF}, want: ""},
		{name: "partial bom kept", input: []byte{0xEF, 0xBB, 'a'}, want: "\uFFFD\uFFFDa"},
		{name: "empty", input: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := io.ReadAll(newCleanReader(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("cleanReader = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCleanReader_SmallBuffer(t *testing.T) {
	r := newCleanReader(strings.NewReader("Zoë,É"))
	var out []byte
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
	}
	if string(out) != "Zoë,É" {
		t.Errorf("read %q, want %q", out, "Zoë,É")
	}
}

func generateCSV(rows int) []byte {
	var b strings.Builder
	b.WriteString("S.No,Enrollment,RFID,Batch,Phone,Name\n")
	for i := 0; i < rows; i++ {
		b.WriteString("1,E100,=\"0011770\",2024,,\"Rao, Asha\"\n")
	}
	return []byte(b.String())
}

// BenchmarkParseCSV benchmarks parsing a 10k-row roster export.
func BenchmarkParseCSV(b *testing.B) {
	data := generateCSV(10000)
	b.SetBytes(int64(len(data)))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ParseCSV(bytes.NewReader(data)); err != nil {
			b.Fatal(err)
		}
	}
}
