package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeLog(t *testing.T, lines []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bouyomi.log")
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestRead(t *testing.T) {
	var all []string
	for i := 1; i <= 10; i++ {
		all = append(all, fmt.Sprintf("WARN talk failed dropped=%d", i))
	}
	path := writeLog(t, all)

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{"zero", 0, nil},
		{"negative", -1, nil},
		{"partial", 3, all[7:]},
		{"exact", 10, all},
		{"more than file", 50, all},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(path, tt.maxLines)
			if err != nil {
				t.Fatalf("Read returned error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Fatalf("Read = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "nope.log"), 5)
	if err != nil || got != nil {
		t.Fatalf("Read(missing) = %q, %v; want nil, nil", got, err)
	}
}

func TestRead_SkipsBlankLines(t *testing.T) {
	path := writeLog(t, []string{"one", "", "two", "   ", "three"})
	got, err := Read(path, 2)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"two", "three"}) {
		t.Fatalf("Read = %q, want [two three]", got)
	}
}

func TestRead_LargeFileSpansBlocks(t *testing.T) {
	var lines []string
	for i := 0; i < 5000; i++ {
		lines = append(lines, fmt.Sprintf("INFO line %05d %s", i, strings.Repeat("x", 40)))
	}
	path := writeLog(t, lines)

	got, err := Read(path, 300)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if len(got) != 300 {
		t.Fatalf("len = %d, want 300", len(got))
	}
	if got[0] != lines[4700] || got[299] != lines[4999] {
		t.Fatalf("Read window = %q .. %q", got[0], got[299])
	}
}

func TestRead_KeepsReadingPastTrailingBlankLines(t *testing.T) {
	content := "INFO first\nWARN second\nERRO third\n" + strings.Repeat("\n", 3*blockSize)
	path := filepath.Join(t.TempDir(), "bouyomi.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	got, err := Read(path, 2)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"WARN second", "ERRO third"}) {
		t.Fatalf("Read = %q, want [WARN second ERRO third]", got)
	}
}
