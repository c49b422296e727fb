package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/funvibe/bfjit/internal/pipeline"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"plain", []byte("+[-]."), "+[-]."},
		{"utf8 bom", []byte("\xEF\xBB\xBF+."), "+."},
		{"utf16le bom", []byte{0xFF, 0xFE, '+', 0, '>', 0, '.', 0}, "+>."},
		{"utf16be bom", []byte{0xFE, 0xFF, 0, '-', 0, ','}, "-,"},
		{"comment text", []byte("héllo +"), "héllo +"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.data)
			if err != nil {
				t.Fatalf("Decode error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Decode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRead(t *testing.T) {
	got, err := Read(strings.NewReader("++"))
	if err != nil || got != "++" {
		t.Errorf("Read() = %q, %v", got, err)
	}
}

func TestLoadProcessor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.bf")
	if err := os.WriteFile(path, []byte("\xEF\xBB\xBF+++."), 0644); err != nil {
		t.Fatal(err)
	}

	ctx := pipeline.NewPipelineContext("")
	ctx.FilePath = path
	lp := LoadProcessor{}
	ctx = lp.Process(ctx)
	if ctx.Failed() || ctx.SourceCode != "+++." {
		t.Errorf("load wrong: %q %v", ctx.SourceCode, ctx.Errors)
	}

	missing := pipeline.NewPipelineContext("")
	missing.FilePath = filepath.Join(t.TempDir(), "nope.bf")
	if !lp.Process(missing).Failed() {
		t.Error("missing file should record an error")
	}

	given := pipeline.NewPipelineContext("-")
	given.FilePath = missing.FilePath
	if lp.Process(given).Failed() {
		t.Error("inline source should not be reloaded")
	}
}
