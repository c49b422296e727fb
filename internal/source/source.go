// Package source reads program text. Files may be UTF-8 or, when they
// start with a byte order mark, UTF-16; everything is decoded to UTF-8.
package source

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/funvibe/bfjit/internal/pipeline"
)

// Decode converts raw file bytes to UTF-8 text, honouring a leading BOM.
func Decode(data []byte) (string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	reader := transform.NewReader(bytes.NewReader(data), decoder)

	text, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to decode source: %w", err)
	}
	return string(text), nil
}

// Read decodes everything from r.
func Read(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("error reading input: %w", err)
	}
	return Decode(data)
}

// Load reads and decodes the file at path.
func Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("error reading %s: %w", path, err)
	}
	return Decode(data)
}

// LoadProcessor fills SourceCode from FilePath when no text was given.
type LoadProcessor struct{}

func (LoadProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.Failed() || ctx.Script != nil || ctx.SourceCode != "" || ctx.FilePath == "" {
		return ctx
	}
	text, err := Load(ctx.FilePath)
	if err != nil {
		ctx.AddError(err)
		return ctx
	}
	ctx.SourceCode = text
	return ctx
}
