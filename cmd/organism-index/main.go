// Command organism-index writes the deterministic index of built-in
// organisms: the embedded descriptor files in discovery order and the Go
// modules that register their renderers.
//
// It is run through go:generate from the organisms package.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"go/format"
	"go/token"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/pagegrid/internal/ctxlog"
	"github.com/specialistvlad/pagegrid/internal/fsutil"
	"github.com/specialistvlad/pagegrid/internal/model"
)

const (
	descriptorName = "organism.hcl"
	organismImport = "github.com/specialistvlad/pagegrid/internal/organism"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "organism-index:", err)
		os.Exit(1)
	}
}

func run(outW io.Writer, args []string) error {
	flagSet := flag.NewFlagSet("organism-index", flag.ContinueOnError)
	flagSet.SetOutput(outW)
	dirFlag := flagSet.String("dir", ".", "Directory holding one package per organism.")
	importFlag := flagSet.String("import-path", "", "Go import path of -dir (required).")
	outFlag := flagSet.String("out", "index_gen.go", "Output file relative to -dir, or - for stdout.")

	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if *importFlag == "" {
		return errors.New("-import-path is required")
	}

	src, err := Generate(context.Background(), *dirFlag, *importFlag)
	if err != nil {
		return err
	}

	if *outFlag == "-" {
		_, err = outW.Write(src)
		return err
	}
	return os.WriteFile(filepath.Join(*dirFlag, *outFlag), src, 0o644)
}

type entry struct {
	Path       string
	Package    string
	ImportPath string
	IDs        []string
}

// Generate scans dir for <package>/organism.hcl files and returns the
// formatted index source. Descriptors that fail to parse abort generation.
func Generate(ctx context.Context, dir, importPath string) ([]byte, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.FindFilesByExtension(dir, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	parser := hclparse.NewParser()
	var entries []entry
	for _, file := range files {
		rel, err := filepath.Rel(dir, file)
		if err != nil {
			return nil, err
		}
		rel = filepath.ToSlash(rel)
		pkg, name, ok := strings.Cut(rel, "/")
		if !ok || name != descriptorName {
			logger.Debug("Skipping file outside the index layout", "file", rel)
			continue
		}
		if !token.IsIdentifier(pkg) || token.IsKeyword(pkg) {
			return nil, fmt.Errorf("%s: directory name %q is not a valid package name", rel, pkg)
		}

		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse %s: %w", rel, diags)
		}
		descriptors, err := model.NewDescriptors(ctx, hclFile, rel)
		if err != nil {
			return nil, fmt.Errorf("invalid descriptor %s: %w", rel, err)
		}

		e := entry{Path: rel, Package: pkg, ImportPath: path.Join(importPath, pkg)}
		for _, d := range descriptors {
			e.IDs = append(e.IDs, d.ID)
		}
		entries = append(entries, e)
	}

	var buf bytes.Buffer
	err = indexTemplate.Execute(&buf, struct {
		Package        string
		OrganismImport string
		Entries        []entry
	}{
		Package:        path.Base(importPath),
		OrganismImport: organismImport,
		Entries:        entries,
	})
	if err != nil {
		return nil, err
	}
	return format.Source(buf.Bytes())
}

var indexTemplate = template.Must(template.New("index").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(`// Code generated by organism-index. DO NOT EDIT.

package {{.Package}}

import (
	"{{.OrganismImport}}"
{{- range .Entries}}
	"{{.ImportPath}}"
{{- end}}
)

// descriptorFiles lists the embedded descriptor files in discovery order.
var descriptorFiles = []string{
{{- range .Entries}}
	// {{join .IDs ", "}}
	"{{.Path}}",
{{- end}}
}

// modules lists the organism modules that register renderers.
var modules = []organism.Module{
{{- range .Entries}}
	{{.Package}}.Module{},
{{- end}}
}
`))
