package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"srccompiler/internal/compiler"
	"srccompiler/internal/config"
)

func newProbeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "probe [file-name...]",
		Short: "Show the resolved dialect and header bindings of configured files",
		Long: `Read the named files (all configured files when none is named) and print
the encoding and delimiter that parsed them, the canonical field bound to
each header and the required fields no column satisfies. Nothing is loaded
or quarantined.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe(cmd, opts, args)
		},
	}
}

func runProbe(cmd *cobra.Command, opts *rootOptions, names []string) error {
	cfg, err := loadConfig(cmd, opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	files, err := selectFiles(cfg.Files, names)
	if err != nil {
		return err
	}
	c, err := compiler.New(cfg, nil, nil)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	for _, fs := range files {
		pr, err := c.Probe(cmd.Context(), fs)
		if err != nil {
			_, _ = fmt.Fprintf(w, "%s: %s\n", fs.Name, red.Sprint(err.Error()))
			continue
		}
		renderProbe(w, pr)
	}
	return nil
}

func selectFiles(all []config.FileSpec, names []string) ([]config.FileSpec, error) {
	if len(names) == 0 {
		return all, nil
	}
	byName := make(map[string]config.FileSpec, len(all))
	for _, f := range all {
		byName[f.Name] = f
	}
	out := make([]config.FileSpec, 0, len(names))
	for _, n := range names {
		f, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("no configured file named %q", n)
		}
		out = append(out, f)
	}
	return out, nil
}

func renderProbe(w io.Writer, pr compiler.Probe) {
	_, _ = fmt.Fprintf(w, "%s (%s)\n", pr.Name, dim.Sprint(pr.Path))
	if pr.Encoding != "" {
		how := "fallback"
		if pr.Sniffed {
			how = "sniffed"
		}
		_, _ = fmt.Fprintf(w, "  dialect: %s %q (%s)\n", pr.Encoding, pr.Delimiter, how)
	}
	_, _ = fmt.Fprintf(w, "  rows: %d  fingerprint: %s\n", pr.Rows, pr.Fingerprint)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Header", "Field"})
	field := make(map[int]string, len(pr.Bindings))
	for _, b := range pr.Bindings {
		field[b.Column] = b.Canonical
	}
	for i, h := range pr.Headers {
		f, ok := field[i]
		if !ok {
			f = dim.Sprint("-")
		}
		t.AppendRow(table.Row{i, h, f})
	}
	t.Render()

	if len(pr.Unbound) > 0 {
		_, _ = fmt.Fprintf(w, "  %s %s\n", yellow.Sprint("unbound required:"), strings.Join(pr.Unbound, ", "))
	}
}
