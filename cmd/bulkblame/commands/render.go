package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/bulkblame/pkg/blame"
)

// shortHashLen is the abbreviated commit hash width in table output.
const shortHashLen = 8

// renderResult writes the blame result in the requested format.
func renderResult(out io.Writer, result *blame.Result, format string) error {
	switch format {
	case "", "table":
		renderTable(out, result)

		return nil
	case "yaml":
		return renderYAML(out, result)
	default:
		return fmt.Errorf("unknown output format: %q", format)
	}
}

func renderTable(out io.Writer, result *blame.Result) {
	for _, path := range sortedPaths(result) {
		fileBlame := result.Files[path]

		tbl := table.NewWriter()
		tbl.SetOutputMirror(out)
		tbl.SetTitle(path)
		tbl.AppendHeader(table.Row{"Line", "Commit", "Author", "Date"})

		for line := range fileBlame.LineCount() {
			hash := fileBlame.CommitHashes[line]
			author := fileBlame.AuthorEmails[line]
			date := ""

			if hash == "" {
				hash = "(uncommitted)"
			} else {
				hash = hash[:shortHashLen]
				date = fileBlame.CommitDates[line].Format(time.DateOnly)
			}

			tbl.AppendRow(table.Row{line + 1, hash, author, date})
		}

		tbl.Render()
	}
}

// yamlLine is one attributed line in YAML output.
type yamlLine struct {
	Commit string `yaml:"commit,omitempty"`
	Author string `yaml:"author,omitempty"`
	Date   string `yaml:"date,omitempty"`
}

func renderYAML(out io.Writer, result *blame.Result) error {
	files := make(map[string][]yamlLine, len(result.Files))

	for path, fileBlame := range result.Files {
		lines := make([]yamlLine, fileBlame.LineCount())

		for i := range lines {
			if fileBlame.CommitHashes[i] == "" {
				continue
			}

			lines[i] = yamlLine{
				Commit: fileBlame.CommitHashes[i],
				Author: fileBlame.AuthorEmails[i],
				Date:   fileBlame.CommitDates[i].Format(time.RFC3339),
			}
		}

		files[path] = lines
	}

	encoder := yaml.NewEncoder(out)
	defer encoder.Close()

	err := encoder.Encode(files)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	return nil
}

func sortedPaths(result *blame.Result) []string {
	paths := make([]string, 0, len(result.Files))
	for path := range result.Files {
		paths = append(paths, path)
	}

	sort.Strings(paths)

	return paths
}
