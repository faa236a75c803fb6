// Package cli holds the output and configuration helpers of the odegate CLI.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/TimurManjosov/odegate/internal/client"
	"github.com/TimurManjosov/odegate/internal/unlock"
)

// OutputFormat specifies the output format for CLI commands
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// Decision is one row of rollout output.
type Decision struct {
	ID      string `json:"id" yaml:"id"`
	Bucket  int    `json:"bucket" yaml:"bucket"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

// PrintItems outputs a chapter listing in the specified format
func PrintItems(w io.Writer, list *client.ItemList, format OutputFormat) error {
	return render(w, format, list, func(t *tablewriter.Table) {
		itemRows(t, list.Items)
	})
}

// PrintItem outputs a single item in the specified format
func PrintItem(w io.Writer, item *client.Item, format OutputFormat) error {
	return render(w, format, item, func(t *tablewriter.Table) {
		itemRows(t, []client.Item{*item})
	})
}

// PrintResult outputs an unlock result in the specified format
func PrintResult(w io.Writer, res unlock.Result, format OutputFormat) error {
	return render(w, format, res, func(t *tablewriter.Table) {
		t.Header("Unlocked", "Hint")
		_ = t.Append(strconv.FormatBool(res.IsUnlocked), res.Hint)
	})
}

// PrintDecisions outputs rollout decisions in the specified format
func PrintDecisions(w io.Writer, decisions []Decision, format OutputFormat) error {
	return render(w, format, decisions, func(t *tablewriter.Table) {
		t.Header("ID", "Bucket", "Enabled")
		for _, d := range decisions {
			_ = t.Append(d.ID, strconv.Itoa(d.Bucket), strconv.FormatBool(d.Enabled))
		}
	})
}

// PrintFeature outputs a gate decision in the specified format
func PrintFeature(w io.Writer, f *client.Feature, format OutputFormat) error {
	return render(w, format, f, func(t *tablewriter.Table) {
		t.Header("Feature", "Variant", "Enabled")
		_ = t.Append(f.Feature, f.Variant, strconv.FormatBool(f.Enabled))
	})
}

func render(w io.Writer, format OutputFormat, data any, rows func(*tablewriter.Table)) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		encoder.SetIndent(2)
		return encoder.Encode(data)
	case FormatTable:
		table := tablewriter.NewWriter(w)
		rows(table)
		return table.Render()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func itemRows(t *tablewriter.Table, items []client.Item) {
	t.Header("ID", "Kind", "Position", "Title", "Unlocked", "Hint")
	for _, it := range items {
		title := it.Title
		if len(title) > 40 {
			title = title[:37] + "..."
		}
		_ = t.Append(it.ID, string(it.Kind), strconv.Itoa(it.Position), title, strconv.FormatBool(it.IsUnlocked), it.UnlockHint)
	}
}
