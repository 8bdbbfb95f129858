package main

import (
	"github.com/spf13/cobra"

	"github.com/user/pvtest_analyzer_go/internal/analysis"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List known column layouts and compliance standards",
	Args:  cobra.NoArgs,
	RunE:  runFormats,
}

type columnInfo struct {
	Source   string `json:"source"`
	Field    string `json:"field"`
	Type     string `json:"type"`
	Required bool   `json:"required,omitempty"`
}

type formatInfo struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Columns     []columnInfo `json:"columns"`
}

func runFormats(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	var formats []formatInfo
	for _, f := range app.ingestor.Registry().Formats() {
		info := formatInfo{Name: f.Name, Description: f.Description}
		for _, m := range f.Mappings {
			info.Columns = append(info.Columns, columnInfo{
				Source:   m.Source.String(),
				Field:    string(m.Target),
				Type:     string(m.Type),
				Required: m.Required,
			})
		}
		formats = append(formats, info)
	}
	return writeJSON(cmd.OutOrStdout(), map[string]any{
		"formats":   formats,
		"standards": analysis.Standards(),
	})
}
