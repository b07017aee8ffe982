// Where: internal/config/table.go
// What: Table name templating.
// Why: Let several clusters in one account keep separate snapshot tables.
package config

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// tableNameData is the value a table name template is executed against.
type tableNameData struct {
	Cluster string
	Region  string
}

// RenderTableName expands a Go template table name such as
// "{{ .Cluster | lower }}-desiredCount". Plain names are returned unchanged.
func RenderTableName(raw string, cfg Config) (string, error) {
	if !strings.Contains(raw, "{{") {
		return raw, nil
	}
	tmpl, err := template.New("table_name").
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse table name template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, tableNameData{Cluster: cfg.Cluster, Region: cfg.Region}); err != nil {
		return "", fmt.Errorf("render table name template: %w", err)
	}
	name := strings.TrimSpace(buf.String())
	if name == "" {
		return "", fmt.Errorf("table name template %q rendered empty", raw)
	}
	return name, nil
}
