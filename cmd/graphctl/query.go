package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/LerianStudio/lib-graphkit/graphkit/neo4j"
	"github.com/spf13/cobra"
)

func newQueryCmd(c *cli) *cobra.Command {
	var params []string

	cmd := &cobra.Command{
		Use:   "query <cypher>",
		Short: "Run a Cypher query and print the records as JSON",
		Example: `  graphctl query 'MATCH (m:Movie) WHERE m.released > $year RETURN m.title AS title' --param year=1999
  graphctl query 'RETURN $names AS names' --param 'names=["a","b"]'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseParams(params)
			if err != nil {
				return err
			}

			app, ext, err := c.attach(cmd.Context())
			if err != nil {
				return err
			}

			defer app.Shutdown(nil)

			records, err := ext.Execute(cmd.Context(), args[0], parsed)
			if err != nil {
				return err
			}

			return writeRecords(c, records)
		},
	}

	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "query parameter as key=value; JSON values are decoded")

	return cmd
}

// parseParams turns key=value pairs into query parameters. Values that are
// valid JSON are decoded, anything else is kept as a string.
func parseParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))

	for _, pair := range pairs {
		key, raw, found := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)

		if !found || key == "" {
			return nil, fmt.Errorf("invalid --param %q: expected key=value", pair)
		}

		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}

		params[key] = value
	}

	return params, nil
}

func writeRecords(c *cli, records []*neo4j.Record) error {
	rows := make([]map[string]any, 0, len(records))
	for _, record := range records {
		rows = append(rows, record.AsMap())
	}

	encoder := json.NewEncoder(c.out)
	encoder.SetIndent("", "  ")

	return encoder.Encode(rows)
}
