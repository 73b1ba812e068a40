package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"

	"postql/graph"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the GraphQL schema",
	Long: `Validate the GraphQL schema served by postql and print it in canonical
form, for client code generators and API docs.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := loadSchema()
		if err != nil {
			return err
		}
		formatter.NewFormatter(cmd.OutOrStdout()).FormatSchema(schema)
		return nil
	},
}

func loadSchema() (*ast.Schema, error) {
	schema, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphql", Input: graph.SDL})
	if err != nil {
		return nil, errors.Wrap(err, "invalid schema")
	}
	return schema, nil
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
