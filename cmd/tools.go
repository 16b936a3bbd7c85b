package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/form-responder/internal/tools"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools offered to the agent with their input schemas",
	Run: func(cmd *cobra.Command, _ []string) {
		logger, config := setup()

		for _, t := range tools.Assemble(nil, nil, tools.Options{Elements: config.Elements}) {
			schema, err := json.MarshalIndent(tools.InputSchema(t), "  ", "  ")
			if err != nil {
				logger.Fatal("encoding tool schema", zap.String("tool", t.Name()), zap.Error(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n  %s\n  %s\n\n", t.Name(), t.Description(), schema)
		}
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}
