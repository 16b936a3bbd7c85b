package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/spigell/form-responder/internal/resume"
)

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Inspect the resume the tools answer from",
}

var resumeSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the resume as plain text",
	Run: func(cmd *cobra.Command, _ []string) {
		logger, config := setup()
		r := loadResume(config, logger)
		fmt.Fprintln(cmd.OutOrStdout(), r.Summary())
	},
}

var resumeQueryCmd = &cobra.Command{
	Use:       "query <topic>",
	Short:     "Print what query_resume answers for a topic",
	Args:      cobra.ExactArgs(1),
	ValidArgs: resume.Topics,
	Run: func(cmd *cobra.Command, args []string) {
		logger, config := setup()
		r := loadResume(config, logger)

		if _, ok := resume.MatchTopic(args[0]); !ok {
			logger.Warn("unknown topic", zap.String("topic", args[0]), zap.Strings("topics", resume.Topics))
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r.Query(args[0])); err != nil {
			logger.Fatal("encoding query result", zap.Error(err))
		}
	},
}

var resumeValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a resume file and list every problem found",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		logger, config := setup()

		path := config.Resume
		if len(args) == 1 {
			path = args[0]
		}

		if _, err := resume.Load(path); err != nil {
			for _, e := range multierr.Errors(err) {
				logger.Error("invalid resume", zap.String("path", path), zap.Error(e))
			}
			logger.Fatal("resume validation failed", zap.Int("problems", len(multierr.Errors(err))))
		}

		logger.Info("resume is valid", zap.String("path", path))
	},
}

func init() {
	resumeCmd.AddCommand(resumeSummaryCmd, resumeQueryCmd, resumeValidateCmd)
	rootCmd.AddCommand(resumeCmd)
}
