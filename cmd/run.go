package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/form-responder/internal/ai"
	"github.com/spigell/form-responder/internal/ai/gemini"
	"github.com/spigell/form-responder/internal/browser"
	"github.com/spigell/form-responder/internal/resume"
	"github.com/spigell/form-responder/internal/secrets"
	"github.com/spigell/form-responder/internal/tools"
)

const (
	PromptYes     = "Yes"
	PromptNo      = "No"
	PromptSummary = "Show resume summary"
	PromptTools   = "Show tools"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Proceed?",
	Items: []string{PromptYes, PromptNo, PromptSummary, PromptTools},
}

var runCmd = &cobra.Command{
	Use:   "run [task]",
	Short: "Let the AI agent fill in the application form",
	Long: "Launches the browser and lets the AI agent fill in the application form with the tools.\n" +
		"The task defaults to filling in the form at --url.",
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("url", "u", "", "url of the application form")
	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before starting the agent")
}

// run is the main command for the cli.
func run(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, config := setup()
	defer logger.Sync()

	logger = logger.With(zap.String("run_id", uuid.NewString()))
	logger.Info("starting the form-responder", zap.String("version", version))

	task, err := buildTask(cmd, args)
	if err != nil {
		logger.Fatal("building task", zap.Error(err),
			zap.String("hint", "pass the form url with --url or describe the task as an argument"),
		)
	}

	r := loadResume(config, logger)

	generator, err := newGenerator(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("creating ai generator", zap.Error(err))
	}

	if autoApprove, _ := cmd.Flags().GetBool("auto-approve"); !autoApprove {
		if err := confirm(r, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}

	session, err := browser.Launch(ctx, config.Browser, logger)
	if err != nil {
		logger.Fatal("launching browser", zap.Error(err),
			zap.String("hint", "set browser.install to download the browser on first run"),
		)
	}
	closeSession := func() {
		if err := session.Close(); err != nil {
			logger.Warn("closing browser", zap.Error(err))
		}
	}

	set := tools.Assemble(session, r, tools.Options{Elements: config.Elements, Logger: logger})

	driver, err := gemini.NewDriver(generator, set, config.AI.Gemini.Options, logger)
	if err != nil {
		closeSession()
		logger.Fatal("creating agent", zap.Error(err))
	}

	outcome, err := driver.Run(ctx, task)
	closeSession()
	report(outcome, logger)

	if err := checkOutcome(err, logger); err != nil {
		logger.Fatal("agent failed", zap.Error(err),
			zap.String("hint", "run with --debug to see every tool call"),
		)
	}
}

// checkOutcome returns the agent error that should fail the command. Running
// out of steps only warns.
func checkOutcome(err error, logger *zap.Logger) error {
	if errors.Is(err, gemini.ErrMaxSteps) {
		logger.Warn("agent did not finish", zap.Error(err),
			zap.String("hint", "raise ai.gemini.max-steps"),
		)
		return nil
	}
	return err
}

func buildTask(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
		return args[0], nil
	}

	url, _ := cmd.Flags().GetString("url")
	if url = strings.TrimSpace(url); url == "" {
		return "", errors.New("neither a task nor a form url was given")
	}

	return fmt.Sprintf("Navigate to %s and fill in the job application form there with the applicant's resume.", url), nil
}

// confirm asks until the user approves or declines the run.
func confirm(r *resume.Resume, logger *zap.Logger) error {
	for {
		_, action, err := prompt.Run()
		if err != nil {
			return err
		}

		switch action {
		case PromptYes:
			return nil
		case PromptNo:
			logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return errExit
		case PromptSummary:
			logger.Info("resume summary\n" + r.Summary())
		case PromptTools:
			for _, t := range tools.Assemble(nil, r, tools.Options{}) {
				logger.Info("tool", zap.String("name", t.Name()), zap.String("description", t.Description()))
			}
		default:
			return fmt.Errorf("invalid action: %s", action)
		}
	}
}

func newGenerator(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (*gemini.Generator, error) {
	if cfg == nil || cfg.Gemini == nil {
		return nil, errors.New("ai.gemini section is required")
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	return gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, logger.With(zap.String("provider", "gemini")))
}

func report(outcome *ai.Outcome, logger *zap.Logger) {
	if outcome == nil {
		return
	}

	logger.Info("agent finished",
		zap.Int("steps", outcome.Steps),
		zap.Int("tool_calls", len(outcome.Calls)),
	)

	if outcome.Answer != "" {
		logger.Info("agent answer\n" + outcome.Answer)
	}
}
