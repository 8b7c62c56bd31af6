package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/rollcall/pkg/cli/config"
	"github.com/secmon-lab/rollcall/pkg/domain/model"
	"github.com/secmon-lab/rollcall/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// sampleUserID is used to render the templates once during validation
const sampleUserID = model.UserID("U0000000000")

func cmdValidate() *cli.Command {
	var promptCfg config.Prompt

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate the prompt configuration file",
		Flags:   promptCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			if promptCfg.Path() == "" {
				return goerr.Wrap(config.ErrMissingArgument, "--prompt-config is required",
					goerr.V(config.FlagKey, "prompt-config"))
			}

			prompt, err := promptCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "configuration validation failed")
			}

			// Templates can still fail at execution time, e.g. on unknown fields
			text, err := prompt.RenderPrompt(sampleUserID)
			if err != nil {
				return goerr.Wrap(err, "configuration validation failed")
			}
			confirmation, err := prompt.RenderConfirmation(sampleUserID, prompt.Actions[0].Value)
			if err != nil {
				return goerr.Wrap(err, "configuration validation failed")
			}

			logger.Info("Configuration validation passed",
				"path", promptCfg.Path(),
				"prompt", text,
				"confirmation", confirmation,
				"action_count", len(prompt.Actions),
			)
			return nil
		},
	}
}
