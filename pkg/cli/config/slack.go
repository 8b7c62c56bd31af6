package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	slacksvc "github.com/secmon-lab/rollcall/pkg/service/slack"
	"github.com/urfave/cli/v3"
)

type Slack struct {
	botToken          string
	signingSecret     string
	verificationToken string
	appToken          string
	apiURL            string
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token (required)",
			Category:    "Slack",
			Destination: &x.botToken,
			Sources:     cli.EnvVars("ROLLCALL_SLACK_BOT_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-signing-secret",
			Usage:       "Slack Signing Secret (for request signature verification)",
			Category:    "Slack",
			Destination: &x.signingSecret,
			Sources:     cli.EnvVars("ROLLCALL_SLACK_SIGNING_SECRET"),
		},
		&cli.StringFlag{
			Name:        "slack-verification-token",
			Usage:       "Slack Events API verification token",
			Category:    "Slack",
			Destination: &x.verificationToken,
			Sources:     cli.EnvVars("ROLLCALL_SLACK_VERIFICATION_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-app-token",
			Usage:       "Slack App-Level Token (enables Socket Mode)",
			Category:    "Slack",
			Destination: &x.appToken,
			Sources:     cli.EnvVars("ROLLCALL_SLACK_APP_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-api-url",
			Usage:       "Override Slack API base URL",
			Category:    "Slack",
			Hidden:      true,
			Destination: &x.apiURL,
			Sources:     cli.EnvVars("ROLLCALL_SLACK_API_URL"),
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot-token.len", len(x.botToken)),
		slog.Bool("signing-secret", x.signingSecret != ""),
		slog.Bool("verification-token", x.verificationToken != ""),
		slog.Bool("socket-mode", x.appToken != ""),
	)
}

// Validate checks that inbound requests can be authenticated in some way
func (x *Slack) Validate() error {
	if x.botToken == "" {
		return goerr.Wrap(ErrMissingArgument, "--slack-bot-token is required", goerr.V(FlagKey, "slack-bot-token"))
	}
	if x.signingSecret == "" && x.verificationToken == "" {
		return goerr.Wrap(ErrMissingArgument,
			"either --slack-signing-secret or --slack-verification-token is required",
			goerr.V(FlagKey, "slack-signing-secret"),
		)
	}
	return nil
}

// Configure validates the flags and creates the Slack Web API service
func (x *Slack) Configure() (slacksvc.Service, error) {
	if err := x.Validate(); err != nil {
		return nil, err
	}

	var opts []slacksvc.Option
	if x.apiURL != "" {
		opts = append(opts, slacksvc.WithAPIURL(x.apiURL))
	}

	svc, err := slacksvc.New(x.botToken, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize slack service")
	}
	return svc, nil
}

// BotToken returns the Slack bot token
func (x *Slack) BotToken() string {
	return x.botToken
}

// SigningSecret returns the Slack signing secret
func (x *Slack) SigningSecret() string {
	return x.signingSecret
}

// VerificationToken returns the Events API verification token
func (x *Slack) VerificationToken() string {
	return x.verificationToken
}

// AppToken returns the app-level token used by Socket Mode
func (x *Slack) AppToken() string {
	return x.appToken
}

// APIURL returns the overridden Slack API base URL, if any
func (x *Slack) APIURL() string {
	return x.apiURL
}

// IsSocketModeEnabled reports whether an app-level token was given
func (x *Slack) IsSocketModeEnabled() bool {
	return x.appToken != ""
}
