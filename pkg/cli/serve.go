package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/rollcall/pkg/cli/config"
	httpctrl "github.com/secmon-lab/rollcall/pkg/controller/http"
	"github.com/secmon-lab/rollcall/pkg/controller/socket"
	"github.com/secmon-lab/rollcall/pkg/usecase"
	"github.com/secmon-lab/rollcall/pkg/utils/logging"
	"github.com/secmon-lab/rollcall/pkg/utils/safe"
	"github.com/secmon-lab/rollcall/pkg/utils/throttle"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func cmdServe() *cli.Command {
	var addr string
	var sendInterval time.Duration
	var strictCallbackUser bool
	var repoCfg config.Repository
	var slackCfg config.Slack
	var promptCfg config.Prompt

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("ROLLCALL_ADDR"),
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "send-interval",
			Usage:       "Minimum interval between outbound Slack messages",
			Value:       throttle.DefaultInterval,
			Sources:     cli.EnvVars("ROLLCALL_SEND_INTERVAL"),
			Destination: &sendInterval,
		},
		&cli.BoolFlag{
			Name:        "strict-callback-user",
			Usage:       "Reject interactive callbacks whose embedded user differs from the responding user",
			Sources:     cli.EnvVars("ROLLCALL_STRICT_CALLBACK_USER"),
			Destination: &strictCallbackUser,
		},
	}

	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, promptCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			if sendInterval <= 0 {
				return goerr.New("send-interval must be positive", goerr.V("send_interval", sendInterval))
			}

			slackSvc, err := slackCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure slack")
			}

			prompt, err := promptCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load prompt config")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			uc := usecase.New(repo, slackSvc,
				usecase.WithThrottle(throttle.New(sendInterval)),
				usecase.WithPromptConfig(prompt),
				usecase.WithVerificationToken(slackCfg.VerificationToken()),
				usecase.WithStrictCallbackUser(strictCallbackUser),
			)

			httpOpts := []httpctrl.Options{
				httpctrl.WithSlackWebhook(httpctrl.NewSlackWebhookHandler(uc.Event, uc.Subscription)),
				httpctrl.WithSlackInteraction(httpctrl.NewSlackInteractionHandler(uc.Intake)),
			}
			if slackCfg.SigningSecret() != "" {
				httpOpts = append(httpOpts, httpctrl.WithSlackSigningSecret(slackCfg.SigningSecret()))
				logger.Info("Slack request signature verification enabled")
			}
			if slackCfg.VerificationToken() != "" {
				logger.Info("Slack verification token check enabled")
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(httpOpts...),
				ReadHeaderTimeout: 30 * time.Second,
			}

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			eg, ctx := errgroup.WithContext(ctx)

			eg.Go(func() error {
				logger.Info("Starting HTTP server",
					"addr", addr,
					"send_interval", sendInterval,
					"strict_callback_user", strictCallbackUser,
					"slack", slackCfg,
					"repository", repoCfg,
					"prompt", promptCfg,
				)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return goerr.Wrap(err, "failed to start server", goerr.V("addr", addr))
				}
				return nil
			})

			if slackCfg.IsSocketModeEnabled() {
				var socketOpts []socket.Option
				if slackCfg.APIURL() != "" {
					socketOpts = append(socketOpts, socket.WithAPIURL(slackCfg.APIURL()))
				}
				listener, err := socket.New(slackCfg.BotToken(), slackCfg.AppToken(), uc.Event, uc.Subscription, uc.Intake, socketOpts...)
				if err != nil {
					return goerr.Wrap(err, "failed to create socket mode listener")
				}
				eg.Go(func() error {
					logger.Info("Starting Slack Socket Mode listener")
					if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
						return goerr.Wrap(err, "socket mode listener stopped")
					}
					return nil
				})
			}

			eg.Go(func() error {
				<-ctx.Done()
				logger.Info("Shutting down server")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}
				logger.Info("Server shutdown completed")
				return nil
			})

			return eg.Wait()
		},
	}
}
