package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/rollcall/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

// Prompt holds the CLI flag pointing at the prompt wording file
type Prompt struct {
	path string
}

func (x *Prompt) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "prompt-config",
			Usage:       "Path to a TOML file overriding the prompt and confirmation wording",
			Category:    "Prompt",
			Sources:     cli.EnvVars("ROLLCALL_PROMPT_CONFIG"),
			Destination: &x.path,
		},
	}
}

func (x Prompt) LogValue() slog.Value {
	return slog.GroupValue(slog.String("path", x.path))
}

// Path returns the configured file path
func (x *Prompt) Path() string {
	return x.path
}

// Configure returns the built-in wording when no file is set
func (x *Prompt) Configure() (*model.PromptConfig, error) {
	if x.path == "" {
		return model.DefaultPromptConfig(), nil
	}
	return LoadPromptConfig(x.path)
}

// PromptFile is the TOML layout of the prompt wording file.
// Omitted keys keep their built-in value.
type PromptFile struct {
	Text             string             `toml:"text"`
	ConfirmationText string             `toml:"confirmation_text"`
	Attachment       PromptAttachment   `toml:"attachment"`
	Actions          []PromptFileAction `toml:"actions"`
}

type PromptAttachment struct {
	Text     string `toml:"text"`
	Fallback string `toml:"fallback"`
	Color    string `toml:"color"`
}

type PromptFileAction struct {
	Name  string `toml:"name"`
	Text  string `toml:"text"`
	Value string `toml:"value"`
}

// ToModel merges the file over the built-in wording and compiles it
func (x *PromptFile) ToModel() (*model.PromptConfig, error) {
	src := *model.DefaultPromptConfig()

	if x.Text != "" {
		src.Text = x.Text
	}
	if x.ConfirmationText != "" {
		src.ConfirmationText = x.ConfirmationText
	}
	if x.Attachment.Text != "" {
		src.AttachmentText = x.Attachment.Text
	}
	if x.Attachment.Fallback != "" {
		src.AttachmentFallback = x.Attachment.Fallback
	}
	if x.Attachment.Color != "" {
		src.AttachmentColor = x.Attachment.Color
	}
	if len(x.Actions) > 0 {
		src.Actions = make([]model.PromptAction, len(x.Actions))
		for i, a := range x.Actions {
			src.Actions[i] = model.PromptAction{Name: a.Name, Text: a.Text, Value: a.Value}
		}
	}

	cfg, err := model.NewPromptConfig(src)
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "invalid prompt wording", goerr.V("cause", err.Error()))
	}
	return cfg, nil
}

// LoadPromptConfig loads and validates the prompt wording from a TOML file
func LoadPromptConfig(path string) (*model.PromptConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "prompt config file not found", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read prompt config file", goerr.V(ConfigPathKey, path))
	}

	var file PromptFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML prompt config",
			goerr.V(ConfigPathKey, path), goerr.V("cause", err.Error()))
	}

	cfg, err := file.ToModel()
	if err != nil {
		return nil, goerr.Wrap(err, "prompt config validation failed", goerr.V(ConfigPathKey, path))
	}
	return cfg, nil
}
