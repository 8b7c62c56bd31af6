package model

import (
	"bytes"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

// Default wording of the daily status prompt and its confirmation
const (
	DefaultPromptText         = "Hey <@{{ .UserID }}>, please update your daily status!"
	DefaultAttachmentText     = "Update your daily status:"
	DefaultAttachmentFallback = "You are unable to update your daily status."
	DefaultAttachmentColor    = "#3AA3E3"
	DefaultActionName         = "status"
	DefaultActionText         = "Update status"
	DefaultActionValue        = "in_progress"
	DefaultConfirmationText   = "Thanks for your response: {{ .Response }}"
)

// PromptAction is a button attached to the prompt
type PromptAction struct {
	Name  string
	Text  string
	Value string
}

// PromptConfig defines the messages sent by dispatch cycles and response intake
type PromptConfig struct {
	Text               string
	AttachmentText     string
	AttachmentFallback string
	AttachmentColor    string
	Actions            []PromptAction
	ConfirmationText   string

	promptTmpl       *template.Template
	confirmationTmpl *template.Template
}

// DefaultPromptConfig returns the built-in wording
func DefaultPromptConfig() *PromptConfig {
	cfg, err := NewPromptConfig(PromptConfig{
		Text:               DefaultPromptText,
		AttachmentText:     DefaultAttachmentText,
		AttachmentFallback: DefaultAttachmentFallback,
		AttachmentColor:    DefaultAttachmentColor,
		Actions: []PromptAction{
			{Name: DefaultActionName, Text: DefaultActionText, Value: DefaultActionValue},
		},
		ConfirmationText: DefaultConfirmationText,
	})
	if err != nil {
		panic(err)
	}
	return cfg
}

// NewPromptConfig validates src and compiles its templates
func NewPromptConfig(src PromptConfig) (*PromptConfig, error) {
	if src.Text == "" {
		return nil, goerr.New("prompt text is required")
	}
	if src.ConfirmationText == "" {
		return nil, goerr.New("confirmation text is required")
	}
	if len(src.Actions) == 0 {
		return nil, goerr.New("at least one prompt action is required")
	}
	for i, a := range src.Actions {
		if a.Name == "" || a.Text == "" || a.Value == "" {
			return nil, goerr.New("prompt action requires name, text and value", goerr.V("index", i))
		}
	}

	promptTmpl, err := template.New("prompt").Option("missingkey=error").Parse(src.Text)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse prompt text template")
	}
	confirmationTmpl, err := template.New("confirmation").Option("missingkey=error").Parse(src.ConfirmationText)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse confirmation text template")
	}

	cfg := src
	cfg.Actions = append([]PromptAction(nil), src.Actions...)
	cfg.promptTmpl = promptTmpl
	cfg.confirmationTmpl = confirmationTmpl
	return &cfg, nil
}

// RenderPrompt returns the personalized prompt text for userID
func (x *PromptConfig) RenderPrompt(userID UserID) (string, error) {
	var buf bytes.Buffer
	if err := x.promptTmpl.Execute(&buf, struct{ UserID UserID }{userID}); err != nil {
		return "", goerr.Wrap(err, "failed to render prompt text", goerr.V("user_id", userID))
	}
	return buf.String(), nil
}

// RenderConfirmation returns the confirmation text for an interactive response
func (x *PromptConfig) RenderConfirmation(userID UserID, response string) (string, error) {
	var buf bytes.Buffer
	data := struct {
		UserID   UserID
		Response string
	}{userID, response}
	if err := x.confirmationTmpl.Execute(&buf, data); err != nil {
		return "", goerr.Wrap(err, "failed to render confirmation text", goerr.V("user_id", userID))
	}
	return buf.String(), nil
}

// Attachment builds the interactive attachment for userID.
// Its callback ID pairs the prompt with HandleInteractive.
func (x *PromptConfig) Attachment(userID UserID) *slack.Attachment {
	actions := make([]slack.AttachmentAction, len(x.Actions))
	for i, a := range x.Actions {
		actions[i] = slack.AttachmentAction{
			Name:  a.Name,
			Text:  a.Text,
			Type:  "button",
			Value: a.Value,
		}
	}

	return &slack.Attachment{
		Text:       x.AttachmentText,
		Fallback:   x.AttachmentFallback,
		CallbackID: StatusCallbackID(userID),
		Color:      x.AttachmentColor,
		Actions:    actions,
	}
}
