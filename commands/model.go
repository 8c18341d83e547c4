package commands

import (
	"context"
	"strings"

	"github.com/petasbytes/aichat/internal/apperr"
)

var ListModelsDefinition = Definition{
	Name:        "listModels",
	Prefixes:    aliases("models", "模型列表"),
	Description: "List configured models",
	Handler: func(_ context.Context, env Env, _ string) (string, error) {
		models := env.Service.ListModels()
		if len(models) == 0 {
			return "No models are configured.", nil
		}
		return "Available models:\n- " + strings.Join(models, "\n- "), nil
	},
}

var SetModelDefinition = Definition{
	Name:        "setModel",
	Prefixes:    aliases("setmodel", "设置模型"),
	Description: "Select a model for this conversation: #setmodel <provider.model>",
	Handler: func(_ context.Context, env Env, arg string) (string, error) {
		id := strings.TrimSpace(arg)
		if id == "" {
			return "", apperr.InvalidInput("name a model id, for example: #setmodel gemini.gemini-1.5-pro")
		}
		if err := env.Service.SetModel(env.Conversation, id); err != nil {
			return "", err
		}
		return "Model for this conversation switched to: " + id, nil
	},
}

var CurrentModelDefinition = Definition{
	Name:        "currentModel",
	Prefixes:    aliases("currentmodel", "当前模型"),
	Description: "Show the model this conversation uses",
	Handler: func(_ context.Context, env Env, _ string) (string, error) {
		id, err := env.Service.CurrentModel(env.Conversation)
		if err != nil {
			return "", err
		}
		return "Current model: " + id, nil
	},
}
