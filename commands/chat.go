package commands

import "context"

var ChatDefinition = Definition{
	Name:        "chat",
	Prefixes:    []string{"/t", "#t"},
	Description: "Talk to the assistant: /t <message>",
	Handler:     Chat,
}

func Chat(ctx context.Context, env Env, arg string) (string, error) {
	return env.Service.Chat(ctx, env.Conversation, arg)
}
