package commands

import (
	"context"

	"github.com/petasbytes/aichat/internal/chat"
)

// Env is what a handler needs about the caller.
type Env struct {
	Service      *chat.Service
	Conversation string
	// Admin callers may run operator-only commands such as reload.
	Admin bool
}

// Handler runs a command with the text that followed its prefix.
type Handler func(ctx context.Context, env Env, arg string) (string, error)

type Definition struct {
	Name        string
	Prefixes    []string
	Description string
	Handler     Handler
}

// aliases returns "#en", "#zh" and the bare "zh" form. English words
// always need the '#' so ordinary sentences are not mistaken for commands.
func aliases(en, zh string) []string {
	return []string{"#" + en, "#" + zh, zh}
}

// Registry returns all command definitions wired for the chat surface.
func Registry() []Definition {
	return []Definition{
		ChatDefinition,
		SetPersonaDefinition,
		ListPersonasDefinition,
		SwitchPersonaDefinition,
		AddPersonaDefinition,
		RemovePersonaDefinition,
		ListModelsDefinition,
		SetModelDefinition,
		CurrentModelDefinition,
		SetTemperatureDefinition,
		SetMaxTokensDefinition,
		ToggleMemoryDefinition,
		DeleteConversationDefinition,
		ResetHistoryDefinition,
		ReloadConfigDefinition,
	}
}
