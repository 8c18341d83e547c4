package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/petasbytes/aichat/internal/apperr"
)

var SetPersonaDefinition = Definition{
	Name:        "setPersona",
	Prefixes:    aliases("setpersona", "设置人格"),
	Description: "Give this conversation its own system prompt: #setpersona <description>",
	Handler: func(_ context.Context, env Env, arg string) (string, error) {
		if strings.TrimSpace(arg) == "" {
			return "", apperr.InvalidInput("persona description must not be empty, for example: #setpersona You only ever answer with 'meow'.")
		}
		if err := env.Service.SetPersonaDescription(env.Conversation, arg); err != nil {
			return "", err
		}
		return "Persona for this conversation updated.", nil
	},
}

var ListPersonasDefinition = Definition{
	Name:        "listPersonas",
	Prefixes:    aliases("personas", "人格列表"),
	Description: "List registered personas",
	Handler: func(_ context.Context, env Env, _ string) (string, error) {
		return "Available personas:\n- " + strings.Join(env.Service.ListPersonas(), "\n- "), nil
	},
}

var SwitchPersonaDefinition = Definition{
	Name:        "switchPersona",
	Prefixes:    aliases("switchpersona", "切换人格"),
	Description: "Switch to a registered persona and clear history: #switchpersona <name>",
	Handler: func(_ context.Context, env Env, arg string) (string, error) {
		e, err := env.Service.SwitchPersona(env.Conversation, arg)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Switched to persona: %s", e.Name), nil
	},
}

var AddPersonaDefinition = Definition{
	Name:        "addPersona",
	Prefixes:    aliases("addpersona", "添加人格"),
	Description: "Create or overwrite a persona: #addpersona <name> <description>",
	Handler: func(_ context.Context, env Env, arg string) (string, error) {
		name, desc, _ := strings.Cut(strings.TrimSpace(arg), " ")
		if err := env.Service.AddPersona(name, desc); err != nil {
			return "", err
		}
		return fmt.Sprintf("Persona '%s' saved.", name), nil
	},
}

var RemovePersonaDefinition = Definition{
	Name:        "removePersona",
	Prefixes:    aliases("removepersona", "删除人格"),
	Description: "Remove a persona: #removepersona <name>",
	Handler: func(_ context.Context, env Env, arg string) (string, error) {
		name := strings.TrimSpace(arg)
		if name == "" {
			return "", apperr.InvalidInput("name the persona to remove")
		}
		if err := env.Service.RemovePersona(name); err != nil {
			return "", err
		}
		return fmt.Sprintf("Persona '%s' removed.", name), nil
	},
}
