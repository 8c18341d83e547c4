package commands

import (
	"context"
	"strconv"
	"strings"

	"github.com/petasbytes/aichat/internal/apperr"
	"github.com/petasbytes/aichat/internal/chat"
)

var SetTemperatureDefinition = Definition{
	Name:        "setTemperature",
	Prefixes:    aliases("settemp", "设置温度"),
	Description: "Set sampling temperature (0 to 2): #settemp <value>",
	Handler: func(_ context.Context, env Env, arg string) (string, error) {
		v, err := env.Service.SetParameter(env.Conversation, chat.ParamTemperature, arg)
		if err != nil {
			return "", err
		}
		return "Temperature for this conversation set to: " + v, nil
	},
}

var SetMaxTokensDefinition = Definition{
	Name:        "setMaxTokens",
	Prefixes:    aliases("setmaxtokens", "设置回复长度"),
	Description: "Set the reply length limit (1 to 8192): #setmaxtokens <n>",
	Handler: func(_ context.Context, env Env, arg string) (string, error) {
		v, err := env.Service.SetParameter(env.Conversation, chat.ParamMaxTokens, arg)
		if err != nil {
			return "", err
		}
		return "Max reply length for this conversation set to: " + v, nil
	},
}

var (
	memoryOn  = []string{"on", "enable", "open", "开启", "开", "启用"}
	memoryOff = []string{"off", "disable", "close", "关闭", "关", "禁用"}
)

func oneOf(s string, words []string) bool {
	for _, w := range words {
		if s == w {
			return true
		}
	}
	return false
}

var ToggleMemoryDefinition = Definition{
	Name:        "toggleMemory",
	Prefixes:    aliases("memory", "对话记忆"),
	Description: "Keep or drop assistant replies in history: #memory on|off",
	Handler: func(_ context.Context, env Env, arg string) (string, error) {
		action := strings.ToLower(strings.TrimSpace(arg))
		var enabled bool
		switch {
		case oneOf(action, memoryOn):
			enabled = true
		case oneOf(action, memoryOff):
			enabled = false
		default:
			return "", apperr.InvalidInput("usage: #memory on|off (also enable/disable, open/close)")
		}
		if err := env.Service.ToggleMemory(env.Conversation, enabled); err != nil {
			return "", err
		}
		if enabled {
			return "Conversation memory enabled.", nil
		}
		return "Conversation memory disabled.", nil
	},
}

var DeleteConversationDefinition = Definition{
	Name:        "deleteConversation",
	Prefixes:    aliases("delete", "删除对话"),
	Description: "Delete the most recent n exchanges: #delete <n>",
	Handler: func(_ context.Context, env Env, arg string) (string, error) {
		n, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil || n <= 0 {
			return "", apperr.InvalidInput("enter a number greater than 0")
		}
		if _, err := env.Service.DeleteConversation(env.Conversation, n); err != nil {
			return "", err
		}
		return "Deleted the most recent " + strconv.Itoa(n) + " exchanges.", nil
	},
}

var ResetHistoryDefinition = Definition{
	Name:        "resetHistory",
	Prefixes:    aliases("reset", "重置会话"),
	Description: "Clear this conversation's history",
	Handler: func(_ context.Context, env Env, _ string) (string, error) {
		if err := env.Service.ResetHistory(env.Conversation); err != nil {
			return "", err
		}
		return "Conversation history reset.", nil
	},
}

var ReloadConfigDefinition = Definition{
	Name:        "reloadConfig",
	Prefixes:    aliases("reload", "重载AI配置"),
	Description: "Reload config.yml (operator only)",
	Handler: func(_ context.Context, env Env, _ string) (string, error) {
		if !env.Admin {
			return "", apperr.InvalidOperation("only the operator can reload the configuration")
		}
		if err := env.Service.ReloadConfig(); err != nil {
			return "", err
		}
		return "Configuration reloaded.", nil
	},
}
