package main

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/postgatehq/postgate/llm"
	"github.com/postgatehq/postgate/providers/openai"
)

func llmClientFromViper() llm.Client {
	return openai.New(llmEndpointFromViper(), llmAPIKeyFromViper())
}

func llmProviderFromViper() string {
	return normalizeProvider(viper.GetString("llm.provider"))
}

func llmEndpointFromViper() string {
	switch llmProviderFromViper() {
	case "azure":
		return firstNonEmpty(viper.GetString("llm.azure.endpoint"), viper.GetString("llm.endpoint"))
	default:
		return strings.TrimSpace(viper.GetString("llm.endpoint"))
	}
}

func llmAPIKeyFromViper() string {
	switch llmProviderFromViper() {
	case "azure":
		return firstNonEmpty(viper.GetString("llm.azure.api_key"), viper.GetString("llm.api_key"))
	default:
		return strings.TrimSpace(viper.GetString("llm.api_key"))
	}
}

func llmModelFromViper() string {
	switch llmProviderFromViper() {
	case "azure":
		return firstNonEmpty(viper.GetString("llm.azure.deployment"), viper.GetString("llm.model"))
	default:
		return firstNonEmpty(viper.GetString("llm.model"), "gpt-4o-mini")
	}
}

func normalizeProvider(provider string) string {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return "openai"
	}
	return provider
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
