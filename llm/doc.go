// Package llm defines the provider-agnostic adapter contract shared by all
// model integrations. It holds the normalized Request/Response structures, the
// role-based content model (text, data, function call/response parts) and the
// Adapter interface every provider package implements. Concrete adapters live
// in sub-packages (llm/anthropic, llm/openai, llm/gemini, llm/ollama); the
// registry in the root package selects among them.
package llm
