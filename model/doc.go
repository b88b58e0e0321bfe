// Package model defines the provider-agnostic abstractions for driving
// language models in modelbridge.
//
// Core goals:
//   - Unify streaming + non-streaming generation behind a single interface
//   - Normalize tool / function call representation (ToolDefinition)
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (OpenAI, Anthropic, Ollama) implement the Model interface from
// this package so the client facade, the streaming coordinator and the
// tool-call loop remain decoupled from vendor SDKs.
package model
