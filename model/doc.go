// Package model defines the provider-agnostic abstractions for talking to a
// reasoning backend.
//
// Core goals:
//   - Keep a single Generate interface for every provider
//   - Classify provider failures as transient or fatal (BackendError)
//   - Facilitate deterministic mocking for tests (MockModel)
//
// Providers (OpenAI, Anthropic, Gemini) implement Model in subpackages so
// higher layers stay decoupled from vendor SDKs.
package model
