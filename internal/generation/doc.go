// Package generation defines the boundary between the application core and
// external AI/LLM services. The comparison operation depends only on the
// Generator interface; the Gemini-backed implementation lives in
// internal/platform/gemini.
package generation
