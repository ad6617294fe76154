// Package generation defines the boundary between the application and
// external LLM services. A Generator turns a Prompt (system context plus task
// instructions) into model text; callers validate and shape that text
// themselves. The Gemini adapter lives in internal/platform/gemini.
package generation
