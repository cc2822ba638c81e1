// Package config loads, normalizes, and validates Mailscout configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// OPENAI_API_KEY and GROQ_API_KEY. The Config type centralizes every knob the
// daemon and CLI need, allowing log/cache directories, Gmail credentials, LLM
// providers, and the configured sender roster to be discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
