// Package senders owns the static roster of configured mail sources and
// their prompt templates.
//
// The Registry is built once at daemon startup from the [[senders]] config
// tables plus the YAML prompts file, and verifies every prompt key up front
// so analysis requests never discover a missing template mid-run. Prompt
// rendering substitutes the {email_content} placeholder verbatim.
package senders
