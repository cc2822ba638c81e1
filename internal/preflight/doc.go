// Package preflight provides startup checks for filesystem paths and
// credentials that the daemon depends on.
//
// These checks run in two contexts:
//   - The daemon entrypoint calls RunAll before constructing services.
//     Fatal failures abort startup with one descriptive error; non-fatal
//     failures are logged as warnings and startup continues.
//   - The CLI "mailscout health" command reuses the same checks to show
//     what is missing when the daemon is not running.
//
// Every check here is offline. Live connectivity (Gmail API, model
// providers) is reported by the workflow health endpoint instead, so a
// slow provider cannot stall daemon startup.
package preflight
