// Package mail fetches sender threads for analysis.
//
// The Gmail implementation authenticates with a cached OAuth token,
// lists threads matching a from: query, and pulls each thread in full.
// Message bodies prefer the HTML part so hyperlinks survive as
// "text (url)" in the flattened text; plain text is the fallback. A
// sqlite cache keyed by thread id and history id avoids re-downloading
// threads that have not changed between runs.
package mail
