// Package preflight provides readiness checks for the filesystem paths,
// network endpoints, and optional tools that devlog relies on.
//
// The CLI "devlog status" command runs RunAll and renders the results as a
// table. Individual checks (CheckDirectoryAccess, CheckConnectivity) are
// also used directly by the session helpers.
package preflight
