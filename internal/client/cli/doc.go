// Package cli provides the interactive gophdirectory command-line client.
//
// It wires configuration, the local cache, the directory client, a background
// connectivity watcher and the recipient service, then runs a REPL that
// prints whatever the resolver returns. Lookups keep working offline from
// the local cache.
//
// Commands:
//   - user, username, pay: resolve a recipient by id, username or payment address
//   - group, addgroup: read and store groups locally
//   - search, searchonline: username search in the cache or the directory
//   - contacts, addcontact, rmcontact: address book
//   - block, unblock, blocked: blocked owner addresses
//   - report: report a user, stamped with the directory clock
//   - publish, avatar: publish a profile and upload its avatar
//   - clear: wipe the cached profiles
//
// The REPL is started via App.Run(ctx, in), which blocks until the user exits.
// See App and runREPL for details.
package cli
