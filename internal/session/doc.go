// Package session implements the client's single process-wide session.
//
// A [Store] is either Anonymous or Authenticated. Its three transitions are:
//   - [Store.Restore] : load token and profile from [Storage] at startup, discarding corrupt or partial state
//   - [Store.Login] : persist a backend-issued token and profile summary
//   - [Store.Logout] : clear storage and run the logout hook, which views use to reset to the login screen
//
// Consumers react to transitions through [Store.Subscribe]. Loaders and controllers read [Store.Token] at the
// moment a request is made, never a cached copy.
//
// Storage is satisfied by repositories.KVRepository (sqlite) and [MemoryStorage].
package session
