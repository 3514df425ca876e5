// Package models defines domain entities and persistence interfaces for twx.
//
// The package contains two categories of types:
//
// 1. Value types describing remote state and accounts:
//   - [AccountKey], [Account] : Account identity and the backend it belongs to
//   - [BackendType] : Closed set of remote backends (twitter, fanfou, mastodon)
//   - [Status] : Snapshot of a remote status as cached locally
//   - [FavoriteResult] : Backend-agnostic outcome of a favorite call
//   - [Activity] : Activity row about the account that embeds a status
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [Draft] : Durable record that a remote action was started
//   - [CachedUser] : Users seen in timelines, with last-seen bookkeeping
//
// Persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
