// Package repositories implements SQLite persistence for drafts, accounts and the local status cache.
//
// Drafts follow the models.Repository contract: atomic sequence generation for ordering and soft
// deletes via deleted_at. Cache tables are plain views keyed by account and status id and expose
// the narrow conditional updates the favorite task needs.
//
// Key Implementations:
//   - [DraftRepository] : durable action drafts, soft-deleted once an action completes
//   - [DraftStoreAdapter] : adapts [DraftRepository] to the task layer's draft store
//   - [AccountRepository] : backend type, API root and token per account key
//   - [StatusRepository] : status views ("statuses", "cached_statuses") with repost-aware favorite updates
//   - [ActivityRepository] : activities that embed a status
//   - [CachedUserRepository] : remote users with their last-seen timestamp
//
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
