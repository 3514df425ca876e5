// Package tasks orchestrates the favorite action: a durable draft, the remote call, and the local cache
// update, with in-flight tracking and lifecycle events for observers.
//
// # Favorite Task
//
// [FavoriteService.CreateFavorite] runs a [CreateFavoriteTask] in three phases:
//
//  1. [CreateFavoriteTask.BeforeExecute] : marks (account, status) in flight and publishes
//     [EventStatusListChanged]
//
//  2. [CreateFavoriteTask.Execute] :
//     - saves a favorite draft (failure ends the task before any remote call)
//     - marks the draft as sending for the duration of the call
//     - dispatches to the account's backend; the call is not cancelled by the caller's context
//     - writes the result into every cached view row for the status or its reposts, and into
//     matching activities (failures are logged only)
//     - deletes the draft
//
//  3. [CreateFavoriteTask.AfterExecute] : clears the in-flight mark, notifies the user on failure,
//     publishes the terminal [EventFavoriteTask] and another [EventStatusListChanged]
//
// A draft outlives its task only when the remote call fails or the process dies mid-call. Those
// drafts are the crash-recovery record; [Recovery] lists, retries and discards them on request.
//
// # Events
//
// [Bus] fans events out to subscribers. Like progress updates elsewhere, delivery uses select with
// default so a slow observer never blocks a task.
//
// # Errors
//
// Task failures are [*MutationError] with an [ErrorKind]. Remote failures wrap the dispatcher's
// services.RemoteError.
//
// # Observability
//
// [Metrics] registers Prometheus collectors. Each invocation is traced as a "favorite.create" span
// with a "favorite.dispatch" child.
package tasks
