// Package tasks holds the client-side state that views render: fetch loaders, the catalog controller and the
// optimistic mutation controllers.
//
// # Loaders
//
// A [Loader] keeps one entity in sync with a key such as a track id. Each fetch is numbered; a result is applied
// only when its number is still the latest, so switching keys quickly never shows an older entity. The state is
// exactly one of pending, success and failure, and [State.View] maps it onto the loading, error, empty and ready
// views.
//
// # Catalog
//
// [CatalogController] pages through the catalog. Search text is debounced, page bounds are corrected after each
// fetch, and the rating of every track on the page is fetched concurrently with a bounded errgroup. A failed
// rating degrades to "no rating" for that track only.
//
// # Mutations
//
// [Mutate] runs the guess, commit, reconcile-or-rollback protocol over an [Optimistic] value. Likes and follows
// publish a guess before the request is sent; reviews, lists and the profile apply the backend's answer.
// Anonymous viewers get [shared.ErrLoginRequired] without a request, and a failed commit restores the prior value
// and emits a [Notice].
//
// # Subscriptions
//
// Every Subscribe method returns a channel with a buffer of one that always holds the latest value. Senders
// never block; slow readers skip intermediate states.
package tasks
