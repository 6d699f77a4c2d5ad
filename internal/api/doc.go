// Package api is the typed command surface consumed by the CLI and by
// external collaborators such as the admin UI. It exposes pipeline
// triggering, review-queue actions, run history, and source management
// without leaking stage internals.
package api
