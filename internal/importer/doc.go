// Package importer owns the import session: one batch of draft cards
// produced from pasted material, previewed and selected by the user,
// then committed atomically as persisted cards.
package importer
