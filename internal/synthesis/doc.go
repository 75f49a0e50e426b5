// Package synthesis groups material fragments into clusters and emits
// scored draft cards. Clustering and confidence scoring are rule-based
// and fully deterministic; the fragments-in, scored-drafts-out boundary
// is kept stable so the heuristic can later be swapped for a learned
// scorer without touching the import session or the scheduler.
package synthesis
