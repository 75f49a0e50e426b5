// Package skill maintains skill point levels. It is the only writer of
// levels: review outcomes and onboarding self-assessments both land
// here, and every mutation recomputes the owning direction's stage in
// the same transaction.
package skill
