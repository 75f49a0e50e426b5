// Package scheduler computes the daily review plan and applies review
// outcomes. Plan computation is read-only and safely repeatable;
// outcome application is a compare-and-set against the card's due time
// so racing outcomes never silently overwrite each other.
package scheduler
