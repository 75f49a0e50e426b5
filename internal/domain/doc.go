// Package domain contains the core business entities, value objects, and
// domain logic of the knowledge-management engine: directions, skill
// points, cards with their spaced-repetition review state, ephemeral
// import drafts, and reminder preferences. It represents the heart of the
// system, independent of any specific infrastructure or delivery mechanism.
//
// Algorithmic derivations live in the subpackages srs (review interval
// rule) and stage (direction stage derivation).
package domain
