// Package onboarding implements the first-run wizard: a linear sequence
// of named steps that collects a direction, its stage and quarterly
// goal, skill self-assessments, and pasted material, previews the
// resulting drafts and today plan, and finally persists everything
// through the skill tracker and an import session.
//
// The wizard is an explicit ordered step list with a validation gate
// per step. Steps cannot be skipped; Advance refuses to move past a
// step whose required input is missing.
package onboarding
