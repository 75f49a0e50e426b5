// Package notify turns reminder preferences plus the day's review plan
// into concrete notification instants. Planning is pure; delivery is an
// external collaborator invoked through the Delivery interface, never
// performed here.
package notify
