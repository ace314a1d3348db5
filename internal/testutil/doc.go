// Package testutil provides deterministic collaborators for broker tests and
// the scenario harness: sequential tokens, a recording focus coordinator and
// a recording wallet.
package testutil
