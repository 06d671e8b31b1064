// Package batch orchestrates one fetch cycle: routing tracked URLs to
// their marketplace strategies with bounded retry, collecting the
// unordered observations, reconciling them back onto ledger row order,
// and exporting the result.
package batch
