package batch

import (
	"strconv"

	"github.com/akarpov/shelfwatch"
)

// Reconcile aligns an unordered batch of observations onto the ledger's
// row order. It produces exactly one record per row, in row order:
//
//   - exactly one item matches the row URL: a record derived from it;
//   - no item matches: a fully blank record (the row produced no
//     observation this cycle, distinct from an out-of-stock label).
//
// Matching is by exact URL equality on canonicalized URLs; substring
// containment would false-match similar SKUs. The empty-URL cart
// sentinel never matches a row. Reconcile is pure: the same inputs
// always yield the same records.
func Reconcile(rows []string, items []shelfwatch.Item) []shelfwatch.Record {
	records := make([]shelfwatch.Record, len(rows))
	for i, rowURL := range rows {
		if rowURL == "" {
			continue
		}
		for _, item := range items {
			if item.URL != rowURL {
				continue
			}
			records[i] = recordFor(item)
			break
		}
	}
	return records
}

// PairRecord is the reconciled output of one two-channel row.
type PairRecord struct {
	FBS shelfwatch.Record
	FBO shelfwatch.Record
}

// ReconcilePairs aligns two-channel observations onto pair rows. A pair
// matches a row only when both sub-URLs align. When both channels are
// out of stock the row collapses to a single out-of-stock marker instead
// of two independent labels.
func ReconcilePairs(rows []shelfwatch.URLPair, pairs []shelfwatch.ItemPair) []PairRecord {
	records := make([]PairRecord, len(rows))
	for i, row := range rows {
		if row.FBS == "" && row.FBO == "" {
			continue
		}
		for _, pair := range pairs {
			if pair.FBS.URL != row.FBS || pair.FBO.URL != row.FBO {
				continue
			}
			if pair.OutOfStock() {
				records[i] = PairRecord{
					FBS: shelfwatch.Record{Quantity: shelfwatch.StatusOutOfStock.Label()},
				}
				break
			}
			records[i] = PairRecord{
				FBS: recordFor(pair.FBS),
				FBO: recordFor(pair.FBO),
			}
			break
		}
	}
	return records
}

// recordFor derives the output cells for one observation. Only an OK
// observation carries numbers; any other status puts its label in the
// quantity cell and leaves the price blank.
func recordFor(item shelfwatch.Item) shelfwatch.Record {
	if item.Status != shelfwatch.StatusOK {
		return shelfwatch.Record{Quantity: item.Status.Label()}
	}

	price, discounted := item.DisplayPrice()
	return shelfwatch.Record{
		Quantity:   strconv.Itoa(item.Quantity),
		Price:      strconv.Itoa(price),
		Discounted: discounted,
	}
}
