package models

// GeocodeStatus is the lifecycle state of a row's geocoding attempt. A row is
// created Pending and transitions exactly once to Success or Failed.
type GeocodeStatus string

const (
	// StatusPending means the row has not been processed yet.
	StatusPending GeocodeStatus = "Pending"
	// StatusSuccess means the provider resolved the row's query to coordinates.
	StatusSuccess GeocodeStatus = "Success"
	// StatusFailed means the provider errored or found no match for the query.
	StatusFailed GeocodeStatus = "Failed"
)

// ResultRow is one processed input row: the original record, the query derived
// from it, and the geocoding outcome. Coords is nil unless Status is Success.
type ResultRow struct {
	Record Record        // Record is the original input row, preserved verbatim.
	Query  string        // Query is the text that was sent to the provider.
	Coords *Coordinates  // Coords holds the resolved point, nil when unresolved.
	Status GeocodeStatus // Status is the geocoding outcome for this row.
}

// ResultSet is the ordered output of a pipeline run. Row order equals input
// order; the set is owned by the pipeline during the run and read-only after.
type ResultSet []ResultRow

// Successes returns the rows that geocoded successfully, in input order.
func (rs ResultSet) Successes() []ResultRow {
	var out []ResultRow
	for _, row := range rs {
		if row.Status == StatusSuccess {
			out = append(out, row)
		}
	}
	return out
}

// Counts returns the number of Success and Failed rows.
func (rs ResultSet) Counts() (success, failed int) {
	for _, row := range rs {
		switch row.Status {
		case StatusSuccess:
			success++
		case StatusFailed:
			failed++
		case StatusPending:
		}
	}
	return success, failed
}

// FirstFailed returns up to limit failed queries, in input order. Used for the
// post-run summary of rows that could not be geocoded.
func (rs ResultSet) FirstFailed(limit int) []string {
	var out []string
	for _, row := range rs {
		if row.Status != StatusFailed {
			continue
		}
		out = append(out, row.Query)
		if len(out) == limit {
			break
		}
	}
	return out
}
