package client

import "errors"

// ErrMissingEmail marks an uploaded row that carries no email and therefore
// cannot be keyed into the roster.
var ErrMissingEmail = errors.New("customer record has no email")

// RejectedRecord is a single malformed batch entry. Rejections are local to
// the offending record; the rest of the batch still reconciles.
type RejectedRecord struct {
	Index  int
	Record CustomerRecord
	Err    error
}

// ReconcileResult classifies an incoming batch against the current roster.
// ToInsert keeps the first-occurrence order of new emails; ToUpdate holds
// records whose attributes differ from the stored ones.
type ReconcileResult struct {
	ToInsert []CustomerRecord
	ToUpdate []CustomerRecord
	Rejected []RejectedRecord
}

// Empty reports whether applying the result would write nothing.
func (r ReconcileResult) Empty() bool {
	return len(r.ToInsert) == 0 && len(r.ToUpdate) == 0
}

// Reconcile computes which batch records are new to the roster and which
// change an existing record. It is a pure function: neither input is
// mutated and no I/O happens here; persisting the outputs is the caller's
// job.
//
// Duplicate emails inside one batch collapse to the last occurrence before
// classification, so within a batch the later record wins. Records equal to
// their stored counterpart produce no write at all, which makes re-uploading
// an unchanged file a no-op.
func Reconcile(roster, batch []CustomerRecord) ReconcileResult {
	current := make(map[string]CustomerRecord, len(roster))
	for _, rec := range roster {
		current[NormalizeEmail(rec.Email)] = rec
	}

	var res ReconcileResult

	latest := make(map[string]CustomerRecord, len(batch))
	order := make([]string, 0, len(batch))
	for i, rec := range batch {
		email := NormalizeEmail(rec.Email)
		if email == "" {
			res.Rejected = append(res.Rejected, RejectedRecord{Index: i, Record: rec, Err: ErrMissingEmail})
			continue
		}
		if _, seen := latest[email]; !seen {
			order = append(order, email)
		}
		latest[email] = rec
	}

	for _, email := range order {
		rec := latest[email]
		stored, exists := current[email]
		switch {
		case !exists:
			res.ToInsert = append(res.ToInsert, rec)
		case !stored.Equal(rec):
			res.ToUpdate = append(res.ToUpdate, rec)
		}
	}

	return res
}

// ApplyReconciliation merges a reconcile result into a fresh roster slice:
// updates replace their stored record in place, inserts append in order. The
// input roster is left untouched so the caller can retry against a newer
// version on write conflict.
func ApplyReconciliation(roster []CustomerRecord, res ReconcileResult) []CustomerRecord {
	updated := make(map[string]CustomerRecord, len(res.ToUpdate))
	for _, rec := range res.ToUpdate {
		updated[NormalizeEmail(rec.Email)] = rec
	}

	merged := make([]CustomerRecord, 0, len(roster)+len(res.ToInsert))
	for _, rec := range roster {
		if repl, ok := updated[NormalizeEmail(rec.Email)]; ok {
			merged = append(merged, repl)
			continue
		}
		merged = append(merged, rec)
	}
	return append(merged, res.ToInsert...)
}

// RemoveByEmail returns the roster without the given emails and the number
// of records removed.
func RemoveByEmail(roster []CustomerRecord, emails []string) ([]CustomerRecord, int) {
	drop := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		drop[NormalizeEmail(e)] = struct{}{}
	}

	kept := make([]CustomerRecord, 0, len(roster))
	removed := 0
	for _, rec := range roster {
		if _, ok := drop[NormalizeEmail(rec.Email)]; ok {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	return kept, removed
}
