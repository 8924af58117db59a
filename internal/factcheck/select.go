package factcheck

import (
	"context"
	"errors"

	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/store"
)

// SelectBest returns the record used for scoring: highest similarity,
// lowest record id on ties. Nil when there is no record.
func SelectBest(records []model.FactCheckRecord) *model.FactCheckRecord {
	var best *model.FactCheckRecord
	for i := range records {
		r := &records[i]
		if best == nil || r.Similarity > best.Similarity ||
			(r.Similarity == best.Similarity && r.ID < best.ID) {
			best = r
		}
	}
	return best
}

// StoreLookup serves the fact-check verdict of a post from stored records
type StoreLookup struct {
	reader store.FactCheckReader
}

// NewStoreLookup creates a lookup over stored records
func NewStoreLookup(reader store.FactCheckReader) *StoreLookup {
	return &StoreLookup{reader: reader}
}

// Lookup returns the selected verdict of a post, or nil when it has none.
// Store failures come back as *model.PersistenceError.
func (l *StoreLookup) Lookup(ctx context.Context, postID int64) (*model.FactCheckVerdict, error) {
	records, err := l.reader.FactChecks(ctx, postID)
	if err != nil {
		var pe *model.PersistenceError
		if errors.As(err, &pe) {
			return nil, err
		}
		return nil, &model.PersistenceError{Op: "list fact-checks", Err: err}
	}

	best := SelectBest(records)
	if best == nil {
		return nil, nil
	}
	return best.Verdict(), nil
}
