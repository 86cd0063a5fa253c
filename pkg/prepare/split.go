package prepare

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/tunogya/ecgprep/pkg/model"
)

var (
	// ErrInvalidTestFrac is returned for a test fraction outside [0, 1)
	ErrInvalidTestFrac = errors.New("test fraction must be in [0, 1)")
	// ErrDuplicateRecord is returned when a record appears twice in a split input
	ErrDuplicateRecord = errors.New("duplicate record")
)

// SplitTrainTest draws floor(testFrac*N) records for the test set without
// replacement. Test records come in draw order, train records keep input order.
func SplitTrainTest(records []*model.Record, testFrac float64, rng *rand.Rand) (train, test []*model.Record, err error) {
	if !(testFrac >= 0 && testFrac < 1) {
		return nil, nil, fmt.Errorf("%w: got %v", ErrInvalidTestFrac, testFrac)
	}

	seen := make(map[*model.Record]bool, len(records))
	names := make(map[string]bool, len(records))
	for _, rec := range records {
		if seen[rec] || (rec.Name != "" && names[rec.Name]) {
			return nil, nil, fmt.Errorf("%w: %s", ErrDuplicateRecord, rec.Name)
		}
		seen[rec] = true
		names[rec.Name] = true
	}

	n := len(records)
	k := int(math.Floor(testFrac * float64(n)))

	inTest := make([]bool, n)
	test = make([]*model.Record, 0, k)
	for _, i := range rng.Perm(n)[:k] {
		inTest[i] = true
		test = append(test, records[i])
	}

	train = make([]*model.Record, 0, n-k)
	for i, rec := range records {
		if !inTest[i] {
			train = append(train, rec)
		}
	}
	return train, test, nil
}
