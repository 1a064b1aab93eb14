// iface.go defines JournalInterface for dependency injection and
// testing.
//
// The concrete *Journal type satisfies this interface. Code that
// depends on the journal (the engine, the cmd layer) accepts
// JournalInterface instead of *Journal, enabling mock injection in
// tests.
package journal

import "github.com/tabherd/tabherd/pkg/model"

// JournalInterface defines the full set of journal operations.
type JournalInterface interface {
	// Close closes the database connection.
	Close() error

	// Record persists one finished operation with its per-tab results.
	Record(op *model.Operation, results []model.MoveResult) error

	// List returns the most recent operations, newest first.
	List(limit int) ([]model.Operation, error)

	// Get retrieves one operation and its per-tab move results.
	Get(id string) (*model.Operation, []model.MoveResult, error)

	// Last returns the most recent operation, or nil when empty.
	Last() (*model.Operation, error)

	// Count returns the total number of journaled operations.
	Count() int64
}

// Compile-time check that *Journal implements JournalInterface.
var _ JournalInterface = (*Journal)(nil)
