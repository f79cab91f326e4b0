package usecase

import (
	"sync"

	"github.com/iho/corebank/internal/domain"
)

// PendingJournal records ledger entries whose balances have already been
// applied but whose append failed. Balances stay correct while an entry sits
// here; the reconciliation use case retries the append until it lands.
type PendingJournal struct {
	mu      sync.Mutex
	entries []*domain.Entry
}

// NewPendingJournal creates an empty journal.
func NewPendingJournal() *PendingJournal {
	return &PendingJournal{}
}

// Record adds entries awaiting a ledger write.
func (j *PendingJournal) Record(entries ...*domain.Entry) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.entries = append(j.entries, entries...)
}

// Snapshot returns a copy of the pending entries.
func (j *PendingJournal) Snapshot() []*domain.Entry {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]*domain.Entry, len(j.entries))
	copy(out, j.entries)

	return out
}

// Remove drops an entry after its ledger write succeeded.
func (j *PendingJournal) Remove(entry *domain.Entry) {
	j.mu.Lock()
	defer j.mu.Unlock()

	for i, e := range j.entries {
		if e == entry {
			j.entries = append(j.entries[:i], j.entries[i+1:]...)
			return
		}
	}
}

// Len returns the number of pending entries.
func (j *PendingJournal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()

	return len(j.entries)
}
