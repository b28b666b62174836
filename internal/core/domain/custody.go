package domain

import "context"

// CustodyAddressRepository stores the list of valid deposit-source addresses.
// Removal swaps the target with the last entry and shrinks the list, so
// indices of unrelated entries may change and callers must re-read the list
// after any removal. Duplicates are tolerated.
type CustodyAddressRepository interface {
	Add(ctx context.Context, address string) error
	// Remove deletes the address at index and returns it, failing with
	// ErrIndexOutOfBounds if index is past the end of the list.
	Remove(ctx context.Context, index int) (string, error)
	List(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int, error)
	Close()
}
