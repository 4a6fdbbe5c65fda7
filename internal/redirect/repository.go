package redirect

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound          = errors.New("redirect not found")
	ErrConflict          = errors.New("key already exists")
	ErrReservedAttribute = errors.New("attribute name is reserved")
)

// PutOutcome tags the result of a conditional insert.
type PutOutcome int

const (
	PutCreated PutOutcome = iota
	PutConflict
	PutSchemaRejected
	PutFailed
)

func (o PutOutcome) String() string {
	switch o {
	case PutCreated:
		return "created"
	case PutConflict:
		return "conflict"
	case PutSchemaRejected:
		return "schema_rejected"
	case PutFailed:
		return "failed"
	default:
		return fmt.Sprintf("PutOutcome(%d)", int(o))
	}
}

// Repository is the record store the handlers depend on.
type Repository interface {
	// PutIfAbsent inserts the record only if no live record exists for its ID.
	// The returned error is nil only for PutCreated.
	PutIfAbsent(ctx context.Context, record *Record) (PutOutcome, error)

	// GetByID returns ErrNotFound for missing and expired records.
	GetByID(ctx context.Context, id ID) (*Record, error)
}

// CheckAttributes rejects caller attributes that shadow the record's own fields,
// the store's primary-key attribute or a DynamoDB reserved word. Names are
// compared case-insensitively.
func CheckAttributes(attrs map[string]string, primaryKey string) error {
	reserved := []string{primaryKey, AttrOriginalURL, AttrTTLInSeconds, AttrTTL}

	for name := range attrs {
		if IsReservedWord(name) {
			return fmt.Errorf("%w: %s", ErrReservedAttribute, name)
		}

		for _, r := range reserved {
			if strings.EqualFold(name, r) {
				return fmt.Errorf("%w: %s", ErrReservedAttribute, name)
			}
		}
	}

	return nil
}
