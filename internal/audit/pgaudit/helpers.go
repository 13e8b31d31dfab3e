package pgaudit

import "github.com/google/uuid"

// nilUUID converts the zero uuid.UUID (meaning "no correlation ID") to
// a nil interface so the driver writes SQL NULL instead of the all-zero
// UUID string.
func nilUUID(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id
}
