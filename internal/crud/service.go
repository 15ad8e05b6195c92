package crud

import "context"

// Service persists entities. Implementations own I/O and error reporting;
// the controller only reacts to outcomes.
type Service[T any] interface {
	// Read returns the current entity list.
	Read(ctx context.Context) ([]T, error)

	// Update creates or updates entity and returns the stored version.
	Update(ctx context.Context, entity T) (T, error)

	// Delete removes the entity with key.
	Delete(ctx context.Context, key string) error
}

// Confirmer asks the user to confirm a destructive command.
type Confirmer interface {
	Confirm(ctx context.Context, message string) (bool, error)
}

// Notifier shows transient notifications. Messages are translation keys.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// LimitDialog shows the dedicated dialog for persistence limit errors.
type LimitDialog interface {
	ShowLimitExceeded(err *LimitExceededError)
}

// Owned is implemented by entities carrying audit ownership.
type Owned interface {
	EntityOwner() string
}

type silentNotifier struct{}

func (silentNotifier) Success(string) {}
func (silentNotifier) Error(string)   {}
