package accounts

import (
	"context"
)

// Repository persists accounts.
type Repository interface {
	Create(ctx context.Context, acc *Account) error

	// Update writes name, activity and posting flag.
	Update(ctx context.Context, acc *Account) error

	// GetByCode returns apperror NotFound when code is unknown.
	GetByCode(ctx context.Context, code string) (*Account, error)

	// GetForUpdate is GetByCode holding a row lock until the transaction ends.
	GetForUpdate(ctx context.Context, code string) (*Account, error)

	List(ctx context.Context, filter Filter) ([]Account, error)

	// All returns every account; used to build a Chart.
	All(ctx context.Context) ([]Account, error)

	HasChildren(ctx context.Context, code string) (bool, error)

	// HasLines reports whether any journal line (draft or posted) targets code.
	HasLines(ctx context.Context, code string) (bool, error)
}

// TagRepository persists the tag registry and tag assignments.
type TagRepository interface {
	// SaveDefinition inserts or replaces a registry entry.
	SaveDefinition(ctx context.Context, def *TagDefinition) error
	GetDefinition(ctx context.Context, tag string) (*TagDefinition, error)

	// LockDefinition is GetDefinition holding a row lock; unique-tag
	// reassignments of the same tag serialize on it.
	LockDefinition(ctx context.Context, tag string) (*TagDefinition, error)
	ListDefinitions(ctx context.Context) ([]TagDefinition, error)

	// AddTag is a no-op when the pair exists.
	AddTag(ctx context.Context, accountCode, tag string) error
	RemoveTag(ctx context.Context, accountCode, tag string) error

	// RemoveTagExcept detaches tag from every holder other than keep.
	RemoveTagExcept(ctx context.Context, tag, keep string) (int64, error)

	TagsOf(ctx context.Context, accountCode string) ([]string, error)
	HoldersOf(ctx context.Context, tag string) ([]string, error)
}

// TagRegistry resolves registry entries; a cache may stand in for the repository.
type TagRegistry interface {
	Definition(ctx context.Context, tag string) (*TagDefinition, error)
}
