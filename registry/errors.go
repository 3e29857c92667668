package registry

import "errors"

var (
	// ErrNotAdmin indicates the caller lacks the administrator capability.
	ErrNotAdmin = errors.New("registry: caller is not an administrator")

	// ErrNotRegistrar indicates the caller lacks the registrar capability.
	ErrNotRegistrar = errors.New("registry: caller is not a registrar")

	// ErrEmptyName indicates an asset type or token name is empty.
	ErrEmptyName = errors.New("registry: name must not be empty")

	// ErrTypeNotFound indicates the asset type id does not exist.
	ErrTypeNotFound = errors.New("registry: asset type not found")

	// ErrAssetNotFound indicates the asset id does not exist.
	ErrAssetNotFound = errors.New("registry: asset not found")
)
