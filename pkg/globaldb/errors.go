package globaldb

import "errors"

var (
	// ErrInput is returned when a request would break a catalog constraint or is otherwise invalid
	ErrInput = errors.New("invalid input")

	// ErrAssetExists is returned when an asset identifier or token address is already taken
	ErrAssetExists = errors.New("asset already exists")

	// ErrAssetNotFound is returned when an edit or delete targets an asset that does not exist
	ErrAssetNotFound = errors.New("asset not found")

	// ErrAssetReferenced is returned when a delete is blocked by another asset referencing the target
	ErrAssetReferenced = errors.New("asset is referenced by another asset")

	// ErrUnsupportedVersion is returned when the on-disk schema is newer than this build understands
	ErrUnsupportedVersion = errors.New("unsupported global DB version")

	// ErrDeserialization is returned when a stored value can not be decoded
	ErrDeserialization = errors.New("failed to deserialize DB value")
)
