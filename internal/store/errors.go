package store

import "errors"

var (
	// ErrDuplicateDeed is returned when a deed name is already registered on the store.
	ErrDuplicateDeed = errors.New("freight: a deed has already been registered with this name")

	// ErrEmptyName is returned when a store's name resolves to the empty string.
	ErrEmptyName = errors.New("freight: store name must be a non-empty string")

	// ErrUnknownDeedType is returned for deeds that are not action, request or stub deeds.
	ErrUnknownDeedType = errors.New("freight: deed is not a valid deed type")

	// ErrUnknownDeed is returned by Invoke for names the store does not know.
	ErrUnknownDeed = errors.New("freight: unknown deed")

	// ErrQueryParams is returned when query parameters do not resolve to a mapping.
	ErrQueryParams = errors.New("freight: query params must be a mapping")

	// ErrInvalidBody is returned when a request body cannot be sent.
	ErrInvalidBody = errors.New("freight: request body must be string, []byte or io.Reader")

	// ErrStoreNotFound is returned when subscribing to a store that has not been created.
	ErrStoreNotFound = errors.New("freight: store has not been created")

	// ErrNotTestMode is returned when mocking a registry built without WithTestMode.
	ErrNotTestMode = errors.New("freight: mocking the registry is only allowed in test mode")

	// ErrAlreadyMocked is returned by Mock when the registry is already mocked.
	ErrAlreadyMocked = errors.New("freight: registry is already mocked")

	// ErrNotMocked is returned by Unmock when the registry has not been mocked.
	ErrNotMocked = errors.New("freight: registry has not been mocked")
)
