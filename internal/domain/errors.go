package domain

import "errors"

var (
	ErrItemNotFound       = errors.New("workshop item not found")
	ErrCollectionNotFound = errors.New("collection not found")
	ErrInstanceNotFound   = errors.New("instance not found")
	ErrDownloadNotFound   = errors.New("download not found")
	ErrMissingItemID      = errors.New("missing workshop item id")
	ErrEmptyCollection    = errors.New("no items found in collection")
	ErrUnknownKind        = errors.New("unsupported download kind")
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrFetchFailed        = errors.New("workshop item download failed")
	ErrSteamCmdMissing    = errors.New("steamcmd is not installed")
)
