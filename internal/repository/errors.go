package repository

import "errors"

var (
	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicateEntry means the key is already taken.
	ErrDuplicateEntry = errors.New("repository: duplicate entry")
)

var (
	ErrSessionNotFound = ErrNotFound
	ErrRoomNotFound    = ErrNotFound
	// ErrDuplicateRoom is returned when a private room id is already registered.
	ErrDuplicateRoom = ErrDuplicateEntry
	// ErrDuplicateSession is returned when a connection id registers twice.
	ErrDuplicateSession = ErrDuplicateEntry
)
