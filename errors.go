package knuffimap

import "errors"

var (
	ErrAdapterOpened = errors.New("map adapter is already opened")
	ErrAdapterClosed = errors.New("map adapter is closed")
	ErrKeyNotFound   = errors.New("key not found")
	ErrMapReleased   = errors.New("knuffi map has been released")
)
