package storage

import "errors"

var (
	ErrNotFound     = errors.New("record not found")
	ErrExpired      = errors.New("credential expired")
	ErrInvalidToken = errors.New("token is invalid")
	ErrDuplicateKey = errors.New("duplicate key")
)
