package client

import "github.com/pkg/errors"

var (
	ErrNameRejected   = errors.New("username rejected by server")
	ErrServerFull     = errors.New("server is full")
	ErrServerShutdown = errors.New("server is shutting down")
)
