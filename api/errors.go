package api

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRefreshRejected    = errors.New("refresh rejected")
	ErrMissingAccessToken = errors.New("response did not contain an access token")
)
