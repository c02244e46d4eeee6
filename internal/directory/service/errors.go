package service

import "errors"

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPasswordIncorrect  = errors.New("current password incorrect")
	ErrSelfDelete         = errors.New("cannot delete own account")
	ErrAccountNotFound    = errors.New("account not found")
	ErrTokenInvalid       = errors.New("token invalid, expired, or already used")
)
