package model

import "errors"

var (
	// Session/token errors. Every rejection a client can recover from maps
	// to one of these; signing misconfiguration is surfaced at startup
	// instead and never reaches a request.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
	ErrTokenReuse         = errors.New("refresh token already used")

	// Account errors
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
