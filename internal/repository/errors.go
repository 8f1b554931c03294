// Package repository contains MySQL data access for accounts, role rows
// and accommodations. Sentinel errors defined here let the service
// layer classify failures without inspecting driver error strings.
package repository

import "errors"

// ErrEmailExists is returned when an insert hits the unique index on
// accounts.email.
var ErrEmailExists = errors.New("email already exists")

// ErrNotFound is returned when a single-row lookup matches nothing.
var ErrNotFound = errors.New("record not found")

// ErrRefreshMismatch is returned when a conditional refresh-slot update
// finds the row but not the expected digest: a competing rotation
// committed first.
var ErrRefreshMismatch = errors.New("refresh token slot changed")
