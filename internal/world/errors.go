// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vesper Contributors

package world

import "errors"

// ErrNotFound is returned by repositories when an entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned by repositories on unique constraint conflicts.
var ErrAlreadyExists = errors.New("already exists")

// ErrDuplicateRoom is returned by World.AddRoom when a room id is already
// registered. Exactly one Room instance per id may exist in a process;
// divergent instances of the same room would break the no-dual-presence
// guarantee.
var ErrDuplicateRoom = errors.New("duplicate room id")
