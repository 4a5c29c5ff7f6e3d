// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import "github.com/cockroachdb/errors"

// Sentinel errors returned across the public and internal APIs. Callers
// test against these with errors.Is rather than string matching.
var (
	// ErrNotFound means a Get/SGet call found no record for the requested key.
	ErrNotFound = errors.New("leveldbplus: not found")
	// ErrInvalidArgument means a caller-supplied option or key was malformed,
	// e.g. an empty secondary key name or an unparseable JSON record.
	ErrInvalidArgument = errors.New("leveldbplus: invalid argument")
	// ErrCorruption means an on-disk block, filter, or checkpoint record
	// failed its checksum or could not be decoded.
	ErrCorruption = errors.New("leveldbplus: corruption")
	// ErrCancelled means an in-flight top-K iterator was aborted by a
	// concurrent ITree mutation.
	ErrCancelled = errors.New("leveldbplus: iterator cancelled")
	// ErrQueryInterrupted means an SGet/SRangeGet was interrupted before it
	// could assemble a result: an ITree mutation cancelled the top-K
	// iterator it was reading.
	ErrQueryInterrupted = errors.New("leveldbplus: query interrupted")
)
