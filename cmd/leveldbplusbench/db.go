// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package main

import (
	"log"

	"github.com/your-org/leveldbplus"
	"github.com/your-org/leveldbplus/bloom"
)

func openBenchDB(path string) *leveldbplus.DB {
	d, err := leveldbplus.Open(path, &leveldbplus.Options{
		PrimaryKey:   "id",
		SecondaryKey: "age",
		FilterPolicy: bloom.NewFilterPolicy(10),
	})
	if err != nil {
		log.Fatalf("opening %s: %v", path, err)
	}
	return d
}
