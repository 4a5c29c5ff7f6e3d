// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package main

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/your-org/leveldbplus"
)

var insertCmd = &cobra.Command{
	Use:   "insert",
	Short: "insert synthetic records into the database",
	Long:  ``,
	Run:   runInsert,
}

func runInsert(cmd *cobra.Command, args []string) {
	d := openBenchDB(dbPath)
	defer d.Close()
	insertRecords(d, numRecords)
}

// insertRecords writes n synthetic {id, age, name} records, the same
// shape db_index.cc's insertData generates.
func insertRecords(d *leveldbplus.DB, n int) {
	fmt.Println("==========================================")
	fmt.Println("INSERTING DATA")
	fmt.Println("==========================================")
	fmt.Printf("Inserting %d records...\n", n)

	start := time.Now()
	for i := 0; i < n; i++ {
		payload := []byte(fmt.Sprintf(
			`{"id":"user/%d","age":"%d","name":"User%d"}`, i, i%50+10, i))
		if err := d.Put(payload); err != nil {
			log.Printf("error putting record %d: %v", i, err)
		}
	}
	fmt.Printf("Insertion took %s\n\n", time.Since(start))
}
