// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "insert, then compare indexed vs. full-scan query latency",
	Long:  ``,
	Run:   runCompare,
}

func runCompare(cmd *cobra.Command, args []string) {
	d := openBenchDB(dbPath)
	defer d.Close()

	fmt.Println("==========================================")
	fmt.Println("LevelDB+ Secondary Index Benchmark")
	fmt.Println("==========================================")
	fmt.Printf("Records: %d\n", numRecords)
	fmt.Printf("Target Age: %s\n", targetAge)
	fmt.Printf("DB Path: %s\n", dbPath)
	fmt.Println("==========================================")
	fmt.Println()

	insertRecords(d, numRecords)

	fmt.Println("==========================================")
	fmt.Println("PERFORMANCE COMPARISON")
	fmt.Println("==========================================")

	startIndex := time.Now()
	hits, err := d.SGet(targetAge, numRecords)
	withIndex := time.Since(startIndex)
	if err != nil {
		fmt.Printf("Error calling SGet: %v\n", err)
		return
	}

	startScan := time.Now()
	count := fullScanCount(d, targetAge, numRecords)
	withoutIndex := time.Since(startScan)

	fmt.Printf("With Index: %s (%d hits)\n", withIndex, len(hits))
	fmt.Printf("Without Index: %s (%d hits)\n", withoutIndex, count)
	if withIndex > 0 {
		fmt.Printf("Speedup: %.2fx\n", float64(withoutIndex)/float64(withIndex))
	}
}
