// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Command leveldbplusbench compares secondary-index lookups against a
// full-scan baseline, the Go port of original_source/benchmarks/db_index.cc.
package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

var (
	dbPath     string
	numRecords int
	targetAge  string
	useIndex   bool
	noIndex    bool
)

var rootCmd = &cobra.Command{
	Use:   "leveldbplusbench [command] (flags)",
	Short: "leveldbplusbench secondary-index benchmarking tool",
	Long:  ``,
}

func main() {
	log.SetFlags(0)

	cobra.EnableCommandSorting = false
	rootCmd.AddCommand(
		insertCmd,
		queryCmd,
		compareCmd,
	)

	for _, cmd := range []*cobra.Command{insertCmd, queryCmd, compareCmd} {
		cmd.Flags().StringVar(
			&dbPath, "db-path", "leveldbplusbench-data", "database directory")
	}

	insertCmd.Flags().IntVar(
		&numRecords, "records", 10000, "number of records to insert")

	queryCmd.Flags().StringVar(
		&targetAge, "target-age", "30", "secondary value to search for")
	queryCmd.Flags().IntVar(
		&numRecords, "records", 10000, "topK cap passed to SGet")
	queryCmd.Flags().BoolVar(
		&useIndex, "use-index", true, "query via the secondary index")
	queryCmd.Flags().BoolVar(
		&noIndex, "no-index", false, "query via a full scan instead of the index")

	compareCmd.Flags().StringVar(
		&targetAge, "target-age", "30", "secondary value to search for")
	compareCmd.Flags().IntVar(
		&numRecords, "records", 10000, "number of records to insert before comparing")

	if err := rootCmd.Execute(); err != nil {
		// Cobra has already printed the error message.
		os.Exit(1)
	}
}
