// Package testutil provides shared helpers for package tests.
package testutil

import (
	"fmt"

	"github.com/roach88/prereq/internal/ir"
)

// Rec builds a record. Rec("Y", "X") is item Y requiring X.
func Rec(name string, prerequisites ...string) ir.Record {
	if prerequisites == nil {
		prerequisites = []string{}
	}
	return ir.Record{Name: name, Prerequisites: prerequisites}
}

// Chain returns n records where item i requires item i-1, listed in reverse
// so that every item but the last record is deferred.
func Chain(n int) []ir.Record {
	records := make([]ir.Record, 0, n)
	for i := n - 1; i >= 0; i-- {
		if i == 0 {
			records = append(records, Rec(ChainName(0)))
			continue
		}
		records = append(records, Rec(ChainName(i), ChainName(i-1)))
	}
	return records
}

// ChainName is the identifier of the i-th item produced by Chain.
func ChainName(i int) string {
	return fmt.Sprintf("item-%05d", i)
}
