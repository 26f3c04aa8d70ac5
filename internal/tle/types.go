// Package tle acquires and parses two-line orbital element sets.
package tle

import "time"

// ElementSet is one satellite's two-line orbital element record.
// Immutable once loaded.
type ElementSet struct {
	CatalogNumber int
	Name          string
	Epoch         time.Time
	Line1         string
	Line2         string
}
