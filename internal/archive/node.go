package archive

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Table identifies the level a catalog node lives on.
type Table string

const (
	TableYear     Table = "YEAR"
	TableMonth    Table = "MONTH"
	TableDay      Table = "DAY"
	TableHour     Table = "HOUR"
	TableDocument Table = "DOCUMENT"
)

// RootID is the parent id of every top-level bucket.
const RootID = "ROOT_0"

// idSeparator splits the components of a node id.
const idSeparator = "_"

// depth returns how many date components a bucket level carries.
// It returns 0 for DOCUMENT and unknown tables.
func (t Table) depth() int {
	switch t {
	case TableYear:
		return 1
	case TableMonth:
		return 2
	case TableDay:
		return 3
	case TableHour:
		return 4
	default:
		return 0
	}
}

// IsBucket reports whether t is one of the time-bucket levels.
func (t Table) IsBucket() bool { return t.depth() > 0 }

// NodeKind distinguishes bucket nodes from document leaves.
type NodeKind int

const (
	KindBucket NodeKind = iota
	KindDocument
)

func (k NodeKind) String() string {
	if k == KindDocument {
		return "document"
	}
	return "bucket"
}

// CatalogNode is one entry of the catalog tree: a time bucket or a document.
type CatalogNode struct {
	Table       Table
	OwnerID     int // display grouping only, never unique
	Key         int // document id for DOCUMENT nodes, derived number for buckets
	Name        string
	ImageID     int
	ID          string
	ParentID    string
	Rank        int
	HasChildren bool
	DiaRes      int // DAY bucket holds more documents than the previous day
	HourRes     int // HOUR bucket holds more documents than the previous hour
	IsNew       int // document absent from the previous comparison period
}

// Kind returns the variant of the node, derived from its table.
func (n CatalogNode) Kind() NodeKind {
	if n.Table == TableDocument {
		return KindDocument
	}
	return KindBucket
}

// DocID returns the document id of a DOCUMENT node.
func (n CatalogNode) DocID() (int, bool) {
	if n.Kind() != KindDocument {
		return 0, false
	}
	return n.Key, true
}

// Highlighted reports whether the presentation layer should emphasize the node.
func (n CatalogNode) Highlighted() bool {
	switch n.Table {
	case TableDay:
		return n.DiaRes == 1
	case TableHour:
		return n.HourRes == 1
	case TableDocument:
		return n.IsNew == 1
	}
	return false
}

// NodeID is a parsed catalog node identifier.
// Bucket ids carry up to four date components; missing components are 0.
type NodeID struct {
	Table Table
	Year  int
	Month int
	Day   int
	Hour  int
	DocID int // only for DOCUMENT ids
}

// ParseNodeID splits a node id on "_" into its level and numeric components.
// Ids with fewer than two parts or a non-numeric component are rejected.
func ParseNodeID(id string) (NodeID, error) {
	parts := strings.Split(id, idSeparator)
	if len(parts) < 2 {
		return NodeID{}, fmt.Errorf("malformed node id %q", id)
	}

	nums := make([]int, 0, len(parts)-1)
	for _, p := range parts[1:] {
		n, err := strconv.Atoi(p)
		if err != nil {
			return NodeID{}, fmt.Errorf("malformed node id %q: %w", id, err)
		}
		nums = append(nums, n)
	}

	parsed := NodeID{Table: Table(parts[0])}
	if parsed.Table == TableDocument {
		parsed.DocID = nums[0]
		return parsed, nil
	}

	fields := []*int{&parsed.Year, &parsed.Month, &parsed.Day, &parsed.Hour}
	for i := 0; i < len(nums) && i < len(fields); i++ {
		*fields[i] = nums[i]
	}
	return parsed, nil
}

// String formats the id back into its canonical, zero-padded form.
func (id NodeID) String() string {
	if id.Table == TableDocument {
		return DocumentID(id.DocID)
	}
	return BucketID(id.Table, id.Year, id.Month, id.Day, id.Hour)
}

// ParentID derives the id of the enclosing bucket.
// YEAR buckets (and anything unrecognized) hang off the root.
func (id NodeID) ParentID() string {
	switch id.Table {
	case TableMonth:
		return BucketID(TableYear, id.Year, 0, 0, 0)
	case TableDay:
		return BucketID(TableMonth, id.Year, id.Month, 0, 0)
	case TableHour:
		return BucketID(TableDay, id.Year, id.Month, id.Day, 0)
	default:
		return RootID
	}
}

// Matches reports whether t falls in exactly this (year, month, day, hour).
func (id NodeID) Matches(t time.Time) bool {
	return t.Year() == id.Year &&
		int(t.Month()) == id.Month &&
		t.Day() == id.Day &&
		t.Hour() == id.Hour
}

// BucketID formats a bucket id, keeping only the components the level uses.
func BucketID(level Table, year, month, day, hour int) string {
	var b strings.Builder
	b.WriteString(string(level))
	b.WriteString(idSeparator)
	fmt.Fprintf(&b, "%04d", year)

	rest := []int{month, day, hour}
	for i := 0; i < level.depth()-1; i++ {
		b.WriteString(idSeparator)
		fmt.Fprintf(&b, "%02d", rest[i])
	}
	return b.String()
}

// DocumentID formats the id of a document leaf.
func DocumentID(docID int) string {
	return fmt.Sprintf("%s%s%d", TableDocument, idSeparator, docID)
}
