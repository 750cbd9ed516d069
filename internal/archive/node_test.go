package archive_test

import (
	"testing"
	"time"

	"archview/internal/archive"
)

func TestParseNodeID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		want    archive.NodeID
		wantErr bool
	}{
		{name: "year", id: "YEAR_2024", want: archive.NodeID{Table: archive.TableYear, Year: 2024}},
		{name: "padded month", id: "MONTH_2024_03", want: archive.NodeID{Table: archive.TableMonth, Year: 2024, Month: 3}},
		{name: "unpadded hour", id: "HOUR_2024_3_15_9", want: archive.NodeID{Table: archive.TableHour, Year: 2024, Month: 3, Day: 15, Hour: 9}},
		{name: "document", id: "DOCUMENT_42", want: archive.NodeID{Table: archive.TableDocument, DocID: 42}},
		{name: "root", id: archive.RootID, want: archive.NodeID{Table: "ROOT"}},
		{name: "empty", id: "", wantErr: true},
		{name: "single part", id: "YEAR", wantErr: true},
		{name: "non-numeric component", id: "DAY_2024_03_xx", wantErr: true},
		{name: "trailing separator", id: "YEAR_2024_", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := archive.ParseNodeID(tt.id)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseNodeID(%q) expected error, got %+v", tt.id, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseNodeID(%q) error = %v", tt.id, err)
			}
			if got != tt.want {
				t.Errorf("ParseNodeID(%q) = %+v, want %+v", tt.id, got, tt.want)
			}
		})
	}
}

func TestNodeID_StringAndParent(t *testing.T) {
	tests := []struct {
		id         string
		wantString string
		wantParent string
	}{
		{id: "YEAR_2024", wantString: "YEAR_2024", wantParent: archive.RootID},
		{id: "MONTH_2024_3", wantString: "MONTH_2024_03", wantParent: "YEAR_2024"},
		{id: "DAY_2024_3_5", wantString: "DAY_2024_03_05", wantParent: "MONTH_2024_03"},
		{id: "HOUR_2024_3_15_9", wantString: "HOUR_2024_03_15_09", wantParent: "DAY_2024_03_15"},
		{id: "DOCUMENT_7", wantString: "DOCUMENT_7", wantParent: archive.RootID},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			id, err := archive.ParseNodeID(tt.id)
			if err != nil {
				t.Fatalf("ParseNodeID() error = %v", err)
			}
			if got := id.String(); got != tt.wantString {
				t.Errorf("String() = %q, want %q", got, tt.wantString)
			}
			if got := id.ParentID(); got != tt.wantParent {
				t.Errorf("ParentID() = %q, want %q", got, tt.wantParent)
			}
		})
	}
}

func TestNodeID_Matches(t *testing.T) {
	ts := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		id   string
		want bool
	}{
		{id: "HOUR_2024_3_15_9", want: true},
		{id: "HOUR_2024_03_15_09", want: true},
		{id: "HOUR_2024_3_15_10", want: false},
		{id: "HOUR_2023_3_15_9", want: false},
		// Missing components default to 0, so coarser ids only match hour 0.
		{id: "DAY_2024_3_15", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			id, err := archive.ParseNodeID(tt.id)
			if err != nil {
				t.Fatalf("ParseNodeID() error = %v", err)
			}
			if got := id.Matches(ts); got != tt.want {
				t.Errorf("Matches(%v) = %v, want %v", ts, got, tt.want)
			}
		})
	}
}

func TestBucketID(t *testing.T) {
	tests := []struct {
		level archive.Table
		want  string
	}{
		{level: archive.TableYear, want: "YEAR_2024"},
		{level: archive.TableMonth, want: "MONTH_2024_03"},
		{level: archive.TableDay, want: "DAY_2024_03_15"},
		{level: archive.TableHour, want: "HOUR_2024_03_15_09"},
	}

	for _, tt := range tests {
		if got := archive.BucketID(tt.level, 2024, 3, 15, 9); got != tt.want {
			t.Errorf("BucketID(%s) = %q, want %q", tt.level, got, tt.want)
		}
	}

	if got := archive.DocumentID(42); got != "DOCUMENT_42" {
		t.Errorf("DocumentID(42) = %q, want %q", got, "DOCUMENT_42")
	}
}

func TestCatalogNode_Kind(t *testing.T) {
	doc := archive.CatalogNode{Table: archive.TableDocument, Key: 12, IsNew: 1}
	if doc.Kind() != archive.KindDocument {
		t.Errorf("Kind() = %v, want document", doc.Kind())
	}
	if id, ok := doc.DocID(); !ok || id != 12 {
		t.Errorf("DocID() = %d, %v, want 12, true", id, ok)
	}
	if !doc.Highlighted() {
		t.Error("Highlighted() = false for a new document")
	}

	day := archive.CatalogNode{Table: archive.TableDay, Key: 2042, HourRes: 1}
	if day.Kind() != archive.KindBucket {
		t.Errorf("Kind() = %v, want bucket", day.Kind())
	}
	if _, ok := day.DocID(); ok {
		t.Error("DocID() ok = true for a bucket")
	}
	if day.Highlighted() {
		t.Error("Highlighted() = true for a DAY node with only HourRes set")
	}
}
