package main

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"strings"
	"testing"

	"archview/internal/archive"
	"archview/internal/testutil"
)

func newTreeService(t *testing.T, listErr error) *archive.ArchiveService {
	t.Helper()
	catalog := testutil.NewFakeCatalogStore()
	catalog.Nodes = []archive.NodeRow{
		{Table: archive.TableYear, Key: 2024, Name: "2024", ImageID: 1, ID: "YEAR_2024", ParentID: archive.RootID, Rank: 1},
	}
	catalog.ListErr = listErr
	blobs := testutil.NewCountingBlobStore()
	blobs.Images[1] = testutil.PNG(color.White)
	return archive.NewArchiveService(catalog, blobs, testutil.NewMockLocalFilesystem(), archive.NewNopLogger())
}

func TestPrintTree(t *testing.T) {
	t.Run("lists roots", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		if err := printTree(context.Background(), newTreeService(t, nil), archive.RootID, &stdout, &stderr); err != nil {
			t.Fatalf("printTree() error = %v", err)
		}
		if !strings.Contains(stdout.String(), "YEAR_2024") {
			t.Errorf("stdout = %q, want YEAR_2024", stdout.String())
		}
		if stderr.Len() != 0 {
			t.Errorf("stderr = %q, want empty", stderr.String())
		}
	})

	t.Run("unavailable catalog shows an empty tree", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		svc := newTreeService(t, errors.New("login timeout"))
		if err := printTree(context.Background(), svc, archive.RootID, &stdout, &stderr); err != nil {
			t.Fatalf("printTree() error = %v, want nil", err)
		}
		if stdout.String() != "No entries.\n" {
			t.Errorf("stdout = %q, want %q", stdout.String(), "No entries.\n")
		}
		if !strings.Contains(stderr.String(), "login timeout") {
			t.Errorf("stderr = %q, want the catalog error", stderr.String())
		}
	})

	t.Run("unknown node still fails", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		err := printTree(context.Background(), newTreeService(t, nil), "YEAR_1999", &stdout, &stderr)
		if !errors.Is(err, archive.ErrNodeNotFound) {
			t.Errorf("printTree() error = %v, want ErrNodeNotFound", err)
		}
	})
}
