package archive_test

import (
	"errors"
	"image/color"
	"testing"

	"archview/internal/archive"
	"archview/internal/testutil"
)

type serviceFixture struct {
	catalog *testutil.FakeCatalogStore
	blobs   *testutil.CountingBlobStore
	fs      *testutil.MockLocalFilesystem
	svc     *archive.ArchiveService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		catalog: testutil.NewFakeCatalogStore(),
		blobs:   testutil.NewCountingBlobStore(),
		fs:      testutil.NewMockLocalFilesystem(),
	}
	f.catalog.Nodes = sampleNodes()
	f.catalog.Documents = sampleDocuments()
	f.catalog.AddMeta(archive.DocumentMeta{DocID: 11, Designation: "Invoice", Name: "ACME", Directory: "/cache/invoices", FileName: "acme.txt"})
	f.blobs.Documents[11] = []byte("invoice text")
	f.blobs.Images[1] = testutil.PNG(color.White)
	f.blobs.Images[7] = testutil.PNG(color.Black)
	f.svc = archive.NewArchiveService(f.catalog, f.blobs, f.fs, archive.NewNopLogger())
	return f
}

func TestArchiveService_Open(t *testing.T) {
	t.Run("returns roots with images", func(t *testing.T) {
		f := newServiceFixture(t)

		roots, err := f.svc.Open(t.Context())
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		if len(roots) != 1 || roots[0].ID != "YEAR_2024" {
			t.Fatalf("Open() = %v, want [YEAR_2024]", roots)
		}
		if roots[0].Sentinel || len(roots[0].Image) == 0 {
			t.Error("root image not resolved from the store")
		}

		if _, err := f.svc.Open(t.Context()); err != nil {
			t.Fatalf("second Open() error = %v", err)
		}
		if f.catalog.ListNodesCalls != 1 || f.catalog.ListDocumentsCalls != 1 {
			t.Errorf("store listed nodes %d and documents %d times, want once each", f.catalog.ListNodesCalls, f.catalog.ListDocumentsCalls)
		}
	})

	t.Run("catalog failure returns empty roots", func(t *testing.T) {
		f := newServiceFixture(t)
		f.catalog.ListErr = errors.New("login timeout")

		roots, err := f.svc.Open(t.Context())
		if !errors.Is(err, archive.ErrCatalogUnavailable) {
			t.Fatalf("Open() error = %v, want ErrCatalogUnavailable", err)
		}
		if len(roots) != 0 {
			t.Errorf("Open() = %v, want empty", roots)
		}
	})
}

func TestArchiveService_Expand(t *testing.T) {
	t.Run("walks down to documents", func(t *testing.T) {
		f := newServiceFixture(t)
		ctx := t.Context()

		months, err := f.svc.Expand(ctx, "YEAR_2024")
		if err != nil {
			t.Fatalf("Expand(YEAR_2024) error = %v", err)
		}
		if len(months) != 2 {
			t.Fatalf("Expand(YEAR_2024) returned %d nodes, want 2", len(months))
		}
		for _, m := range months {
			if m.ParentID != "YEAR_2024" {
				t.Errorf("month %s parent = %s", m.ID, m.ParentID)
			}
			if !m.Sentinel {
				t.Errorf("month %s image should fall back to the sentinel", m.ID)
			}
		}

		docs, err := f.svc.Expand(ctx, "HOUR_2024_03_15_09")
		if err != nil {
			t.Fatalf("Expand(HOUR) error = %v", err)
		}
		if len(docs) != 2 || docs[0].ID != "DOCUMENT_10" || docs[1].ID != "DOCUMENT_11" {
			t.Errorf("Expand(HOUR) = %v, want DOCUMENT_10, DOCUMENT_11", docs)
		}
		if f.svc.ExpansionState("HOUR_2024_03_15_09") != archive.Loaded {
			t.Error("hour not marked loaded")
		}
	})

	t.Run("root id lists roots", func(t *testing.T) {
		f := newServiceFixture(t)

		roots, err := f.svc.Expand(t.Context(), archive.RootID)
		if err != nil {
			t.Fatalf("Expand(ROOT_0) error = %v", err)
		}
		if len(roots) != 1 {
			t.Errorf("Expand(ROOT_0) returned %d nodes, want 1", len(roots))
		}
	})

	t.Run("unknown node", func(t *testing.T) {
		f := newServiceFixture(t)

		_, err := f.svc.Expand(t.Context(), "YEAR_1999")
		if !errors.Is(err, archive.ErrNodeNotFound) {
			t.Errorf("Expand() error = %v, want ErrNodeNotFound", err)
		}
	})
}

func TestArchiveService_OpenDocument(t *testing.T) {
	t.Run("opens an expanded document", func(t *testing.T) {
		f := newServiceFixture(t)
		if _, err := f.svc.Expand(t.Context(), "HOUR_2024_03_15_09"); err != nil {
			t.Fatalf("Expand() error = %v", err)
		}

		doc, err := f.svc.OpenDocument(t.Context(), "DOCUMENT_11", false)
		if err != nil {
			t.Fatalf("OpenDocument() error = %v", err)
		}
		if doc.DocID != 11 || doc.PreviewKind != archive.PreviewText {
			t.Errorf("document = %d (%s), want 11 (TEXT)", doc.DocID, doc.PreviewKind)
		}
		if got, _ := f.fs.Content(doc.LocalPath); string(got) != "invoice text" {
			t.Errorf("local content = %q", got)
		}
	})

	t.Run("opens a document before its bucket is expanded", func(t *testing.T) {
		f := newServiceFixture(t)
		doc, err := f.svc.OpenDocument(t.Context(), archive.DocumentID(11), false)
		if err != nil {
			t.Fatalf("OpenDocument() error = %v", err)
		}
		if doc.DocID != 11 {
			t.Errorf("DocID = %d, want 11", doc.DocID)
		}
		if f.svc.ExpansionState("HOUR_2024_03_15_09") != archive.Loaded {
			t.Error("document bucket not expanded")
		}
	})

	t.Run("unknown documents", func(t *testing.T) {
		f := newServiceFixture(t)
		for _, id := range []string{"DOCUMENT_999", "DOCUMENT_x", "HOUR_2030_01_01_00"} {
			if _, err := f.svc.OpenDocument(t.Context(), id, false); !errors.Is(err, archive.ErrNodeNotFound) {
				t.Errorf("OpenDocument(%s) error = %v, want ErrNodeNotFound", id, err)
			}
		}
	})

	t.Run("rejects bucket nodes", func(t *testing.T) {
		f := newServiceFixture(t)
		if _, err := f.svc.Open(t.Context()); err != nil {
			t.Fatalf("Open() error = %v", err)
		}

		_, err := f.svc.OpenDocument(t.Context(), "YEAR_2024", false)
		if !errors.Is(err, archive.ErrNotDocument) {
			t.Errorf("OpenDocument() error = %v, want ErrNotDocument", err)
		}
	})

	t.Run("close cleans up on request", func(t *testing.T) {
		f := newServiceFixture(t)
		if _, err := f.svc.OpenDocument(t.Context(), "DOCUMENT_11", false); err != nil {
			t.Fatalf("OpenDocument() error = %v", err)
		}

		if err := f.svc.Close(false); err != nil {
			t.Fatalf("Close(false) error = %v", err)
		}
		if len(f.fs.Paths()) != 1 {
			t.Fatal("Close(false) removed files")
		}
		if err := f.svc.Close(true); err != nil {
			t.Fatalf("Close(true) error = %v", err)
		}
		if len(f.fs.Paths()) != 0 {
			t.Errorf("files left after cleanup: %v", f.fs.Paths())
		}
	})
}
