package export

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/disintegration/imaging"
)

func pngFixture(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.New(w, h, image.White.C), imaging.PNG); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func archiveNames(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	out := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry %s: %v", f.Name, err)
		}
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(rc); err != nil {
			t.Fatalf("read entry %s: %v", f.Name, err)
		}
		rc.Close()
		out[f.Name] = buf.Bytes()
	}
	return out
}

func TestArchive(t *testing.T) {
	png := pngFixture(t, 900, 300)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(png)
	}))
	defer server.Close()

	items := []Item{
		{Key: "0/0@1700000000000", URL: server.URL + "/result.png"},
		{Key: "0/1@1700000000000", URL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)},
		{Key: "1/0@1700000000000", URL: server.URL + "/missing.png"},
	}

	t.Run("plain", func(t *testing.T) {
		data, err := Archive(context.Background(), items, Options{})
		if err != nil {
			t.Fatalf("archive: %v", err)
		}
		entries := archiveNames(t, data)
		if len(entries) != 2 {
			t.Fatalf("entries: %v", entries)
		}
		if _, ok := entries["result.png"]; !ok {
			t.Fatalf("url item missing: %v", entries)
		}
		if got, ok := entries["0-1-1700000000000.png"]; !ok || !bytes.Equal(got, png) {
			t.Fatalf("data uri item wrong: %v", entries)
		}
	})

	t.Run("thumbnails", func(t *testing.T) {
		data, err := Archive(context.Background(), items, Options{Thumbnails: true, ThumbMaxDim: 300})
		if err != nil {
			t.Fatalf("archive: %v", err)
		}
		entries := archiveNames(t, data)
		thumb, ok := entries["thumbs/result.png"]
		if !ok {
			t.Fatalf("thumbnail missing: %v", entries)
		}
		img, err := imaging.Decode(bytes.NewReader(thumb))
		if err != nil {
			t.Fatalf("decode thumbnail: %v", err)
		}
		if img.Bounds().Dx() != 300 || img.Bounds().Dy() != 100 {
			t.Fatalf("thumbnail bounds: %v", img.Bounds())
		}
	})

	t.Run("nothing fetchable", func(t *testing.T) {
		if _, err := Archive(context.Background(), []Item{{Key: "0/0@1", URL: server.URL + "/missing.png"}}, Options{}); err == nil {
			t.Fatal("expected error for empty archive")
		}
	})
}

func TestUniqueName(t *testing.T) {
	used := make(map[string]struct{})
	if got := uniqueName(used, "a.png"); got != "a.png" {
		t.Fatalf("first use renamed: %s", got)
	}
	if got := uniqueName(used, "a.png"); got != "a-2.png" {
		t.Fatalf("second use: %s", got)
	}
	if got := uniqueName(used, "a.png"); got != "a-3.png" {
		t.Fatalf("third use: %s", got)
	}
}
