package artwork

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/tessro/artwall/internal/core"
)

type fakeExtractor struct {
	colors []core.Color
	err    error
}

func (f fakeExtractor) Extract(img image.Image) ([]core.Color, error) {
	return f.colors, f.err
}

// writePNG writes a two-tone test image and returns its path.
func writePNG(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			c := color.RGBA{200, 30, 40, 255}
			if x >= 16 {
				c = color.RGBA{20, 40, 180, 255}
			}
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(dir, "art.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func colorsN(n int) []core.Color {
	out := make([]core.Color, n)
	for i := range out {
		out[i] = core.RGB(uint8(i), uint8(i), uint8(i))
	}
	return out
}

func TestPaletteLength(t *testing.T) {
	path := writePNG(t, t.TempDir())

	for n := 1; n <= 8; n++ {
		t.Run(fmt.Sprintf("%d colors", n), func(t *testing.T) {
			got := Palette(fakeExtractor{colors: colorsN(n)}, path, nil)
			if len(got) < MinColors || len(got) > MaxColors {
				t.Errorf("len(Palette()) = %d, want within [%d,%d]", len(got), MinColors, MaxColors)
			}
			if got[0] != core.RGB(0, 0, 0) {
				t.Errorf("first color = %v, want extractor order kept", got[0])
			}
		})
	}
}

func TestPaletteDoubling(t *testing.T) {
	path := writePNG(t, t.TempDir())
	in := []core.Color{core.RGB(1, 1, 1), core.RGB(2, 2, 2), core.RGB(3, 3, 3)}

	got := Palette(fakeExtractor{colors: in}, path, nil)
	want := []core.Color{in[0], in[1], in[2], in[0], in[1], in[2]}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Palette() = %v, want %v", got, want)
	}
}

func TestPaletteFallback(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir)

	tests := []struct {
		name string
		ex   Extractor
		path string
	}{
		{"extractor error", fakeExtractor{err: errors.New("boom")}, path},
		{"no colors", fakeExtractor{}, path},
		{"missing file", fakeExtractor{colors: colorsN(5)}, filepath.Join(dir, "nope.png")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Palette(tt.ex, tt.path, nil)
			if !reflect.DeepEqual(got, FallbackPalette) {
				t.Errorf("Palette() = %v, want fallback", got)
			}
		})
	}
}

func TestPaletteFallbackIsCopy(t *testing.T) {
	got := Palette(fakeExtractor{err: errors.New("boom")}, "missing", nil)
	got[0] = core.RGB(9, 9, 9)
	if FallbackPalette[0] != core.RGB(255, 0, 0) {
		t.Error("Palette() returned the shared fallback slice")
	}
}

func TestDominantExtractor(t *testing.T) {
	path := writePNG(t, t.TempDir())
	got := Palette(DominantExtractor{}, path, nil)
	if reflect.DeepEqual(got, FallbackPalette) {
		t.Error("DominantExtractor fell back on a decodable image")
	}
}

func TestNewExtractor(t *testing.T) {
	if _, err := NewExtractor("vibrant"); err != nil {
		t.Errorf("NewExtractor(vibrant) error = %v", err)
	}
	if _, err := NewExtractor("dominant"); err != nil {
		t.Errorf("NewExtractor(dominant) error = %v", err)
	}
	if _, err := NewExtractor("kmeans"); err == nil {
		t.Error("NewExtractor(kmeans) should fail")
	}
}

func TestSwatchRolePick(t *testing.T) {
	mk := func(hex string, population float64) *candidate {
		c, err := colorful.Hex(hex)
		if err != nil {
			t.Fatalf("Hex(%q) error = %v", hex, err)
		}
		_, s, l := c.Hsl()
		return &candidate{color: c, sat: s, light: l, population: population}
	}

	red := mk("#e01010", 1)
	grey := mk("#8a7f7a", 0.8)
	navy := mk("#0a1a5a", 0.5)
	candidates := []*candidate{red, grey, navy}

	tests := []struct {
		role int
		want *candidate
	}{
		{0, red},  // Vibrant
		{1, grey}, // Muted
		{2, navy}, // DarkVibrant
		{4, nil},  // LightVibrant
	}

	for _, tt := range tests {
		t.Run(swatchRoles[tt.role].name, func(t *testing.T) {
			if got := swatchRoles[tt.role].pick(candidates); got != tt.want {
				t.Errorf("pick() = %+v, want %+v", got, tt.want)
			}
		})
	}

	red.used = true
	if got := swatchRoles[0].pick(candidates); got == red {
		t.Error("pick() returned a used candidate")
	}
}

func TestVibrantExtractor(t *testing.T) {
	path := writePNG(t, t.TempDir())
	got := Palette(VibrantExtractor{}, path, nil)
	if len(got) < MinColors || len(got) > MaxColors {
		t.Errorf("len(Palette()) = %d, want %d..%d", len(got), MinColors, MaxColors)
	}
}

func TestSelectImageURL(t *testing.T) {
	tests := []struct {
		name   string
		images []core.Image
		want   string
	}{
		{"empty", nil, ""},
		{"first", []core.Image{{URL: "big"}, {URL: "small"}}, "big"},
		{"first missing", []core.Image{{}, {URL: "small"}}, "small"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SelectImageURL(tt.images); got != tt.want {
				t.Errorf("SelectImageURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDownload(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/image/abc", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpegdata"))
	})
	mux.HandleFunc("/redirect", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/image/abc", http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cache := NewCache(t.TempDir(), nil)
	d := NewDownloader(cache, nil)

	for _, path := range []string{"/image/abc", "/redirect"} {
		t.Run(path, func(t *testing.T) {
			got, err := d.Download(context.Background(), "a1", srv.URL+path)
			if err != nil {
				t.Fatalf("Download() error = %v", err)
			}
			if filepath.Base(got) != "art-a1.jpg" || !filepath.IsAbs(got) {
				t.Errorf("Download() path = %q, want absolute art-a1.jpg", got)
			}
			data, err := os.ReadFile(got)
			if err != nil || string(data) != "jpegdata" {
				t.Errorf("file contents = %q, %v", data, err)
			}
		})
	}
}

func TestDownloadNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	dir := t.TempDir()
	d := NewDownloader(NewCache(dir, nil), nil)

	_, err := d.Download(context.Background(), "a1", srv.URL+"/missing")
	var dlErr *DownloadError
	if !errors.As(err, &dlErr) {
		t.Fatalf("Download() error = %v, want *DownloadError", err)
	}
	if dlErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", dlErr.StatusCode)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("cache has %d files after failed download, want 0", len(entries))
	}
}

func TestDownloadNoURL(t *testing.T) {
	d := NewDownloader(NewCache(t.TempDir(), nil), nil)
	if _, err := d.Download(context.Background(), "a1", ""); err == nil {
		t.Error("Download() with empty URL should fail")
	}
}

func TestExtension(t *testing.T) {
	tests := []struct {
		contentType string
		url         string
		want        string
	}{
		{"image/jpeg", "https://i.scdn.co/image/ab67", ".jpg"},
		{"image/png; charset=binary", "", ".png"},
		{"application/octet-stream", "https://x.test/a.png", ".png"},
		{"", "https://x.test/a", ".jpg"},
	}

	for _, tt := range tests {
		if got := extension(tt.contentType, tt.url); got != tt.want {
			t.Errorf("extension(%q, %q) = %q, want %q", tt.contentType, tt.url, got, tt.want)
		}
	}
}

func TestCachePrune(t *testing.T) {
	dir := t.TempDir()
	cache := NewCache(dir, nil)

	for i := 0; i < 6; i++ {
		path, err := cache.Path(fmt.Sprintf("track%d", i), ".jpg")
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		cache.Commit(path)

		entries, _ := os.ReadDir(dir)
		if len(entries) > 2 {
			t.Fatalf("after %d changes cache has %d files, want at most 2", i+1, len(entries))
		}
	}

	for _, name := range []string{"art-track4.jpg", "art-track5.jpg"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s should be kept: %v", name, err)
		}
	}
}

func TestCachePruneLeavesOtherFiles(t *testing.T) {
	dir := t.TempDir()
	cache := NewCache(dir, nil)

	foreign := []string{"notes.txt", "old.png", "wallpaper.JPG", "artwork.gif"}
	for _, name := range foreign {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	stale := []string{"art-gone.png", ".art-123.tmp"}
	for _, name := range stale {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	current, _ := cache.Path("new", ".jpg")
	_ = os.WriteFile(current, []byte("x"), 0644)

	if removed := cache.Commit(current); removed != len(stale) {
		t.Errorf("Commit() removed %d, want %d", removed, len(stale))
	}
	for _, name := range foreign {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s was removed: %v", name, err)
		}
	}
	for _, name := range stale {
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Errorf("%s should be pruned", name)
		}
	}
}

func TestIsArtFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"art-a1.jpg", true},
		{"art-a1.PNG", true},
		{".art-42.tmp", true},
		{"art-a1.txt", false},
		{"a1.jpg", false},
		{"artwork.gif", false},
		{".art-42", false},
	}

	for _, tt := range tests {
		if got := isArtFile(tt.name); got != tt.want {
			t.Errorf("isArtFile(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCachePathSanitizes(t *testing.T) {
	dir := t.TempDir()
	cache := NewCache(dir, nil)
	got, err := cache.Path("../../etc/passwd", ".jpg")
	if err != nil {
		t.Fatal(err)
	}
	want, _ := filepath.Abs(dir)
	if filepath.Dir(got) != want {
		t.Errorf("Path() escaped the cache dir: %q", got)
	}
	if _, err := cache.Path("///", ".jpg"); err == nil {
		t.Error("Path() with empty ID should fail")
	}
}
