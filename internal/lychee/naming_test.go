package lychee_test

import (
	"strings"
	"testing"

	"lycheesync/internal/lychee"
)

func TestResolveAlbumName(t *testing.T) {
	tests := []struct {
		rel  string
		want string
	}{
		{"2024/trip", "2024_trip"},
		{"Holidays", "holidays"},
		{"a/B/c", "a_b_c"},
		{"a//b/", "a_b"},
		{"2024/My Trip", "2024_my trip"},
	}
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			got := lychee.ResolveAlbumName(tt.rel)
			if got != tt.want {
				t.Errorf("ResolveAlbumName(%q) = %q, want %q", tt.rel, got, tt.want)
			}
			if again := lychee.ResolveAlbumName(tt.rel); again != got {
				t.Errorf("ResolveAlbumName(%q) not deterministic: %q then %q", tt.rel, got, again)
			}
		})
	}
}

func TestAlbumNamers_Collision(t *testing.T) {
	a, b := "2024/my_trip", "2024_my/trip"

	flat := lychee.FlatNamer{}
	if flat.AlbumName(a) != flat.AlbumName(b) {
		t.Fatalf("flat names differ; collision example no longer collides")
	}

	hashed := lychee.HashedNamer{}
	if hashed.AlbumName(a) == hashed.AlbumName(b) {
		t.Errorf("hashed names collide: %q", hashed.AlbumName(a))
	}
	if !strings.HasPrefix(hashed.AlbumName(a), flat.AlbumName(a)+"-") {
		t.Errorf("hashed name %q does not extend flat name %q", hashed.AlbumName(a), flat.AlbumName(a))
	}
	if hashed.AlbumName(a) != hashed.AlbumName(a) {
		t.Error("hashed name not deterministic")
	}
}

func TestNewAlbumNamer(t *testing.T) {
	tests := []struct {
		strategy string
		want     lychee.AlbumNamer
		wantErr  bool
	}{
		{"", lychee.FlatNamer{}, false},
		{"flat", lychee.FlatNamer{}, false},
		{"hashed", lychee.HashedNamer{}, false},
		{"tree", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.strategy, func(t *testing.T) {
			got, err := lychee.NewAlbumNamer(tt.strategy)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewAlbumNamer(%q) error = %v, wantErr %v", tt.strategy, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NewAlbumNamer(%q) = %T, want %T", tt.strategy, got, tt.want)
			}
		})
	}
}

func TestIsPhoto(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"a.jpg", true},
		{"a.JPG", true},
		{"a.jpeg", true},
		{"a.Png", true},
		{"a.gif", true},
		{"a.tiff", false},
		{"a.txt", false},
		{"jpg", false},
		{"trip", false},
	}
	for _, tt := range tests {
		if got := lychee.IsPhoto(tt.name); got != tt.want {
			t.Errorf("IsPhoto(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestManagedName(t *testing.T) {
	a := lychee.ManagedName("trip", "IMG_1.JPG")
	if a != lychee.ManagedName("trip", "IMG_1.JPG") {
		t.Error("ManagedName not deterministic")
	}
	if !strings.HasSuffix(a, ".jpg") {
		t.Errorf("ManagedName = %q, want lowercased .jpg extension", a)
	}
	if a == lychee.ManagedName("other", "IMG_1.JPG") {
		t.Error("equal basenames in different albums share a managed name")
	}

	if got := lychee.Thumb2xName("ABC.JPG"); got != "abc@2x.jpg" {
		t.Errorf("Thumb2xName() = %q, want abc@2x.jpg", got)
	}
}
