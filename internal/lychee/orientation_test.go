package lychee_test

import (
	"image"
	"os"
	"testing"
	"time"

	"lycheesync/internal/lychee"
	"lycheesync/internal/testutil"
)

// redAt reports whether the pixel at (x, y) of the JPEG at path is
// predominantly red.
func redAt(t *testing.T, path string, x, y int) bool {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		t.Fatalf("decoding %s: %v", path, err)
	}
	r, _, b, _ := img.At(x, y).RGBA()
	return r > b
}

func TestSyncService_CorrectOrientation_Noop(t *testing.T) {
	for _, code := range []int{0, 1, 3} {
		t.Run(string(rune('0'+code)), func(t *testing.T) {
			env := testutil.NewEnv(t)
			src := env.Src("trip/a.jpg")
			testutil.WriteTestJPEGWithExif(t, src, 60, 30, code, time.Time{})
			mustIngest(t, env, src)

			stored := mustPhoto(t, env, "trip", "a.jpg")
			if stored.Width != 60 || stored.Height != 30 {
				t.Errorf("dimensions = %dx%d, want 60x30", stored.Width, stored.Height)
			}

			big, thumb, thumb2x := env.ManagedFiles(stored.URL)
			if testutil.FileSHA1(t, big) != testutil.FileSHA1(t, src) {
				t.Error("managed image differs from source")
			}

			before := []string{testutil.FileSHA1(t, thumb), testutil.FileSHA1(t, thumb2x)}
			photo := &lychee.Photo{
				Orientation: code,
				Width:       60,
				Height:      30,
				ManagedPath: big,
				ThumbPath:   thumb,
				Thumb2xPath: thumb2x,
			}
			if err := env.Service.CorrectOrientation(photo); err != nil {
				t.Fatalf("CorrectOrientation() error = %v", err)
			}
			after := []string{testutil.FileSHA1(t, thumb), testutil.FileSHA1(t, thumb2x)}
			if before[0] != after[0] || before[1] != after[1] {
				t.Error("thumbnail bytes changed")
			}
			if photo.Width != 60 || photo.Height != 30 || photo.Orientation != code {
				t.Errorf("photo = %dx%d orientation %d, want unchanged", photo.Width, photo.Height, photo.Orientation)
			}
		})
	}
}

func TestSyncService_CorrectOrientation_QuarterTurns(t *testing.T) {
	tests := []struct {
		name        string
		orientation int
		redOnTop    bool
	}{
		{"rotate 90 clockwise", lychee.OrientationRotate90CW, true},
		{"rotate 90 counter-clockwise", lychee.OrientationRotate90CCW, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testutil.NewEnv(t)
			src := env.Src("trip/a.jpg")
			testutil.WriteTestJPEGWithExif(t, src, 60, 30, tt.orientation, time.Time{})
			sourceSum := testutil.FileSHA1(t, src)

			mustIngest(t, env, src)

			photo := mustPhoto(t, env, "trip", "a.jpg")
			if photo.Width != 30 || photo.Height != 60 {
				t.Errorf("catalog dimensions = %dx%d, want 30x60", photo.Width, photo.Height)
			}
			if photo.Orientation != 1 {
				t.Errorf("catalog orientation = %d, want 1", photo.Orientation)
			}

			big, _, _ := env.ManagedFiles(photo.URL)
			if w, h := imageSize(t, big); w != 30 || h != 60 {
				t.Errorf("managed image = %dx%d, want 30x60", w, h)
			}
			if got := redAt(t, big, 15, 5); got != tt.redOnTop {
				t.Errorf("red on top = %v, want %v", got, tt.redOnTop)
			}
			if testutil.FileSHA1(t, src) != sourceSum {
				t.Error("source image was modified")
			}
		})
	}
}

func TestSyncService_CorrectOrientation_LinkMode(t *testing.T) {
	env := testutil.NewEnv(t, func(c *testutil.EnvConfig) { c.Options.Link = true })
	src := env.Src("trip/a.jpg")
	testutil.WriteTestJPEGWithExif(t, src, 60, 30, lychee.OrientationRotate90CW, time.Time{})
	sourceSum := testutil.FileSHA1(t, src)

	mustIngest(t, env, src)

	if testutil.FileSHA1(t, src) != sourceSum {
		t.Error("linked source was rotated")
	}
	photo := mustPhoto(t, env, "trip", "a.jpg")
	if photo.Width != 60 || photo.Height != 30 {
		t.Errorf("catalog dimensions = %dx%d, want 60x30", photo.Width, photo.Height)
	}
	if photo.Orientation != lychee.OrientationRotate90CW {
		t.Errorf("catalog orientation = %d, want %d", photo.Orientation, lychee.OrientationRotate90CW)
	}
}

func TestSyncService_CorrectOrientation_FailureKeepsPhoto(t *testing.T) {
	env := testutil.NewEnv(t)
	env.Images.FailRotate = true
	src := env.Src("trip/a.jpg")
	testutil.WriteTestJPEGWithExif(t, src, 60, 30, lychee.OrientationRotate90CCW, time.Time{})

	mustIngest(t, env, src)

	photo := mustPhoto(t, env, "trip", "a.jpg")
	if photo.Width != 60 || photo.Height != 30 {
		t.Errorf("catalog dimensions = %dx%d, want 60x30", photo.Width, photo.Height)
	}
	if !env.Logger.Contains("WARN", "orientation not corrected") {
		t.Error("expected orientation warning")
	}
}
