package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"clicktrack/internal/media/audio"
)

// Amplitudes written by WithClickSamples.
const (
	DownAmplitude int16 = 3000
	UpAmplitude   int16 = 2000
	SubAmplitude  int16 = 1000
)

// WriteToneWAV writes a constant-amplitude 16-bit WAV of the given length.
func WriteToneWAV(t testing.TB, path string, format audio.Format, ms int, amplitude int16) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	buf := audio.NewSilence(format, format.FramesFor(float64(ms)))
	for i := range buf.Samples {
		buf.Samples[i] = amplitude
	}
	if err := audio.WriteWAV(path, buf); err != nil {
		t.Fatalf("write wav %s: %v", path, err)
	}
}

// WriteSong writes a song descriptor with the given body next to a silent
// song WAV and returns the descriptor path.
func WriteSong(t testing.TB, dir, name, body string, format audio.Format, songMs int) string {
	t.Helper()

	WriteToneWAV(t, filepath.Join(dir, "song.wav"), format, songMs, 0)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write song %s: %v", path, err)
	}
	return path
}
