package gif

import (
	"encoding/json"
	"fmt"
	"image"
	"image/gif"
	"os"
)

// defaultFrameDelay is the per-frame display duration in hundredths of a
// second (the GIF delay unit): 500ms per frame.
const defaultFrameDelay = 50

// Sidecar is the freshness record persisted next to a generated loop. It is
// associated with the loop by filename convention and shares its lifecycle.
type Sidecar struct {
	Timestamp string `json:"timestamp"`
}

// SidecarPath returns the sidecar filename for a loop file.
func SidecarPath(loopPath string) string {
	return loopPath + ".json"
}

// EncodeLoop writes the composited frames as one infinitely-repeating
// animated GIF with a uniform 500ms frame delay. When a capture timestamp is
// known, a sidecar record is written alongside the loop. An empty frame
// sequence is a failure and no file is written.
func EncodeLoop(frames []*image.Paletted, timestamp, path string) error {
	if len(frames) == 0 {
		return fmt.Errorf("%w: %s", ErrNoFrames, path)
	}

	if err := encodeGif(frames, defaultFrameDelay, path); err != nil {
		return err
	}

	if timestamp == "" {
		return nil
	}
	return writeSidecar(path, timestamp)
}

func encodeGif(frames []*image.Paletted, frameDelay int, path string) error {
	anim := &gif.GIF{
		Image:     frames,
		Delay:     make([]int, len(frames)),
		LoopCount: 0,
	}
	for i := range anim.Delay {
		anim.Delay[i] = frameDelay
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := gif.EncodeAll(out, anim); err != nil {
		_ = out.Close()
		_ = os.Remove(path)
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

func writeSidecar(loopPath, timestamp string) error {
	data, err := json.Marshal(Sidecar{Timestamp: timestamp})
	if err != nil {
		return fmt.Errorf("failed to marshal sidecar for %s: %w", loopPath, err)
	}
	if err := os.WriteFile(SidecarPath(loopPath), data, 0644); err != nil {
		return fmt.Errorf("failed to write sidecar for %s: %w", loopPath, err)
	}
	return nil
}

func readSidecar(loopPath string) (string, error) {
	data, err := os.ReadFile(SidecarPath(loopPath))
	if err != nil {
		return "", err
	}
	var record Sidecar
	if err := json.Unmarshal(data, &record); err != nil {
		return "", fmt.Errorf("failed to unmarshal sidecar for %s: %w", loopPath, err)
	}
	return record.Timestamp, nil
}
