package track

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewGPXWriter(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "test_track.gpx")

	writer, err := NewGPXWriter(tempFile, "Test Track")
	if err != nil {
		t.Fatalf("Failed to create GPX writer: %v", err)
	}
	defer writer.Close()

	if writer.filename != tempFile {
		t.Errorf("Expected filename %s, got %s", tempFile, writer.filename)
	}
	if writer.gpx.Version != "1.1" {
		t.Errorf("Expected GPX version 1.1, got %s", writer.gpx.Version)
	}
	if writer.gpx.Xmlns != "http://www.topografix.com/GPX/1/1" {
		t.Errorf("Expected GPX namespace, got %s", writer.gpx.Xmlns)
	}
	if writer.gpx.Track.Name != "Test Track" {
		t.Errorf("Expected track name 'Test Track', got %s", writer.gpx.Track.Name)
	}
}

func TestNewGPXWriterInvalidPath(t *testing.T) {
	_, err := NewGPXWriter("/invalid/path/test.gpx", "x")
	if err == nil {
		t.Error("Expected error for invalid file path, got nil")
	}
}

func TestGPXWriteAndRead(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "round_trip.gpx")

	writer, err := NewGPXWriter(tempFile, "Round Trip")
	if err != nil {
		t.Fatalf("Failed to create GPX writer: %v", err)
	}

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.FixedZone("PDT", -7*3600))
	points := []TrackPoint{
		{Lat: 37.8083, Lon: -122.4156, Time: base},
		{Lat: 37.8090, Lon: -122.4150, Time: base.Add(time.Second), Extensions: &Extensions{Heading: 45, Speed: 12, Depth: 18}},
	}
	for _, p := range points {
		writer.AddTrackPoint(p)
	}
	if writer.TrackPointCount() != 2 {
		t.Errorf("Expected 2 track points, got %d", writer.TrackPointCount())
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Errorf("Second close should be a no-op, got %v", err)
	}

	content, err := os.ReadFile(tempFile)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if !strings.HasPrefix(string(content), "<?xml") {
		t.Error("GPX file should start with the XML header")
	}
	if !strings.Contains(string(content), "<heading>45</heading>") {
		t.Error("GPX file should carry the heading extension")
	}

	read, err := ReadGPXFile(tempFile)
	if err != nil {
		t.Fatalf("Failed to read GPX file: %v", err)
	}
	if len(read) != 2 {
		t.Fatalf("Expected 2 points, got %d", len(read))
	}
	if read[0].Lat != 37.8083 || read[0].Lon != -122.4156 {
		t.Errorf("Unexpected first point %+v", read[0])
	}
	if !read[1].Time.Equal(base.Add(time.Second)) || read[1].Time.Location() != time.UTC {
		t.Errorf("Expected UTC time %v, got %v", base.Add(time.Second).UTC(), read[1].Time)
	}
	if read[0].Extensions != nil {
		t.Errorf("Expected no extensions on the first point, got %+v", read[0].Extensions)
	}
	if e := read[1].Extensions; e == nil || e.Heading != 45 || e.Speed != 12 || e.Depth != 18 {
		t.Errorf("Unexpected extensions %+v", e)
	}

	last, err := LastPoint(tempFile)
	if err != nil {
		t.Fatalf("LastPoint failed: %v", err)
	}
	if last.Lat != 37.8090 {
		t.Errorf("Expected the last point, got %+v", last)
	}
}

func TestReadGPXFileRoutes(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "route.gpx")
	content := `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <rte>
    <name>Harbour</name>
    <rtept lat="50.1" lon="-1.2"><ele>0</ele><time>2024-01-01T00:00:00Z</time></rtept>
    <rtept lat="50.2" lon="-1.3"><ele>0</ele><time>2024-01-01T00:10:00Z</time></rtept>
  </rte>
</gpx>`
	if err := os.WriteFile(tempFile, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	points, err := ReadGPXFile(tempFile)
	if err != nil {
		t.Fatalf("Failed to read GPX file: %v", err)
	}
	if len(points) != 2 || points[1].Lat != 50.2 {
		t.Errorf("Expected route points, got %+v", points)
	}
}

func TestReadGPXFileErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := ReadGPXFile(filepath.Join(dir, "missing.gpx")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected not-exist error, got %v", err)
	}

	empty := filepath.Join(dir, "empty.gpx")
	os.WriteFile(empty, []byte(`<gpx version="1.1"><trk><name>x</name><trkseg></trkseg></trk></gpx>`), 0o644)
	if _, err := LastPoint(empty); !errors.Is(err, ErrNoPoints) {
		t.Errorf("Expected ErrNoPoints, got %v", err)
	}

	garbage := filepath.Join(dir, "garbage.gpx")
	os.WriteFile(garbage, []byte("not xml"), 0o644)
	if _, err := ReadGPXFile(garbage); err == nil {
		t.Error("Expected a parse error")
	}
}
