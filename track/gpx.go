package track

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrNoPoints is returned when a GPX file holds neither track nor route points.
var ErrNoPoints = errors.New("no track points or route points found")

// GPX represents the root GPX document structure
type GPX struct {
	XMLName xml.Name `xml:"gpx"`
	Version string   `xml:"version,attr"`
	Creator string   `xml:"creator,attr"`
	Xmlns   string   `xml:"xmlns,attr"`
	Track   Track    `xml:"trk"`
	Routes  []Route  `xml:"rte"`
}

// Track represents a GPX track
type Track struct {
	Name         string       `xml:"name"`
	TrackSegment TrackSegment `xml:"trkseg"`
}

// TrackSegment represents a segment of a GPX track
type TrackSegment struct {
	TrackPoints []TrackPoint `xml:"trkpt"`
}

// Route represents a GPX route
type Route struct {
	Name        string       `xml:"name"`
	RoutePoints []TrackPoint `xml:"rtept"`
}

// TrackPoint is one recorded ownship fix.
type TrackPoint struct {
	Lat        float64     `xml:"lat,attr"`
	Lon        float64     `xml:"lon,attr"`
	Elevation  float64     `xml:"ele"`
	Time       time.Time   `xml:"time"`
	Extensions *Extensions `xml:"extensions,omitempty"`
}

// Extensions carries the ownship state GPX has no element for.
type Extensions struct {
	Heading float64 `xml:"heading"` // degrees true
	Speed   float64 `xml:"speed"`   // knots through water
	Course  float64 `xml:"course"`  // degrees over ground
	SOG     float64 `xml:"sog"`     // knots over ground
	Depth   float64 `xml:"depth"`   // meters
}

// GPXWriter handles writing ownship fixes to a GPX file
type GPXWriter struct {
	filename string
	gpx      *GPX
	file     *os.File
}

// NewGPXWriter creates the file and an empty track named name.
func NewGPXWriter(filename, name string) (*GPXWriter, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create GPX file %s: %w", filename, err)
	}

	gpx := &GPX{
		Version: "1.1",
		Creator: "go-ownship-simulator",
		Xmlns:   "http://www.topografix.com/GPX/1/1",
		Track: Track{
			Name: name,
			TrackSegment: TrackSegment{
				TrackPoints: []TrackPoint{},
			},
		},
	}

	return &GPXWriter{
		filename: filename,
		gpx:      gpx,
		file:     file,
	}, nil
}

// AddTrackPoint appends a point; times are stored in UTC.
func (w *GPXWriter) AddTrackPoint(p TrackPoint) {
	p.Time = p.Time.UTC()
	w.gpx.Track.TrackSegment.TrackPoints = append(w.gpx.Track.TrackSegment.TrackPoints, p)
}

// WriteToFile rewrites the whole document
func (w *GPXWriter) WriteToFile() error {
	if _, err := w.file.Seek(0, 0); err != nil {
		return fmt.Errorf("failed to seek to beginning of file: %w", err)
	}
	if err := w.file.Truncate(0); err != nil {
		return fmt.Errorf("failed to truncate file: %w", err)
	}
	if _, err := w.file.WriteString(xml.Header); err != nil {
		return fmt.Errorf("failed to write XML header: %w", err)
	}

	encoder := xml.NewEncoder(w.file)
	encoder.Indent("", "  ")
	if err := encoder.Encode(w.gpx); err != nil {
		return fmt.Errorf("failed to encode GPX data: %w", err)
	}

	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}
	return nil
}

// Close writes the final document and closes the file
func (w *GPXWriter) Close() error {
	if w.file == nil {
		return nil
	}
	err := w.WriteToFile()
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	w.file = nil
	return err
}

// TrackPointCount returns the number of track points currently stored
func (w *GPXWriter) TrackPointCount() int {
	return len(w.gpx.Track.TrackSegment.TrackPoints)
}

// ReadGPXFile reads and parses a GPX file, returning the track points.
// Route points are used when the file has no track.
func ReadGPXFile(filename string) ([]TrackPoint, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open GPX file %s: %w", filename, err)
	}
	defer file.Close()

	var gpx GPX
	if err := xml.NewDecoder(file).Decode(&gpx); err != nil {
		return nil, fmt.Errorf("failed to parse GPX file %s: %w", filename, err)
	}

	points := gpx.Track.TrackSegment.TrackPoints
	if len(points) == 0 && len(gpx.Routes) > 0 {
		points = gpx.Routes[0].RoutePoints
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w in GPX file %s", ErrNoPoints, filename)
	}
	return points, nil
}

// LastPoint returns the final point recorded in filename.
func LastPoint(filename string) (TrackPoint, error) {
	points, err := ReadGPXFile(filename)
	if err != nil {
		return TrackPoint{}, err
	}
	return points[len(points)-1], nil
}
