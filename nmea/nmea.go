// Package nmea encodes ownship snapshots as NMEA 0183 sentences and parses
// incoming sentences with per-error-kind diagnostics.
package nmea

import (
	"fmt"
	"math"
	"time"

	"github.com/Bucknalla/go-ownship-simulator/ownship"
)

const knotsToKmh = 1.852

// Checksum returns the NMEA checksum of a sentence: the XOR of every byte
// between the start delimiter and the '*' (or the end of the string).
func Checksum(sentence string) string {
	var checksum byte
	for i := 1; i < len(sentence); i++ { // skip the '$' or '!'
		if sentence[i] == '*' {
			break
		}
		checksum ^= sentence[i]
	}
	return fmt.Sprintf("%02X", checksum)
}

// Format appends the checksum and CR LF terminator to a sentence body.
func Format(sentence string) string {
	return fmt.Sprintf("%s*%s\r\n", sentence, Checksum(sentence))
}

// Sentence types produced by the Encoder.
const (
	RMC = "RMC"
	GGA = "GGA"
	GLL = "GLL"
	VTG = "VTG"
	ZDA = "ZDA"
	HDT = "HDT"
	ROT = "ROT"
	VHW = "VHW"
	VDR = "VDR"
	DPT = "DPT"
	RSA = "RSA"
)

// AllSentences is every sentence type the Encoder knows, in output order.
var AllSentences = []string{RMC, GGA, GLL, VTG, ZDA, HDT, ROT, VHW, VDR, DPT, RSA}

// defaultTalkers maps each sentence type to the talker of the instrument
// that would normally emit it.
var defaultTalkers = map[string]string{
	RMC: "GP", GGA: "GP", GLL: "GP", VTG: "GP", ZDA: "GP",
	HDT: "HE", ROT: "HE",
	VHW: "VW", VDR: "VW",
	DPT: "SD",
	RSA: "II",
}

// Encoder turns OwnshipUpdate snapshots into NMEA sentences.
type Encoder struct {
	// Talker overrides the talker id of every sentence when set.
	Talker string
	// Sentences selects the sentence types to emit; nil means AllSentences.
	Sentences []string
}

// Encode returns one checksummed sentence per selected type. Unknown types
// are skipped.
func (e *Encoder) Encode(u ownship.OwnshipUpdate) []string {
	types := e.Sentences
	if types == nil {
		types = AllSentences
	}
	out := make([]string, 0, len(types))
	for _, typ := range types {
		body, ok := e.body(typ, u)
		if !ok {
			continue
		}
		out = append(out, Format("$"+e.talker(typ)+typ+","+body))
	}
	return out
}

func (e *Encoder) talker(typ string) string {
	if e.Talker != "" {
		return e.Talker
	}
	return defaultTalkers[typ]
}

func (e *Encoder) body(typ string, u ownship.OwnshipUpdate) (string, bool) {
	switch typ {
	case RMC:
		return rmc(u), true
	case GGA:
		return gga(u), true
	case GLL:
		return gll(u), true
	case VTG:
		return vtg(u), true
	case ZDA:
		return zda(u), true
	case HDT:
		return fmt.Sprintf("%.1f,T", u.HeadingActual), true
	case ROT:
		return fmt.Sprintf("%.1f,A", u.HeadingVelocity), true
	case VHW:
		return fmt.Sprintf("%.1f,T,,M,%.1f,N,%.1f,K", u.HeadingActual, u.SpeedActual, u.SpeedActual*knotsToKmh), true
	case VDR:
		return fmt.Sprintf("%.1f,T,,M,%.1f,N", u.Set, u.Drift), true
	case DPT:
		return fmt.Sprintf("%.1f,0.0,", u.Depth), true
	case RSA:
		return fmt.Sprintf("%.1f,A,,V", u.RudderActual), true
	}
	return "", false
}

// status is A (valid) unless the simulation is stopped.
func status(u ownship.OwnshipUpdate) string {
	if u.Status == ownship.Stopped {
		return "V"
	}
	return "A"
}

func rmc(u ownship.OwnshipUpdate) string {
	return fmt.Sprintf("%s,%s,%s,%s,%.1f,%.1f,%s,,,A",
		hhmmss(u.Time), status(u),
		latitude(u.Latitude), longitude(u.Longitude),
		u.SpeedOverGround, u.HeadingOverGround,
		u.Time.UTC().Format("020106"))
}

func gga(u ownship.OwnshipUpdate) string {
	// quality 1 (GPS fix), 8 satellites, HDOP 1.0, sea level
	return fmt.Sprintf("%s,%s,%s,1,08,1.0,0.0,M,0.0,M,,",
		hhmmss(u.Time), latitude(u.Latitude), longitude(u.Longitude))
}

func gll(u ownship.OwnshipUpdate) string {
	return fmt.Sprintf("%s,%s,%s,%s,A",
		latitude(u.Latitude), longitude(u.Longitude), hhmmss(u.Time), status(u))
}

func vtg(u ownship.OwnshipUpdate) string {
	return fmt.Sprintf("%.1f,T,,M,%.1f,N,%.1f,K,A",
		u.HeadingOverGround, u.SpeedOverGround, u.SpeedOverGround*knotsToKmh)
}

func zda(u ownship.OwnshipUpdate) string {
	t := u.Time.UTC()
	// local zone is always UTC
	return fmt.Sprintf("%s,%02d,%02d,%04d,00,00", hhmmss(t), t.Day(), int(t.Month()), t.Year())
}

// hhmmss formats the UTC time of day as HHMMSS.SS.
func hhmmss(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%02d%02d%02d.%02d", t.Hour(), t.Minute(), t.Second(), t.Nanosecond()/10000000)
}

// latitude formats decimal degrees as DDMM.MMMM,H.
func latitude(lat float64) string {
	hem := "N"
	if lat < 0 {
		hem = "S"
	}
	deg, minutes := degreesMinutes(lat)
	return fmt.Sprintf("%02d%07.4f,%s", deg, minutes, hem)
}

// longitude formats decimal degrees as DDDMM.MMMM,H.
func longitude(lon float64) string {
	hem := "E"
	if lon < 0 {
		hem = "W"
	}
	deg, minutes := degreesMinutes(lon)
	return fmt.Sprintf("%03d%07.4f,%s", deg, minutes, hem)
}

// degreesMinutes splits |v| into whole degrees and minutes rounded to the
// four decimals printed, carrying into the degrees when the minutes round
// up to 60.
func degreesMinutes(v float64) (int, float64) {
	v = math.Abs(v)
	deg := int(v)
	minutes := math.Round((v-float64(deg))*60*1e4) / 1e4
	if minutes >= 60 {
		deg++
		minutes -= 60
	}
	return deg, minutes
}
