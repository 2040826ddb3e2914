package nmea

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxSentenceLength is the longest valid sentence, including the CR LF
// terminator.
const MaxSentenceLength = 82

// Errors reported by Parse. Each one is a distinct error kind in Stats.
var (
	ErrEmpty            = errors.New("empty sentence")
	ErrTooLong          = errors.New("sentence too long")
	ErrMissingStart     = errors.New("missing start delimiter")
	ErrMissingChecksum  = errors.New("missing checksum")
	ErrBadChecksum      = errors.New("malformed checksum")
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrShortAddress     = errors.New("address field too short")
)

var errorKinds = []error{
	ErrEmpty,
	ErrTooLong,
	ErrMissingStart,
	ErrMissingChecksum,
	ErrBadChecksum,
	ErrChecksumMismatch,
	ErrShortAddress,
}

// Sentence is a decoded NMEA sentence.
type Sentence struct {
	Raw      string
	Start    byte // '$' or '!'
	Talker   string
	Type     string
	Fields   []string
	Checksum byte
}

func (s Sentence) String() string { return s.Raw }

// Parse validates a single line and splits it into its parts. Trailing CR
// and LF are ignored.
func Parse(line string) (Sentence, error) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return Sentence{}, ErrEmpty
	}
	if len(line)+2 > MaxSentenceLength {
		return Sentence{}, fmt.Errorf("%w: %d characters", ErrTooLong, len(line)+2)
	}
	if line[0] != '$' && line[0] != '!' {
		return Sentence{}, fmt.Errorf("%w: got %q", ErrMissingStart, line[0])
	}

	star := strings.LastIndexByte(line, '*')
	if star < 0 {
		return Sentence{}, ErrMissingChecksum
	}
	hex := line[star+1:]
	if len(hex) != 2 {
		return Sentence{}, fmt.Errorf("%w: %q", ErrBadChecksum, hex)
	}
	want, err := strconv.ParseUint(hex, 16, 8)
	if err != nil {
		return Sentence{}, fmt.Errorf("%w: %q", ErrBadChecksum, hex)
	}

	body := line[1:star]
	var got byte
	for i := 0; i < len(body); i++ {
		got ^= body[i]
	}
	if got != byte(want) {
		return Sentence{}, fmt.Errorf("%w: computed %02X, sentence has %s", ErrChecksumMismatch, got, hex)
	}

	fields := strings.Split(body, ",")
	addr := fields[0]
	// two-character talker plus three-character type
	if len(addr) < 5 {
		return Sentence{}, fmt.Errorf("%w: %q", ErrShortAddress, addr)
	}

	return Sentence{
		Raw:      line,
		Start:    line[0],
		Talker:   addr[:2],
		Type:     addr[2:],
		Fields:   fields[1:],
		Checksum: got,
	}, nil
}

// ErrorKind returns the short name of the parse error kind of err, or
// "other" when err is not a parse error.
func ErrorKind(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k) {
			return k.Error()
		}
	}
	return "other"
}
