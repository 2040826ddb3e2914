package nmea

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
)

// Stats tallies the sentences seen by a Scanner.
type Stats struct {
	Lines   int            `json:"lines"`
	Valid   int            `json:"valid"`
	Invalid int            `json:"invalid"`
	Errors  map[string]int `json:"errors"` // by error kind
	Types   map[string]int `json:"types"`  // valid sentences by talker+type
}

func newStats() Stats {
	return Stats{Errors: map[string]int{}, Types: map[string]int{}}
}

func (s *Stats) add(sentence Sentence, err error) {
	s.Lines++
	if err != nil {
		s.Invalid++
		s.Errors[ErrorKind(err)]++
		return
	}
	s.Valid++
	s.Types[sentence.Talker+sentence.Type]++
}

// ErrorRate is the fraction of lines that failed to parse.
func (s Stats) ErrorRate() float64 {
	if s.Lines == 0 {
		return 0
	}
	return float64(s.Invalid) / float64(s.Lines)
}

// WriteReport prints a human readable summary.
func (s Stats) WriteReport(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "lines\t%d\n", s.Lines)
	fmt.Fprintf(tw, "valid\t%d\n", s.Valid)
	fmt.Fprintf(tw, "invalid\t%d\t(%.2f%%)\n", s.Invalid, s.ErrorRate()*100)
	for _, k := range sortedKeys(s.Errors) {
		fmt.Fprintf(tw, "  %s\t%d\n", k, s.Errors[k])
	}
	for _, k := range sortedKeys(s.Types) {
		fmt.Fprintf(tw, "%s\t%d\n", k, s.Types[k])
	}
	return tw.Flush()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// maxLineLength bounds how much of a line the Scanner buffers. Anything
// longer is reported as a single ErrTooLong line and the rest of it is
// skipped, so one runaway line does not end the scan.
const maxLineLength = 4096

// Scanner reads NMEA sentences line by line and keeps Stats.
type Scanner struct {
	sc       *bufio.Scanner
	stats    Stats
	line     string
	sentence Sentence
	err      error

	skipping  bool // discarding the tail of an overlong line
	truncated bool // the last token was cut at maxLineLength
}

// NewScanner returns a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	s := &Scanner{sc: bufio.NewScanner(r), stats: newStats()}
	s.sc.Split(s.split)
	return s
}

// split is bufio.ScanLines with a length cap instead of a hard failure.
func (s *Scanner) split(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	i := bytes.IndexByte(data, '\n')
	if s.skipping {
		if i >= 0 {
			s.skipping = false
			return i + 1, nil, nil
		}
		if atEOF {
			s.skipping = false
		}
		return len(data), nil, nil
	}
	if i >= 0 && i <= maxLineLength {
		return i + 1, data[:i], nil
	}
	if i > maxLineLength || (i < 0 && len(data) > maxLineLength) {
		s.truncated = true
		if i < 0 {
			s.skipping = true
			return maxLineLength, data[:maxLineLength], nil
		}
		return i + 1, data[:maxLineLength], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// Scan advances to the next non-blank line. It returns false at the end of
// the input or on a read error.
func (s *Scanner) Scan() bool {
	for s.sc.Scan() {
		truncated := s.truncated
		s.truncated = false
		line := s.sc.Text()
		if len(line) == 0 || line == "\r" {
			continue
		}
		s.line = strings.TrimRight(line, "\r")
		if truncated {
			s.sentence = Sentence{}
			s.err = fmt.Errorf("%w: more than %d characters", ErrTooLong, maxLineLength)
		} else {
			s.sentence, s.err = Parse(line)
		}
		s.stats.add(s.sentence, s.err)
		return true
	}
	return false
}

// Sentence returns the result of parsing the current line.
func (s *Scanner) Sentence() (Sentence, error) {
	return s.sentence, s.err
}

// Text returns the current line without its terminator.
func (s *Scanner) Text() string {
	return s.line
}

// Err returns the first read error, if any.
func (s *Scanner) Err() error {
	return s.sc.Err()
}

// Stats returns a copy of the tallies so far.
func (s *Scanner) Stats() Stats {
	c := newStats()
	c.Lines, c.Valid, c.Invalid = s.stats.Lines, s.stats.Valid, s.stats.Invalid
	for k, v := range s.stats.Errors {
		c.Errors[k] = v
	}
	for k, v := range s.stats.Types {
		c.Types[k] = v
	}
	return c
}
