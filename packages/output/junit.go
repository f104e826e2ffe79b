package output

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/weftconf/weft/packages/core/parser"
)

// JUnit XML structures

// JUnitTestSuites is the root element
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Name       string           `xml:"name,attr,omitempty"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	Time       float64          `xml:"time,attr"`
	Timestamp  string           `xml:"timestamp,attr,omitempty"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite represents one validation run
type JUnitTestSuite struct {
	XMLName   xml.Name        `xml:"testsuite"`
	Name      string          `xml:"name,attr"`
	Tests     int             `xml:"tests,attr"`
	Failures  int             `xml:"failures,attr"`
	Errors    int             `xml:"errors,attr"`
	Time      float64         `xml:"time,attr"`
	Timestamp string          `xml:"timestamp,attr,omitempty"`
	TestCases []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase represents a single checked file
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Error     *JUnitError   `xml:"error,omitempty"`
}

// JUnitFailure represents a file that failed to parse
type JUnitFailure struct {
	Message string `xml:"message,attr,omitempty"`
	Type    string `xml:"type,attr,omitempty"`
	Content string `xml:",chardata"`
}

// JUnitError represents a file that could not be checked at all
type JUnitError struct {
	Message string `xml:"message,attr,omitempty"`
	Type    string `xml:"type,attr,omitempty"`
	Content string `xml:",chardata"`
}

// JUnitFormatter formats check results as JUnit XML
type JUnitFormatter struct {
	writer   io.Writer
	cases    []JUnitTestCase
	failures int
	errors   int
}

type JUnitOption func(*JUnitFormatter)

func NewJUnitFormatter(opts ...JUnitOption) *JUnitFormatter {
	f := &JUnitFormatter{
		writer: os.Stdout,
		cases:  make([]JUnitTestCase, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JUnitWithWriter(w io.Writer) JUnitOption {
	return func(f *JUnitFormatter) {
		f.writer = w
	}
}

func (f *JUnitFormatter) FormatCheck(res CheckResult) {
	tc := JUnitTestCase{
		Name:      res.Target,
		ClassName: "validate",
		Time:      res.Duration.Seconds(),
	}

	if res.Err != nil {
		// Malformed content is a failure; anything else (unreadable file,
		// unreachable host) is an error.
		var pe *parser.ParseError
		if errors.As(res.Err, &pe) {
			f.failures++
			tc.Failure = &JUnitFailure{
				Message: res.Err.Error(),
				Type:    "ParseError",
			}
		} else {
			f.errors++
			tc.Error = &JUnitError{
				Message: res.Err.Error(),
				Type:    "Error",
			}
		}
	}

	f.cases = append(f.cases, tc)
}

func (f *JUnitFormatter) FormatError(err error) {
	// Errors are included in individual test cases
}

func (f *JUnitFormatter) FormatHeader(version string) {
	// No header needed for JUnit XML
}

// Flush writes the accumulated JUnit XML output
func (f *JUnitFormatter) Flush(totalDuration time.Duration) error {
	now := time.Now().Format(time.RFC3339)
	suites := JUnitTestSuites{
		Name:      "weft",
		Tests:     len(f.cases),
		Failures:  f.failures,
		Errors:    f.errors,
		Time:      totalDuration.Seconds(),
		Timestamp: now,
		TestSuites: []JUnitTestSuite{{
			Name:      "validate",
			Tests:     len(f.cases),
			Failures:  f.failures,
			Errors:    f.errors,
			Time:      totalDuration.Seconds(),
			Timestamp: now,
			TestCases: f.cases,
		}},
	}

	fmt.Fprintf(f.writer, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	encoder := xml.NewEncoder(f.writer)
	encoder.Indent("", "  ")
	return encoder.Encode(suites)
}
