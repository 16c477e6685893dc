package textenc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/dimchansky/utfbom"
	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"
)

// AutoDetect asks Decode to guess the source encoding.
const AutoDetect = "auto"

// UTF8 is the working encoding and the default for every input and output.
const UTF8 = "utf-8"

var (
	// ErrUnsupportedEncoding marks an encoding name neither registry knows.
	ErrUnsupportedEncoding = errors.New("unsupported encoding")
	// ErrConversionFailure marks bytes that cannot be decoded from, or text
	// that cannot be represented in, the requested encoding.
	ErrConversionFailure = errors.New("encoding conversion failed")
)

// Canonical returns the lower-cased registry name for an encoding label, or
// the trimmed label itself for "auto" and unknown names.
func Canonical(name string) string {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	if trimmed == "" {
		return UTF8
	}
	if trimmed == AutoDetect {
		return AutoDetect
	}
	if _, canonical, err := Lookup(trimmed); err == nil {
		return canonical
	}
	return trimmed
}

// Same reports whether two labels name the same encoding.
func Same(a, b string) bool {
	return Canonical(a) == Canonical(b)
}

// Lookup resolves an encoding label. Empty means UTF-8.
func Lookup(name string) (encoding.Encoding, string, error) {
	label := strings.ToLower(strings.TrimSpace(name))
	switch label {
	case "", "utf8", UTF8:
		return unicode.UTF8, UTF8, nil
	case AutoDetect:
		return nil, "", fmt.Errorf("%w: %q needs input bytes", ErrUnsupportedEncoding, name)
	case "utf-32", "utf-32le", "utf32", "utf32le":
		return utf32.UTF32(utf32.LittleEndian, utf32.UseBOM), "utf-32le", nil
	case "utf-32be", "utf32be":
		return utf32.UTF32(utf32.BigEndian, utf32.UseBOM), "utf-32be", nil
	}
	if enc, err := htmlindex.Get(label); err == nil {
		canonical, nameErr := htmlindex.Name(enc)
		if nameErr != nil {
			canonical = label
		}
		return enc, strings.ToLower(canonical), nil
	}
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil || enc == nil {
		return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedEncoding, name)
	}
	canonical, nameErr := ianaindex.IANA.Name(enc)
	if nameErr != nil {
		canonical = label
	}
	return enc, strings.ToLower(canonical), nil
}

// Detection is the detector's best guess for a byte slice.
type Detection struct {
	Charset    string `json:"charset" yaml:"charset"`
	Language   string `json:"language,omitempty" yaml:"language,omitempty"`
	Confidence int    `json:"confidence" yaml:"confidence"`
}

// Detect guesses the encoding of raw. A byte order mark is reported with full
// confidence; otherwise the statistical detector decides.
func Detect(raw []byte) (Detection, error) {
	if name, ok := bomEncoding(raw); ok {
		return Detection{Charset: name, Confidence: 100}, nil
	}
	result, err := chardet.NewTextDetector().DetectBest(raw)
	if err != nil {
		return Detection{}, fmt.Errorf("%w: detect charset: %v", ErrUnsupportedEncoding, err)
	}
	return Detection{
		Charset:    detectorLabel(result.Charset),
		Language:   result.Language,
		Confidence: result.Confidence,
	}, nil
}

// detectorLabel maps chardet names onto registry labels.
func detectorLabel(charset string) string {
	label := strings.ToLower(charset)
	switch label {
	case "gb-18030":
		return "gb18030"
	case "iso-8859-8-i":
		return "iso-8859-8"
	}
	return label
}

// Decode converts raw bytes in the named encoding to UTF-8 text and reports
// the encoding actually used. A byte order mark overrides name.
func Decode(raw []byte, name string) (string, string, error) {
	if bomName, ok := bomEncoding(raw); ok {
		name = bomName
	} else if strings.EqualFold(strings.TrimSpace(name), AutoDetect) {
		detection, err := Detect(raw)
		if err != nil {
			return "", "", err
		}
		name = detection.Charset
	}

	enc, canonical, err := Lookup(name)
	if err != nil {
		return "", "", err
	}
	body, err := io.ReadAll(utfbom.SkipOnly(bytes.NewReader(raw)))
	if err != nil {
		return "", "", fmt.Errorf("read input: %w", err)
	}

	if canonical == UTF8 {
		if !utf8.Valid(body) {
			return "", "", fmt.Errorf("%w: input is not valid %s", ErrConversionFailure, canonical)
		}
		return string(body), canonical, nil
	}

	decoded, _, err := transform.Bytes(enc.NewDecoder(), body)
	if err != nil {
		return "", "", fmt.Errorf("%w: decode %s: %v", ErrConversionFailure, canonical, err)
	}
	// Legacy decoders substitute U+FFFD for byte sequences they cannot map.
	if !isUnicodeFamily(canonical) && bytes.ContainsRune(decoded, utf8.RuneError) {
		return "", "", fmt.Errorf("%w: input contains bytes that are not valid %s", ErrConversionFailure, canonical)
	}
	return string(decoded), canonical, nil
}

// Encode converts UTF-8 text into the named encoding.
func Encode(text string, name string) ([]byte, error) {
	enc, canonical, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	if canonical == UTF8 {
		return []byte(text), nil
	}
	encoded, _, err := transform.Bytes(enc.NewEncoder(), []byte(text))
	if err != nil {
		return nil, fmt.Errorf("%w: encode %s: %v", ErrConversionFailure, canonical, err)
	}
	return encoded, nil
}

func bomEncoding(raw []byte) (string, bool) {
	_, bom := utfbom.Skip(bytes.NewReader(raw))
	switch bom {
	case utfbom.UTF8:
		return UTF8, true
	case utfbom.UTF16BigEndian:
		return "utf-16be", true
	case utfbom.UTF16LittleEndian:
		return "utf-16le", true
	case utfbom.UTF32BigEndian:
		return "utf-32be", true
	case utfbom.UTF32LittleEndian:
		return "utf-32le", true
	default:
		return "", false
	}
}

func isUnicodeFamily(canonical string) bool {
	return strings.HasPrefix(canonical, "utf-")
}
