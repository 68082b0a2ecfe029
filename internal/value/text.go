package value

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	json "github.com/goccy/go-json"

	"github.com/kadirbelkuyu/unisql/internal/dberr"
)

const (
	DateLayout     = "2006-01-02"
	TimeLayout     = "15:04:05.999999"
	DateTimeLayout = "2006-01-02 15:04:05.999999"
)

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp reads text in one of the two supported layouts, plain
// seconds first.
func ParseTimestamp(text string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, text)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, &dberr.ConvertError{Source: fmt.Sprintf("Text(%s)", text), Target: "time.Time", Err: lastErr}
}

// NormalizeJSON parses raw and writes it back in compact form. Numbers keep
// their original text.
func NormalizeJSON(raw []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return "", fmt.Errorf("failed to parse json: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("failed to encode json: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// SniffBlob turns jpeg and png payloads into a base64 data URI and keeps
// everything else as a Blob.
func SniffBlob(b []byte) Value {
	mt := mimetype.Detect(b)
	if mt.Is("image/jpeg") || mt.Is("image/png") {
		return ImageURI("data:" + mt.String() + ";base64," + base64.StdEncoding.EncodeToString(b))
	}
	return Blob(b)
}

// DecodeImageURI returns the payload carried by a base64 data URI.
func DecodeImageURI(uri string) ([]byte, error) {
	_, payload, found := strings.Cut(uri, ";base64,")
	if !strings.HasPrefix(uri, "data:") || !found {
		return nil, fmt.Errorf("not a base64 data uri: %.32q", uri)
	}
	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode data uri: %w", err)
	}
	return b, nil
}

// FromFixedChar trims the padding of a fixed width character cell.
func FromFixedChar(s string) Value {
	s = strings.TrimRight(s, " ")
	if r, ok := SingleRune(s); ok {
		return Char(r)
	}
	return Text(s)
}
