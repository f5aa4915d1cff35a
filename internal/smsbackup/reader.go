// Package smsbackup reads raw messages from SMS backup exports.
package smsbackup

import (
	"bufio"
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/the-sms-must-flow/internal/common"
	"github.com/Veraticus/the-sms-must-flow/internal/model"
)

// Format identifies a backup file layout.
type Format string

// Supported formats.
const (
	// FormatXML is the SMS Backup & Restore layout: <smses><sms address body date/></smses>.
	FormatXML Format = "xml"
	// FormatJSON is an array of {address, body, date} objects.
	FormatJSON Format = "json"
)

// ReadFile reads a backup file, choosing the format from the extension and
// falling back to the first significant byte of the content.
func ReadFile(path string) ([]model.RawMessage, error) {
	f, err := os.Open(path) //nolint:gosec // Path comes from the command line
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	defer func() { _ = f.Close() }()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return Read(f, FormatXML)
	case ".json":
		return Read(f, FormatJSON)
	}

	br := bufio.NewReader(f)
	format, err := sniff(br)
	if err != nil {
		return nil, err
	}
	return Read(br, format)
}

func sniff(br *bufio.Reader) (Format, error) {
	for {
		b, err := br.Peek(1)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", fmt.Errorf("%w: empty input", common.ErrUnsupportedFormat)
			}
			return "", fmt.Errorf("error reading input: %w", err)
		}
		switch {
		case bytes.ContainsAny(b, " \t\r\n"):
			_, _ = br.ReadByte()
		case b[0] == '\xef':
			// UTF-8 byte order mark.
			if _, err := br.Discard(3); err != nil {
				return "", fmt.Errorf("error reading input: %w", err)
			}
		case b[0] == '<':
			return FormatXML, nil
		case b[0] == '[':
			return FormatJSON, nil
		default:
			return "", fmt.Errorf("%w: unexpected leading %q", common.ErrUnsupportedFormat, b[0])
		}
	}
}

// Read decodes messages from r in the given format.
func Read(r io.Reader, format Format) ([]model.RawMessage, error) {
	switch format {
	case FormatXML:
		return readXML(r)
	case FormatJSON:
		return readJSON(r)
	default:
		return nil, fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, format)
	}
}

// readXML streams <sms> elements so large backups need not be held twice in
// memory. Elements other than <sms> (such as <mms>) are skipped.
func readXML(r io.Reader) ([]model.RawMessage, error) {
	dec := xml.NewDecoder(r)
	var msgs []model.RawMessage

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error parsing XML: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "sms" {
			continue
		}

		var msg model.RawMessage
		if err := dec.DecodeElement(&msg, &start); err != nil {
			return nil, fmt.Errorf("error parsing XML: %w", err)
		}
		msgs = append(msgs, msg)
	}

	return msgs, nil
}

func readJSON(r io.Reader) ([]model.RawMessage, error) {
	var msgs []model.RawMessage
	if err := json.NewDecoder(r).Decode(&msgs); err != nil {
		return nil, fmt.Errorf("error parsing JSON: %w", err)
	}
	return msgs, nil
}

// Dedupe drops repeated messages, keeping the first occurrence. Messages are
// identical when their date, address and body all match.
func Dedupe(msgs []model.RawMessage) []model.RawMessage {
	seen := make(map[string]struct{}, len(msgs))
	out := make([]model.RawMessage, 0, len(msgs))
	for _, m := range msgs {
		sig := m.Hash()
		if _, ok := seen[sig]; ok {
			continue
		}
		seen[sig] = struct{}{}
		out = append(out, m)
	}
	return out
}
