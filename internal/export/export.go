// Package export reads and writes the alarm collection as a portable
// document: JSON or YAML for backup and restore, iCalendar for calendars.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/manav03panchal/waketime/internal/errors"
	"github.com/manav03panchal/waketime/internal/model"
)

// Version is the document format version.
const Version = "1"

// Format is an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatICal Format = "ical"
)

// ParseFormat accepts a format name or a common file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "ical", "ics", "icalendar":
		return FormatICal, nil
	}
	return "", errors.NewUserError(
		fmt.Sprintf("unknown export format '%s'", s),
		"Use json, yaml or ical",
	)
}

// FormatFromPath guesses the format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", false
	}
	f, err := ParseFormat(ext)
	if err != nil {
		return "", false
	}
	return f, true
}

// Document is the whole alarm collection under a single key.
type Document struct {
	Version    string         `json:"version" yaml:"version"`
	ExportedAt time.Time      `json:"exported_at" yaml:"exported_at"`
	Alarms     []*model.Alarm `json:"alarms" yaml:"alarms"`
}

// NewDocument wraps alarms for export. Registration ids are device-local
// and are not exported.
func NewDocument(alarms []*model.Alarm, now time.Time) *Document {
	doc := &Document{
		Version:    Version,
		ExportedAt: now,
		Alarms:     make([]*model.Alarm, 0, len(alarms)),
	}
	for _, a := range alarms {
		c := a.Clone()
		c.NotificationIDs = []string{}
		doc.Alarms = append(doc.Alarms, c)
	}
	return doc
}

// Write encodes the document in the given format.
func Write(w io.Writer, doc *Document, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case FormatICal:
		return WriteICal(w, doc.Alarms, doc.ExportedAt)
	}
	return fmt.Errorf("unsupported export format %q", format)
}

// Read decodes a JSON or YAML collection. Both the document form and a
// bare list of alarms are accepted.
func Read(r io.Reader, format Format) ([]*model.Alarm, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []*model.Alarm{}, nil
	}

	var alarms []*model.Alarm
	switch format {
	case FormatJSON:
		alarms, err = readJSON(data)
	case FormatYAML:
		alarms, err = readYAML(data)
	default:
		return nil, errors.NewUserError(
			fmt.Sprintf("cannot import %s", format),
			"Import a json or yaml export",
		)
	}
	if err != nil {
		return nil, errors.NewUserError(
			fmt.Sprintf("invalid %s document: %v", format, err),
			"Check that the file was produced by 'waketime export'",
		)
	}

	for _, a := range alarms {
		if a == nil {
			continue
		}
		if a.History == nil {
			a.History = []model.TriggerEvent{}
		}
		a.NotificationIDs = []string{}
	}
	return compact(alarms), nil
}

func readJSON(data []byte) ([]*model.Alarm, error) {
	if data[0] == '[' {
		var list []*model.Alarm
		err := json.Unmarshal(data, &list)
		return list, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.Alarms, nil
}

func readYAML(data []byte) ([]*model.Alarm, error) {
	var list []*model.Alarm
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.Alarms, nil
}

func compact(alarms []*model.Alarm) []*model.Alarm {
	out := alarms[:0]
	for _, a := range alarms {
		if a != nil {
			out = append(out, a)
		}
	}
	return out
}
