package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// FlexInt accepts both 12 and "12" in the source files.
type FlexInt int

func (n *FlexInt) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("not an integer: %s", data)
	}
	*n = FlexInt(v)
	return nil
}

var errNoSlokaNumber = errors.New("no sloka_number")

// Record is one verse entry of a chapter file. SlokaNumber is decoded per
// record so a combined number like "13-14" skips only that entry.
type Record struct {
	Chapter        FlexInt         `json:"chapter"`
	ChapterName    string          `json:"chapter_name,omitempty"`
	SlokaNumber    json.RawMessage `json:"sloka_number,omitempty"`
	SlokaTitle     string          `json:"sloka_title,omitempty"`
	SlokaText      string          `json:"sloka_text"`
	TeluguMeaning  string          `json:"telugu_meaning"`
	EnglishMeaning string          `json:"english_meaning"`
}

func (r Record) slokaNumber() (int, error) {
	raw := strings.TrimSpace(string(r.SlokaNumber))
	if raw == "" || raw == "null" {
		return 0, errNoSlokaNumber
	}
	var n FlexInt
	if err := json.Unmarshal(r.SlokaNumber, &n); err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r Record) title() string {
	if r.SlokaTitle != "" {
		return r.SlokaTitle
	}
	return "Unknown"
}

func loadRecords(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return records, nil
}
