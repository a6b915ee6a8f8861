package location

import (
	"bytes"
	"fmt"
)

// antiHijackPrefix is what the service prepends to every JSON body.
const antiHijackPrefix = ")]}'"

// DecodeRecord decodes one sharer record using SharingLayout.
func DecodeRecord(record Value) (Location, error) {
	return SharingLayout.Decode(record)
}

// DecodeEnvelope decodes a raw response body: a 4-byte prefix followed by a JSON
// array whose first element is the list of sharer records. Records keep the
// server's order. A single bad record fails the whole call.
func DecodeEnvelope(body []byte) ([]Location, error) {
	prefixLen := len(antiHijackPrefix)
	if len(body) < prefixLen {
		return nil, malformed(nil, "body shorter than anti-hijacking prefix", fmt.Sprintf("%q", body))
	}

	prefix, payload := body[:prefixLen], body[prefixLen:]
	root, err := ParseValue(payload)
	if err != nil {
		reason := fmt.Sprintf("invalid JSON after prefix: %v", err)
		if !bytes.Equal(prefix, []byte(antiHijackPrefix)) {
			reason = fmt.Sprintf("%s; unexpected prefix %q", reason, prefix)
		}
		return nil, malformed(nil, reason, "")
	}

	first, _ := root.Index(0)
	records, ok := first.Array()
	if !ok {
		return nil, malformed(nil, "missing record array", root.Render())
	}

	locations := make([]Location, 0, len(records))
	for i, record := range records {
		loc, err := DecodeRecord(record)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		locations = append(locations, loc)
	}
	return locations, nil
}
