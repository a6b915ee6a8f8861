package location

import (
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"
)

// FieldType is the JSON type a layout slot must hold.
type FieldType int

const (
	TypeString FieldType = iota
	TypeNumber
	TypeFlag      // Bool, or an integer where non-zero means true
	TypeTimestamp // Non-negative integer, milliseconds since the Unix epoch
	TypeBattery   // Integer in 0-255
)

func (t FieldType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeNumber:
		return "number"
	case TypeFlag:
		return "flag"
	case TypeTimestamp:
		return "millisecond timestamp"
	case TypeBattery:
		return "battery level"
	}
	return fmt.Sprintf("FieldType(%d)", int(t))
}

// Field maps one positional slot of a sharer record onto a Location field.
type Field struct {
	Name     string
	Path     Path
	Required bool
	Type     FieldType
	NonEmpty bool // String fields only, rejects ""

	// BlockOptional marks a field whose top-level slot may itself be missing
	// or null, in which case the field is absent. Otherwise a short array
	// anywhere along Path is malformed, even for optional fields.
	BlockOptional bool

	set func(loc *Location, v any)
}

// Layout is a versioned table of the slots that make up a sharer record.
type Layout struct {
	Version *semver.Version
	Fields  []Field
}

// SharingLayout is the record layout served for the pinned pb parameter
// (map version 407105169). Bump Version whenever a slot moves.
var SharingLayout = Layout{
	Version: semver.MustParse("1.0.0"),
	Fields: []Field{
		{Name: "person.id", Path: Path{6, 0}, Required: true, Type: TypeString, NonEmpty: true,
			set: func(l *Location, v any) { l.Person.ID = v.(string) }},
		{Name: "person.picture_url", Path: Path{6, 1}, Type: TypeString,
			set: func(l *Location, v any) { s := v.(string); l.Person.PictureURL = &s }},
		{Name: "person.full_name", Path: Path{6, 2}, Required: true, Type: TypeString, NonEmpty: true,
			set: func(l *Location, v any) { l.Person.FullName = v.(string) }},
		{Name: "person.nickname", Path: Path{6, 3}, Type: TypeString,
			set: func(l *Location, v any) { s := v.(string); l.Person.Nickname = &s }},
		{Name: "latitude", Path: Path{1, 1, 2}, Required: true, Type: TypeNumber,
			set: func(l *Location, v any) { l.Latitude = v.(float64) }},
		{Name: "longitude", Path: Path{1, 1, 1}, Required: true, Type: TypeNumber,
			set: func(l *Location, v any) { l.Longitude = v.(float64) }},
		{Name: "timestamp", Path: Path{1, 2}, Required: true, Type: TypeTimestamp,
			set: func(l *Location, v any) { t := v.(time.Time); l.Timestamp = &t }},
		{Name: "accuracy", Path: Path{1, 3}, Type: TypeNumber,
			set: func(l *Location, v any) { f := v.(float64); l.Accuracy = &f }},
		{Name: "address", Path: Path{1, 4}, Type: TypeString,
			set: func(l *Location, v any) { s := v.(string); l.Address = &s }},
		{Name: "country_code", Path: Path{1, 6}, Type: TypeString,
			set: func(l *Location, v any) { s := v.(string); l.CountryCode = &s }},
		{Name: "charging", Path: Path{13, 0}, Type: TypeFlag, BlockOptional: true,
			set: func(l *Location, v any) { b := v.(bool); l.Charging = &b }},
		{Name: "battery", Path: Path{13, 1}, Type: TypeBattery, BlockOptional: true,
			set: func(l *Location, v any) { b := v.(uint8); l.Battery = &b }},
	},
}

// Decode evaluates every field of the layout against record. The first failing
// field aborts the whole record. A null leaf leaves an optional field absent,
// but a missing index is always malformed unless the field is BlockOptional.
func (l Layout) Decode(record Value) (Location, error) {
	if record.Kind() != KindArray {
		return Location{}, malformed(nil, "value should be an array", record.Render())
	}

	var loc Location
	for _, field := range l.Fields {
		if field.BlockOptional && len(field.Path) > 0 {
			if block, ok := record.Index(field.Path[0]); !ok || block.IsNull() {
				continue
			}
		}

		raw, err := walk(record, field.Path)
		if err != nil {
			return Location{}, err
		}
		if raw.IsNull() && !field.Required {
			continue
		}

		v, ok := convert(field.Type, raw)
		if !ok {
			return Location{}, malformed(field.Path, fmt.Sprintf("%s was not a %s", raw.Render(), field.Type), "")
		}
		if s, isString := v.(string); field.NonEmpty && isString && s == "" {
			return Location{}, malformed(field.Path, `"" was not a non-empty string`, "")
		}
		field.set(&loc, v)
	}
	return loc, nil
}

func convert(t FieldType, v Value) (any, bool) {
	switch t {
	case TypeString:
		return v.Str()
	case TypeNumber:
		return v.Float()
	case TypeFlag:
		if b, ok := v.Bool(); ok {
			return b, true
		}
		i, ok := v.Int()
		if !ok {
			return nil, false
		}
		return i != 0, true
	case TypeTimestamp:
		ms, ok := v.Int()
		if !ok || ms < 0 {
			return nil, false
		}
		return time.Unix(ms/1000, 0).UTC(), true
	case TypeBattery:
		level, ok := v.Int()
		if !ok || level < 0 || level > 255 {
			return nil, false
		}
		return uint8(level), true
	}
	return nil, false
}
