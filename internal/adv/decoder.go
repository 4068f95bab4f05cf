// Package adv decodes BLE advertisement payloads into their AD structures.
package adv

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

// Type is an AD structure type code.
type Type byte

const (
	TypeFlags            Type = 0x01
	TypeIncomplete16     Type = 0x02
	TypeComplete16       Type = 0x03
	TypeShortName        Type = 0x08
	TypeCompleteName     Type = 0x09
	TypeServiceData16    Type = 0x16
	TypeManufacturerData Type = 0xFF
)

// Hex rendering bounds per element kind.
const (
	maxManufacturerHex = 32
	maxServiceDataHex  = 16
	maxOtherHex        = 16
)

func (t Type) String() string {
	switch t {
	case TypeFlags:
		return "Flags"
	case TypeIncomplete16:
		return "Incomplete 16-bit UUIDs"
	case TypeComplete16:
		return "Complete 16-bit UUIDs"
	case TypeShortName:
		return "Shortened Local Name"
	case TypeCompleteName:
		return "Complete Local Name"
	case TypeServiceData16:
		return "Service Data (16-bit UUID)"
	case TypeManufacturerData:
		return "Manufacturer Specific Data"
	default:
		return fmt.Sprintf("Type 0x%02X", byte(t))
	}
}

// Element is one decoded AD structure. Only the fields relevant to Type
// are populated; Hex always carries the bounded raw rendering of whatever
// bytes were not otherwise decoded.
type Element struct {
	Type      Type
	Flags     string   // TypeFlags
	Text      string   // local names
	CompanyID uint16   // manufacturer data
	Company   string   // manufacturer data
	UUIDs     []uint16 // UUID lists
	UUID      uint16   // service data
	Hex       string
}

// String renders the element as one report line.
func (e Element) String() string {
	switch e.Type {
	case TypeFlags:
		return fmt.Sprintf("%s: %s", e.Type, e.Flags)
	case TypeShortName, TypeCompleteName:
		return fmt.Sprintf("%s: %s", e.Type, e.Text)
	case TypeManufacturerData:
		s := fmt.Sprintf("%s: %s (0x%04X)", e.Type, e.Company, e.CompanyID)
		if e.Hex != "" {
			s += " " + e.Hex
		}
		return s
	case TypeIncomplete16, TypeComplete16:
		ids := make([]string, len(e.UUIDs))
		for i, u := range e.UUIDs {
			ids[i] = fmt.Sprintf("0x%04X", u)
		}
		return fmt.Sprintf("%s: %s", e.Type, strings.Join(ids, ", "))
	case TypeServiceData16:
		return fmt.Sprintf("%s: 0x%04X %s", e.Type, e.UUID, e.Hex)
	default:
		return fmt.Sprintf("%s: %s", e.Type, e.Hex)
	}
}

// Decode parses raw advertisement bytes. It stops without error at a zero
// length byte or at a structure whose declared length runs past the end of
// the buffer; everything decoded before that point is returned.
func Decode(b []byte) []Element {
	var out []Element
	for i := 0; i < len(b); {
		l := int(b[i])
		if l == 0 || i+1+l > len(b) {
			break
		}
		typ := Type(b[i+1])
		data := b[i+2 : i+1+l]
		out = append(out, decodeElement(typ, data))
		i += 1 + l
	}
	return out
}

func decodeElement(typ Type, data []byte) Element {
	e := Element{Type: typ}
	switch typ {
	case TypeFlags:
		var f byte
		if len(data) > 0 {
			f = data[0]
		}
		e.Flags = FlagsString(f)
	case TypeShortName, TypeCompleteName:
		e.Text = asciiText(data)
	case TypeManufacturerData:
		if len(data) < 2 {
			e.Company = Unknown
			e.Hex = boundedHex(data, maxManufacturerHex)
			break
		}
		e.CompanyID = binary.LittleEndian.Uint16(data)
		e.Company = CompanyName(e.CompanyID)
		e.Hex = boundedHex(data[2:], maxManufacturerHex)
	case TypeIncomplete16, TypeComplete16:
		for j := 0; j+1 < len(data); j += 2 {
			e.UUIDs = append(e.UUIDs, binary.LittleEndian.Uint16(data[j:]))
		}
	case TypeServiceData16:
		if len(data) < 2 {
			e.Hex = boundedHex(data, maxServiceDataHex)
			break
		}
		e.UUID = binary.LittleEndian.Uint16(data)
		e.Hex = boundedHex(data[2:], maxServiceDataHex)
	default:
		e.Hex = boundedHex(data, maxOtherHex)
	}
	return e
}

var flagNames = []struct {
	bit  byte
	name string
}{
	{0x01, "LE Limited"},
	{0x02, "LE General"},
	{0x04, "No BR/EDR"},
	{0x08, "LE+BR/EDR Controller"},
	{0x10, "LE+BR/EDR Host"},
}

// FlagsString describes the set bits of an AD Flags byte.
func FlagsString(f byte) string {
	var parts []string
	for _, fl := range flagNames {
		if f&fl.bit != 0 {
			parts = append(parts, fl.name)
		}
	}
	if len(parts) == 0 {
		return "None"
	}
	return strings.Join(parts, ", ")
}

// asciiText keeps printable ASCII and replaces everything else with '.'.
func asciiText(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		if c >= 0x20 && c < 0x7F {
			sb.WriteByte(c)
		} else {
			sb.WriteByte('.')
		}
	}
	return sb.String()
}

func boundedHex(b []byte, max int) string {
	if len(b) <= max {
		return strings.ToUpper(hex.EncodeToString(b))
	}
	return strings.ToUpper(hex.EncodeToString(b[:max])) + "..."
}
