package model

import (
	"encoding/binary"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Byte widths of the encodable key fields. IPs are always written in
// 16-byte form so IPv4 and IPv6 keys have the same layout.
const (
	IPByteSize    = 16
	PortByteSize  = 2
	ProtoByteSize = 1
)

// KeySize returns the encoded byte width of a key built from fields.
func KeySize(fields []string) int {
	size := 0
	for _, f := range fields {
		size += fieldByteSize(f)
	}
	return size
}

// ValidateFields rejects key-field names that EncodeKey does not know.
func ValidateFields(fields []string) error {
	if len(fields) == 0 {
		return fmt.Errorf("key_fields must not be empty")
	}
	for _, f := range fields {
		if fieldByteSize(f) == 0 {
			return fmt.Errorf("unknown key field %q", f)
		}
	}
	return nil
}

// EncodeKey writes the selected fields of pkt into buf, which must be at
// least KeySize(fields) long, and returns the filled prefix.
func EncodeKey(buf []byte, fields []string, pkt *Packet) []byte {
	offset := 0
	for _, f := range fields {
		switch f {
		case "SrcIP":
			copy(buf[offset:], pkt.SrcIP.To16())
			offset += IPByteSize
		case "DstIP":
			copy(buf[offset:], pkt.DstIP.To16())
			offset += IPByteSize
		case "SrcPort":
			binary.BigEndian.PutUint16(buf[offset:], pkt.SrcPort)
			offset += PortByteSize
		case "DstPort":
			binary.BigEndian.PutUint16(buf[offset:], pkt.DstPort)
			offset += PortByteSize
		case "Protocol":
			buf[offset] = pkt.Protocol
			offset += ProtoByteSize
		}
	}
	return buf[:offset]
}

// FormatKey renders an encoded key as a space-separated human-readable
// string, in field order.
func FormatKey(key []byte, fields []string) string {
	var parts []string
	offset := 0
	for _, f := range fields {
		switch f {
		case "SrcIP", "DstIP":
			parts = append(parts, net.IP(key[offset:offset+IPByteSize]).String())
			offset += IPByteSize
		case "SrcPort", "DstPort":
			parts = append(parts, strconv.Itoa(int(binary.BigEndian.Uint16(key[offset:]))))
			offset += PortByteSize
		case "Protocol":
			parts = append(parts, strconv.Itoa(int(key[offset])))
			offset += ProtoByteSize
		}
	}
	return strings.Join(parts, " ")
}

// ParseKey is the inverse of FormatKey: it encodes a space-separated field
// value string into key bytes.
func ParseKey(text string, fields []string) ([]byte, error) {
	values := strings.Fields(text)
	if len(values) != len(fields) {
		return nil, fmt.Errorf("key %q has %d values, want %d for fields %v",
			text, len(values), len(fields), fields)
	}

	key := make([]byte, KeySize(fields))
	offset := 0
	for i, f := range fields {
		switch f {
		case "SrcIP", "DstIP":
			ip := net.ParseIP(values[i])
			if ip == nil {
				return nil, fmt.Errorf("invalid IP %q for field %s", values[i], f)
			}
			copy(key[offset:], ip.To16())
			offset += IPByteSize
		case "SrcPort", "DstPort":
			port, err := strconv.ParseUint(values[i], 10, 16)
			if err != nil {
				return nil, fmt.Errorf("invalid port %q for field %s: %w", values[i], f, err)
			}
			binary.BigEndian.PutUint16(key[offset:], uint16(port))
			offset += PortByteSize
		case "Protocol":
			proto, err := strconv.ParseUint(values[i], 10, 8)
			if err != nil {
				return nil, fmt.Errorf("invalid protocol %q: %w", values[i], err)
			}
			key[offset] = byte(proto)
			offset += ProtoByteSize
		default:
			return nil, fmt.Errorf("unknown key field %q", f)
		}
	}
	return key, nil
}

func fieldByteSize(field string) int {
	switch field {
	case "SrcIP", "DstIP":
		return IPByteSize
	case "SrcPort", "DstPort":
		return PortByteSize
	case "Protocol":
		return ProtoByteSize
	default:
		return 0
	}
}
