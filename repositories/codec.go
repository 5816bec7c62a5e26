package repositories

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

// Values are stored in protobuf wire format so that a .proto schema can be
// introduced later without migrating existing data.
//
//	message Message { int64 id = 1; string nickname = 2; string payload = 3; string type = 4; int64 at = 5; }
//	message Account { string nickname = 1; string password_hash = 2; bool online = 3; int64 created_at = 4; }
//	message Counter { int64 value = 1; }

func marshalMessage(m DiskMessage) []byte {
	var b []byte
	b = appendVarint(b, 1, uint64(m.ID))
	b = appendString(b, 2, m.Nickname)
	b = appendString(b, 3, m.Payload)
	b = appendString(b, 4, m.Type)
	b = appendVarint(b, 5, uint64(m.At.UnixNano()))
	return b
}

func unmarshalMessage(b []byte, zone *time.Location) (DiskMessage, error) {
	var m DiskMessage
	err := walkFields(b, func(num protowire.Number, varint uint64, str string) {
		switch num {
		case 1:
			m.ID = int64(varint)
		case 2:
			m.Nickname = str
		case 3:
			m.Payload = str
		case 4:
			m.Type = str
		case 5:
			m.At = time.Unix(0, int64(varint)).In(zone)
		}
	})
	return m, err
}

func marshalAccount(a Account) []byte {
	var b []byte
	b = appendString(b, 1, a.Nickname)
	b = appendString(b, 2, a.PasswordHash)
	b = appendVarint(b, 3, protowire.EncodeBool(a.Online))
	b = appendVarint(b, 4, uint64(a.CreatedAt.Unix()))
	return b
}

func unmarshalAccount(b []byte) (Account, error) {
	var a Account
	err := walkFields(b, func(num protowire.Number, varint uint64, str string) {
		switch num {
		case 1:
			a.Nickname = str
		case 2:
			a.PasswordHash = str
		case 3:
			a.Online = protowire.DecodeBool(varint)
		case 4:
			a.CreatedAt = time.Unix(int64(varint), 0).UTC()
		}
	})
	return a, err
}

func marshalCounter(v int64) []byte {
	return appendVarint(nil, 1, uint64(v))
}

func unmarshalCounter(b []byte) (int64, error) {
	var v int64
	err := walkFields(b, func(num protowire.Number, varint uint64, _ string) {
		if num == 1 {
			v = int64(varint)
		}
	})
	return v, err
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

// walkFields decodes varint and length-delimited fields and skips anything else.
func walkFields(b []byte, visit func(num protowire.Number, varint uint64, str string)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("decode tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("decode field %d: %w", num, protowire.ParseError(n))
			}
			visit(num, v, "")
			b = b[n:]
		case protowire.BytesType:
			s, n := protowire.ConsumeString(b)
			if n < 0 {
				return fmt.Errorf("decode field %d: %w", num, protowire.ParseError(n))
			}
			visit(num, 0, s)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("skip field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return nil
}
