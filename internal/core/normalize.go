package core

import (
	"strings"
	"unicode/utf8"
)

// Field names a logical sentinel user attribute.
type Field string

const (
	FieldUsername  Field = "username"
	FieldPassword  Field = "password"
	FieldDept      Field = "dept"
	FieldFullname  Field = "fullname"
	FieldSetup     Field = "setup"
	FieldSetupCode Field = "setupcode"
	FieldApptCode  Field = "apptcode"
	FieldRemarks   Field = "remarks"
	FieldIPAddress Field = "ipAddress"
)

// FieldSpec describes how a logical field is found in a CSV header row and
// how long its value may be. MaxLen 0 means unbounded.
type FieldSpec struct {
	Field   Field
	Aliases []string
	MaxLen  int
}

// FieldSpecs is the header alias table. Aliases are tried in order.
var FieldSpecs = []FieldSpec{
	{Field: FieldUsername, Aliases: []string{"username", "user"}, MaxLen: 50},
	{Field: FieldPassword, Aliases: []string{"password"}, MaxLen: 255},
	{Field: FieldDept, Aliases: []string{"dept", "department"}, MaxLen: 100},
	{Field: FieldFullname, Aliases: []string{"fullname", "full_name", "full name"}, MaxLen: 100},
	{Field: FieldSetup, Aliases: []string{"setup"}, MaxLen: 100},
	{Field: FieldSetupCode, Aliases: []string{"setupcode", "setup_code", "setup code"}, MaxLen: 50},
	{Field: FieldApptCode, Aliases: []string{"apptcode", "appt_code", "appt code"}, MaxLen: 50},
	{Field: FieldRemarks, Aliases: []string{"remarks"}, MaxLen: 0},
	{Field: FieldIPAddress, Aliases: []string{"ip_address", "ip address", "ip", "ipaddress"}, MaxLen: 45},
}

// MaxLen returns the length limit for f, or 0 when unbounded.
func MaxLen(f Field) int {
	for _, spec := range FieldSpecs {
		if spec.Field == f {
			return spec.MaxLen
		}
	}
	return 0
}

// CanonicalKey lower-cases s and strips everything but ASCII letters and digits,
// so "Full Name", "full_name" and "FULLNAME" compare equal.
func CanonicalKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Sanitize removes NUL bytes, replaces other ASCII control characters
// (except tab, LF and CR) with a space, trims surrounding whitespace and
// truncates to maxLen characters when maxLen > 0.
func Sanitize(value string, maxLen int) string {
	if value == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		switch {
		case r == 0x00:
			continue
		case r <= 0x08, r == 0x0B, r == 0x0C, r >= 0x0E && r <= 0x1F:
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}

	out := strings.TrimSpace(b.String())
	if maxLen > 0 && utf8.RuneCountInString(out) > maxLen {
		out = string([]rune(out)[:maxLen])
	}
	return out
}

// HeaderMap maps each logical field to the raw header key that supplies it.
// Fields with no matching header are absent.
type HeaderMap map[Field]string

// ResolveHeaders matches a header row against FieldSpecs. Headers are compared
// by CanonicalKey; when two headers canonicalize the same way the later one
// wins. An alias that equals a raw header exactly is used as a fallback.
func ResolveHeaders(headers []string) HeaderMap {
	canonical := make(map[string]string, len(headers))
	raw := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		if h == "" {
			continue
		}
		raw[h] = struct{}{}
		if key := CanonicalKey(h); key != "" {
			canonical[key] = h
		}
	}

	hm := make(HeaderMap, len(FieldSpecs))
	for _, spec := range FieldSpecs {
		for _, alias := range spec.Aliases {
			if h, ok := canonical[CanonicalKey(alias)]; ok {
				hm[spec.Field] = h
				break
			}
			if _, ok := raw[alias]; ok {
				hm[spec.Field] = alias
				break
			}
		}
	}
	return hm
}

// Value returns the sanitized value of f in row, or "" when the column is absent.
func (hm HeaderMap) Value(row ImportRow, f Field) string {
	key, ok := hm[f]
	if !ok {
		return ""
	}
	return Sanitize(row.Values[key], MaxLen(f))
}

// Username returns the normalized username of row.
func (hm HeaderMap) Username(row ImportRow) string {
	return hm.Value(row, FieldUsername)
}

// Normalize builds the full NormalizedRecord for row.
func (hm HeaderMap) Normalize(row ImportRow) NormalizedRecord {
	return NormalizedRecord{
		Username:  hm.Value(row, FieldUsername),
		Password:  hm.Value(row, FieldPassword),
		Dept:      hm.Value(row, FieldDept),
		Fullname:  hm.Value(row, FieldFullname),
		Setup:     hm.Value(row, FieldSetup),
		SetupCode: hm.Value(row, FieldSetupCode),
		ApptCode:  hm.Value(row, FieldApptCode),
		Remarks:   hm.Value(row, FieldRemarks),
		IPAddress: hm.Value(row, FieldIPAddress),
	}
}

// SanitizeRecord applies the field limits to a record built outside the CSV
// pipeline, such as a JSON create or update body.
func SanitizeRecord(rec NormalizedRecord) NormalizedRecord {
	return NormalizedRecord{
		Username:  Sanitize(rec.Username, MaxLen(FieldUsername)),
		Password:  Sanitize(rec.Password, MaxLen(FieldPassword)),
		Dept:      Sanitize(rec.Dept, MaxLen(FieldDept)),
		Fullname:  Sanitize(rec.Fullname, MaxLen(FieldFullname)),
		Setup:     Sanitize(rec.Setup, MaxLen(FieldSetup)),
		SetupCode: Sanitize(rec.SetupCode, MaxLen(FieldSetupCode)),
		ApptCode:  Sanitize(rec.ApptCode, MaxLen(FieldApptCode)),
		Remarks:   Sanitize(rec.Remarks, MaxLen(FieldRemarks)),
		IPAddress: Sanitize(rec.IPAddress, MaxLen(FieldIPAddress)),
	}
}
