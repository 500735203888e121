package schema

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"net/netip"
	"net/url"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the layout of the date format (RFC 3339 full-date).
const DateLayout = "2006-01-02"

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)
	hostnameRegex = regexp.MustCompile(`^(?i)[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?(\.[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?)*$`)
)

// Format is a named format a schema can declare.
type Format struct {
	// Check validates a normalized value (string, int64, float64, ...). It
	// returns nil for values of a type the format does not apply to. A nil
	// Check accepts everything.
	Check func(v any) error
	// Convert turns a checked string into its typed form when converting
	// requests. A nil Convert keeps the string.
	Convert func(s string) (any, error)
}

var (
	formatsMu sync.RWMutex
	formats   = map[string]Format{
		"int32":     {Check: checkInt32},
		"int64":     {Check: checkInt64},
		"float":     {Check: checkFloat},
		"double":    {},
		"byte":      {Check: stringCheck(checkByte), Convert: convertByte},
		"binary":    {},
		"date":      {Check: stringCheck(checkDate), Convert: convertDate},
		"date-time": {Check: stringCheck(checkDateTime), Convert: convertDateTime},
		"password":  {},
		"email":     {Check: stringCheck(checkEmail)},
		"uuid":      {Check: stringCheck(checkUUID)},
		"uri":       {Check: stringCheck(checkURI)},
		"ipv4":      {Check: stringCheck(checkIPv4)},
		"ipv6":      {Check: stringCheck(checkIPv6)},
		"hostname":  {Check: stringCheck(checkHostname)},
	}
)

// RegisterFormat adds a format or replaces a built-in one. The compiler
// resolves formats when it compiles a schema, so register formats before
// compiling the documents that use them.
func RegisterFormat(name string, f Format) {
	formatsMu.Lock()
	defer formatsMu.Unlock()
	formats[name] = f
}

// LookupFormat returns the registered format called name.
func LookupFormat(name string) (Format, bool) {
	formatsMu.RLock()
	defer formatsMu.RUnlock()
	f, ok := formats[name]
	return f, ok
}

// KnownFormat reports whether the format is registered.
func KnownFormat(name string) bool {
	_, ok := LookupFormat(name)
	return ok
}

// CheckFormat validates a normalized value (string, int64, float64, ...)
// against a format. Unknown formats and values of other types pass.
func CheckFormat(format string, v any) error {
	f, ok := LookupFormat(format)
	if !ok || f.Check == nil {
		return nil
	}
	return f.Check(v)
}

func stringCheck(fn func(string) error) func(any) error {
	return func(v any) error {
		s, ok := v.(string)
		if !ok {
			return nil
		}
		return fn(s)
	}
}

func checkInt32(v any) error {
	switch n := v.(type) {
	case int64:
		if n < math.MinInt32 || n > math.MaxInt32 {
			return fmt.Errorf("%d is out of int32 range", n)
		}
	case float64:
		if n < math.MinInt32 || n > math.MaxInt32 {
			return fmt.Errorf("%v is out of int32 range", n)
		}
	}
	return nil
}

func checkInt64(v any) error {
	if n, ok := v.(float64); ok && (n < math.MinInt64 || n >= math.MaxInt64) {
		return fmt.Errorf("%v is out of int64 range", n)
	}
	return nil
}

func checkFloat(v any) error {
	if n, ok := v.(float64); ok && !math.IsInf(n, 0) && math.Abs(n) > math.MaxFloat32 {
		return fmt.Errorf("%v is out of float range", n)
	}
	return nil
}

func checkByte(s string) error {
	if _, err := base64.StdEncoding.DecodeString(s); err != nil {
		return errors.New("not valid base64")
	}
	return nil
}

func checkDate(s string) error {
	if _, err := time.Parse(DateLayout, s); err != nil {
		return errors.New("not a valid RFC 3339 full-date")
	}
	return nil
}

func checkDateTime(s string) error {
	if _, err := time.Parse(time.RFC3339, s); err != nil {
		return errors.New("not a valid RFC 3339 date-time")
	}
	return nil
}

func convertByte(s string) (any, error) {
	return base64.StdEncoding.DecodeString(s)
}

func convertDate(s string) (any, error) {
	return time.Parse(DateLayout, s)
}

func convertDateTime(s string) (any, error) {
	return time.Parse(time.RFC3339, s)
}

func checkEmail(s string) error {
	if !emailRegex.MatchString(s) {
		return errors.New("not a valid email address")
	}
	return nil
}

func checkUUID(s string) error {
	if len(s) != 36 {
		return errors.New("not a valid UUID")
	}
	if _, err := uuid.Parse(s); err != nil {
		return errors.New("not a valid UUID")
	}
	return nil
}

func checkURI(s string) error {
	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() {
		return errors.New("not a valid absolute URI")
	}
	return nil
}

func checkIPv4(s string) error {
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is4() {
		return errors.New("not a valid IPv4 address")
	}
	return nil
}

func checkIPv6(s string) error {
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is6() {
		return errors.New("not a valid IPv6 address")
	}
	return nil
}

func checkHostname(s string) error {
	if len(s) > 253 || !hostnameRegex.MatchString(s) {
		return errors.New("not a valid hostname")
	}
	return nil
}
