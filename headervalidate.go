package h2

import "strings"

// forbiddenHeaders are connection-specific fields that must never
// appear in an HTTP/2 header list (RFC 7540 §8.1.2.2).
var forbiddenHeaders = map[string]bool{
	"connection":        true,
	"proxy-connection":  true,
	"keep-alive":        true,
	"transfer-encoding": true,
	"upgrade":           true,
}

// validateHeaderList applies RFC 7540 §8.1.2 ordering/charset rules and
// the request/response pseudo-header shape, after HPACK decompression
// and before the list is surfaced to the application. isRequest
// distinguishes which pseudo-header set applies (a trailing header
// list, with no pseudo-headers at all, is also valid and short-circuits
// here).
func validateHeaderList(fields []HeaderField, isRequest bool) error {
	seenRegular := false
	pseudo := map[string]string{}

	for _, hf := range fields {
		if hf.IsPseudo() {
			if seenRegular {
				return streamError(0, ProtocolError, "pseudo-header %q after regular headers", hf.Name)
			}
			if _, dup := pseudo[hf.Name]; dup {
				return streamError(0, ProtocolError, "duplicate pseudo-header %q", hf.Name)
			}
			pseudo[hf.Name] = hf.Value
			continue
		}
		seenRegular = true

		if err := validateFieldName(hf.Name); err != nil {
			return err
		}
		if forbiddenHeaders[hf.Name] {
			return streamError(0, ProtocolError, "forbidden connection-specific header %q", hf.Name)
		}
		if hf.Name == "te" && hf.Value != "trailers" {
			return streamError(0, ProtocolError, "te header value %q != trailers", hf.Value)
		}
	}

	if len(pseudo) == 0 {
		return nil // trailers: no pseudo-headers expected
	}
	if isRequest {
		return validateRequestPseudo(pseudo)
	}
	return validateResponsePseudo(pseudo)
}

func validateFieldName(name string) error {
	if name == "" {
		return streamError(0, ProtocolError, "empty header name")
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'A' && c <= 'Z' {
			return streamError(0, ProtocolError, "uppercase header name %q", name)
		}
		if c <= 0x20 || c == 0x7f {
			return streamError(0, ProtocolError, "invalid character in header name %q", name)
		}
	}
	return nil
}

var allowedRequestPseudo = map[string]bool{
	":method": true, ":scheme": true, ":path": true, ":authority": true,
}

func validateRequestPseudo(pseudo map[string]string) error {
	for name := range pseudo {
		if !allowedRequestPseudo[name] {
			return streamError(0, ProtocolError, "unknown request pseudo-header %q", name)
		}
	}

	method, hasMethod := pseudo[":method"]
	if !hasMethod {
		return streamError(0, ProtocolError, "missing :method")
	}
	path, hasPath := pseudo[":path"]
	scheme, hasScheme := pseudo[":scheme"]
	_, hasAuthority := pseudo[":authority"]

	if method == "CONNECT" {
		if hasScheme || hasPath {
			return streamError(0, ProtocolError, "CONNECT must not carry :scheme or :path")
		}
		if !hasAuthority {
			return streamError(0, ProtocolError, "CONNECT missing :authority")
		}
		return nil
	}

	if !hasScheme {
		return streamError(0, ProtocolError, "missing :scheme")
	}
	if !hasPath || path == "" {
		return streamError(0, ProtocolError, "missing or empty :path")
	}
	return nil
}

func validateResponsePseudo(pseudo map[string]string) error {
	for name := range pseudo {
		if name != ":status" {
			return streamError(0, ProtocolError, "unknown response pseudo-header %q", name)
		}
	}
	status, ok := pseudo[":status"]
	if !ok {
		return streamError(0, ProtocolError, "missing :status")
	}
	if len(status) != 3 {
		return streamError(0, ProtocolError, ":status %q is not 3 digits", status)
	}
	for i := 0; i < 3; i++ {
		if status[i] < '0' || status[i] > '9' {
			return streamError(0, ProtocolError, ":status %q is not all-digit", status)
		}
	}
	return nil
}

// lowercaseName folds a caller-supplied header name to lowercase, since
// HPACK requires lowercase names on the wire (RFC 7541 §5.2 note;
// RFC 7540 §8.1.2).
func lowercaseName(s string) string {
	return strings.ToLower(s)
}
