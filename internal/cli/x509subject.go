package cli

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"strings"
)

// validRDNAttrs are the RDN keys accepted in the legacy
// yubico-piv-tool-style subject syntax ("/CN=.../O=...").
var validRDNAttrs = map[string]bool{
	"CN": true, "O": true, "OU": true, "C": true, "L": true, "ST": true, "emailAddress": true,
}

var specialChars = "," + "=" + "+" + "<" + ">" + "#" + ";" + `"` + `\`

// emailAddressOID is the PKCS#9 emailAddress attribute OID, used because
// pkix.Name has no dedicated email field.
var emailAddressOID = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 1}

// parseSubject parses a slash-delimited RDN subject string in the legacy
// yubico-piv-tool/OpenSSL style ("/CN=name/O=org/C=US") into a
// [pkix.Name], used by `yb format --subject` when asking the device to
// self-sign a freshly generated key (§6.2).
//
// This is the one place this module falls back to the standard library
// by necessity rather than preference: no third-party RDN-string parser
// appears anywhere in the retrieved corpus.
func parseSubject(subject string) (pkix.Name, error) {
	if !strings.HasPrefix(subject, "/") {
		return pkix.Name{}, fmt.Errorf("subject %q: must start with '/'", subject)
	}

	trimmed := strings.TrimSuffix(subject, "/")
	parts := strings.Split(trimmed, "/")[1:]

	var name pkix.Name

	for _, part := range parts {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return pkix.Name{}, fmt.Errorf("subject %q: missing '=' in RDN %q", subject, part)
		}

		if !validRDNAttrs[key] {
			return pkix.Name{}, fmt.Errorf("subject %q: invalid RDN attribute %q", subject, key)
		}

		if err := checkRDNValue(key, value); err != nil {
			return pkix.Name{}, fmt.Errorf("subject %q: %w", subject, err)
		}

		addRDN(&name, key, value)
	}

	return name, nil
}

func checkRDNValue(key, value string) error {
	for i := 0; i < len(value); i++ {
		if value[i] == '\\' {
			i++

			continue
		}

		if strings.IndexByte(specialChars, value[i]) >= 0 {
			return fmt.Errorf("unescaped special character %q in value for %s", value[i], key)
		}
	}

	escaped := strings.HasPrefix(value, `\`)
	if !escaped && (strings.HasPrefix(value, " ") || strings.HasSuffix(value, " ") || strings.HasPrefix(value, "#")) {
		return fmt.Errorf("leading/trailing spaces or '#' must be escaped in value: %s", value)
	}

	return nil
}

func addRDN(name *pkix.Name, key, value string) {
	switch key {
	case "CN":
		name.CommonName = value
	case "O":
		name.Organization = append(name.Organization, value)
	case "OU":
		name.OrganizationalUnit = append(name.OrganizationalUnit, value)
	case "C":
		name.Country = append(name.Country, value)
	case "L":
		name.Locality = append(name.Locality, value)
	case "ST":
		name.Province = append(name.Province, value)
	case "emailAddress":
		name.ExtraNames = append(name.ExtraNames, pkix.AttributeTypeAndValue{Type: emailAddressOID, Value: value})
	}
}
