package tls

import "errors"

const (
	extSNI  = 0x0000
	extALPN = 0x0010
)

var errMalformedExtension = errors.New("tls: malformed extension")

// parseExtensions walks the ClientHello extension block (each entry is
// 2 bytes type + 2 bytes length + payload) and fills in ch.serverName and
// ch.alpn from the SNI (0x0000) and ALPN (0x0010) extensions, per
// spec.md §4.B step 6. Unrecognized extension types are skipped.
func parseExtensions(exts []byte, ch *clientHello) error {
	for len(exts) >= 4 {
		extType := int(exts[0])<<8 | int(exts[1])
		extLen := int(exts[2])<<8 | int(exts[3])
		exts = exts[4:]
		if extLen > len(exts) {
			return errMalformedExtension
		}
		payload := exts[:extLen]
		exts = exts[extLen:]

		switch extType {
		case extSNI:
			name, err := parseSNIExtension(payload)
			if err != nil {
				return err
			}
			if ch.serverName == "" {
				ch.serverName = name
			}
		case extALPN:
			protos, err := parseALPNExtension(payload)
			if err != nil {
				return err
			}
			ch.alpn = append(ch.alpn, protos...)
		}
	}
	if len(exts) != 0 {
		return errMalformedExtension
	}
	return nil
}

// parseSNIExtension extracts the first name-type-0x00 entry from an SNI
// extension payload: 2-byte list length, then a sequence of entries each
// 1-byte name-type + 2-byte name length + name. Returns "" with a nil error
// if the list is well-formed but contains no host-name entry.
func parseSNIExtension(payload []byte) (string, error) {
	if len(payload) < 2 {
		return "", errMalformedExtension
	}
	listLen := int(payload[0])<<8 | int(payload[1])
	if listLen+2 > len(payload) {
		return "", errMalformedExtension
	}
	names := payload[2 : 2+listLen]

	for len(names) >= 3 {
		nameType := names[0]
		nameLen := int(names[1])<<8 | int(names[2])
		names = names[3:]
		if nameLen > len(names) {
			return "", errMalformedExtension
		}
		name := names[:nameLen]
		names = names[nameLen:]
		if nameType == 0x00 {
			return string(name), nil
		}
	}
	return "", nil
}

// parseALPNExtension extracts every protocol name from an ALPN extension
// payload: 2-byte list length, then a sequence of 1-byte proto length +
// proto bytes entries.
func parseALPNExtension(payload []byte) ([]string, error) {
	if len(payload) < 2 {
		return nil, errMalformedExtension
	}
	listLen := int(payload[0])<<8 | int(payload[1])
	if listLen+2 > len(payload) {
		return nil, errMalformedExtension
	}
	list := payload[2 : 2+listLen]

	var protos []string
	for len(list) >= 1 {
		n := int(list[0])
		list = list[1:]
		if n > len(list) {
			return nil, errMalformedExtension
		}
		protos = append(protos, string(list[:n]))
		list = list[n:]
	}
	return protos, nil
}
