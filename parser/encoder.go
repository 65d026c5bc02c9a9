package parser

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// maxSingleFrameBytes is the largest payload that fits a classic CAN single frame.
const maxSingleFrameBytes = 7

// DIDRecord is one DID and its record, both hex.
type DIDRecord struct {
	DID  string
	Data string
}

type DTCStatusRecord struct {
	DTC    string
	Status byte
}

type ExtendedDataRecord struct {
	Record string
	Data   string
}

// SnapshotRecord is one record of a snapshot-by-DTC-number report.
type SnapshotRecord struct {
	Number byte
	DIDs   []DIDRecord
}

// frame prefixes payload with its ISO-TP length: one byte for a single frame, the
// 0x1LLL first frame header otherwise.
func frame(payload string) string {
	payload = strings.ToUpper(payload)
	n := len(payload) / 2
	if n <= maxSingleFrameBytes {
		return fmt.Sprintf("%02X", n) + payload
	}
	return fmt.Sprintf("1%03X", n&0xFFF) + payload
}

func MakeNegativeResponse(sid, nrc byte) string {
	return frame(fmt.Sprintf("%02X%02X%02X", negativeResponseSID, sid, nrc))
}

// MakePositiveResponse frames body behind the positive response id of request sid.
func MakePositiveResponse(sid byte, body string) string {
	return frame(fmt.Sprintf("%02X", sid+positiveResponseOffset) + body)
}

func MakeReadDataByIdentifierResponse(records ...DIDRecord) string {
	var body strings.Builder
	for _, r := range records {
		body.WriteString(strings.ToUpper(r.DID))
		body.WriteString(strings.ToUpper(r.Data))
	}
	return MakePositiveResponse(ServiceReadDataByIdentifier, body.String())
}

// MakeCombinedResponse wraps records in the composite DID.
func MakeCombinedResponse(composite string, records ...DIDRecord) string {
	return MakeReadDataByIdentifierResponse(append([]DIDRecord{{DID: composite}}, records...)...)
}

func MakeDTCByStatusMaskResponse(mask byte, records ...DTCStatusRecord) string {
	body := ReportDTCByStatusMask + fmt.Sprintf("%02X", mask)
	for _, r := range records {
		body += fmt.Sprintf("%s%02X", dictionaryDTC(r.DTC), r.Status)
	}
	return MakePositiveResponse(ServiceReadDTCInformation, body)
}

func MakeDTCSnapshotRecordResponse(dtc string, status byte, records ...SnapshotRecord) string {
	body := ReportDTCSnapshotRecordByNumber + fmt.Sprintf("%s%02X", dictionaryDTC(dtc), status)
	for _, r := range records {
		body += fmt.Sprintf("%02X%02X", r.Number, len(r.DIDs))
		for _, did := range r.DIDs {
			body += strings.ToUpper(did.DID + did.Data)
		}
	}
	return MakePositiveResponse(ServiceReadDTCInformation, body)
}

func MakeDTCExtendedDataResponse(dtc string, status byte, records ...ExtendedDataRecord) string {
	body := ReportDTCExtDataRecordByNumber + fmt.Sprintf("%s%02X", dictionaryDTC(dtc), status)
	for _, r := range records {
		body += strings.ToUpper(r.Record + r.Data)
	}
	return MakePositiveResponse(ServiceReadDTCInformation, body)
}

func dictionaryDTC(dtc string) string {
	dtc = strings.ToUpper(strings.TrimPrefix(strings.TrimPrefix(dtc, "0x"), "0X"))
	if len(dtc) < dtcBytes*2 {
		dtc = strings.Repeat("0", dtcBytes*2-len(dtc)) + dtc
	}
	return dtc
}

// EncodeNumber writes v big-endian into size bytes of hex. Higher bits are dropped.
func EncodeNumber(v uint64, size int) string {
	b := make([]byte, size)
	for i := size - 1; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return strings.ToUpper(hex.EncodeToString(b))
}

// EncodePartNumber builds a 7 byte part number record from 8 digits and a suffix of up
// to 3 characters. A short suffix is padded with NUL.
func EncodePartNumber(digits, suffix string) (string, error) {
	if len(digits) != partNumberDigits || !isDecimal(digits) {
		return "", fmt.Errorf("part number digits %q are not 8 decimal digits", digits)
	}
	if len(suffix) > suffixBytes {
		return "", fmt.Errorf("part number suffix %q is longer than %d characters", suffix, suffixBytes)
	}
	padded := make([]byte, suffixBytes)
	copy(padded, suffix)
	return digits + strings.ToUpper(hex.EncodeToString(padded)), nil
}

// EncodePartNumberList prefixes already encoded records with their count.
func EncodePartNumberList(records ...string) string {
	return fmt.Sprintf("%02X", len(records)) + strings.ToUpper(strings.Join(records, ""))
}
