package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/openfms/uds-decoder/dictionary"
	"github.com/openfms/uds-decoder/statusbits"
	"go.uber.org/zap"
)

// ReadDTCInformation report types.
const (
	ReportDTCByStatusMask           = "02"
	ReportDTCSnapshotIdentification = "03"
	ReportDTCSnapshotRecordByNumber = "04"
	ReportDTCExtDataRecordByNumber  = "06"
)

const (
	dtcBytes          = 3
	statusRecordBytes = dtcBytes + 1
)

type DTCReport struct {
	ReportType       string                `json:"report_type"`
	AvailabilityMask *statusbits.DtcStatus `json:"availability_mask,omitempty"`
	Records          []*DTCRecord          `json:"records"`
	UnmatchedData    string                `json:"unmatched_data,omitempty"`
}

func (*DTCReport) isServiceDetails() {}

type DTCRecord struct {
	DtcID          string                `json:"dtc_id"`
	Name           string                `json:"name,omitempty"`
	Status         *statusbits.DtcStatus `json:"status,omitempty"`
	SnapshotRecord string                `json:"snapshot_record,omitempty"`
	Attributes     map[string]string     `json:"attributes,omitempty"`
	SnapshotDIDs   []string              `json:"snapshot_dids,omitempty"`
	Snapshots      []*DecodedDid         `json:"snapshots,omitempty"`
	ExtendedData   *ExtendedData         `json:"extended_data,omitempty"`
}

// ExtendedData holds the DTC extended data records that were found, keyed by record number.
type ExtendedData struct {
	OccurrenceCounters map[string]int               `json:"occurrence_counters,omitempty"`
	FDC10              *int                         `json:"fdc10,omitempty"`
	Timestamp20        *uint32                      `json:"timestamp20,omitempty"`
	Timestamp21        *uint32                      `json:"timestamp21,omitempty"`
	SI30               *statusbits.StatusIndicators `json:"si30,omitempty"`
	// SI30Bits reads the SI30 byte as hex, SI30DecimalBits reads its two digits as a
	// decimal number. ECUs disagree on which one they mean.
	SI30Bits        string `json:"si30_bits,omitempty"`
	SI30DecimalBits string `json:"si30_decimal_bits,omitempty"`
	UnmatchedData   string `json:"unmatched_data,omitempty"`
}

type extendedDataField struct {
	record string
	size   int
}

// extendedDataFields is consumed in this order; a record out of order ends up unmatched.
var extendedDataFields = []extendedDataField{
	{record: "01", size: 1},
	{record: "02", size: 1},
	{record: "03", size: 1},
	{record: "04", size: 1},
	{record: "05", size: 1},
	{record: "06", size: 1},
	{record: "10", size: 1},
	{record: "20", size: 4},
	{record: "21", size: 4},
	{record: "30", size: 1},
}

// DecodeDTCReport decodes the body of a 0x59 response. Unsupported report types give an
// empty report.
func (d *Decoder) DecodeDTCReport(body string, scope *dictionary.Scope) *DTCReport {
	reportType, rest := takeBytes(body, 1)
	report := &DTCReport{ReportType: reportType, Records: []*DTCRecord{}}
	switch reportType {
	case ReportDTCByStatusMask:
		d.decodeByStatusMask(report, rest)
	case ReportDTCSnapshotIdentification:
		d.decodeSnapshotIdentification(report, rest)
	case ReportDTCSnapshotRecordByNumber:
		d.decodeSnapshotRecord(report, rest, scope)
	case ReportDTCExtDataRecordByNumber:
		d.decodeExtendedData(report, rest)
	default:
		d.log.Warn("unsupported dtc report type",
			zap.String("report_type", reportType),
			zap.String("body", body),
		)
	}
	return report
}

func (d *Decoder) newDTCRecord(id string) *DTCRecord {
	rec := &DTCRecord{DtcID: dictionary.CanonicalDTC(id)}
	if info, ok := d.dict.DTCInfo(rec.DtcID); ok {
		rec.Name = info.Name
		rec.Attributes = info.Attributes
		rec.SnapshotDIDs = info.SnapshotDIDs
	}
	return rec
}

func statusOf(hexByte string) *statusbits.DtcStatus {
	st, err := statusbits.DtcStatusFromHex(hexByte)
	if err != nil {
		return nil
	}
	return st
}

func (d *Decoder) decodeByStatusMask(report *DTCReport, rest string) {
	mask, rest := takeBytes(rest, 1)
	report.AvailabilityMask = statusOf(mask)
	for len(rest) >= statusRecordBytes*2 {
		var dtc, status string
		dtc, rest = takeBytes(rest, dtcBytes)
		status, rest = takeBytes(rest, 1)
		rec := d.newDTCRecord(dtc)
		rec.Status = statusOf(status)
		report.Records = append(report.Records, rec)
	}
	report.UnmatchedData = rest
}

func (d *Decoder) decodeSnapshotIdentification(report *DTCReport, rest string) {
	for len(rest) >= statusRecordBytes*2 {
		var dtc, snapshot string
		dtc, rest = takeBytes(rest, dtcBytes)
		snapshot, rest = takeBytes(rest, 1)
		rec := d.newDTCRecord(dtc)
		rec.SnapshotRecord = snapshot
		report.Records = append(report.Records, rec)
	}
	report.UnmatchedData = rest
}

// decodeSnapshotRecord reads DTC, status and then (record number, DID count, (DID, data)*)
// repeatedly. DID sizes come from the DTC's snapshot DIDs when the dictionary has them.
func (d *Decoder) decodeSnapshotRecord(report *DTCReport, rest string, scope *dictionary.Scope) {
	if len(rest) < statusRecordBytes*2 {
		report.UnmatchedData = rest
		return
	}
	dtc, rest := takeBytes(rest, dtcBytes)
	status, rest := takeBytes(rest, 1)
	rec := d.newDTCRecord(dtc)
	rec.Status = statusOf(status)
	report.Records = append(report.Records, rec)

	snapshotScope := scope
	if len(rec.SnapshotDIDs) > 0 {
		if restricted := scope.Restrict(rec.SnapshotDIDs); restricted.Len() > 0 {
			snapshotScope = restricted
		}
	}

	for len(rest) >= 4 {
		recordNumber, cursor := takeBytes(rest, 1)
		countHex, cursor := takeBytes(cursor, 1)
		count, err := hexToNumber[int](countHex)
		if err != nil {
			break
		}
		var snapshots []*DecodedDid
		complete := true
		for i := 0; i < count; i++ {
			did, data := takeBytes(cursor, 2)
			entry, known := snapshotScope.Lookup(did)
			if len(did) < 4 || !known {
				d.log.Warn("unknown did in dtc snapshot",
					zap.String("dtc", rec.DtcID),
					zap.String("record", recordNumber),
					zap.String("did", did),
				)
				complete = false
				break
			}
			item := data[:d.itemLength(did, entry, data)]
			snapshots = append(snapshots, d.newDecodedDid(did, item, snapshotScope))
			cursor = data[len(item):]
		}
		if !complete {
			break
		}
		if rec.SnapshotRecord == "" {
			rec.SnapshotRecord = recordNumber
		}
		rec.Snapshots = append(rec.Snapshots, snapshots...)
		rest = cursor
	}
	report.UnmatchedData = rest
}

func (d *Decoder) decodeExtendedData(report *DTCReport, rest string) {
	if len(rest) < statusRecordBytes*2 {
		report.UnmatchedData = rest
		return
	}
	dtc, rest := takeBytes(rest, dtcBytes)
	status, rest := takeBytes(rest, 1)
	rec := d.newDTCRecord(dtc)
	rec.Status = statusOf(status)
	rec.ExtendedData = d.parseExtendedData(rest)
	report.Records = append(report.Records, rec)
}

func (d *Decoder) parseExtendedData(rest string) *ExtendedData {
	ext := &ExtendedData{OccurrenceCounters: map[string]int{}}
	for _, field := range extendedDataFields {
		width := 2 + field.size*2
		if !strings.HasPrefix(rest, field.record) || len(rest) < width {
			continue
		}
		value := rest[2:width]
		rest = rest[width:]
		switch field.record {
		case "10":
			v, _ := hexToNumber[uint8](value)
			fdc := int(int8(v))
			ext.FDC10 = &fdc
		case "20":
			ts, _ := hexToNumber[uint32](value)
			ext.Timestamp20 = &ts
		case "21":
			ts, _ := hexToNumber[uint32](value)
			ext.Timestamp21 = &ts
		case "30":
			si, err := statusbits.StatusIndicatorsFromHex(value)
			if err != nil {
				d.log.Warn("invalid si30 value", zap.String("value", value), zap.Error(err))
				continue
			}
			ext.SI30 = si
			ext.SI30Bits = si.BitString()
			ext.SI30DecimalBits = decimalBits(value)
		default:
			n, _ := hexToNumber[int](value)
			ext.OccurrenceCounters[field.record] = n
		}
	}
	ext.UnmatchedData = rest
	return ext
}

// decimalBits reads the two digits of a byte as a decimal number and renders it as 8 bits.
func decimalBits(value string) string {
	n, err := strconv.ParseUint(value, 10, 8)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%08b", n)
}
