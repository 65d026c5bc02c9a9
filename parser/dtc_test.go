package parser

import (
	"testing"

	"github.com/openfms/uds-decoder/dictionary"
	"gotest.tools/v3/assert"
)

func decodeDTCReport(t *testing.T, d *Decoder, raw string) *DTCReport {
	t.Helper()
	resp, err := d.Decode(raw, dictionary.SessionDefault)
	assert.NilError(t, err)
	report := resp.(*PositiveResponse).DTCReport()
	assert.Assert(t, report != nil)
	return report
}

func TestDecoder_DTCByStatusMask(t *testing.T) {
	d, _ := newTestDecoder(t)
	raw := MakeDTCByStatusMaskResponse(0xFF,
		DTCStatusRecord{DTC: "0xD01F16", Status: 0x24},
		DTCStatusRecord{DTC: "C12287", Status: 0xAF},
		DTCStatusRecord{DTC: "A00001", Status: 0x01},
	)
	report := decodeDTCReport(t, d, raw)

	assert.Equal(t, report.ReportType, ReportDTCByStatusMask)
	assert.Equal(t, report.AvailabilityMask.Hex(), "FF")
	assert.Equal(t, len(report.Records), 3)
	assert.Equal(t, report.UnmatchedData, "")

	battery := report.Records[0]
	assert.Equal(t, battery.DtcID, "D01F16")
	assert.Equal(t, battery.Name, "Battery voltage low")
	assert.DeepEqual(t, battery.Attributes, map[string]string{"severity": "2", "lamp": "MIL"})
	assert.DeepEqual(t, battery.SnapshotDIDs, []string{"DD01", "DD02"})
	assert.Assert(t, battery.Status.PendingDTC())
	assert.Assert(t, battery.Status.TestFailedSinceLastClear())
	assert.Assert(t, !battery.Status.TestFailed())

	brake := report.Records[1]
	assert.Equal(t, brake.Name, "Lost communication with brake module")
	assert.Assert(t, brake.Status.TestFailed())
	assert.Assert(t, brake.Status.WarningIndicatorRequested())

	unknown := report.Records[2]
	assert.Equal(t, unknown.DtcID, "A00001")
	assert.Equal(t, unknown.Name, "")
	assert.Assert(t, unknown.Attributes == nil)
}

func TestDecoder_DTCByStatusMaskPartialRecord(t *testing.T) {
	d, _ := newTestDecoder(t)
	report := decodeDTCReport(t, d, MakePositiveResponse(ServiceReadDTCInformation, "02FFD01F1624C122"))
	assert.Equal(t, len(report.Records), 1)
	assert.Equal(t, report.UnmatchedData, "C122")
}

func TestDecoder_DTCSnapshotIdentification(t *testing.T) {
	d, _ := newTestDecoder(t)
	report := decodeDTCReport(t, d, MakePositiveResponse(ServiceReadDTCInformation, "03D01F1601C1228702"))
	assert.Equal(t, len(report.Records), 2)
	assert.Equal(t, report.Records[0].DtcID, "D01F16")
	assert.Equal(t, report.Records[0].SnapshotRecord, "01")
	assert.Equal(t, report.Records[1].DtcID, "C12287")
	assert.Equal(t, report.Records[1].SnapshotRecord, "02")
	assert.Assert(t, report.Records[0].Status == nil)
}

func TestDecoder_DTCSnapshotRecord(t *testing.T) {
	d, logs := newTestDecoder(t)
	tests := map[string]struct {
		raw       string
		snapshots []string
		values    []int64
		unmatched string
		warnings  int
	}{
		"snapshot dids from report map": {
			raw: MakeDTCSnapshotRecordResponse("D01F16", 0x24, SnapshotRecord{
				Number: 1,
				DIDs:   []DIDRecord{{DID: "DD01", Data: "7B"}, {DID: "DD02", Data: "1F40"}},
			}),
			snapshots: []string{"DD01", "DD02"},
			values:    []int64{62, 80},
		},
		"two records": {
			raw: MakeDTCSnapshotRecordResponse("D01F16", 0x24,
				SnapshotRecord{Number: 1, DIDs: []DIDRecord{{DID: "DD01", Data: "10"}}},
				SnapshotRecord{Number: 2, DIDs: []DIDRecord{{DID: "DD01", Data: "20"}}},
			),
			snapshots: []string{"DD01", "DD01"},
			values:    []int64{8, 16},
		},
		"did outside snapshot dids": {
			raw: MakeDTCSnapshotRecordResponse("D01F16", 0x24, SnapshotRecord{
				Number: 1,
				DIDs:   []DIDRecord{{DID: "DD0B", Data: "64"}},
			}),
			unmatched: "0101DD0B64",
			warnings:  1,
		},
		"dtc without snapshot dids uses scope": {
			raw: MakeDTCSnapshotRecordResponse("C12287", 0x09, SnapshotRecord{
				Number: 1,
				DIDs:   []DIDRecord{{DID: "DD0B", Data: "64"}},
			}),
			snapshots: []string{"DD0B"},
			values:    []int64{60},
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			before := logs.Len()
			report := decodeDTCReport(t, d, tc.raw)
			assert.Equal(t, len(report.Records), 1)
			rec := report.Records[0]
			assert.DeepEqual(t, didCodes(rec.Snapshots), tc.snapshots)
			for i, value := range tc.values {
				assert.Equal(t, rec.Snapshots[i].ResponseItems[0].Value.Int, value)
			}
			assert.Equal(t, report.UnmatchedData, tc.unmatched)
			assert.Equal(t, logs.Len()-before, tc.warnings)
		})
	}
}

func TestDecoder_DTCExtendedData(t *testing.T) {
	d, _ := newTestDecoder(t)
	raw := MakeDTCExtendedDataResponse("D01F16", 0x2F,
		ExtendedDataRecord{Record: "01", Data: "05"},
		ExtendedDataRecord{Record: "03", Data: "02"},
		ExtendedDataRecord{Record: "10", Data: "FE"},
		ExtendedDataRecord{Record: "20", Data: "0001E240"},
		ExtendedDataRecord{Record: "30", Data: "19"},
		ExtendedDataRecord{Record: "99", Data: "AA"},
	)
	report := decodeDTCReport(t, d, raw)
	assert.Equal(t, len(report.Records), 1)
	rec := report.Records[0]
	assert.Equal(t, rec.Status.Hex(), "2F")

	ext := rec.ExtendedData
	assert.DeepEqual(t, ext.OccurrenceCounters, map[string]int{"01": 5, "03": 2})
	assert.Equal(t, *ext.FDC10, -2)
	assert.Equal(t, *ext.Timestamp20, uint32(123456))
	assert.Assert(t, ext.Timestamp21 == nil)
	assert.Assert(t, ext.SI30.UnconfirmedDTC())
	assert.Assert(t, ext.SI30.AgedDTC())
	assert.Assert(t, ext.SI30.SymptomSinceLastClear())
	assert.Equal(t, ext.SI30Bits, "00011001")
	assert.Equal(t, ext.SI30DecimalBits, "00010011")
	assert.Equal(t, ext.UnmatchedData, "99AA")
}

func TestDecoder_DTCExtendedDataSI30NotDecimal(t *testing.T) {
	d, _ := newTestDecoder(t)
	raw := MakeDTCExtendedDataResponse("D01F16", 0x00, ExtendedDataRecord{Record: "30", Data: "A1"})
	ext := decodeDTCReport(t, d, raw).Records[0].ExtendedData
	assert.Equal(t, ext.SI30Bits, "10100001")
	assert.Equal(t, ext.SI30DecimalBits, "")
	assert.Equal(t, ext.UnmatchedData, "")
}

func TestDecoder_DTCUnknownReportType(t *testing.T) {
	d, logs := newTestDecoder(t)
	report := decodeDTCReport(t, d, MakePositiveResponse(ServiceReadDTCInformation, "99D01F16"))
	assert.Equal(t, report.ReportType, "99")
	assert.Equal(t, len(report.Records), 0)
	assert.Equal(t, logs.FilterMessage("unsupported dtc report type").Len(), 1)
}
