package parser

import (
	"sort"
	"strings"

	"github.com/openfms/uds-decoder/dictionary"
	"go.uber.org/zap"
)

const (
	partNumberListDID     = "F12E"
	partNumberRecordBytes = 7
	serialNumberBytes     = 4
)

// DecodedDid is one DID found in a response.
type DecodedDid struct {
	DID             string            `json:"did"`
	Name            string            `json:"name,omitempty"`
	RawItem         string            `json:"raw_item"`
	Info            *dictionary.Entry `json:"info,omitempty"`
	ResponseItems   []ScaledField     `json:"response_items,omitempty"`
	PartNumberValid *bool             `json:"part_number_valid,omitempty"`
	PrettyValue     string            `json:"pretty_value,omitempty"`
	PartNumbers     []string          `json:"part_numbers,omitempty"`
	// DroppedFields names the response items that could not be scaled; FieldErrors says why.
	DroppedFields []string `json:"dropped_fields,omitempty"`
	FieldErrors   error    `json:"-"`
}

// DIDReport is the result of a ReadDataByIdentifier response.
type DIDReport struct {
	DIDs     []*DecodedDid `json:"dids"`
	Combined bool          `json:"combined,omitempty"`
}

func (*DIDReport) isServiceDetails() {}

// didProcessor post-processes a DID after its response items are scaled.
// Composite DIDs carry other DIDs back to back instead of a record of their own.
type didProcessor struct {
	composite bool
	apply     func(d *Decoder, did *DecodedDid)
}

var didProcessors = map[string]didProcessor{
	"EDA0": {composite: true},
	"F120": {apply: (*Decoder).processPartNumber},
	"F121": {apply: (*Decoder).processPartNumber},
	"F122": {apply: (*Decoder).processPartNumber},
	"F124": {apply: (*Decoder).processPartNumber},
	"F125": {apply: (*Decoder).processPartNumber},
	"F12A": {apply: (*Decoder).processPartNumber},
	"F12B": {apply: (*Decoder).processPartNumber},
	"F12C": {apply: (*Decoder).processPartNumber},
	"F12E": {apply: (*Decoder).processPartNumberList},
	"F18C": {apply: (*Decoder).processSerialNumber},
}

// DecodeReadDataByIdentifier decodes the body of a 0x62 response: a DID and its record,
// a composite DID, or several DIDs back to back.
func (d *Decoder) DecodeReadDataByIdentifier(body string, scope *dictionary.Scope) *DIDReport {
	did, rest := takeBytes(body, 2)
	if len(did) < 4 {
		d.log.Warn("read data by identifier response without did", zap.String("body", body))
		return &DIDReport{}
	}
	if proc, ok := didProcessors[did]; ok && proc.composite {
		return &DIDReport{DIDs: d.ExtractCombined(rest, scope), Combined: true}
	}
	decoded := d.Extract(did, rest, scope)
	report := &DIDReport{DIDs: []*DecodedDid{decoded}}

	rest = rest[len(decoded.RawItem):]
	if rest == "" {
		return report
	}
	if next, _ := takeBytes(rest, 2); len(next) == 4 {
		if _, known := scope.Lookup(next); known {
			report.DIDs = append(report.DIDs, d.ExtractCombined(rest, scope)...)
			report.Combined = true
			return report
		}
	}
	d.log.Warn("trailing data after did record",
		zap.String("did", did),
		zap.String("trailing", rest),
	)
	return report
}

// Extract decodes a single DID whose record starts at the front of data. The record is
// as long as the dictionary declares, or whatever is left when data is shorter.
func (d *Decoder) Extract(did string, data string, scope *dictionary.Scope) *DecodedDid {
	did = dictionary.CanonicalDID(did)
	item := data
	if entry, ok := scope.Lookup(did); ok {
		item = data[:d.itemLength(did, entry, data)]
	}
	return d.newDecodedDid(did, item, scope)
}

type didMatch struct {
	did string
	pos int
}

// ExtractCombined finds every DID of scope in body. DIDs are matched on byte boundaries,
// in position order, and a DID code inside an already matched record is not a match.
func (d *Decoder) ExtractCombined(body string, scope *dictionary.Scope) []*DecodedDid {
	var candidates []didMatch
	for _, did := range scope.DIDs() {
		entry, _ := scope.Lookup(did)
		if proc := didProcessors[did]; proc.composite {
			continue
		}
		if entry.Size <= 0 && did != partNumberListDID {
			continue
		}
		for from := 0; from < len(body); {
			idx := strings.Index(body[from:], did)
			if idx < 0 {
				break
			}
			pos := from + idx
			if pos%2 == 0 {
				candidates = append(candidates, didMatch{did: did, pos: pos})
			}
			from = pos + 1
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].pos == candidates[j].pos {
			return candidates[i].did < candidates[j].did
		}
		return candidates[i].pos < candidates[j].pos
	})

	var (
		out     []*DecodedDid
		claimed int
	)
	for _, c := range candidates {
		if c.pos < claimed {
			continue
		}
		entry, _ := scope.Lookup(c.did)
		data := body[c.pos+4:]
		item := data[:d.itemLength(c.did, entry, data)]
		claimed = c.pos + 4 + len(item)
		out = append(out, d.newDecodedDid(c.did, item, scope))
	}
	if claimed < len(body) {
		d.log.Debug("unmatched data after combined dids", zap.String("data", body[claimed:]))
	}
	return out
}

// itemLength returns the record length of did in hex digits, never more than data holds.
func (d *Decoder) itemLength(did string, entry dictionary.Entry, data string) int {
	n := entry.Size * 2
	if did == partNumberListDID {
		if derived, ok := partNumberListLength(data); ok && derived != n {
			if n > 0 {
				d.log.Warn("part number list length disagrees with dictionary, using record count",
					zap.String("did", did),
					zap.Int("dictionary_size", entry.Size),
					zap.Int("derived_size", derived/2),
				)
			}
			n = derived
		}
	}
	if n <= 0 || n > len(data) {
		n = len(data)
	}
	return n
}

// partNumberListLength derives the F12E record length from its leading count byte.
func partNumberListLength(data string) (int, bool) {
	if len(data) < 2 {
		return 0, false
	}
	count, err := hexToNumber[int](data[:2])
	if err != nil {
		return 0, false
	}
	return (1 + count*partNumberRecordBytes) * 2, true
}

func (d *Decoder) newDecodedDid(did, item string, scope *dictionary.Scope) *DecodedDid {
	out := &DecodedDid{DID: did, RawItem: item}
	entry, known := scope.Lookup(did)
	if known {
		out.Info = &entry
		out.Name = entry.Name
	}
	out.ResponseItems, out.DroppedFields, out.FieldErrors = d.scaleItems(did, item, entry)
	if proc, ok := didProcessors[did]; ok && proc.apply != nil {
		proc.apply(d, out)
	}
	return out
}

func (d *Decoder) processPartNumber(did *DecodedDid) {
	valid := ValidatePartNumber(did.RawItem)
	did.PartNumberValid = &valid
	did.PrettyValue = PrettyPrintPartNumber(did.RawItem, d.log)
}

func (d *Decoder) processPartNumberList(did *DecodedDid) {
	valid := ValidatePartNumberList(did.RawItem)
	did.PartNumberValid = &valid
	records, err := splitRecords(did.RawItem, partNumberRecordBytes)
	if err != nil {
		d.log.Warn("part number list is not count prefixed",
			zap.String("did", did.DID),
			zap.String("item", did.RawItem),
			zap.Error(err),
		)
		return
	}
	for _, record := range records {
		did.PartNumbers = append(did.PartNumbers, PrettyPrintPartNumber(record, d.log))
	}
	did.PrettyValue = strings.Join(did.PartNumbers, " ")
}

func (d *Decoder) processSerialNumber(did *DecodedDid) {
	valid := ValidateSerialNumber(did.RawItem)
	did.PartNumberValid = &valid
	if !valid {
		d.log.Warn("invalid serial number", zap.String("did", did.DID), zap.String("item", did.RawItem))
	}
	did.PrettyValue = did.RawItem
}
