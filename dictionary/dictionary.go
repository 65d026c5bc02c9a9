package dictionary

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownSessionMode = errors.New("unknown session mode")
	ErrInvalidDictionary  = errors.New("invalid did dictionary")
)

// Entry is one DID as compiled from the SDDB.
type Entry struct {
	DID          string `yaml:"did,omitempty" json:"did"`
	Name         string `yaml:"name" json:"name"`
	Size         int    `yaml:"size" json:"size"`
	Offset       int    `yaml:"offset,omitempty" json:"offset,omitempty"`
	Formula      string `yaml:"formula,omitempty" json:"formula,omitempty"`
	Unit         string `yaml:"unit,omitempty" json:"unit,omitempty"`
	CompareValue string `yaml:"compare_value,omitempty" json:"compare_value,omitempty"`
}

// Field is one named response item inside a DID payload. Offset and Size are in bytes.
type Field struct {
	Name         string `yaml:"name" json:"name"`
	Offset       int    `yaml:"offset" json:"offset"`
	Size         int    `yaml:"size" json:"size"`
	Formula      string `yaml:"formula,omitempty" json:"formula,omitempty"`
	CompareValue string `yaml:"compare_value,omitempty" json:"compare_value,omitempty"`
	Unit         string `yaml:"unit,omitempty" json:"unit,omitempty"`
	OutDataType  string `yaml:"outdatatype,omitempty" json:"outdatatype,omitempty"`
}

// DTC carries the vendor attributes of one trouble code.
type DTC struct {
	Name         string            `yaml:"name,omitempty" json:"name,omitempty"`
	Attributes   map[string]string `yaml:"attributes,omitempty" json:"attributes,omitempty"`
	SnapshotDIDs []string          `yaml:"snapshot_dids,omitempty" json:"snapshot_dids,omitempty"`
}

// Dictionary is the SDDB compiler output. It must not be modified after Parse or Load,
// which is what makes it safe to share between concurrent decoders.
type Dictionary struct {
	PBL            map[string]Entry   `yaml:"pbl_did_dict"`
	SBL            map[string]Entry   `yaml:"sbl_did_dict"`
	App            map[string]Entry   `yaml:"app_did_dict"`
	ResponseItems  map[string][]Field `yaml:"resp_item_dict"`
	PBLDiagPartNum string             `yaml:"pbl_diag_part_num"`
	AppDiagPartNum string             `yaml:"app_diag_part_num"`
	DTCs           map[string]DTC     `yaml:"sddb_dtcs"`
	ReportDTCs     map[string]DTC     `yaml:"sddb_report_dtc"`

	scopes map[SessionMode]*Scope
}

// Load reads a YAML (or JSON) dictionary file.
func Load(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Dictionary, error) {
	d := &Dictionary{}
	if err := yaml.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDictionary, err)
	}
	if err := d.normalize(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dictionary) normalize() error {
	var err error
	if d.PBL, err = normalizeEntries(d.PBL); err != nil {
		return err
	}
	if d.SBL, err = normalizeEntries(d.SBL); err != nil {
		return err
	}
	if d.App, err = normalizeEntries(d.App); err != nil {
		return err
	}
	items := make(map[string][]Field, len(d.ResponseItems))
	for did, fields := range d.ResponseItems {
		items[CanonicalDID(did)] = fields
	}
	d.ResponseItems = items
	d.DTCs = normalizeDTCs(d.DTCs)
	d.ReportDTCs = normalizeDTCs(d.ReportDTCs)

	d.scopes = map[SessionMode]*Scope{
		SessionUnknown:     newScope(d.App, d.PBL, d.SBL),
		SessionDefault:     newScope(d.App),
		SessionExtended:    newScope(d.App),
		SessionProgramming: newScope(d.PBL, d.SBL),
	}
	return nil
}

func normalizeEntries(in map[string]Entry) (map[string]Entry, error) {
	out := make(map[string]Entry, len(in))
	for key, entry := range in {
		did := CanonicalDID(key)
		if len(did) != 4 {
			return nil, fmt.Errorf("%w: did %q is not 4 hex digits", ErrInvalidDictionary, key)
		}
		if entry.Size < 0 {
			return nil, fmt.Errorf("%w: did %s has negative size", ErrInvalidDictionary, did)
		}
		entry.DID = did
		out[did] = entry
	}
	return out, nil
}

func normalizeDTCs(in map[string]DTC) map[string]DTC {
	out := make(map[string]DTC, len(in))
	for key, dtc := range in {
		for i, did := range dtc.SnapshotDIDs {
			dtc.SnapshotDIDs[i] = CanonicalDID(did)
		}
		out[CanonicalDTC(key)] = dtc
	}
	return out
}

// CanonicalDID upper-cases a DID key.
func CanonicalDID(did string) string {
	return strings.ToUpper(strings.TrimSpace(did))
}

// CanonicalDTC strips a leading 0x and upper-cases a DTC key.
func CanonicalDTC(dtc string) string {
	dtc = strings.TrimSpace(dtc)
	if strings.HasPrefix(dtc, "0x") || strings.HasPrefix(dtc, "0X") {
		dtc = dtc[2:]
	}
	return strings.ToUpper(dtc)
}

// Scope returns the DIDs visible in the given diagnostic session.
func (d *Dictionary) Scope(mode SessionMode) (*Scope, error) {
	scope, ok := d.scopes[mode]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSessionMode, int(mode))
	}
	return scope, nil
}

// Items returns the response item layout for did.
func (d *Dictionary) Items(did string) []Field {
	return d.ResponseItems[CanonicalDID(did)]
}

// DTCInfo merges the attribute and report maps for one DTC. Snapshot DIDs from
// sddb_report_dtc take precedence over those in sddb_dtcs.
func (d *Dictionary) DTCInfo(id string) (DTC, bool) {
	id = CanonicalDTC(id)
	base, inBase := d.DTCs[id]
	report, inReport := d.ReportDTCs[id]
	if !inBase && !inReport {
		return DTC{}, false
	}
	merged := DTC{Name: base.Name, Attributes: map[string]string{}}
	for k, v := range base.Attributes {
		merged.Attributes[k] = v
	}
	for k, v := range report.Attributes {
		merged.Attributes[k] = v
	}
	if merged.Name == "" {
		merged.Name = report.Name
	}
	merged.SnapshotDIDs = base.SnapshotDIDs
	if len(report.SnapshotDIDs) > 0 {
		merged.SnapshotDIDs = report.SnapshotDIDs
	}
	return merged, true
}

// Scope is the union of one or more per-firmware DID maps.
type Scope struct {
	entries map[string]Entry
	dids    []string
}

// newScope merges maps in order; earlier maps win on key collisions.
func newScope(sources ...map[string]Entry) *Scope {
	entries := make(map[string]Entry)
	for _, src := range sources {
		for did, entry := range src {
			if _, ok := entries[did]; !ok {
				entries[did] = entry
			}
		}
	}
	dids := maps.Keys(entries)
	slices.Sort(dids)
	return &Scope{entries: entries, dids: dids}
}

func (s *Scope) Lookup(did string) (Entry, bool) {
	e, ok := s.entries[CanonicalDID(did)]
	return e, ok
}

// DIDs returns every DID in the scope in ascending order. The slice is a copy.
func (s *Scope) DIDs() []string {
	return slices.Clone(s.dids)
}

func (s *Scope) Len() int {
	return len(s.entries)
}

// Restrict returns a scope holding only the listed DIDs that exist in s.
func (s *Scope) Restrict(dids []string) *Scope {
	subset := make(map[string]Entry, len(dids))
	for _, did := range dids {
		if e, ok := s.Lookup(did); ok {
			subset[e.DID] = e
		}
	}
	return newScope(subset)
}
