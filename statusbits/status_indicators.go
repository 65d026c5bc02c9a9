package statusbits

// AUTOSAR status indicator bits, reported in DTC extended data record 0x30.
const (
	MaskUnconfirmedDTC                          byte = 0x01
	MaskUnconfirmedDTCThisOperationCycle        byte = 0x02
	MaskUnconfirmedDTCSinceLastClear            byte = 0x04
	MaskAgedDTC                                 byte = 0x08
	MaskSymptomSinceLastClear                   byte = 0x10
	MaskWarningIndicatorRequestedSinceLastClear byte = 0x20
	MaskEmissionRelatedDTC                      byte = 0x40
	MaskTestFailedSinceLastClearAged            byte = 0x80
)

var statusIndicatorFlags = []Flag{
	{"unconfirmedDTC", MaskUnconfirmedDTC},
	{"unconfirmedDTCThisOperationCycle", MaskUnconfirmedDTCThisOperationCycle},
	{"unconfirmedDTCSinceLastClear", MaskUnconfirmedDTCSinceLastClear},
	{"agedDTC", MaskAgedDTC},
	{"symptomSinceLastClear", MaskSymptomSinceLastClear},
	{"warningIndicatorRequestedSinceLastClear", MaskWarningIndicatorRequestedSinceLastClear},
	{"emissionRelatedDTC", MaskEmissionRelatedDTC},
	{"testFailedSinceLastClearAged", MaskTestFailedSinceLastClearAged},
}

// StatusIndicators is the SI30 register.
type StatusIndicators struct {
	StatusBits
}

func NewStatusIndicators(b byte) *StatusIndicators {
	return &StatusIndicators{StatusBits{value: b, kind: KindStatusIndicators, flags: statusIndicatorFlags}}
}

func StatusIndicatorsFromHex(hexString string) (*StatusIndicators, error) {
	v, err := parseHex(hexString)
	if err != nil {
		return nil, err
	}
	return NewStatusIndicators(v), nil
}

func StatusIndicatorsFromBitString(bits string) (*StatusIndicators, error) {
	v, err := parseBits(bits)
	if err != nil {
		return nil, err
	}
	return NewStatusIndicators(v), nil
}

func (s *StatusIndicators) UnconfirmedDTC() bool { return s.get(MaskUnconfirmedDTC) }
func (s *StatusIndicators) SetUnconfirmedDTC(on bool) { s.set(MaskUnconfirmedDTC, on) }

func (s *StatusIndicators) UnconfirmedDTCThisOperationCycle() bool {
	return s.get(MaskUnconfirmedDTCThisOperationCycle)
}
func (s *StatusIndicators) SetUnconfirmedDTCThisOperationCycle(on bool) {
	s.set(MaskUnconfirmedDTCThisOperationCycle, on)
}

func (s *StatusIndicators) UnconfirmedDTCSinceLastClear() bool {
	return s.get(MaskUnconfirmedDTCSinceLastClear)
}
func (s *StatusIndicators) SetUnconfirmedDTCSinceLastClear(on bool) {
	s.set(MaskUnconfirmedDTCSinceLastClear, on)
}

func (s *StatusIndicators) AgedDTC() bool { return s.get(MaskAgedDTC) }
func (s *StatusIndicators) SetAgedDTC(on bool) { s.set(MaskAgedDTC, on) }

func (s *StatusIndicators) SymptomSinceLastClear() bool {
	return s.get(MaskSymptomSinceLastClear)
}
func (s *StatusIndicators) SetSymptomSinceLastClear(on bool) {
	s.set(MaskSymptomSinceLastClear, on)
}

func (s *StatusIndicators) WarningIndicatorRequestedSinceLastClear() bool {
	return s.get(MaskWarningIndicatorRequestedSinceLastClear)
}
func (s *StatusIndicators) SetWarningIndicatorRequestedSinceLastClear(on bool) {
	s.set(MaskWarningIndicatorRequestedSinceLastClear, on)
}

func (s *StatusIndicators) EmissionRelatedDTC() bool { return s.get(MaskEmissionRelatedDTC) }
func (s *StatusIndicators) SetEmissionRelatedDTC(on bool) {
	s.set(MaskEmissionRelatedDTC, on)
}

func (s *StatusIndicators) TestFailedSinceLastClearAged() bool {
	return s.get(MaskTestFailedSinceLastClearAged)
}
func (s *StatusIndicators) SetTestFailedSinceLastClearAged(on bool) {
	s.set(MaskTestFailedSinceLastClearAged, on)
}
