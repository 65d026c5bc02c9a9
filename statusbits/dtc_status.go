package statusbits

// ISO 14229-1 DTC status bits.
const (
	MaskTestFailed                         byte = 0x01
	MaskTestFailedThisOperationCycle       byte = 0x02
	MaskPendingDTC                         byte = 0x04
	MaskConfirmedDTC                       byte = 0x08
	MaskTestNotCompletedSinceLastClear     byte = 0x10
	MaskTestFailedSinceLastClear           byte = 0x20
	MaskTestNotCompletedThisOperationCycle byte = 0x40
	MaskWarningIndicatorRequested          byte = 0x80
)

var dtcStatusFlags = []Flag{
	{"testFailed", MaskTestFailed},
	{"testFailedThisOperationCycle", MaskTestFailedThisOperationCycle},
	{"pendingDTC", MaskPendingDTC},
	{"confirmedDTC", MaskConfirmedDTC},
	{"testNotCompletedSinceLastClear", MaskTestNotCompletedSinceLastClear},
	{"testFailedSinceLastClear", MaskTestFailedSinceLastClear},
	{"testNotCompletedThisOperationCycle", MaskTestNotCompletedThisOperationCycle},
	{"warningIndicatorRequested", MaskWarningIndicatorRequested},
}

// DtcStatus is the statusOfDTC byte returned with every DTC by ReadDTCInformation.
type DtcStatus struct {
	StatusBits
}

func NewDtcStatus(b byte) *DtcStatus {
	return &DtcStatus{StatusBits{value: b, kind: KindDtcStatus, flags: dtcStatusFlags}}
}

func DtcStatusFromHex(hexString string) (*DtcStatus, error) {
	v, err := parseHex(hexString)
	if err != nil {
		return nil, err
	}
	return NewDtcStatus(v), nil
}

func DtcStatusFromBitString(bits string) (*DtcStatus, error) {
	v, err := parseBits(bits)
	if err != nil {
		return nil, err
	}
	return NewDtcStatus(v), nil
}

func (d *DtcStatus) TestFailed() bool { return d.get(MaskTestFailed) }
func (d *DtcStatus) SetTestFailed(on bool) { d.set(MaskTestFailed, on) }

func (d *DtcStatus) TestFailedThisOperationCycle() bool {
	return d.get(MaskTestFailedThisOperationCycle)
}
func (d *DtcStatus) SetTestFailedThisOperationCycle(on bool) {
	d.set(MaskTestFailedThisOperationCycle, on)
}

func (d *DtcStatus) PendingDTC() bool { return d.get(MaskPendingDTC) }
func (d *DtcStatus) SetPendingDTC(on bool) { d.set(MaskPendingDTC, on) }

func (d *DtcStatus) ConfirmedDTC() bool { return d.get(MaskConfirmedDTC) }
func (d *DtcStatus) SetConfirmedDTC(on bool) { d.set(MaskConfirmedDTC, on) }

func (d *DtcStatus) TestNotCompletedSinceLastClear() bool {
	return d.get(MaskTestNotCompletedSinceLastClear)
}
func (d *DtcStatus) SetTestNotCompletedSinceLastClear(on bool) {
	d.set(MaskTestNotCompletedSinceLastClear, on)
}

func (d *DtcStatus) TestFailedSinceLastClear() bool {
	return d.get(MaskTestFailedSinceLastClear)
}
func (d *DtcStatus) SetTestFailedSinceLastClear(on bool) {
	d.set(MaskTestFailedSinceLastClear, on)
}

func (d *DtcStatus) TestNotCompletedThisOperationCycle() bool {
	return d.get(MaskTestNotCompletedThisOperationCycle)
}
func (d *DtcStatus) SetTestNotCompletedThisOperationCycle(on bool) {
	d.set(MaskTestNotCompletedThisOperationCycle, on)
}

func (d *DtcStatus) WarningIndicatorRequested() bool {
	return d.get(MaskWarningIndicatorRequested)
}
func (d *DtcStatus) SetWarningIndicatorRequested(on bool) {
	d.set(MaskWarningIndicatorRequested, on)
}
