package parser

import "fmt"

// Request service ids. A positive response carries the request id + 0x40.
const (
	ServiceDiagnosticSessionControl       byte = 0x10
	ServiceECUReset                       byte = 0x11
	ServiceClearDiagnosticInformation     byte = 0x14
	ServiceReadDTCInformation             byte = 0x19
	ServiceReadDataByIdentifier           byte = 0x22
	ServiceReadMemoryByAddress            byte = 0x23
	ServiceSecurityAccess                 byte = 0x27
	ServiceWriteDataByIdentifier          byte = 0x2E
	ServiceInputOutputControlByIdentifier byte = 0x2F
	ServiceRoutineControl                 byte = 0x31
	ServiceRequestDownload                byte = 0x34
	ServiceRequestUpload                  byte = 0x35
	ServiceTransferData                   byte = 0x36
	ServiceRequestTransferExit            byte = 0x37
	ServiceTesterPresent                  byte = 0x3E
	ServiceControlDTCSetting              byte = 0x85

	positiveResponseOffset byte = 0x40
	negativeResponseSID    byte = 0x7F
)

var serviceNames = map[byte]string{
	ServiceDiagnosticSessionControl:       "DiagnosticSessionControl",
	ServiceECUReset:                       "ECUReset",
	ServiceClearDiagnosticInformation:     "ClearDiagnosticInformation",
	ServiceReadDTCInformation:             "ReadDTCInformation",
	ServiceReadDataByIdentifier:           "ReadDataByIdentifier",
	ServiceReadMemoryByAddress:            "ReadMemoryByAddress",
	ServiceSecurityAccess:                 "SecurityAccess",
	ServiceWriteDataByIdentifier:          "WriteDataByIdentifier",
	ServiceInputOutputControlByIdentifier: "InputOutputControlByIdentifier",
	ServiceRoutineControl:                 "RoutineControl",
	ServiceRequestDownload:                "RequestDownload",
	ServiceRequestUpload:                  "RequestUpload",
	ServiceTransferData:                   "TransferData",
	ServiceRequestTransferExit:            "RequestTransferExit",
	ServiceTesterPresent:                  "TesterPresent",
	ServiceControlDTCSetting:              "ControlDTCSetting",
}

// ServiceName names a request service id, or the request behind a positive response id.
func ServiceName(sid byte) string {
	if name, ok := serviceNames[sid]; ok {
		return name
	}
	if sid >= positiveResponseOffset {
		if name, ok := serviceNames[sid-positiveResponseOffset]; ok {
			return name
		}
	}
	return fmt.Sprintf("unknownService_%02X", sid)
}

var nrcNames = map[byte]string{
	0x10: "generalReject",
	0x11: "serviceNotSupported",
	0x12: "subFunctionNotSupported",
	0x13: "incorrectMessageLengthOrInvalidFormat",
	0x14: "responseTooLong",
	0x21: "busyRepeatRequest",
	0x22: "conditionsNotCorrect",
	0x24: "requestSequenceError",
	0x25: "noResponseFromSubnetComponent",
	0x26: "failurePreventsExecutionOfRequestedAction",
	0x31: "requestOutOfRange",
	0x33: "securityAccessDenied",
	0x35: "invalidKey",
	0x36: "exceedNumberOfAttempts",
	0x37: "requiredTimeDelayNotExpired",
	0x70: "uploadDownloadNotAccepted",
	0x71: "transferDataSuspended",
	0x72: "generalProgrammingFailure",
	0x73: "wrongBlockSequenceCounter",
	0x78: "requestCorrectlyReceived-ResponsePending",
	0x7E: "subFunctionNotSupportedInActiveSession",
	0x7F: "serviceNotSupportedInActiveSession",
	0x81: "rpmTooHigh",
	0x82: "rpmTooLow",
	0x83: "engineIsRunning",
	0x84: "engineIsNotRunning",
	0x85: "engineRunTimeTooLow",
	0x86: "temperatureTooHigh",
	0x87: "temperatureTooLow",
	0x88: "vehicleSpeedTooHigh",
	0x89: "vehicleSpeedTooLow",
	0x8A: "throttle/PedalTooHigh",
	0x8B: "throttle/PedalTooLow",
	0x8C: "transmissionRangeNotInNeutral",
	0x8D: "transmissionRangeNotInGear",
	0x8F: "brakeSwitch(es)NotClosed",
	0x90: "shifterLeverNotInPark",
	0x91: "torqueConverterClutchLocked",
	0x92: "voltageTooHigh",
	0x93: "voltageTooLow",
}

// ResponseServiceID is the hex id of the positive response to request sid.
func ResponseServiceID(sid byte) string {
	return fmt.Sprintf("%02X", sid+positiveResponseOffset)
}

// NRCName resolves a negative response code to its ISO 14229-1 name.
func NRCName(nrc byte) string {
	if name, ok := nrcNames[nrc]; ok {
		return name
	}
	return fmt.Sprintf("unknownNRC_%02X", nrc)
}
