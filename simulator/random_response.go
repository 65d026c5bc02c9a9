package simulator

import (
	"fmt"
	"math/rand"

	"github.com/openfms/uds-decoder/parser"
)

var (
	numericDIDs   = []string{"DD01", "DD02", "DD0A", "DD0B", "4028"}
	sampleDTCs    = []string{"D01F16", "C12287", "C10087", "A00562"}
	sampleNRCs    = []byte{0x10, 0x11, 0x12, 0x13, 0x22, 0x31, 0x33, 0x35, 0x78}
	sampleSuffix  = []string{"A", "AA", "AAB", "B", "C"}
	sampleSIDs    = []byte{parser.ServiceReadDataByIdentifier, parser.ServiceReadDTCInformation, parser.ServiceRoutineControl}
	partNumberIDs = []string{"F120", "F12A", "F12B"}
)

type responseGenerator func() string

var generators = []responseGenerator{
	randomNumericDID,
	randomPartNumberDID,
	randomCombinedDID,
	randomDTCReport,
	randomNegative,
	randomSessionControl,
}

func generateRandomResponse() string {
	return generators[getRandomInt(0, len(generators)-1)]()
}

func randomNumericDID() string {
	did := numericDIDs[getRandomInt(0, len(numericDIDs)-1)]
	return parser.MakeReadDataByIdentifierResponse(parser.DIDRecord{
		DID:  did,
		Data: parser.EncodeNumber(uint64(getRandomInt(0, 0xFFFF)), getRandomInt(1, 2)),
	})
}

func randomPartNumber() string {
	digits := fmt.Sprintf("%08d", getRandomInt(0, 99999999))
	record, err := parser.EncodePartNumber(digits, sampleSuffix[getRandomInt(0, len(sampleSuffix)-1)])
	if err != nil {
		// digits are always 8 decimal characters
		panic(err)
	}
	return record
}

func randomPartNumberDID() string {
	return parser.MakeReadDataByIdentifierResponse(parser.DIDRecord{
		DID:  partNumberIDs[getRandomInt(0, len(partNumberIDs)-1)],
		Data: randomPartNumber(),
	})
}

func randomCombinedDID() string {
	return parser.MakeCombinedResponse("EDA0",
		parser.DIDRecord{DID: "F120", Data: randomPartNumber()},
		parser.DIDRecord{DID: "F18C", Data: fmt.Sprintf("%08d", getRandomInt(0, 99999999))},
		parser.DIDRecord{DID: "F12E", Data: parser.EncodePartNumberList(randomPartNumber(), randomPartNumber())},
	)
}

func randomDTCReport() string {
	var records []parser.DTCStatusRecord
	for i := 0; i < getRandomInt(0, 3); i++ {
		records = append(records, parser.DTCStatusRecord{
			DTC:    sampleDTCs[getRandomInt(0, len(sampleDTCs)-1)],
			Status: byte(getRandomInt(0, 0xFF)),
		})
	}
	return parser.MakeDTCByStatusMaskResponse(0xFF, records...)
}

func randomNegative() string {
	return parser.MakeNegativeResponse(
		sampleSIDs[getRandomInt(0, len(sampleSIDs)-1)],
		sampleNRCs[getRandomInt(0, len(sampleNRCs)-1)],
	)
}

func randomSessionControl() string {
	session := getRandomInt(1, 3)
	return parser.MakePositiveResponse(parser.ServiceDiagnosticSessionControl,
		fmt.Sprintf("%02X003201F4", session))
}

func getRandomInt(min, max int) int {
	return min + rand.Intn(max-min+1)
}
