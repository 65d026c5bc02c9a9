package parser

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/openfms/uds-decoder/dictionary"
	"github.com/openfms/uds-decoder/formula"
	"go.uber.org/zap"
)

var (
	ErrMalformedResponse   = errors.New("malformed uds response")
	ErrMissingFormula      = errors.New("response item has no formula")
	ErrInvalidTextEncoding = errors.New("response item is not valid utf-8 text")
	ErrFormulaEvaluation   = formula.ErrFormulaEvaluation
)

var (
	negativePattern = regexp.MustCompile(`^..7F(..)(..)`)
	positivePattern = regexp.MustCompile(`^..(..)?(50|51|54|59|62|63|67|6F|71|74|75|76|77)(.*)$`)
)

// Response is either a *NegativeResponse or a *PositiveResponse.
type Response interface {
	SID() string
	isResponse()
}

type NegativeResponse struct {
	ServiceID   string `json:"service_id"`
	ServiceName string `json:"service_name"`
	NRC         string `json:"nrc"`
	NRCName     string `json:"nrc_name"`
}

func (n *NegativeResponse) SID() string { return n.ServiceID }
func (*NegativeResponse) isResponse()   {}

type PositiveResponse struct {
	ServiceID   string         `json:"service_id"`
	ServiceName string         `json:"service_name"`
	Body        string         `json:"body"`
	Details     ServiceDetails `json:"details,omitempty"`
}

func (p *PositiveResponse) SID() string { return p.ServiceID }
func (*PositiveResponse) isResponse()   {}

// DIDs returns the decoded DIDs of a ReadDataByIdentifier response.
func (p *PositiveResponse) DIDs() []*DecodedDid {
	if r, ok := p.Details.(*DIDReport); ok {
		return r.DIDs
	}
	return nil
}

// DTCReport returns the decoded report of a ReadDTCInformation response.
func (p *PositiveResponse) DTCReport() *DTCReport {
	if r, ok := p.Details.(*DTCReport); ok {
		return r
	}
	return nil
}

// ServiceDetails is the service specific part of a positive response.
type ServiceDetails interface {
	isServiceDetails()
}

// Classify matches raw against the negative and positive response grammars.
func Classify(raw string) (Response, error) {
	s, err := normalizeHex(raw)
	if err != nil {
		return nil, err
	}
	if m := negativePattern.FindStringSubmatch(s); m != nil {
		sid, _ := hexToNumber[byte](m[1])
		nrc, _ := hexToNumber[byte](m[2])
		return &NegativeResponse{
			ServiceID:   m[1],
			ServiceName: ServiceName(sid),
			NRC:         m[2],
			NRCName:     NRCName(nrc),
		}, nil
	}
	if m := positivePattern.FindStringSubmatch(s); m != nil {
		sid, _ := hexToNumber[byte](m[2])
		return &PositiveResponse{
			ServiceID:   m[2],
			ServiceName: ServiceName(sid),
			Body:        m[3],
		}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrMalformedResponse, s)
}

type serviceDecoder func(d *Decoder, body string, scope *dictionary.Scope) ServiceDetails

var serviceDecoders = map[string]serviceDecoder{
	"50": (*Decoder).decodeSessionControl,
	"51": (*Decoder).decodeECUReset,
	"59": func(d *Decoder, body string, scope *dictionary.Scope) ServiceDetails {
		return d.DecodeDTCReport(body, scope)
	},
	"62": func(d *Decoder, body string, scope *dictionary.Scope) ServiceDetails {
		return d.DecodeReadDataByIdentifier(body, scope)
	},
	"67": (*Decoder).decodeSecurityAccess,
	"6F": (*Decoder).decodeIOControl,
	"71": (*Decoder).decodeRoutineControl,
}

// Decoder turns raw responses into typed results using one dictionary.
// It keeps no state between calls and may be shared between goroutines.
type Decoder struct {
	dict *dictionary.Dictionary
	log  *zap.Logger
}

func NewDecoder(dict *dictionary.Dictionary, logger *zap.Logger) *Decoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Decoder{
		dict: dict,
		log:  logger,
	}
}

func (d *Decoder) Dictionary() *dictionary.Dictionary {
	return d.dict
}

// Decode classifies raw and decodes the service specific body with the DIDs
// visible in mode.
func (d *Decoder) Decode(raw string, mode dictionary.SessionMode) (Response, error) {
	scope, err := d.dict.Scope(mode)
	if err != nil {
		return nil, err
	}
	resp, err := Classify(raw)
	if err != nil {
		return nil, err
	}
	positive, ok := resp.(*PositiveResponse)
	if !ok {
		return resp, nil
	}
	if decode, ok := serviceDecoders[positive.ServiceID]; ok {
		positive.Details = decode(d, positive.Body, scope)
	}
	return positive, nil
}

type SessionControl struct {
	SessionType string `json:"session_type"`
	// P2ServerMax is in milliseconds, P2StarServerMax in units of 10 ms.
	P2ServerMax     *uint16 `json:"p2_server_max,omitempty"`
	P2StarServerMax *uint16 `json:"p2_star_server_max,omitempty"`
}

func (*SessionControl) isServiceDetails() {}

func (d *Decoder) decodeSessionControl(body string, _ *dictionary.Scope) ServiceDetails {
	sessionType, rest := takeBytes(body, 1)
	out := &SessionControl{SessionType: sessionType}
	if len(rest) >= 8 {
		p2, _ := hexToNumber[uint16](rest[0:4])
		p2Star, _ := hexToNumber[uint16](rest[4:8])
		out.P2ServerMax = &p2
		out.P2StarServerMax = &p2Star
	}
	return out
}

type ECUReset struct {
	ResetType     string `json:"reset_type"`
	PowerDownTime *uint8 `json:"power_down_time,omitempty"`
}

func (*ECUReset) isServiceDetails() {}

func (d *Decoder) decodeECUReset(body string, _ *dictionary.Scope) ServiceDetails {
	resetType, rest := takeBytes(body, 1)
	out := &ECUReset{ResetType: resetType}
	if len(rest) >= 2 {
		t, _ := hexToNumber[uint8](rest[:2])
		out.PowerDownTime = &t
	}
	return out
}

type SecurityAccess struct {
	SubFunction string `json:"sub_function"`
	Seed        string `json:"seed,omitempty"`
}

func (*SecurityAccess) isServiceDetails() {}

// Odd sub-functions request a seed, even ones acknowledge a key.
func (d *Decoder) decodeSecurityAccess(body string, _ *dictionary.Scope) ServiceDetails {
	sub, rest := takeBytes(body, 1)
	out := &SecurityAccess{SubFunction: sub}
	if n, err := hexToNumber[uint8](sub); err == nil && n%2 == 1 {
		out.Seed = rest
	}
	return out
}

type RoutineControl struct {
	ControlType  string `json:"control_type"`
	RoutineID    string `json:"routine_id"`
	RoutineInfo  string `json:"routine_info,omitempty"`
	StatusRecord string `json:"status_record,omitempty"`
}

func (*RoutineControl) isServiceDetails() {}

func (d *Decoder) decodeRoutineControl(body string, _ *dictionary.Scope) ServiceDetails {
	controlType, rest := takeBytes(body, 1)
	routineID, rest := takeBytes(rest, 2)
	info, rest := takeBytes(rest, 1)
	return &RoutineControl{
		ControlType:  controlType,
		RoutineID:    routineID,
		RoutineInfo:  info,
		StatusRecord: rest,
	}
}

type IOControl struct {
	DID              string      `json:"did"`
	ControlParameter string      `json:"control_parameter"`
	State            *DecodedDid `json:"state,omitempty"`
}

func (*IOControl) isServiceDetails() {}

func (d *Decoder) decodeIOControl(body string, scope *dictionary.Scope) ServiceDetails {
	did, rest := takeBytes(body, 2)
	param, rest := takeBytes(rest, 1)
	out := &IOControl{DID: did, ControlParameter: param}
	if rest != "" {
		out.State = d.newDecodedDid(did, rest, scope)
	}
	return out
}
