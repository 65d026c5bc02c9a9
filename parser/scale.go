package parser

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/openfms/uds-decoder/dictionary"
	"github.com/openfms/uds-decoder/formula"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const textOutDataType = "06"

var (
	hexLiteral = regexp.MustCompile(`0[xX][0-9A-Fa-f]+`)
	binLiteral = regexp.MustCompile(`0[bB][01]+`)
	xVariable  = regexp.MustCompile(`\b[Xx]\b`)
)

type ValueKind uint8

const (
	KindInt ValueKind = iota + 1
	KindText
	KindBool
	// KindWideInt is an integer outside the int64 range, kept as decimal digits in Wide.
	KindWideInt
)

// ScaledValue is the physical value of a response item: an integer, text or a comparison result.
type ScaledValue struct {
	Kind ValueKind
	Int  int64
	Text string
	Bool bool
	Wide string
}

func IntValue(v int64) ScaledValue   { return ScaledValue{Kind: KindInt, Int: v} }
func TextValue(v string) ScaledValue { return ScaledValue{Kind: KindText, Text: v} }
func BoolValue(v bool) ScaledValue   { return ScaledValue{Kind: KindBool, Bool: v} }

// BigIntValue stores v as KindInt when it fits an int64 and as KindWideInt otherwise.
func BigIntValue(v *big.Int) ScaledValue {
	if v.IsInt64() {
		return IntValue(v.Int64())
	}
	return ScaledValue{Kind: KindWideInt, Wide: v.String()}
}

func (v ScaledValue) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindText:
		return v.Text
	case KindBool:
		if v.Bool {
			return "True"
		}
		return "False"
	case KindWideInt:
		return v.Wide
	}
	return ""
}

// Interface returns the value as int64, string, bool or, for wide integers, json.Number.
func (v ScaledValue) Interface() any {
	switch v.Kind {
	case KindInt:
		return v.Int
	case KindText:
		return v.Text
	case KindBool:
		return v.Bool
	case KindWideInt:
		return json.Number(v.Wide)
	}
	return nil
}

func (v ScaledValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

type ScaledField struct {
	Name       string      `json:"name"`
	SubPayload string      `json:"sub_payload"`
	Value      ScaledValue `json:"value"`
	Formula    string      `json:"formula,omitempty"`
	Unit       string      `json:"unit,omitempty"`
}

// ScaleField converts the raw bytes of one response item into its physical value.
func ScaleField(field dictionary.Field, subPayload string) (ScaledValue, error) {
	if field.OutDataType == textOutDataType {
		return decodeText(subPayload)
	}
	if field.Formula == "" && field.CompareValue == "" {
		return ScaledValue{}, ErrMissingFormula
	}
	raw, ok := new(big.Int).SetString(subPayload, 16)
	if !ok || raw.Sign() < 0 {
		return ScaledValue{}, fmt.Errorf("%w: sub-payload %q is not hex", ErrFormulaEvaluation, subPayload)
	}

	scaled := raw
	if field.Formula != "" {
		var err error
		if scaled, err = formula.EvalBigInt(substitute(field.Formula, raw)); err != nil {
			return ScaledValue{}, err
		}
	}
	if field.CompareValue == "" {
		return BigIntValue(scaled), nil
	}
	ok, err := formula.EvalBool(compareExpr(scaled, field.CompareValue))
	if err != nil {
		return ScaledValue{}, err
	}
	return BoolValue(ok), nil
}

// substitute writes hex and binary literals in decimal and puts raw in place of X.
func substitute(expr string, raw *big.Int) string {
	expr = hexLiteral.ReplaceAllStringFunc(expr, func(lit string) string {
		return literalToDecimal(lit, 16)
	})
	expr = binLiteral.ReplaceAllStringFunc(expr, func(lit string) string {
		return literalToDecimal(lit, 2)
	})
	return xVariable.ReplaceAllString(expr, raw.String())
}

func literalToDecimal(lit string, base int) string {
	v, ok := new(big.Int).SetString(lit[2:], base)
	if !ok {
		return lit
	}
	return v.String()
}

// compareExpr builds "<scaled> <op> <value>". A bare value means equality and a single
// "=" is read as "==".
func compareExpr(scaled *big.Int, compareValue string) string {
	c := strings.TrimSpace(compareValue)
	switch {
	case strings.ContainsAny(c, "<>"), strings.HasPrefix(c, "=="), strings.HasPrefix(c, "!="):
	case strings.HasPrefix(c, "="):
		c = "=" + c
	default:
		c = "==" + c
	}
	return scaled.String() + " " + substitute(c, scaled)
}

func decodeText(subPayload string) (ScaledValue, error) {
	for len(subPayload) >= 2 && strings.HasSuffix(subPayload, "00") && len(subPayload)%2 == 0 {
		subPayload = subPayload[:len(subPayload)-2]
	}
	b, err := hex.DecodeString(subPayload)
	if err != nil {
		return ScaledValue{}, fmt.Errorf("%w: %v", ErrInvalidTextEncoding, err)
	}
	if !utf8.Valid(b) {
		return ScaledValue{}, ErrInvalidTextEncoding
	}
	return TextValue(string(b)), nil
}

// fieldPayload slices one response item out of a DID record. A size of zero, or a
// record shorter than the item, takes whatever is left.
func fieldPayload(item string, field dictionary.Field) string {
	start := field.Offset * 2
	if start < 0 || start >= len(item) {
		return ""
	}
	end := start + field.Size*2
	if field.Size <= 0 || end > len(item) {
		end = len(item)
	}
	return item[start:end]
}

type compareGroup struct {
	index   int
	matched bool
}

// scaleItems scales every response item of did. Items that fail are dropped and their
// errors combined; they never fail the DID. Items sharing a name and carrying compare
// values form one group whose entry is the first item that compares true, or False.
func (d *Decoder) scaleItems(did, item string, entry dictionary.Entry) ([]ScaledField, []string, error) {
	fields := d.dict.Items(did)
	if len(fields) == 0 {
		if entry.Formula == "" && entry.CompareValue == "" {
			return nil, nil, nil
		}
		fields = []dictionary.Field{{
			Name:         entry.Name,
			Offset:       entry.Offset,
			Size:         entry.Size,
			Formula:      entry.Formula,
			CompareValue: entry.CompareValue,
			Unit:         entry.Unit,
		}}
	}

	var (
		out     []ScaledField
		dropped []string
		errs    error
	)
	groups := make(map[string]*compareGroup)
	for _, field := range fields {
		sub := fieldPayload(item, field)
		value, err := ScaleField(field, sub)
		if err != nil {
			d.log.Warn("failed to scale response item",
				zap.String("did", did),
				zap.String("item", field.Name),
				zap.String("sub_payload", sub),
				zap.Error(err),
			)
			errs = multierr.Append(errs, fmt.Errorf("%s/%s: %w", did, field.Name, err))
			dropped = append(dropped, field.Name)
			continue
		}
		scaled := ScaledField{
			Name:       field.Name,
			SubPayload: sub,
			Value:      value,
			Formula:    field.Formula,
			Unit:       field.Unit,
		}
		if field.CompareValue == "" {
			out = append(out, scaled)
			continue
		}
		g, seen := groups[field.Name]
		if !seen {
			g = &compareGroup{index: len(out)}
			groups[field.Name] = g
			out = append(out, ScaledField{Name: field.Name, SubPayload: sub, Value: BoolValue(false)})
		}
		if value.Bool && !g.matched {
			out[g.index] = scaled
			g.matched = true
		}
	}
	return out, dropped, errs
}
