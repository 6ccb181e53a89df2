package command

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/chazu/kerf/pkg/cad"
)

// Unit is a length suffix written after a number. It is recorded but never
// applied: "10cm" and "10mm" both extract as 10.
type Unit string

const (
	UnitNone       Unit = ""
	UnitMillimeter Unit = "mm"
	UnitCentimeter Unit = "cm"
	UnitMeter      Unit = "m"
)

// numberPattern matches a decimal number with an optional unit suffix.
var numberPattern = regexp.MustCompile(`(\d+(\.\d+)?)\s*(mm|cm|m)?`)

// Token is one number found in free text.
type Token struct {
	Value  float64
	Unit   Unit
	Offset int // byte offset of the number in the input
	Text   string
}

// ExtractTokens returns every numeric token in text in order of appearance.
// A digit run too long to represent as a finite float64 is an error.
func ExtractTokens(text string) ([]Token, error) {
	matches := numberPattern.FindAllStringSubmatchIndex(text, -1)
	tokens := make([]Token, 0, len(matches))
	for _, m := range matches {
		lit := text[m[2]:m[3]]
		v, err := strconv.ParseFloat(lit, 64)
		if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
			return nil, fmt.Errorf("%w: number %.20q is out of range", ErrInterpretation, lit)
		}
		tok := Token{Value: v, Offset: m[2], Text: text[m[0]:m[1]]}
		if m[6] >= 0 {
			tok.Unit = Unit(text[m[6]:m[7]])
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

// ExtractDimensions assigns the first three numbers in text to width,
// height and depth in that order. Further numbers are ignored. Text with
// no numbers yields an empty record and no error.
func ExtractDimensions(text string) (cad.ShapeParams, error) {
	tokens, err := ExtractTokens(text)
	if err != nil {
		return cad.ShapeParams{}, err
	}
	var p cad.ShapeParams
	slots := []**float64{&p.Width, &p.Height, &p.Depth}
	for i, tok := range tokens {
		if i == len(slots) {
			break
		}
		*slots[i] = cad.Float(tok.Value)
	}
	return p, nil
}

// firstNumber returns the first number in text, if any.
func firstNumber(text string) (float64, bool, error) {
	tokens, err := ExtractTokens(text)
	if err != nil || len(tokens) == 0 {
		return 0, false, err
	}
	return tokens[0].Value, true, nil
}
