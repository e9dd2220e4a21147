// Package report renders acquisition results for people and machines.
package report

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mklimuk/barometer/mpl115a2"
)

type Format string

const (
	FormatHuman Format = "human"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// DefaultFormat is used when no format was requested.
const DefaultFormat = FormatHuman

var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat also accepts the single letter selectors r, c, j and y.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DefaultFormat, nil
	case "r", "human", "text":
		return FormatHuman, nil
	case "c", "csv":
		return FormatCSV, nil
	case "j", "json":
		return FormatJSON, nil
	case "y", "yaml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w %q (expected human, csv, json or yaml)", ErrUnknownFormat, s)
}

// Bundle is the set of values handed to the reporter.
type Bundle struct {
	A0   float64 `json:"a0" yaml:"a0"`
	B1   float64 `json:"b1" yaml:"b1"`
	B2   float64 `json:"b2" yaml:"b2"`
	C12  float64 `json:"c12" yaml:"c12"`
	PADC uint16  `json:"padc" yaml:"padc"`
	TADC uint16  `json:"tadc" yaml:"tadc"`
	HPa  float64 `json:"hPa" yaml:"hPa"`
}

func NewBundle(r mpl115a2.Reading) Bundle {
	return Bundle{
		A0:   r.A0,
		B1:   r.B1,
		B2:   r.B2,
		C12:  r.C12,
		PADC: r.Counts.Pressure,
		TADC: r.Counts.Temperature,
		HPa:  round1(r.HectoPascal()),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func Write(w io.Writer, f Format, r mpl115a2.Reading) error {
	b := NewBundle(r)
	switch f {
	case FormatHuman:
		_, err := fmt.Fprintf(w, "a0   : %f\nb1   : %f\nb2   : %f\nc12  : %f\npadc : %d\ntadc : %d\nhPa  : %f\n",
			b.A0, b.B1, b.B2, b.C12, b.PADC, b.TADC, r.HectoPascal())
		return err
	case FormatCSV:
		cw := csv.NewWriter(w)
		err := cw.Write([]string{
			fmt1(b.A0), fmt1(b.B1), fmt1(b.B2),
			strconv.FormatFloat(b.C12, 'f', 6, 64),
			strconv.Itoa(int(b.PADC)), strconv.Itoa(int(b.TADC)),
			fmt1(b.HPa),
		})
		if err != nil {
			return err
		}
		cw.Flush()
		return cw.Error()
	case FormatJSON:
		return json.NewEncoder(w).Encode(b)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(b); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("%w %q", ErrUnknownFormat, string(f))
}

// WriteCoefficients renders only the calibration coefficients.
func WriteCoefficients(w io.Writer, f Format, c mpl115a2.Coefficients) error {
	switch f {
	case FormatHuman:
		_, err := fmt.Fprintf(w, "a0   : %f\nb1   : %f\nb2   : %f\nc12  : %f\n", c.A0, c.B1, c.B2, c.C12)
		return err
	case FormatCSV:
		_, err := fmt.Fprintf(w, "%s,%s,%s,%s\n", fmt1(c.A0), fmt1(c.B1), fmt1(c.B2), strconv.FormatFloat(c.C12, 'f', 6, 64))
		return err
	case FormatJSON:
		return json.NewEncoder(w).Encode(c)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(c); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("%w %q", ErrUnknownFormat, string(f))
}

func fmt1(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
