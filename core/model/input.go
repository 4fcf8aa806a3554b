package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultCorrectorsPerExam applies when Input.CorrectorsPerExam is zero.
const DefaultCorrectorsPerExam = 2

// Input is an optimisation request as supplied by the caller. The keys are
// those of the exchange format used by the desktop front-end.
type Input struct {
	// Availability maps a corrector name to the exam days it can attend.
	Availability map[string][]string `json:"verfügbarkeiten" yaml:"verfügbarkeiten" validate:"required,min=1"`
	// Candidates maps the 1-based exam index to the candidate's name.
	Candidates map[int]string `json:"kandidaten" yaml:"kandidaten" validate:"required,min=1"`
	// Days holds the two exam day identifiers.
	Days []string `json:"pruefungstage" yaml:"pruefungstage" validate:"len=2,unique,dive,required"`
	// CorrectorsPerExam is the number of correctors grading each exam.
	CorrectorsPerExam int `json:"anzahl_korrektoren_pro_klausur,omitempty" yaml:"anzahl_korrektoren_pro_klausur,omitempty" validate:"gte=0"`
	// Slots holds one ordered list of HH:MM labels per day.
	Slots [][]string `json:"zeitslots" yaml:"zeitslots" validate:"len=2,dive,dive,hhmm"`
}

// WithDefaultSlots returns a copy of in using slots when in carries none.
func (in Input) WithDefaultSlots(slots [][]string) Input {
	if len(in.Slots) == 0 && len(slots) > 0 {
		in.Slots = make([][]string, len(slots))
		for i, s := range slots {
			in.Slots[i] = append([]string(nil), s...)
		}
	}
	return in
}

// DecodeInput reads an Input in the given format ("json" or "yaml").
func DecodeInput(r io.Reader, format string) (Input, error) {
	var in Input
	switch strings.ToLower(format) {
	case "json":
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&in); err != nil {
			return Input{}, &ValidationError{Field: "input", Message: err.Error()}
		}
	case "yaml", "yml":
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&in); err != nil {
			return Input{}, &ValidationError{Field: "input", Message: err.Error()}
		}
	default:
		return Input{}, fmt.Errorf("unsupported input format: %s", format)
	}
	return in, nil
}

// LoadInput reads an Input file, choosing the format from its extension.
func LoadInput(path string) (Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Input{}, err
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return DecodeInput(bytes.NewReader(data), ext)
}

// EncodeInput writes in as indented JSON or YAML.
func EncodeInput(w io.Writer, in Input, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(in)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(in); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported input format: %s", format)
	}
}
