// Package importer reads and writes the plain text candidate and corrector
// lists and assembles them into an optimisation input.
package importer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/kilianp07/pvihk/core/model"
	"github.com/kilianp07/pvihk/infra/logger"
)

// Limits applied when reading list files.
const (
	DefaultMaxCandidates = 30
	DefaultMaxCorrectors = 10
)

// CorrectorVersion is the only supported corrector list version.
const CorrectorVersion = 2

const versionPrefix = "# version="

// ErrVersion is returned for corrector lists of another format version.
var ErrVersion = errors.New("unsupported corrector list version")

// Config holds the list limits.
type Config struct {
	MaxCandidates int `json:"max_candidates"`
	MaxCorrectors int `json:"max_correctors"`
}

// SetDefaults applies the default limits.
func (c *Config) SetDefaults() {
	if c.MaxCandidates <= 0 {
		c.MaxCandidates = DefaultMaxCandidates
	}
	if c.MaxCorrectors <= 0 {
		c.MaxCorrectors = DefaultMaxCorrectors
	}
}

// CorrectorEntry is one line of a corrector list.
type CorrectorEntry struct {
	Name string
	Days [2]bool
}

// Importer reads list files, truncating them to the configured limits.
type Importer struct {
	cfg Config
	log logger.Logger
}

// New returns an Importer for cfg.
func New(cfg Config, log logger.Logger) *Importer {
	cfg.SetDefaults()
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Importer{cfg: cfg, log: log}
}

// ReadCandidates reads one candidate name per line. Blank lines are dropped.
func (im *Importer) ReadCandidates(r io.Reader) ([]string, error) {
	var names []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		name := strings.TrimSpace(sc.Text())
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read candidates: %w", err)
	}
	if len(names) > im.cfg.MaxCandidates {
		im.log.Warnf("candidate list holds %d names, keeping the first %d", len(names), im.cfg.MaxCandidates)
		names = names[:im.cfg.MaxCandidates]
	}
	return names, nil
}

// ReadCorrectors reads a version 2 corrector list. Each line is either
// "name;flag", where flag 1 means available on both days, or
// "name;day1;day2" with one flag per day.
func (im *Importer) ReadCorrectors(r io.Reader) ([]CorrectorEntry, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read correctors: %w", err)
	}

	version := 1
	if len(lines) > 0 && strings.HasPrefix(lines[0], versionPrefix) {
		v, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(lines[0], versionPrefix)))
		if err != nil {
			v = 0
		}
		version = v
		lines = lines[1:]
	}
	if version != CorrectorVersion {
		return nil, fmt.Errorf("%w %d (expected %d)", ErrVersion, version, CorrectorVersion)
	}

	if len(lines) > im.cfg.MaxCorrectors {
		im.log.Warnf("corrector list holds %d lines, keeping the first %d", len(lines), im.cfg.MaxCorrectors)
		lines = lines[:im.cfg.MaxCorrectors]
	}
	var out []CorrectorEntry
	for i, line := range lines {
		parts := strings.Split(line, ";")
		name := strings.TrimSpace(parts[0])
		if name == "" {
			continue
		}
		e := CorrectorEntry{Name: name}
		switch len(parts) {
		case 1:
		case 2:
			on := flag(parts[1])
			e.Days = [2]bool{on, on}
		case 3:
			e.Days = [2]bool{flag(parts[1]), flag(parts[2])}
		default:
			return nil, fmt.Errorf("corrector list line %d: expected at most 3 fields, got %d", i+2, len(parts))
		}
		out = append(out, e)
	}
	return out, nil
}

func flag(s string) bool { return strings.TrimSpace(s) == "1" }

// WriteCandidates writes one name per line.
func WriteCandidates(w io.Writer, names []string) error {
	bw := bufio.NewWriter(w)
	for _, n := range names {
		if _, err := bw.WriteString(n + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteCorrectors writes a version 2 list. Correctors with the same flag on
// both days use the short "name;flag" form.
func WriteCorrectors(w io.Writer, entries []CorrectorEntry) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s%d\n", versionPrefix, CorrectorVersion)
	for _, e := range entries {
		if e.Name == "" {
			continue
		}
		if e.Days[0] == e.Days[1] {
			fmt.Fprintf(bw, "%s;%s\n", e.Name, bit(e.Days[0]))
			continue
		}
		fmt.Fprintf(bw, "%s;%s;%s\n", e.Name, bit(e.Days[0]), bit(e.Days[1]))
	}
	return bw.Flush()
}

func bit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// ReadCandidatesFile is ReadCandidates on a file.
func (im *Importer) ReadCandidatesFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return im.ReadCandidates(f)
}

// ReadCorrectorsFile is ReadCorrectors on a file.
func (im *Importer) ReadCorrectorsFile(path string) ([]CorrectorEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return im.ReadCorrectors(f)
}

// BuildInput assembles an optimisation input. Candidates are numbered from
// 1 in list order; every corrector is listed, with the days it is available.
func BuildInput(candidates []string, correctors []CorrectorEntry, days [2]string, slots [][]string, perExam int) model.Input {
	in := model.Input{
		Availability:      make(map[string][]string, len(correctors)),
		Candidates:        make(map[int]string, len(candidates)),
		Days:              []string{days[0], days[1]},
		CorrectorsPerExam: perExam,
		Slots:             slots,
	}
	for i, name := range candidates {
		in.Candidates[i+1] = name
	}
	for _, c := range correctors {
		avail := []string{}
		for d, on := range c.Days {
			if on {
				avail = append(avail, days[d])
			}
		}
		in.Availability[c.Name] = avail
	}
	return in
}
