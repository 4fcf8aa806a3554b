package importer

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCandidates(t *testing.T) {
	im := New(Config{MaxCandidates: 3}, nil)
	names, err := im.ReadCandidates(strings.NewReader("Anna\n\n  Bernd  \r\nCarla\nDora\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Anna", "Bernd", "Carla"}, names)
}

func TestReadCorrectors(t *testing.T) {
	data := "# version=2\nMüller;1\nSchmidt;0\n;1\nWeber;1;0\nKoch\n"
	entries, err := New(Config{}, nil).ReadCorrectors(strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, []CorrectorEntry{
		{Name: "Müller", Days: [2]bool{true, true}},
		{Name: "Schmidt"},
		{Name: "Weber", Days: [2]bool{true, false}},
		{Name: "Koch"},
	}, entries)
}

func TestReadCorrectorsLimit(t *testing.T) {
	var b strings.Builder
	b.WriteString("# version=2\n")
	for i := 0; i < 12; i++ {
		b.WriteString("K" + string(rune('A'+i)) + ";1\n")
	}
	entries, err := New(Config{}, nil).ReadCorrectors(strings.NewReader(b.String()))
	require.NoError(t, err)
	assert.Len(t, entries, DefaultMaxCorrectors)
}

func TestReadCorrectorsVersion(t *testing.T) {
	cases := map[string]string{
		"missing": "Müller;1\n",
		"old":     "# version=1\nMüller;1\n",
		"garbage": "# version=x\nMüller;1\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := New(Config{}, nil).ReadCorrectors(strings.NewReader(data))
			assert.ErrorIs(t, err, ErrVersion)
		})
	}
}

func TestReadCorrectorsTooManyFields(t *testing.T) {
	_, err := New(Config{}, nil).ReadCorrectors(strings.NewReader("# version=2\nA;1;1;1\n"))
	assert.ErrorContains(t, err, "line 2")
}

func TestWriteReadRoundTrip(t *testing.T) {
	entries := []CorrectorEntry{
		{Name: "Müller", Days: [2]bool{true, true}},
		{Name: "Weber", Days: [2]bool{false, true}},
		{Name: "Schmidt"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCorrectors(&buf, entries))
	assert.Equal(t, "# version=2\nMüller;1\nWeber;0;1\nSchmidt;0\n", buf.String())

	got, err := New(Config{}, nil).ReadCorrectors(&buf)
	require.NoError(t, err)
	assert.Equal(t, entries, got)

	buf.Reset()
	require.NoError(t, WriteCandidates(&buf, []string{"Anna", "Bernd"}))
	assert.Equal(t, "Anna\nBernd\n", buf.String())
}

func TestReadFiles(t *testing.T) {
	dir := t.TempDir()
	k := filepath.Join(dir, "k.txt")
	c := filepath.Join(dir, "c.txt")
	require.NoError(t, os.WriteFile(k, []byte("Anna\n"), 0o644))
	require.NoError(t, os.WriteFile(c, []byte("# version=2\nA;1\n"), 0o644))

	im := New(Config{}, nil)
	names, err := im.ReadCandidatesFile(k)
	require.NoError(t, err)
	assert.Equal(t, []string{"Anna"}, names)
	entries, err := im.ReadCorrectorsFile(c)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = im.ReadCandidatesFile(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestBuildInput(t *testing.T) {
	days := [2]string{"2025-06-02", "2025-06-03"}
	in := BuildInput(
		[]string{"Anna", "Bernd"},
		[]CorrectorEntry{{Name: "A", Days: [2]bool{true, true}}, {Name: "B", Days: [2]bool{false, true}}, {Name: "C"}},
		days, nil, 2,
	)
	assert.Equal(t, map[int]string{1: "Anna", 2: "Bernd"}, in.Candidates)
	assert.Equal(t, []string{"2025-06-02", "2025-06-03"}, in.Availability["A"])
	assert.Equal(t, []string{"2025-06-03"}, in.Availability["B"])
	assert.Equal(t, []string{}, in.Availability["C"])
	assert.Equal(t, []string{"2025-06-02", "2025-06-03"}, in.Days)
	assert.Equal(t, 2, in.CorrectorsPerExam)
}
