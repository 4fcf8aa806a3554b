package mqtt

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/pvihk/core/model"
)

type fakeSubmitter struct {
	inputs []model.Input
	err    error
}

func (f *fakeSubmitter) Submit(in model.Input) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.inputs = append(f.inputs, in)
	return "job-1", nil
}

const requestPayload = `{
  "verfügbarkeiten": {"A": ["2025-06-02", "2025-06-03"], "B": ["2025-06-02", "2025-06-03"]},
  "kandidaten": {"1": "Anna"},
  "pruefungstage": ["2025-06-02", "2025-06-03"]
}`

func TestListenRequestsAccepts(t *testing.T) {
	cli, mc := newMockClient(t)
	sub := &fakeSubmitter{}
	require.NoError(t, ListenRequests(cli, "pvihk", sub, nil))

	mc.deliver("pvihk/requests", []byte(requestPayload))
	require.Len(t, sub.inputs, 1)
	assert.Equal(t, "Anna", sub.inputs[0].Candidates[1])

	accepted := mc.publishedTo("pvihk/accepted")
	require.Len(t, accepted, 1)
	var a Accepted
	require.NoError(t, json.Unmarshal(accepted[0], &a))
	assert.Equal(t, "job-1", a.JobID)
	assert.Empty(t, mc.publishedTo("pvihk/rejections"))
}

func TestListenRequestsRejects(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		err     error
		want    string
	}{
		{"malformed", `{"kandidaten":`, nil, "input"},
		{"unknown field", `{"unknown": 1}`, nil, "unknown"},
		{"busy", requestPayload, errors.New("busy"), "busy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, mc := newMockClient(t)
			sub := &fakeSubmitter{err: tt.err}
			require.NoError(t, ListenRequests(cli, "pvihk", sub, nil))

			mc.deliver("pvihk/requests", []byte(tt.payload))

			rejections := mc.publishedTo("pvihk/rejections")
			require.Len(t, rejections, 1)
			var r Rejection
			require.NoError(t, json.Unmarshal(rejections[0], &r))
			assert.Contains(t, r.Error, tt.want)
			assert.Empty(t, mc.publishedTo("pvihk/accepted"))
			assert.Empty(t, sub.inputs)
		})
	}
}
