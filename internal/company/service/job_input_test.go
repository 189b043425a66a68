package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobInput_DecodesStringForms(t *testing.T) {
	body := `{"type":"internship","ctc":"18.5","eligibleBranches":"it, ECE","lastDate":"2026-04-30",
		"role":"SDE Intern","location":"Pune","eligibleBatch":"2027","minimumCgpa":"7"}`
	var in JobInput
	require.NoError(t, json.Unmarshal([]byte(body), &in))
	assert.Equal(t, Number(18.5), in.CTC)
	assert.Equal(t, BranchList{"it, ECE"}, in.EligibleBranches)
	assert.Equal(t, Year(2027), in.EligibleBatch)
	assert.Equal(t, Number(7), in.MinimumCGPA)

	f := newFixture(t)
	ctx := context.Background()
	j, err := f.svc.CreateJob(ctx, f.acme, in)
	require.NoError(t, err)
	assert.Equal(t, []string{"it", "ece"}, j.EligibleBranches)
	assert.Equal(t, 18.5, j.CTC)
	assert.Equal(t, 2027, j.EligibleBatch)

	require.NoError(t, json.Unmarshal([]byte(`{"eligibleBranches":"it-bi"}`), &in))
	updated, err := f.svc.UpdateJob(ctx, f.acme, j.ID, in)
	require.NoError(t, err)
	assert.Equal(t, []string{"it-bi"}, updated.EligibleBranches)
}

func TestJobInput_DecodesArraysAndNumbers(t *testing.T) {
	body := `{"ctc":12,"eligibleBranches":["it","ece"],"eligibleBatch":2026,"minimumCgpa":6.5}`
	var in JobInput
	require.NoError(t, json.Unmarshal([]byte(body), &in))
	assert.Equal(t, Number(12), in.CTC)
	assert.Equal(t, BranchList{"it", "ece"}, in.EligibleBranches)
	assert.Equal(t, Year(2026), in.EligibleBatch)
	assert.Equal(t, Number(6.5), in.MinimumCGPA)
}

func TestJobInput_RejectsNonNumericStrings(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{"ctc", `{"ctc":"lots"}`},
		{"batch", `{"eligibleBatch":"2027.5"}`},
		{"cgpa", `{"minimumCgpa":"seven"}`},
		{"branches object", `{"eligibleBranches":{"it":true}}`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var in JobInput
			assert.Error(t, json.Unmarshal([]byte(tc.body), &in))
		})
	}
}

func TestJobInput_EmptyStringsLeaveZero(t *testing.T) {
	var in JobInput
	require.NoError(t, json.Unmarshal([]byte(`{"ctc":"","eligibleBatch":" ","minimumCgpa":null}`), &in))
	assert.Zero(t, in.CTC)
	assert.Zero(t, in.EligibleBatch)
	assert.Zero(t, in.MinimumCGPA)
}
