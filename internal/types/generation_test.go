//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoverLetterRequest_Validation(t *testing.T) {
	tests := []struct {
		name    string
		request CoverLetterRequest
		wantErr bool
	}{
		{name: "job post text", request: CoverLetterRequest{JobPost: "Go developer", UserName: "John"}},
		{name: "job url only", request: CoverLetterRequest{JobURL: "https://jobs.example.com/1", UserName: "John"}},
		{name: "neither post nor url", request: CoverLetterRequest{UserName: "John"}, wantErr: true},
		{name: "bad url", request: CoverLetterRequest{JobURL: "not a url", UserName: "John"}, wantErr: true},
		{name: "missing name", request: CoverLetterRequest{JobPost: "x"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSummaryRequest_Validation(t *testing.T) {
	assert.NoError(t, (&SummaryRequest{CurrentTitle: "SWE", YearsExperience: "5", Skills: "Go"}).Validate())
	assert.Error(t, (&SummaryRequest{CurrentTitle: "SWE", Skills: "Go"}).Validate())
}

func TestProjectDescriptionRequest_Validation(t *testing.T) {
	assert.NoError(t, (&ProjectDescriptionRequest{ProjectName: "Shop", Skills: "React"}).Validate())
	assert.Error(t, (&ProjectDescriptionRequest{Skills: "React"}).Validate())
}

func TestCreateResumeResponse_EncodesPDFAsBase64(t *testing.T) {
	tex := `\documentclass{article}`
	data, err := json.Marshal(CreateResumeResponse{PDFFile: []byte("%PDF"), TeXFile: &tex})
	require.NoError(t, err)
	assert.JSONEq(t, `{"pdf_file":"JVBERg==","tex_file":"\\documentclass{article}"}`, string(data))

	data, err = json.Marshal(CreateResumeResponse{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"pdf_file":null,"tex_file":null}`, string(data))
}
