package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  Details
		ok    bool
	}{
		{
			name:  "known branch",
			email: "21bcs045@iiitdmj.ac.in",
			want:  Details{Batch: "21", Branch: "bcs", BranchName: "Computer Science and Engineering", RollNumber: "045"},
			ok:    true,
		},
		{
			name:  "unknown branch passes through",
			email: "21bxy045@iiitdmj.ac.in",
			want:  Details{Batch: "21", Branch: "bxy", BranchName: "bxy", RollNumber: "045"},
			ok:    true,
		},
		{
			name:  "long roll number",
			email: "23bec10123@iiitdmj.ac.in",
			want:  Details{Batch: "23", Branch: "bec", BranchName: "Electronics and Communication Engineering", RollNumber: "10123"},
			ok:    true,
		},
		{name: "staff address", email: "staff@iiitdmj.ac.in"},
		{name: "wrong domain", email: "21bcs045@gmail.com"},
		{name: "uppercase branch", email: "21BCS045@iiitdmj.ac.in"},
		{name: "one digit batch", email: "1bcs045@iiitdmj.ac.in"},
		{name: "branch without b prefix", email: "21xcs045@iiitdmj.ac.in"},
		{name: "dot in local part", email: "21bcs.045@iiitdmj.ac.in"},
		{name: "missing roll number", email: "21bcs@iiitdmj.ac.in"},
		{name: "trailing garbage", email: "21bcs045@iiitdmj.ac.in.evil.com"},
		{name: "empty", email: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Extract(tt.email)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsInstitutionalEmail(t *testing.T) {
	assert.True(t, IsInstitutionalEmail("21bcs045@iiitdmj.ac.in"))
	// domain-valid but unparseable local parts are still institutional
	assert.True(t, IsInstitutionalEmail("staff@iiitdmj.ac.in"))
	assert.False(t, IsInstitutionalEmail("21bcs045@gmail.com"))
	// suffix match is case-sensitive
	assert.False(t, IsInstitutionalEmail("21bcs045@IIITDMJ.AC.IN"))
	// the bare domain is not an address
	assert.False(t, IsInstitutionalEmail("@iiitdmj.ac.in"))
	assert.False(t, IsInstitutionalEmail(""))
}

func TestBranchName(t *testing.T) {
	assert.Equal(t, "Mechanical Engineering", BranchName("bme"))
	assert.Equal(t, "Smart Manufacturing", BranchName("bsm"))
	assert.Equal(t, "bzz", BranchName("bzz"))
}
