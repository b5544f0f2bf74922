package github

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRepoRef(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    RepoRef
		wantErr bool
	}{
		{name: "valid", input: "acme/widgets", want: RepoRef{Owner: "acme", Name: "widgets"}},
		{name: "surrounding slashes", input: "/acme/widgets/", want: RepoRef{Owner: "acme", Name: "widgets"}},
		{name: "missing name", input: "acme", wantErr: true},
		{name: "empty owner", input: "/widgets", wantErr: true},
		{name: "empty name", input: "acme/", wantErr: true},
		{name: "too many parts", input: "acme/widgets/extra", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ParseRepoRef(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ref)
		})
	}
}

func TestRepoRef_String(t *testing.T) {
	ref := RepoRef{Owner: "acme", Name: "widgets"}
	assert.Equal(t, "acme/widgets", ref.String())
}

func TestRepoRef_IsZero(t *testing.T) {
	assert.True(t, RepoRef{}.IsZero())
	assert.False(t, RepoRef{Owner: "acme", Name: "widgets"}.IsZero())
}

func TestIssuePatch_IsEmpty(t *testing.T) {
	assert.True(t, IssuePatch{}.IsEmpty())

	title := "new title"
	assert.False(t, IssuePatch{Title: &title}.IsEmpty())

	state := IssueStateClosed
	assert.False(t, IssuePatch{State: &state}.IsEmpty())
}
