package site

import (
	"os"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	v := m.Run()
	snaps.Clean(m)
	os.Exit(v)
}

func TestPageSnapshots(t *testing.T) {
	cases := []struct {
		name string
		path string
		dev  bool
	}{
		{"home production", "/", false},
		{"home development", "/", true},
		{"empty page", "/blank", false},
		{"not found", "/missing", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := get(newTestHandler(t, Options{Dev: tc.dev}), tc.path)
			require.NotEmpty(t, rec.Body.String())
			snaps.MatchSnapshot(t, rec.Body.String())
		})
	}
}
