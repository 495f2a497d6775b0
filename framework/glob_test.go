package framework

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchGlob(t *testing.T) {
	cases := []struct {
		pattern string
		value   string
		want    bool
	}{
		{"*.pb.go", "api.pb.go", true},
		{"*.pb.go", "gen/api.pb.go", false},
		{"gen/**", "gen/a/b.go", true},
		{"**/zz_generated.go", "zz_generated.go", true},
		{"**/zz_generated.go", "pkg/apis/zz_generated.go", true},
		{"internal/?ock.go", "internal/mock.go", true},
		{"internal/?ock.go", "internal//ock.go", false},
		{"", "anything", false},
		{"[", "[", false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, MatchGlob(tc.pattern, tc.value), "%s vs %s", tc.pattern, tc.value)
	}
}

func TestMatchAnyGlob(t *testing.T) {
	require.True(t, MatchAnyGlob([]string{"*.txt", "gen/**"}, "gen/x.go"))
	require.False(t, MatchAnyGlob(nil, "gen/x.go"))
}
