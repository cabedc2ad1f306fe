package symlinks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakePortable(t *testing.T) {
	const root = "/home/alice"

	tests := []struct {
		name   string
		target string
		exp    string
	}{
		{
			name:   "InsideLocalRoot",
			target: "/home/alice/notes.txt",
			exp:    "/home/$USERNAME/notes.txt",
		},
		{
			name:   "OtherUsersHome",
			target: "/home/bob/shared/file",
			exp:    "/home/$USERNAME/shared/file",
		},
		{
			name:   "RelativeTarget",
			target: "../sibling/file",
			exp:    "../sibling/file",
		},
		{
			name:   "OutsideAnyHome",
			target: "/usr/share/fonts",
			exp:    "/usr/share/fonts",
		},
		{
			name:   "BareHome",
			target: "/home/bob",
			exp:    "/home/$USERNAME/",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.exp, MakePortable(test.target, root))
		})
	}
}

func TestExpandPortable(t *testing.T) {
	tests := []struct {
		name   string
		target string
		root   string
		exp    string
	}{
		{
			name:   "Placeholder",
			target: "/home/$USERNAME/notes.txt",
			root:   "/srv/user42",
			exp:    "/srv/user42/notes.txt",
		},
		{
			name:   "Verbatim",
			target: "/usr/share/fonts",
			root:   "/srv/user42",
			exp:    "/usr/share/fonts",
		},
		{
			name:   "Relative",
			target: "../other",
			root:   "/srv/user42",
			exp:    "../other",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.exp,
				ExpandPortable(test.target, test.root, "user42"))
		})
	}
}

func TestPortableRoundTrip(t *testing.T) {
	// Capture on one machine, expand on another with a different root and
	// user: the prefix must substitute cleanly, everything after it must
	// survive byte for byte.
	original := "/home/alice/projects/website/assets"
	portable := MakePortable(original, "/home/alice")
	expanded := ExpandPortable(portable, "/srv/user42", "user42")
	assert.Equal(t, "/srv/user42/projects/website/assets", expanded)
}
