package rsync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseReport(t *testing.T) {
	itemized := `building file list ... done
>f+++++++++ docs/readme.md
>f.st...... docs/changelog.md
<f+++++++++ outgoing.txt
cd+++++++++ docs/
*deleting   docs/stale.txt
*deleting   old/

sent 1,234 bytes  received 56 bytes  860.00 bytes/sec
total size is 7,890  speedup is 6.12`

	tests := []struct {
		name          string
		stdout        string
		deleteEnabled bool
		exp           Report
	}{
		{
			name:   "Empty",
			stdout: "",
			exp:    Report{},
		},
		{
			name:          "DeleteEnabled",
			stdout:        itemized,
			deleteEnabled: true,
			exp:           Report{Created: 2, Updated: 1, Deleted: 2, Total: 3},
		},
		{
			name:          "DeleteDisabled",
			stdout:        itemized,
			deleteEnabled: false,
			exp:           Report{Created: 2, Updated: 1, Deleted: 0, Total: 3},
		},
		{
			name:   "NoItemizedLines",
			stdout: "sent 0 bytes  received 12 bytes\ntotal size is 0",
			exp:    Report{},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.exp, ParseReport(test.stdout, test.deleteEnabled))
		})
	}
}
