package testutil

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Importing testutil silences the standard logger unless tests run verbose.
func init() {
	logrus.SetLevel(logrus.TraceLevel)

	for _, arg := range os.Args {
		if arg == "-test.v" || strings.HasPrefix(arg, "-test.v=") && arg != "-test.v=false" {
			return
		}
	}
	logrus.StandardLogger().SetOutput(io.Discard)
}
