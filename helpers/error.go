package helpers

import (
	"strings"

	"github.com/juju/errors"
)

// FoldErrors skips nil entries. Single error is returned unchanged, so its kind survives.
func FoldErrors(errs []error) error {
	var first error
	var b strings.Builder
	n := 0
	for _, e := range errs {
		if e == nil {
			continue
		}
		if n == 0 {
			first = e
		} else {
			b.WriteByte('\n')
		}
		b.WriteString(e.Error())
		n++
	}
	switch n {
	case 0:
		return nil
	case 1:
		return first
	}
	return errors.Errorf("%d errors:\n%s", n, b.String())
}
