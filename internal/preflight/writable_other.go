//go:build !unix

package preflight

import (
	"os"
)

func checkWritable(path string) error {
	probe, err := os.CreateTemp(path, ".pykit-write-probe-*")
	if err != nil {
		return err
	}
	name := probe.Name()
	_ = probe.Close()
	return os.Remove(name)
}
