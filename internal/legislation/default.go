package legislation

import (
	"bytes"
	_ "embed"
)

//go:embed default.yaml
var defaultYAML []byte

// DefaultYAML returns the bundled French indirect-tax legislation document.
func DefaultYAML() []byte {
	return bytes.Clone(defaultYAML)
}

// Default parses the bundled legislation.
func Default() (*Tree, error) {
	return Read(bytes.NewReader(defaultYAML))
}
