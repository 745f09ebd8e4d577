package config

import "fmt"

// Stylesheet batching mode. Auto selects inspectable sheet
// for development and batched otherwise.
type SheetMode string

const (
	SheetModeAuto        SheetMode = "auto"
	SheetModeBatched     SheetMode = "batched"
	SheetModeInspectable SheetMode = "inspectable"
)

// Speedy returns batching flag for the mode, nil for auto.
func (m SheetMode) Speedy() *bool {
	var speedy bool
	switch m {
	case SheetModeBatched:
		speedy = true
	case SheetModeInspectable:
	default:
		return nil
	}
	return &speedy
}

// Content hash function.
type HashAlgo string

const (
	HashAlgoXXHash HashAlgo = "xxhash"
	HashAlgoSHA256 HashAlgo = "sha256"
)

func (h HashAlgo) String() string {
	return string(h)
}

// ParseHashAlgo converts name into HashAlgo.
func ParseHashAlgo(name string) (HashAlgo, error) {
	switch h := HashAlgo(name); h {
	case HashAlgoXXHash, HashAlgoSHA256:
		return h, nil
	}
	return "", fmt.Errorf("%q is not a valid HashAlgo", name)
}
