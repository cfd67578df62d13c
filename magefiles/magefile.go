//go:build mage

// Package main contains Mage build targets for pdf2md.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binDir = "bin"

// binaries maps output names to their command packages.
var binaries = map[string]string{
	"pdf2md":        "./cmd/pdf2md",
	"pdf2md-server": "./cmd/server",
}

// Build compiles both binaries into bin/ with OCR support (needs MuPDF and Tesseract).
func Build() error {
	return build()
}

// BuildNoOCR compiles both binaries without cgo OCR dependencies.
func BuildNoOCR() error {
	return build("-tags", "noocr")
}

func build(extra ...string) error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	for name, pkg := range binaries {
		out := filepath.Join(binDir, name)
		args := append([]string{"build"}, extra...)
		args = append(args, "-o", out, pkg)
		if err := sh.RunV("go", args...); err != nil {
			return fmt.Errorf("go build %s: %w", pkg, err)
		}
		fmt.Printf("Built %s\n", out)
	}
	return nil
}

// Vet runs go vet over the noocr build.
func Vet() error {
	return sh.RunV("go", "vet", "-tags", "noocr", "./...")
}

// Test runs the unit tests against the noocr build.
func Test() error {
	mg.Deps(Vet)
	return sh.RunV("go", "test", "-tags", "noocr", "./...")
}

// Clean removes build output.
func Clean() error {
	return os.RemoveAll(binDir)
}
