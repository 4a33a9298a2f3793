// Package renderer writes generated documents to disk as text, DOCX or PDF.
package renderer

import (
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pkg/errors"
)

// RenderPDF converts a text or markdown file to PDF using pandoc.
func RenderPDF(inputPath, outputPath string) (err error) {
	err = checkPandocExists()
	if err != nil {
		return err
	}

	err = validateFiles(inputPath)
	if err != nil {
		return err
	}

	err = ensureDir(outputPath)
	if err != nil {
		return err
	}

	//nolint:noctx // Context not available for exec.Command - pandoc is a long-running subprocess
	cmd := exec.Command(
		"pandoc",
		"-f", "markdown",
		"-o", outputPath,
		"-V", "geometry:margin=2.5cm",
		inputPath,
	)

	var output []byte
	output, err = cmd.CombinedOutput()
	if err != nil {
		err = errors.Wrapf(err, "pandoc failed: %s", string(output))
		return err
	}

	return err
}

// PandocAvailable reports whether PDF rendering can run on this machine.
func PandocAvailable() (ok bool) {
	ok = checkPandocExists() == nil
	return ok
}

// checkPandocExists verifies pandoc is installed.
func checkPandocExists() (err error) {
	//nolint:noctx // Context not available for version check
	cmd := exec.Command("pandoc", "--version")
	err = cmd.Run()
	if err != nil {
		err = errors.New("pandoc not found in PATH (install pandoc to generate PDFs)")
		return err
	}
	return err
}

// validateFiles checks that required files exist.
func validateFiles(paths ...string) (err error) {
	for _, path := range paths {
		_, err = os.Stat(path)
		if os.IsNotExist(err) {
			err = errors.Errorf("file not found: %s", path)
			return err
		}
	}
	return err
}

// WriteText writes content to outputPath, creating the directory if needed.
func WriteText(content, outputPath string) (err error) {
	err = writeFile([]byte(content), outputPath)
	return err
}

// Cleanup removes intermediate files.
func Cleanup(paths ...string) (err error) {
	for _, path := range paths {
		err = os.Remove(path)
		if err != nil {
			err = errors.Wrapf(err, "failed to remove file: %s", path)
			return err
		}
	}
	return err
}

func writeFile(data []byte, outputPath string) (err error) {
	err = ensureDir(outputPath)
	if err != nil {
		return err
	}

	err = os.WriteFile(outputPath, data, 0600)
	if err != nil {
		err = errors.Wrapf(err, "failed to write file: %s", outputPath)
		return err
	}

	return err
}

func ensureDir(outputPath string) (err error) {
	outputDir := filepath.Dir(outputPath)
	err = os.MkdirAll(outputDir, 0750)
	if err != nil {
		err = errors.Wrapf(err, "failed to create output directory: %s", outputDir)
		return err
	}
	return err
}
