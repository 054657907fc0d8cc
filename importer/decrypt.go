package importer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const artifactSuffix = "_nopass"

// Decrypter writes an unprotected copy of source to target. An empty
// password means the source carries no password (legacy conversion).
type Decrypter interface {
	Decrypt(source, password, target string) error
}

// DecrypterFunc adapts a function to Decrypter.
type DecrypterFunc func(source, password, target string) error

func (f DecrypterFunc) Decrypt(source, password, target string) error {
	return f(source, password, target)
}

// mustDecrypt reports whether a file has to go through the decrypter before
// it can be read as a package.
func mustDecrypt(path, password string) bool {
	if strings.EqualFold(filepath.Ext(path), ".xls") {
		return true
	}
	return password != ""
}

// artifactPath names the unprotected copy of source inside workDir. Legacy
// files become .xlsx; other extensions are kept.
func artifactPath(workDir, source string) string {
	ext := filepath.Ext(source)
	base := strings.TrimSuffix(filepath.Base(source), ext)
	if strings.EqualFold(ext, ".xls") || ext == "" {
		ext = ".xlsx"
	}
	return filepath.Join(workDir, base+artifactSuffix+ext)
}

func defaultWorkDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve cache directory: %w", err)
	}
	return filepath.Join(cacheDir, "sheetmap", "decrypted"), nil
}

// decryptToWorkDir runs the decrypter and returns the artifact path. Any
// previous artifact with the same name is replaced.
func (im *Importer) decryptToWorkDir(source, password string) (string, error) {
	if im.decrypter == nil {
		return "", fmt.Errorf("no decrypter configured for %s", source)
	}

	workDir := im.workDir
	if workDir == "" {
		dir, err := defaultWorkDir()
		if err != nil {
			return "", err
		}
		workDir = dir
	}
	if err := os.MkdirAll(workDir, 0o700); err != nil {
		return "", fmt.Errorf("create work directory %s: %w", workDir, err)
	}

	target := artifactPath(workDir, source)
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("replace previous artifact %s: %w", target, err)
	}

	im.logger.WithField("file", source).WithField("target", target).Debug("decrypting workbook")
	if err := im.decrypter.Decrypt(source, password, target); err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("decrypt workbook %s: %w", filepath.Base(source), err)
	}
	return target, nil
}

// cleanupArtifact removes the decrypted copy when it is owed. Failures are
// logged only.
func (im *Importer) cleanupArtifact() {
	if im.artifact == "" {
		return
	}
	artifact := im.artifact
	im.artifact = ""
	if !im.deleteAfterUse {
		return
	}
	if err := os.Remove(artifact); err != nil && !errors.Is(err, os.ErrNotExist) {
		im.logger.WithError(err).WithField("file", artifact).Warn("could not remove decrypted workbook")
	}
}
