package renamer

import (
	"fmt"

	"autoplate-renamer/internal/folder"
)

// splitName splits at the last dot; unlike Extension a leading dot counts.
func splitName(name string) (stem, ext string) {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[:i], name[i:]
		}
	}
	return name, ""
}

// nextBackupName probes <stem>-1<ext>, <stem>-2<ext>, ... and returns the
// first one that does not exist in dir.
func nextBackupName(dir folder.Handle, name string) (string, error) {
	stem, ext := splitName(name)
	for counter := 1; ; counter++ {
		candidate := fmt.Sprintf("%s-%d%s", stem, counter, ext)
		exists, err := dir.Exists(candidate)
		if err != nil {
			return "", fmt.Errorf("probe %s: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
	}
}

// WriteWithBackup writes content as name in dir. A file already holding that
// name is first copied aside under the lowest free numbered name. Not atomic:
// a concurrent writer on the same folder can interleave.
func WriteWithBackup(dir folder.Handle, name string, content []byte) error {
	exists, err := dir.Exists(name)
	if err != nil {
		return fmt.Errorf("probe %s: %w", name, err)
	}
	if exists {
		previous, err := dir.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read existing %s: %w", name, err)
		}
		backup, err := nextBackupName(dir, name)
		if err != nil {
			return err
		}
		if err := dir.WriteFile(backup, previous); err != nil {
			return fmt.Errorf("write backup %s: %w", backup, err)
		}
	}
	if err := dir.WriteFile(name, content); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
