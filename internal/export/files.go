package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tally-dev/tally/internal/model"
)

const exportDir = "export"

// File names under <dataDir>/export/.
const (
	AccountsFile     = "accounts.csv"
	GroupsFile       = "groups.csv"
	InstitutionsFile = "institutions.csv"
)

// WriteAll writes the full entity set to <dataDir>/export/ as CSV.
func WriteAll(dataDir string, accounts []model.Account, groups []model.Group, institutions []model.Institution) error {
	dir := filepath.Join(dataDir, exportDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating export dir: %w", err)
	}

	if err := writeFile(filepath.Join(dir, GroupsFile), func(f *os.File) error {
		return WriteGroups(f, groups)
	}); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, InstitutionsFile), func(f *os.File) error {
		return WriteInstitutions(f, institutions)
	}); err != nil {
		return err
	}
	return writeFile(filepath.Join(dir, AccountsFile), func(f *os.File) error {
		return WriteAccounts(f, accounts)
	})
}

// ReadAll reads the entity set back from <dataDir>/export/. Missing files
// yield empty slices so partial exports import cleanly.
func ReadAll(dataDir string) ([]model.Account, []model.Group, []model.Institution, error) {
	dir := filepath.Join(dataDir, exportDir)

	var accounts []model.Account
	if err := readFile(filepath.Join(dir, AccountsFile), func(f *os.File) error {
		var err error
		accounts, err = ReadAccounts(f)
		return err
	}); err != nil {
		return nil, nil, nil, err
	}

	var groups []model.Group
	if err := readFile(filepath.Join(dir, GroupsFile), func(f *os.File) error {
		var err error
		groups, err = ReadGroups(f)
		return err
	}); err != nil {
		return nil, nil, nil, err
	}

	var institutions []model.Institution
	if err := readFile(filepath.Join(dir, InstitutionsFile), func(f *os.File) error {
		var err error
		institutions, err = ReadInstitutions(f)
		return err
	}); err != nil {
		return nil, nil, nil, err
	}

	return accounts, groups, institutions, nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	if err := write(f); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

func readFile(path string, read func(*os.File) error) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	if err := read(f); err != nil {
		return fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	return nil
}
