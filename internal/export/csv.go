package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/model"
)

// Accounts CSV layout.
const (
	accountFields     = 9
	colAccountID      = 0
	colAccountName    = 1
	colAccountInfo    = 2
	colBalance        = 3
	colArchived       = 4
	colGroupID        = 5
	colInstitutionID  = 6
	colCalculated     = 7
	colFormula        = 8
	accountsHeaderRow = "account_id,name,info,balance,is_archived,group_id,institution_id,is_calculated,formula"
)

// Entity (group/institution) CSV layout.
const (
	entityFields     = 5
	colEntityID      = 0
	colEntityName    = 1
	colEntityDesc    = 2
	colEntityColor   = 3
	colEntityArchive = 4
	entityHeaderRow  = "id,name,description,color,is_archived"
)

// MarshalAccount converts an Account to a CSV row. Formulas are embedded
// as JSON in the last column, same shape the store persists.
func MarshalAccount(a model.Account) ([]string, error) {
	row := make([]string, accountFields)
	row[colAccountID] = strconv.Itoa(a.ID)
	row[colAccountName] = a.Name
	row[colAccountInfo] = a.Info
	row[colBalance] = a.Balance.String()
	row[colArchived] = strconv.FormatBool(a.IsArchived)
	if a.GroupID != nil {
		row[colGroupID] = strconv.Itoa(*a.GroupID)
	}
	if a.InstitutionID != nil {
		row[colInstitutionID] = strconv.Itoa(*a.InstitutionID)
	}
	row[colCalculated] = strconv.FormatBool(a.IsCalculated)
	if a.IsCalculated && len(a.Formula) > 0 {
		data, err := json.Marshal(a.Formula)
		if err != nil {
			return nil, fmt.Errorf("marshaling formula: %w", err)
		}
		row[colFormula] = string(data)
	}
	return row, nil
}

// UnmarshalAccount converts a CSV row to an Account.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != accountFields {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", accountFields, len(record))
	}

	id, err := strconv.Atoi(record[colAccountID])
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing account id %q: %w", record[colAccountID], err)
	}
	balance, err := decimal.NewFromString(record[colBalance])
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing balance %q: %w", record[colBalance], err)
	}
	archived, err := strconv.ParseBool(record[colArchived])
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing is_archived %q: %w", record[colArchived], err)
	}
	calculated, err := strconv.ParseBool(record[colCalculated])
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing is_calculated %q: %w", record[colCalculated], err)
	}

	a := model.Account{
		ID:           id,
		Name:         record[colAccountName],
		Info:         record[colAccountInfo],
		Balance:      balance,
		IsArchived:   archived,
		IsCalculated: calculated,
	}
	if record[colGroupID] != "" {
		gid, err := strconv.Atoi(record[colGroupID])
		if err != nil {
			return model.Account{}, fmt.Errorf("parsing group id %q: %w", record[colGroupID], err)
		}
		a.GroupID = &gid
	}
	if record[colInstitutionID] != "" {
		iid, err := strconv.Atoi(record[colInstitutionID])
		if err != nil {
			return model.Account{}, fmt.Errorf("parsing institution id %q: %w", record[colInstitutionID], err)
		}
		a.InstitutionID = &iid
	}
	if record[colFormula] != "" {
		if err := json.Unmarshal([]byte(record[colFormula]), &a.Formula); err != nil {
			return model.Account{}, fmt.Errorf("parsing formula: %w", err)
		}
	}
	return a, nil
}

// WriteAccounts writes accounts.csv.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(accountsHeaderRow, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, a := range accounts {
		row, err := MarshalAccount(a)
		if err != nil {
			return fmt.Errorf("row %d: %w", i+2, err)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// ReadAccounts reads accounts.csv.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = accountFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var accounts []model.Account
	for i, rec := range records[1:] {
		a, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

// entityRow covers the shared group/institution CSV shape.
type entityRow struct {
	ID          int
	Name        string
	Description string
	Color       string
	IsArchived  bool
}

func marshalEntity(e entityRow) []string {
	row := make([]string, entityFields)
	row[colEntityID] = strconv.Itoa(e.ID)
	row[colEntityName] = e.Name
	row[colEntityDesc] = e.Description
	row[colEntityColor] = e.Color
	row[colEntityArchive] = strconv.FormatBool(e.IsArchived)
	return row
}

func unmarshalEntity(record []string) (entityRow, error) {
	if len(record) != entityFields {
		return entityRow{}, fmt.Errorf("expected %d fields, got %d", entityFields, len(record))
	}
	id, err := strconv.Atoi(record[colEntityID])
	if err != nil {
		return entityRow{}, fmt.Errorf("parsing id %q: %w", record[colEntityID], err)
	}
	archived, err := strconv.ParseBool(record[colEntityArchive])
	if err != nil {
		return entityRow{}, fmt.Errorf("parsing is_archived %q: %w", record[colEntityArchive], err)
	}
	return entityRow{
		ID:          id,
		Name:        record[colEntityName],
		Description: record[colEntityDesc],
		Color:       record[colEntityColor],
		IsArchived:  archived,
	}, nil
}

// WriteGroups writes groups.csv.
func WriteGroups(w io.Writer, groups []model.Group) error {
	rows := make([]entityRow, len(groups))
	for i, g := range groups {
		rows[i] = entityRow{g.ID, g.Name, g.Description, g.Color, g.IsArchived}
	}
	return writeEntities(w, rows)
}

// ReadGroups reads groups.csv.
func ReadGroups(r io.Reader) ([]model.Group, error) {
	rows, err := readEntities(r)
	if err != nil {
		return nil, err
	}
	groups := make([]model.Group, len(rows))
	for i, e := range rows {
		groups[i] = model.Group{ID: e.ID, Name: e.Name, Description: e.Description, Color: e.Color, IsArchived: e.IsArchived}
	}
	return groups, nil
}

// WriteInstitutions writes institutions.csv.
func WriteInstitutions(w io.Writer, institutions []model.Institution) error {
	rows := make([]entityRow, len(institutions))
	for i, inst := range institutions {
		rows[i] = entityRow{inst.ID, inst.Name, inst.Description, inst.Color, inst.IsArchived}
	}
	return writeEntities(w, rows)
}

// ReadInstitutions reads institutions.csv.
func ReadInstitutions(r io.Reader) ([]model.Institution, error) {
	rows, err := readEntities(r)
	if err != nil {
		return nil, err
	}
	institutions := make([]model.Institution, len(rows))
	for i, e := range rows {
		institutions[i] = model.Institution{ID: e.ID, Name: e.Name, Description: e.Description, Color: e.Color, IsArchived: e.IsArchived}
	}
	return institutions, nil
}

func writeEntities(w io.Writer, rows []entityRow) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(entityHeaderRow, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, e := range rows {
		if err := cw.Write(marshalEntity(e)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

func readEntities(r io.Reader) ([]entityRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = entityFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var rows []entityRow
	for i, rec := range records[1:] {
		e, err := unmarshalEntity(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rows = append(rows, e)
	}
	return rows, nil
}

