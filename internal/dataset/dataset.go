// Package dataset loads the delimited input files, validates their schema,
// and exports the geocoded status table. The original columns are preserved
// verbatim; extra columns pass through untouched.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Houeta/address-mapper/internal/models"
)

// Required header columns per input mode.
var (
	addressColumns = []string{"account_id", "street", "city", "state", "zipcode"}
	zipColumns     = []string{"zipcode", "no_of_households"}
)

// ValidationError reports required columns missing from the input header.
// It is fatal to the whole run and is raised before any geocoding begins.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// Dataset holds the parsed input file: the original header and raw rows for
// pass-through export, and the typed records aligned with them by index.
type Dataset struct {
	Header  []string        // Header is the original header row.
	Raw     [][]string      // Raw holds the original data rows, input order.
	Records []models.Record // Records are the typed rows, aligned with Raw.
}

// LoadAddresses parses an address-mode CSV. The header must contain
// account_id, street, city, state and zipcode; extra columns are preserved.
func LoadAddresses(r io.Reader) (*Dataset, error) {
	return load(r, addressColumns, func(idx map[string]int, row []string) (models.Record, error) {
		return models.AddressRecord{
			AccountID: row[idx["account_id"]],
			Street:    row[idx["street"]],
			City:      row[idx["city"]],
			State:     row[idx["state"]],
			Zip:       row[idx["zipcode"]],
		}, nil
	})
}

// LoadZips parses a zip-mode CSV. The header must contain zipcode and
// no_of_households; the household count must be a non-negative integer.
func LoadZips(r io.Reader) (*Dataset, error) {
	return load(r, zipColumns, func(idx map[string]int, row []string) (models.Record, error) {
		raw := strings.TrimSpace(row[idx["no_of_households"]])
		households, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid no_of_households value %q: %w", raw, err)
		}
		if households < 0 {
			return nil, fmt.Errorf("no_of_households must be non-negative, got %d", households)
		}
		return models.ZipRecord{
			Zip:        row[idx["zipcode"]],
			Households: households,
		}, nil
	})
}

// LoadAddressFile and LoadZipFile are path-based convenience wrappers.
func LoadAddressFile(path string) (*Dataset, error) { return loadFile(path, LoadAddresses) }
func LoadZipFile(path string) (*Dataset, error)     { return loadFile(path, LoadZips) }

func loadFile(path string, parse func(io.Reader) (*Dataset, error)) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	ds, err := parse(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return ds, nil
}

// load reads the whole file, validates the header against the required
// columns, and converts every row with toRecord.
func load(
	r io.Reader,
	required []string,
	toRecord func(idx map[string]int, row []string) (models.Record, error),
) (*Dataset, error) {
	reader := csv.NewReader(r)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, &ValidationError{Missing: required}
	}

	header := rows[0]
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}

	ds := &Dataset{Header: header}
	for n, row := range rows[1:] {
		record, err := toRecord(idx, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+1, err)
		}
		ds.Raw = append(ds.Raw, row)
		ds.Records = append(ds.Records, record)
	}

	return ds, nil
}

// Export writes the status table: the original columns of every input row,
// followed by full_address (address mode only), latitude, longitude and
// geocoding_status. Row order and row count match the input exactly;
// coordinates are left empty for rows that did not geocode.
func (d *Dataset) Export(w io.Writer, set models.ResultSet) error {
	if len(set) != len(d.Raw) {
		return fmt.Errorf("result set has %d rows, dataset has %d", len(set), len(d.Raw))
	}

	withFullAddress := false
	if len(d.Records) > 0 {
		_, withFullAddress = d.Records[0].(models.AddressRecord)
	}

	writer := csv.NewWriter(w)

	header := append([]string{}, d.Header...)
	if withFullAddress {
		header = append(header, "full_address")
	}
	header = append(header, "latitude", "longitude", "geocoding_status")
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, raw := range d.Raw {
		row := append([]string{}, raw...)
		if withFullAddress {
			row = append(row, set[i].Query)
		}
		var lat, lon string
		if set[i].Coords != nil {
			lat = strconv.FormatFloat(set[i].Coords.Latitude, 'f', -1, 64)
			lon = strconv.FormatFloat(set[i].Coords.Longitude, 'f', -1, 64)
		}
		row = append(row, lat, lon, string(set[i].Status))
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV output: %w", err)
	}
	return nil
}

// ExportFile writes the status table to path.
func (d *Dataset) ExportFile(path string, set models.ResultSet) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := d.Export(file, set); err != nil {
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}
