// Command clifbuild loads the CLIF hospital event tables from a data
// directory and produces the wide event table and the hourly-aggregated
// table (spec §4), optionally bulk-loading both into Postgres.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"clif/internal/hourly"
	"clif/internal/loader"
	"clif/internal/relation"
	"clif/internal/schema"
	"clif/internal/sink"
	"clif/internal/vaso"
	"clif/internal/wide"
)

func main() {
	dataDir := flag.String("data-dir", "", "directory containing the CLIF table files")
	format := flag.String("format", "csv", "source file format: csv or parquet")
	optionalTables := flag.String("optional-tables", "vitals,labs,medication_admin_continuous,patient_assessments,respiratory_support",
		"comma-separated optional tables to load and pivot")
	cohortMode := flag.String("cohort", "all", "cohort mode: all, random, or explicit")
	cohortIDs := flag.String("cohort-ids", "", "comma-separated hospitalization_ids for -cohort=explicit")
	siteTZ := flag.String("site-tz", "", "IANA timezone the source timestamps are recorded in (empty: no conversion)")
	targetTZ := flag.String("target-tz", "UTC", "IANA timezone to convert timestamps into")
	outWide := flag.String("out-wide", "wide_events.csv", "output path for the wide event table")
	outHourly := flag.String("out-hourly", "hourly_events.csv", "output path for the hourly-aggregated table")
	pgConn := flag.String("pg", "", "PostgreSQL connection string; when set, both tables are also COPY-loaded there")
	vasoUnit := flag.String("vaso-target-unit", "", "convert vasopressor doses in medication_admin_continuous to this unit before pivoting (e.g. mcg/kg/min)")
	flag.Parse()

	if *dataDir == "" {
		fmt.Fprintln(os.Stderr, "Usage: clifbuild -data-dir DIR [-format csv|parquet] [-optional-tables t1,t2,...] [-pg connstr]")
		os.Exit(1)
	}

	cfg := runConfig{
		dataDir:        *dataDir,
		format:         *format,
		optionalTables: *optionalTables,
		cohortMode:     *cohortMode,
		cohortIDs:      *cohortIDs,
		siteTZ:         *siteTZ,
		targetTZ:       *targetTZ,
		outWide:        *outWide,
		outHourly:      *outHourly,
		pgConn:         *pgConn,
		vasoUnit:       *vasoUnit,
	}
	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
}

type runConfig struct {
	dataDir        string
	format         string
	optionalTables string
	cohortMode     string
	cohortIDs      string
	siteTZ         string
	targetTZ       string
	outWide        string
	outHourly      string
	pgConn         string
	vasoUnit       string
}

func run(cfg runConfig) error {
	start := time.Now()
	ctx := context.Background()

	fileFormat, ext := loader.FormatCSV, ".csv"
	if strings.EqualFold(cfg.format, "parquet") {
		fileFormat, ext = loader.FormatParquet, ".parquet"
	}

	specs := []loader.Spec{
		{Table: loader.TablePatient, Path: filepath.Join(cfg.dataDir, "patient"+ext), Format: fileFormat},
		{Table: loader.TableHospitalization, Path: filepath.Join(cfg.dataDir, "hospitalization"+ext), Format: fileFormat},
	}
	if adtPath := filepath.Join(cfg.dataDir, "adt"+ext); pathExists(adtPath) {
		specs = append(specs, loader.Spec{Table: loader.TableADT, Path: adtPath, Format: fileFormat})
	}
	var wantOptional []string
	for _, name := range splitCSV(cfg.optionalTables) {
		if !schema.IsOptionalTable(name) {
			fmt.Printf("clifbuild: %q is not a recognized optional table, ignoring\n", name)
			continue
		}
		path := filepath.Join(cfg.dataDir, name+ext)
		if !pathExists(path) {
			fmt.Printf("clifbuild: %s not found, skipping\n", path)
			continue
		}
		specs = append(specs, loader.Spec{Table: loader.TableName(name), Path: path, Format: fileFormat})
		wantOptional = append(wantOptional, name)
	}

	fmt.Printf("Data dir: %s\n", cfg.dataDir)
	fmt.Printf("Tables:   %d (%d optional)\n", len(specs), len(wantOptional))

	siteTZ, targetTZ, err := resolveZones(cfg.siteTZ, cfg.targetTZ)
	if err != nil {
		return err
	}

	results, err := loader.LoadAll(ctx, specs, siteTZ, targetTZ)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}

	var patient, hosp, adt *relation.Table
	optional := map[string]*relation.Table{}
	for _, res := range results {
		if report := res.Validation; !report.OK() {
			fmt.Printf("clifbuild: %s: %d schema errors, %d range errors\n", res.Table, len(report.Errors), len(report.RangeErrors))
		}
		switch res.Table {
		case loader.TablePatient:
			patient = res.Data
		case loader.TableHospitalization:
			hosp = res.Data
		case loader.TableADT:
			adt = res.Data
		default:
			optional[string(res.Table)] = res.Data
		}
	}
	if patient == nil || hosp == nil {
		return fmt.Errorf("clifbuild: patient and hospitalization tables are required")
	}

	if cfg.vasoUnit != "" {
		if medCont, ok := optional[string(loader.TableMedicationContinuous)]; ok {
			optional[string(loader.TableMedicationContinuous)] = vaso.Convert(medCont, optional[string(loader.TableVitals)], cfg.vasoUnit)
			fmt.Printf("Converted vasopressor doses to %s\n", cfg.vasoUnit)
		} else {
			fmt.Printf("clifbuild: -vaso-target-unit set but medication_admin_continuous was not loaded; skipping\n")
		}
	}

	cohort, err := resolveCohortSelector(cfg.cohortMode, cfg.cohortIDs)
	if err != nil {
		return err
	}

	wideTable, err := wide.Build(wide.Inputs{
		Patient:         patient,
		Hospitalization: hosp,
		ADT:             adt,
		Optional:        optional,
	}, wide.Config{
		OptionalTables: wantOptional,
		Cohort:         cohort,
	})
	if err != nil {
		return fmt.Errorf("build wide table: %w", err)
	}
	fmt.Printf("Wide table:   %d rows, %d columns\n", len(wideTable.Rows), len(wideTable.Columns))

	hourlyTable, err := hourly.Aggregate(wideTable, hourly.Config{})
	if err != nil {
		return fmt.Errorf("aggregate hourly table: %w", err)
	}
	fmt.Printf("Hourly table: %d rows, %d columns\n", len(hourlyTable.Rows), len(hourlyTable.Columns))

	if err := writeCSV(cfg.outWide, wideTable); err != nil {
		return fmt.Errorf("write wide table: %w", err)
	}
	if err := writeCSV(cfg.outHourly, hourlyTable); err != nil {
		return fmt.Errorf("write hourly table: %w", err)
	}

	if cfg.pgConn != "" {
		s, err := sink.NewPostgresSink(ctx, cfg.pgConn)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer s.Close()

		for _, t := range []struct {
			name string
			tbl  *relation.Table
		}{{"wide_events", wideTable}, {"hourly_events", hourlyTable}} {
			if err := s.EnsureTable(ctx, t.name, t.tbl); err != nil {
				return err
			}
			n, err := s.CopyInto(ctx, t.name, t.tbl)
			if err != nil {
				return err
			}
			fmt.Printf("Postgres: copied %d rows into %s\n", n, t.name)
		}
	}

	fmt.Printf("Done in %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

func resolveZones(siteTZName, targetTZName string) (site, target *time.Location, err error) {
	if siteTZName != "" {
		site, err = time.LoadLocation(siteTZName)
		if err != nil {
			return nil, nil, fmt.Errorf("load site-tz %q: %w", siteTZName, err)
		}
	}
	target, err = time.LoadLocation(targetTZName)
	if err != nil {
		return nil, nil, fmt.Errorf("load target-tz %q: %w", targetTZName, err)
	}
	return site, target, nil
}

func resolveCohortSelector(mode, idsCSV string) (wide.CohortSelector, error) {
	switch strings.ToLower(mode) {
	case "all", "":
		return wide.CohortSelector{Mode: wide.CohortAll}, nil
	case "random":
		return wide.CohortSelector{Mode: wide.CohortRandomSample}, nil
	case "explicit":
		ids := splitCSV(idsCSV)
		if len(ids) == 0 {
			return wide.CohortSelector{}, fmt.Errorf("clifbuild: -cohort=explicit requires -cohort-ids")
		}
		return wide.CohortSelector{Mode: wide.CohortExplicit, IDs: ids}, nil
	default:
		return wide.CohortSelector{}, fmt.Errorf("clifbuild: unrecognized -cohort mode %q", mode)
	}
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// writeCSV writes t as CSV. The wide/hourly tables carry a column set that
// varies per dataset (ghost columns, one-hot unions), so there is no fixed
// struct for parquet-go's GenericWriter[T] to derive a schema from the way
// internal/loader's typed source readers do — CSV is the only output
// encoding this module uses that needs no declared schema up front.
func writeCSV(path string, t *relation.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		return err
	}
	for _, r := range t.Rows {
		record := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			record[i] = csvCell(r.Get(c))
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func csvCell(v relation.Value) string {
	switch v.Kind {
	case relation.KindNumeric:
		f, _ := v.Float()
		return strconv.FormatFloat(f, 'g', -1, 64)
	case relation.KindText:
		s, _ := v.Str()
		return s
	case relation.KindTimestamp:
		ts, _ := v.Time()
		return ts.Format(time.RFC3339)
	case relation.KindBool:
		b, _ := v.BoolVal()
		return strconv.FormatBool(b)
	default:
		return ""
	}
}
