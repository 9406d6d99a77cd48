package geonames

import (
	"archive/zip"
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/samirrijal/streetpool/internal/core/domain"
)

// geonamesFields is the column count of a GeoNames cities dump line.
const geonamesFields = 19

// LoadFile reads populated places from a GeoNames dump, either a .zip
// (cities15000.zip and friends) or the extracted tab-separated .txt, or from
// a Natural Earth populated-places attribute table exported as .csv.
// Places below minPopulation are dropped.
func LoadFile(path string, minPopulation int64) ([]domain.Place, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".zip" {
		return loadZip(path, minPopulation)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open places: %w", err)
	}
	defer f.Close()

	if ext == ".csv" {
		return ReadCSV(f, minPopulation)
	}
	return ReadPlaces(f, minPopulation)
}

func loadZip(path string, minPopulation int64) ([]domain.Place, error) {
	rz, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening zip file: %w", err)
	}
	defer rz.Close()

	var places []domain.Place
	for _, entry := range rz.File {
		if !strings.HasSuffix(entry.Name, ".txt") || strings.EqualFold(entry.Name, "readme.txt") {
			continue
		}
		got, err := readZipEntry(entry, minPopulation)
		if err != nil {
			return nil, err
		}
		places = append(places, got...)
	}
	return places, nil
}

func readZipEntry(entry *zip.File, minPopulation int64) ([]domain.Place, error) {
	fi, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s in zip: %w", entry.Name, err)
	}
	defer fi.Close()
	return ReadPlaces(fi, minPopulation)
}

// ReadPlaces parses GeoNames tab-separated lines. Lines with the wrong column
// count or unparseable coordinates are skipped.
func ReadPlaces(r io.Reader, minPopulation int64) ([]domain.Place, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var places []domain.Place
	for scanner.Scan() {
		fields := strings.SplitN(scanner.Text(), "\t", geonamesFields)
		if len(fields) != geonamesFields {
			continue
		}

		// Skipping bad coordinates keeps Null Island out of the sample set.
		lat, errLat := strconv.ParseFloat(fields[4], 64)
		lon, errLon := strconv.ParseFloat(fields[5], 64)
		if errLat != nil || errLon != nil {
			continue
		}
		pt := domain.GeoPoint{Lat: lat, Lon: lon}
		if !pt.Valid() {
			continue
		}

		pop, _ := strconv.ParseInt(fields[14], 10, 64)
		if pop < minPopulation {
			continue
		}
		id, _ := strconv.ParseInt(fields[0], 10, 64)

		places = append(places, domain.Place{
			GeonameID:  id,
			Name:       strings.TrimSpace(fields[1]),
			Country:    fields[8],
			Location:   pt,
			Population: pop,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan places: %w", err)
	}
	return places, nil
}

// ReadCSV parses a header-led CSV with at least latitude and longitude
// columns. Column names are matched case-insensitively; name and population
// columns are optional.
func ReadCSV(r io.Reader, minPopulation int64) ([]domain.Place, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	col := func(names ...string) int {
		for i, h := range header {
			for _, n := range names {
				if strings.EqualFold(strings.TrimSpace(h), n) {
					return i
				}
			}
		}
		return -1
	}
	latCol, lonCol := col("latitude", "lat"), col("longitude", "lon", "lng")
	if latCol < 0 || lonCol < 0 {
		return nil, errors.New("csv needs latitude and longitude columns")
	}
	nameCol, popCol, countryCol := col("name", "nameascii"), col("pop_max", "population"), col("iso_a2", "country")

	field := func(rec []string, i int) string {
		if i < 0 || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var places []domain.Place
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}

		lat, errLat := strconv.ParseFloat(field(rec, latCol), 64)
		lon, errLon := strconv.ParseFloat(field(rec, lonCol), 64)
		pt := domain.GeoPoint{Lat: lat, Lon: lon}
		if errLat != nil || errLon != nil || !pt.Valid() {
			continue
		}
		pop, _ := strconv.ParseFloat(field(rec, popCol), 64)
		if int64(pop) < minPopulation {
			continue
		}

		// CSV rows carry no GeoNames id; negative row numbers keep them apart.
		places = append(places, domain.Place{
			GeonameID:  -int64(len(places) + 1),
			Name:       field(rec, nameCol),
			Country:    field(rec, countryCol),
			Location:   pt,
			Population: int64(pop),
		})
	}
	return places, nil
}
