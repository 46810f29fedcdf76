// Seed tool for loading hindcast samples into the Petrel sample store.
//
// Usage:
//   go run cmd/seed/main.go -db ./petrel.db -lat -22.5 -lon -40.0 -days 365
//   go run cmd/seed/main.go -db ./petrel.db -csv /path/to/hindcast.csv
//
// Without -csv the tool generates a synthetic hourly hindcast: wind
// components with a seasonal cycle plus storm noise, and wave height
// loosely correlated with wind speed. With -csv it loads rows of
// time,u10,v10,hs at the given point.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/opensource-climate/petrel/internal/domain"
	"github.com/opensource-climate/petrel/internal/repository"
)

const batchSize = 1000

func main() {
	dbPath := flag.String("db", "./petrel.db", "Path to the SQLite database")
	csvPath := flag.String("csv", "", "Optional CSV file with time,u10,v10,hs rows")
	lat := flag.Float64("lat", -22.5, "Grid point latitude")
	lon := flag.Float64("lon", -40.0, "Grid point longitude")
	days := flag.Int("days", 365, "Days of synthetic hourly data to generate")
	startStr := flag.String("start", "2023-01-01", "Start date for synthetic data (YYYY-MM-DD)")
	seed := flag.Int64("seed", 42, "Random seed for synthetic data")
	flag.Parse()

	start, err := time.Parse("2006-01-02", *startStr)
	if err != nil {
		fmt.Printf("ERROR: invalid start date %q: %v\n", *startStr, err)
		os.Exit(1)
	}

	repo, err := repository.New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: *dbPath,
	})
	if err != nil {
		fmt.Printf("ERROR: failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer repo.Close()

	fmt.Println("Petrel sample store seeder")
	fmt.Printf("  Database: %s\n", *dbPath)
	fmt.Printf("  Point:    (%.4f, %.4f)\n", *lat, *lon)

	var times []time.Time
	var u, v, hs []float64

	if *csvPath != "" {
		fmt.Printf("  Source:   %s\n", *csvPath)
		times, u, v, hs, err = readCSV(*csvPath)
		if err != nil {
			fmt.Printf("ERROR: failed to read CSV: %v\n", err)
			os.Exit(1)
		}
	} else {
		fmt.Printf("  Source:   synthetic, %d days from %s\n", *days, start.Format("2006-01-02"))
		times, u, v, hs = synthetic(start, *days*24, *seed)
	}

	ctx := context.Background()
	for variable, values := range map[string][]float64{
		domain.VarWindU:      u,
		domain.VarWindV:      v,
		domain.VarWaveHeight: hs,
	} {
		if err := saveBatched(ctx, repo, variable, *lat, *lon, times, values); err != nil {
			fmt.Printf("ERROR: failed to save %s: %v\n", variable, err)
			os.Exit(1)
		}
		fmt.Printf("  Saved:    %s, %d samples\n", variable, len(values))
	}

	fmt.Println("Done.")
}

// synthetic generates an hourly hindcast with a yearly wind cycle, storm
// bursts and waves that lag the wind.
func synthetic(start time.Time, hours int, seed int64) (times []time.Time, u, v, hs []float64) {
	rng := rand.New(rand.NewSource(seed))

	times = make([]time.Time, hours)
	u = make([]float64, hours)
	v = make([]float64, hours)
	hs = make([]float64, hours)

	storm := 0.0
	for i := 0; i < hours; i++ {
		times[i] = start.Add(time.Duration(i) * time.Hour)

		// Seasonal base speed in m/s, peaking mid-year
		dayOfYear := float64(times[i].YearDay())
		base := 6.0 + 2.5*math.Sin(2*math.Pi*dayOfYear/365.0)

		// Occasional multi-hour storms
		if rng.Float64() < 0.002 {
			storm = 6.0 + 4.0*rng.Float64()
		}
		storm *= 0.97

		speed := base + storm + rng.NormFloat64()*1.5
		if speed < 0 {
			speed = 0
		}

		// Slowly drifting direction
		dir := 2 * math.Pi * math.Mod(float64(i)/400.0+0.1*rng.Float64(), 1.0)
		u[i] = speed * math.Sin(dir)
		v[i] = speed * math.Cos(dir)

		// Waves track wind speed with noise, floored near calm
		hs[i] = 0.3 + 0.22*speed + rng.NormFloat64()*0.3
		if hs[i] < 0.1 {
			hs[i] = 0.1
		}
	}
	return times, u, v, hs
}

// readCSV parses rows of time,u10,v10,hs with an optional header line.
func readCSV(path string) (times []time.Time, u, v, hs []float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	line := 0
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, nil, nil, err
		}
		line++
		if len(row) < 4 {
			return nil, nil, nil, nil, fmt.Errorf("line %d: expected 4 columns, got %d", line, len(row))
		}

		t, err := time.Parse(time.RFC3339, row[0])
		if err != nil {
			if line == 1 {
				// Header line
				continue
			}
			return nil, nil, nil, nil, fmt.Errorf("line %d: bad time %q", line, row[0])
		}

		vals := make([]float64, 3)
		for i := 0; i < 3; i++ {
			vals[i], err = strconv.ParseFloat(row[i+1], 64)
			if err != nil {
				return nil, nil, nil, nil, fmt.Errorf("line %d: bad value %q", line, row[i+1])
			}
		}

		times = append(times, t.UTC())
		u = append(u, vals[0])
		v = append(v, vals[1])
		hs = append(hs, vals[2])
	}
	return times, u, v, hs, nil
}

// saveBatched writes samples in chunks to keep transactions small.
func saveBatched(ctx context.Context, repo domain.Repository, variable string, lat, lon float64, times []time.Time, values []float64) error {
	for i := 0; i < len(values); i += batchSize {
		end := i + batchSize
		if end > len(values) {
			end = len(values)
		}
		if err := repo.SaveSamples(ctx, variable, lat, lon, times[i:end], values[i:end]); err != nil {
			return err
		}
	}
	return nil
}
