package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pbanos/canopy/dataset"
	"github.com/pbanos/canopy/dataset/csv"
	"github.com/pbanos/canopy/dataset/mongodataset"
	"github.com/pbanos/canopy/dataset/sqldataset"
	"github.com/pbanos/canopy/dataset/sqldataset/pgadapter"
	"github.com/pbanos/canopy/dataset/sqldataset/sqlite3adapter"
	"github.com/pbanos/canopy/feature"
)

// datasetStore is a dataset source or destination other than CSV.
type datasetStore interface {
	Read(ctx context.Context, g dataset.Generator) (dataset.Dataset, error)
	Write(ctx context.Context, samples []dataset.Sample) (int, error)
	Close() error
}

type datasetKind int

const (
	csvDataset datasetKind = iota
	sqlite3Dataset
	pgDataset
	mongoDataset
)

func kindOf(location string) datasetKind {
	switch {
	case strings.HasPrefix(location, "postgresql://"), strings.HasPrefix(location, "postgres://"):
		return pgDataset
	case strings.HasPrefix(location, "mongodb://"):
		return mongoDataset
	case strings.HasSuffix(location, ".db"):
		return sqlite3Dataset
	}
	return csvDataset
}

func generator(memoryIntensive, cpuIntensive bool) dataset.Generator {
	switch {
	case memoryIntensive:
		return dataset.NewMemoryIntensive
	case cpuIntensive:
		return dataset.NewCPUIntensive
	}
	return dataset.New
}

// openStore opens the store at location. When create is set, SQL tables
// are created if missing.
func openStore(ctx context.Context, location string, features []feature.Feature, create bool) (datasetStore, error) {
	var adapter sqldataset.Adapter
	var err error
	switch kindOf(location) {
	case mongoDataset:
		store, err := mongodataset.Dial(location, features)
		if err != nil {
			return nil, err
		}
		return store, nil
	case pgDataset:
		adapter, err = pgadapter.New(location)
	case sqlite3Dataset:
		adapter, err = sqlite3adapter.New(location)
	default:
		return nil, fmt.Errorf("%s is not a database location", location)
	}
	if err != nil {
		return nil, err
	}
	var store *sqldataset.Store
	if create {
		store, err = sqldataset.Create(ctx, adapter, features)
	} else {
		store, err = sqldataset.Open(ctx, adapter, features)
	}
	if err != nil {
		adapter.Close()
		return nil, err
	}
	return store, nil
}

/*
readDataset loads the dataset at location: a PostgreSQL or MongoDB URL, a
SQLite3 file with .db extension or a CSV file (STDIN when empty).
*/
func readDataset(ctx context.Context, location string, features []feature.Feature, g dataset.Generator) (dataset.Dataset, error) {
	if kindOf(location) == csvDataset {
		return csv.ReadDatasetFromFilePath(location, features, g)
	}
	store, err := openStore(ctx, location, features, false)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Read(ctx, g)
}

// writeDataset dumps ds into location, STDOUT when empty.
func writeDataset(ctx context.Context, location string, ds dataset.Dataset, features []feature.Feature) (int, error) {
	if kindOf(location) == csvDataset {
		var w io.Writer = os.Stdout
		if location != "" {
			f, err := os.Create(location)
			if err != nil {
				return 0, fmt.Errorf("creating %s: %w", location, err)
			}
			defer f.Close()
			w = f
		}
		if err := csv.WriteDataset(w, ds, features); err != nil {
			return 0, err
		}
		return ds.Count()
	}
	store, err := openStore(ctx, location, features, true)
	if err != nil {
		return 0, err
	}
	defer store.Close()
	samples, err := ds.Samples()
	if err != nil {
		return 0, err
	}
	return store.Write(ctx, samples)
}
