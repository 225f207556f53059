/*
Package csv reads datasets from CSV streams and writes them back.
*/
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pbanos/canopy/dataset"
	"github.com/pbanos/canopy/feature"
)

/*
Writer is an interface for a dataset to which samples
can be written to.
*/
type Writer interface {
	// Write will attempt to write the given
	// samples and will return the actually written
	// number of samples and an error (if not all samples
	// could be written)
	Write([]dataset.Sample) (int, error)
	// Count returns the total number of samples written
	// to the writer
	Count() int
	// Flush ensures any pending written operations finish
	// before returning. It returns an error if that cannot
	// be ensured.
	Flush() error
}

type csvWriter struct {
	count    int
	features []feature.Feature
	w        *csv.Writer
}

/*
ReadDataset takes an io.Reader for a CSV stream, a slice of features and a
dataset.Generator and returns a dataset.Dataset built with the generator and
the samples parsed from the reader or an error.

The header or first row of the CSV content is expected to consist of names
of the features in the given slice. Columns with an unknown name are
ignored. Every feature in the slice must have a column, and every row must
have a valid value for each of them.
*/
func ReadDataset(reader io.Reader, features []feature.Feature, g dataset.Generator) (dataset.Dataset, error) {
	samples := []dataset.Sample{}
	err := ReadDatasetBySample(reader, features, func(_ int, s dataset.Sample) (bool, error) {
		samples = append(samples, s)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return g(samples), nil
}

/*
ReadDatasetBySample takes an io.Reader for a CSV stream, a slice of features and a
lambda function on an integer and a dataset.Sample that returns a boolean value.
It parses the samples from the reader and for each it calls the lambda function
with the sample and its index as parameters. If the lambda function returns true,
it will continue processing the next sample, otherwise it will stop. An error is
returned if something goes wrong when reading the stream or parsing a sample.
*/
func ReadDatasetBySample(reader io.Reader, features []feature.Feature, lambda func(int, dataset.Sample) (bool, error)) error {
	r := csv.NewReader(reader)
	r.TrimLeadingSpace = true
	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("reading header: %v", err)
	}
	columns, err := columnsFromCSVHeader(header, features)
	if err != nil {
		return err
	}
	for l := 2; ; l++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading body: %v", err)
		}
		sample, err := parseSampleFromCSVRow(row, features, columns)
		if err != nil {
			return fmt.Errorf("parsing line %d: %v", l, err)
		}
		ok, err := lambda(l-2, sample)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
	}
	return nil
}

/*
ReadDatasetFromFilePath takes a filepath string, a slice of features and a
dataset.Generator, opens the file to which the filepath points to and uses
ReadDataset to return a dataset.Dataset or an error read from it. If the
filepath is "" os.Stdin is read instead.
*/
func ReadDatasetFromFilePath(filepath string, features []feature.Feature, g dataset.Generator) (dataset.Dataset, error) {
	f := os.Stdin
	if filepath != "" {
		var err error
		f, err = os.Open(filepath)
		if err != nil {
			return nil, fmt.Errorf("opening dataset: %v", err)
		}
		defer f.Close()
	}
	ds, err := ReadDataset(f, features, g)
	if err != nil {
		err = fmt.Errorf("parsing CSV file %s: %v", filepath, err)
	}
	return ds, err
}

/*
NewWriter takes an io.Writer and a slice of feature.Features and
returns a Writer that will write any samples on the io.Writer.
*/
func NewWriter(writer io.Writer, features []feature.Feature) (Writer, error) {
	w := csv.NewWriter(writer)
	record := make([]string, len(features))
	for i, f := range features {
		record[i] = f.Name()
	}
	err := w.Write(record)
	if err != nil {
		return nil, fmt.Errorf("writing CSV header: %v", err)
	}
	return &csvWriter{features: features, w: w}, nil
}

/*
WriteDataset takes a writer, a dataset.Dataset and a slice of features and
dumps to the writer the dataset in CSV format, specifying only the features
in the given slice for the samples. It returns an error if something
went wrong when writing to the writer, or codifying the samples.
*/
func WriteDataset(writer io.Writer, ds dataset.Dataset, features []feature.Feature) error {
	cw, err := NewWriter(writer, features)
	if err != nil {
		return err
	}
	samples, err := ds.Samples()
	if err != nil {
		return err
	}
	_, err = cw.Write(samples)
	if err != nil {
		return err
	}
	return cw.Flush()
}

func columnsFromCSVHeader(header []string, features []feature.Feature) ([]int, error) {
	positions := make(map[string]int)
	for i, name := range header {
		positions[strings.TrimSpace(name)] = i
	}
	columns := make([]int, len(features))
	for i, f := range features {
		c, ok := positions[f.Name()]
		if !ok {
			return nil, fmt.Errorf("parsing header: no column for feature %s", f.Name())
		}
		columns[i] = c
	}
	return columns, nil
}

func parseSampleFromCSVRow(row []string, features []feature.Feature, columns []int) (dataset.Sample, error) {
	featureValues := make(map[string]interface{})
	for i, f := range features {
		if columns[i] >= len(row) {
			return nil, fmt.Errorf("missing value for feature %s", f.Name())
		}
		v := strings.TrimSpace(row[columns[i]])
		var value interface{} = v
		if _, ok := f.(*feature.ContinuousFeature); ok {
			fv, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("converting %s to float64: %v", v, err)
			}
			value = fv
		}
		if ok, err := f.Valid(value); !ok {
			return nil, fmt.Errorf("invalid value %v of type %T for feature %s: %v", value, value, f.Name(), err)
		}
		featureValues[f.Name()] = value
	}
	return dataset.NewSample(featureValues), nil
}

func (cw *csvWriter) Count() int {
	return cw.count
}

func (cw *csvWriter) Write(samples []dataset.Sample) (int, error) {
	for n, s := range samples {
		err := cw.writeSample(s)
		if err != nil {
			return n, err
		}
	}
	return len(samples), nil
}

func (cw *csvWriter) writeSample(sample dataset.Sample) error {
	record := make([]string, len(cw.features))
	for j, f := range cw.features {
		v, err := sample.ValueFor(f)
		if err != nil {
			return err
		}
		if fv, ok := v.(float64); ok {
			record[j] = strconv.FormatFloat(fv, 'g', -1, 64)
		} else {
			record[j] = dataset.ValueKey(v)
		}
	}
	err := cw.w.Write(record)
	if err != nil {
		return fmt.Errorf("writing CSV row for sample %d: %v", cw.count+1, err)
	}
	cw.count++
	return nil
}

func (cw *csvWriter) Flush() error {
	cw.w.Flush()
	return cw.w.Error()
}
