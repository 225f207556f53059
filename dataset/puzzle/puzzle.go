/*
Package puzzle reads datasets in the plain whitespace-separated format of
feature selection puzzles: the number of samples, the number of features
and the size of the feature subsets to search, one per line, followed by a
line per sample with an index, the sample's species and its feature values.
*/
package puzzle

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pbanos/canopy/dataset"
	"github.com/pbanos/canopy/feature"
)

/*
Puzzle holds a parsed puzzle: the samples as a dataset, the continuous
features f1..fN in column order, the discrete species label and the
number of features to choose.
*/
type Puzzle struct {
	Dataset  dataset.Dataset
	Features []feature.Feature
	Label    feature.Feature
	Size     int
}

/*
Read takes an io.Reader and a dataset.Generator and parses a puzzle from
the reader, building its dataset with the generator. An error is returned
if the header or any sample line is malformed or there are fewer sample
lines than announced.
*/
func Read(r io.Reader, g dataset.Generator) (*Puzzle, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	next := func() ([]string, error) {
		for scanner.Scan() {
			line++
			fields := strings.Fields(scanner.Text())
			if len(fields) > 0 {
				return fields, nil
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, io.ErrUnexpectedEOF
	}
	header := make([]int, 3)
	for i, name := range []string{"sample count", "feature count", "subset size"} {
		fields, err := next()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %v", name, err)
		}
		if len(fields) != 1 {
			return nil, fmt.Errorf("line %d: expected %s, got %q", line, name, strings.Join(fields, " "))
		}
		header[i], err = strconv.Atoi(fields[0])
		if err != nil || header[i] < 0 {
			return nil, fmt.Errorf("line %d: invalid %s %q", line, name, fields[0])
		}
	}
	count, featureCount, size := header[0], header[1], header[2]
	p := &Puzzle{
		Features: make([]feature.Feature, featureCount),
		Label:    feature.NewDiscreteFeature("species", nil),
		Size:     size,
	}
	for i := range p.Features {
		p.Features[i] = feature.NewContinuousFeature(fmt.Sprintf("f%d", i+1))
	}
	samples := make([]dataset.Sample, 0, count)
	for len(samples) < count {
		fields, err := next()
		if err != nil {
			return nil, fmt.Errorf("reading sample %d of %d: %v", len(samples)+1, count, err)
		}
		if len(fields) != featureCount+2 {
			return nil, fmt.Errorf("line %d: expected index, species and %d feature values, got %d fields", line, featureCount, len(fields))
		}
		values := map[string]interface{}{p.Label.Name(): fields[1]}
		for i, f := range p.Features {
			v, err := strconv.ParseFloat(fields[i+2], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: parsing value for %s: %v", line, f.Name(), err)
			}
			values[f.Name()] = v
		}
		samples = append(samples, dataset.NewSample(values))
	}
	p.Dataset = g(samples)
	return p, nil
}

/*
ReadFromFilePath takes a file path and a dataset.Generator and reads a
puzzle from the file, or from STDIN if the path is empty.
*/
func ReadFromFilePath(path string, g dataset.Generator) (*Puzzle, error) {
	if path == "" {
		return Read(os.Stdin, g)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening puzzle at %s: %v", path, err)
	}
	defer f.Close()
	return Read(f, g)
}
