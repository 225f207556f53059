package sqldataset

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/pbanos/canopy/dataset"
	"github.com/pbanos/canopy/feature"
)

/*
Store is a set of samples kept on a database through an Adapter.
It is not safe for concurrent use.
*/
type Store struct {
	db                    Adapter
	features              []feature.Feature
	featureNamesColumns   map[string]string
	discreteValues        map[int]string
	inverseDiscreteValues map[string]int
	dfColumns             []string
	cfColumns             []string
}

/*
Open takes a context, an Adapter to a db backend and a slice of
feature.Feature and returns a Store backed by the given adapter or an error
if no dataset is available through the given adapter.

This function expects the adapter to have the samples and discrete value
tables already created.
*/
func Open(ctx context.Context, dbAdapter Adapter, features []feature.Feature) (*Store, error) {
	ss := &Store{db: dbAdapter, features: features}
	err := ss.initFeatureColumns()
	if err != nil {
		return nil, err
	}
	err = ss.loadDiscreteValues(ctx)
	if err != nil {
		return nil, err
	}
	return ss, nil
}

/*
Create takes a context, an Adapter and a slice of feature.Feature and
returns a Store backed by the given adapter or an error.

This function will ensure that the samples and discrete value tables are
created on the database, and that the discrete value table has all the
available values for the discrete features on the features slice.
*/
func Create(ctx context.Context, dbAdapter Adapter, features []feature.Feature) (*Store, error) {
	ss := &Store{db: dbAdapter, features: features}
	err := ss.initFeatureColumns()
	if err != nil {
		return nil, err
	}
	err = ss.db.CreateDiscreteValuesTable(ctx)
	if err != nil {
		return nil, err
	}
	err = ss.db.CreateSampleTable(ctx, ss.dfColumns, ss.cfColumns)
	if err != nil {
		return nil, err
	}
	err = ss.loadDiscreteValues(ctx)
	if err != nil {
		return nil, err
	}
	var values []string
	for _, f := range features {
		if df, ok := f.(*feature.DiscreteFeature); ok {
			values = append(values, df.AvailableValues()...)
		}
	}
	err = ss.ensureDiscreteValues(ctx, values)
	if err != nil {
		return nil, err
	}
	return ss, nil
}

// Count returns the number of samples in the store.
func (ss *Store) Count(ctx context.Context) (int, error) {
	return ss.db.CountSamples(ctx)
}

/*
Write takes a context and a slice of samples and adds them to the store,
returning the number of samples added or an error.
*/
func (ss *Store) Write(ctx context.Context, samples []dataset.Sample) (int, error) {
	if len(samples) == 0 {
		return 0, nil
	}
	var values []string
	for _, s := range samples {
		for _, f := range ss.features {
			if _, ok := f.(*feature.DiscreteFeature); !ok {
				continue
			}
			v, err := s.ValueFor(f)
			if err != nil {
				return 0, err
			}
			if v != nil {
				values = append(values, dataset.ValueKey(v))
			}
		}
	}
	err := ss.ensureDiscreteValues(ctx, values)
	if err != nil {
		return 0, err
	}
	rawSamples := make([]map[string]interface{}, 0, len(samples))
	for _, s := range samples {
		rs, err := ss.newRawSample(s)
		if err != nil {
			return 0, err
		}
		rawSamples = append(rawSamples, rs)
	}
	return ss.db.AddSamples(ctx, rawSamples, ss.dfColumns, ss.cfColumns)
}

/*
Read takes a context and a dataset.Generator and returns a dataset built
with the generator from all the samples in the store, in insertion order,
or an error if they cannot be read or hold invalid values.
*/
func (ss *Store) Read(ctx context.Context, g dataset.Generator) (dataset.Dataset, error) {
	var samples []dataset.Sample
	err := ss.db.IterateOnSamples(ctx, ss.dfColumns, ss.cfColumns, func(i int, rs map[string]interface{}) (bool, error) {
		s, err := ss.sampleFromRaw(rs)
		if err != nil {
			return false, fmt.Errorf("reading sample %d: %v", i+1, err)
		}
		samples = append(samples, s)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return g(samples), nil
}

// Close releases the underlying adapter.
func (ss *Store) Close() error {
	return ss.db.Close()
}

func (ss *Store) initFeatureColumns() error {
	ss.featureNamesColumns = make(map[string]string)
	for _, f := range ss.features {
		cname, err := ss.db.ColumnName(f.Name())
		if err != nil {
			return err
		}
		ss.featureNamesColumns[f.Name()] = cname
		switch f.(type) {
		case *feature.DiscreteFeature:
			ss.dfColumns = append(ss.dfColumns, cname)
		case *feature.ContinuousFeature:
			ss.cfColumns = append(ss.cfColumns, cname)
		default:
			return fmt.Errorf("unknown feature type %T for %s", f, f.Name())
		}
	}
	return nil
}

func (ss *Store) loadDiscreteValues(ctx context.Context) error {
	dvs, err := ss.db.ListDiscreteValues(ctx)
	if err != nil {
		return fmt.Errorf("listing discrete values: %v", err)
	}
	ss.discreteValues = dvs
	ss.inverseDiscreteValues = make(map[string]int, len(dvs))
	for id, v := range dvs {
		ss.inverseDiscreteValues[v] = id
	}
	return nil
}

func (ss *Store) ensureDiscreteValues(ctx context.Context, values []string) error {
	missing := make(map[string]bool)
	for _, v := range values {
		if _, ok := ss.inverseDiscreteValues[v]; !ok {
			missing[v] = true
		}
	}
	if len(missing) == 0 {
		return nil
	}
	newValues := make([]string, 0, len(missing))
	for v := range missing {
		newValues = append(newValues, v)
	}
	sort.Strings(newValues)
	_, err := ss.db.AddDiscreteValues(ctx, newValues)
	if err != nil {
		return fmt.Errorf("adding discrete values: %v", err)
	}
	return ss.loadDiscreteValues(ctx)
}

func (ss *Store) newRawSample(s dataset.Sample) (map[string]interface{}, error) {
	rs := make(map[string]interface{})
	for _, f := range ss.features {
		v, err := s.ValueFor(f)
		if err != nil {
			return nil, err
		}
		if v == nil {
			continue
		}
		column := ss.featureNamesColumns[f.Name()]
		switch f.(type) {
		case *feature.DiscreteFeature:
			id, ok := ss.inverseDiscreteValues[dataset.ValueKey(v)]
			if !ok {
				return nil, fmt.Errorf("no discrete value id for %v", v)
			}
			rs[column] = id
		case *feature.ContinuousFeature:
			fv, ok := v.(float64)
			if !ok {
				return nil, fmt.Errorf("expected float64 value for continuous feature %s, found %T", f.Name(), v)
			}
			rs[column] = fv
		}
	}
	return rs, nil
}

func (ss *Store) sampleFromRaw(rs map[string]interface{}) (dataset.Sample, error) {
	values := make(map[string]interface{}, len(ss.features))
	for _, f := range ss.features {
		rv, ok := rs[ss.featureNamesColumns[f.Name()]]
		if !ok {
			return nil, fmt.Errorf("missing value for feature %s", f.Name())
		}
		var v interface{} = rv
		if _, ok := f.(*feature.DiscreteFeature); ok {
			id, _ := rv.(int)
			dv, ok := ss.discreteValues[id]
			if !ok {
				return nil, fmt.Errorf("unknown discrete value id %s for feature %s", strconv.Itoa(id), f.Name())
			}
			v = dv
		}
		if ok, err := f.Valid(v); !ok {
			return nil, fmt.Errorf("invalid value %v for feature %s: %v", v, f.Name(), err)
		}
		values[f.Name()] = v
	}
	return dataset.NewSample(values), nil
}
