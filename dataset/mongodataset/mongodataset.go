/*
Package mongodataset stores datasets on a MongoDB collection and
loads them back.
*/
package mongodataset

import (
	"context"
	"fmt"
	"strings"

	"github.com/pbanos/canopy/dataset"
	"github.com/pbanos/canopy/feature"
	mgo "gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"
)

/*
Store is a set of samples kept as documents of the "samples"
collection on the default database of a MongoDB session
*/
type Store struct {
	session  *mgo.Session
	features []feature.Feature
}

const (
	samplesCollectionName = "samples"
)

/*
Dial takes a MongoDB connection URL and a slice of features, connects
to the database and returns a Store on its default database or an error.
*/
func Dial(url string, features []feature.Feature) (*Store, error) {
	session, err := mgo.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to MongoDB: %v", err)
	}
	s, err := Open(session, features)
	if err != nil {
		session.Close()
		return nil, err
	}
	return s, nil
}

/*
Open takes a MongoDB database session and returns a Store that works on the
default database for that session or an error if the feature names cannot be
used as document fields or the collection indexes cannot be ensured.
*/
func Open(session *mgo.Session, features []feature.Feature) (*Store, error) {
	mds := &Store{session, features}
	err := mds.ensureIndexes()
	if err != nil {
		return nil, err
	}
	return mds, nil
}

// Count returns the number of samples in the store.
func (mds *Store) Count(context.Context) (int, error) {
	return mds.samplesCollection().Count()
}

/*
Write takes a context and a slice of samples and inserts them as documents,
returning the number of samples written or an error.
*/
func (mds *Store) Write(ctx context.Context, samples []dataset.Sample) (int, error) {
	if len(samples) == 0 {
		return 0, nil
	}
	docs := make([]interface{}, 0, len(samples))
	for _, s := range samples {
		doc, err := docFromSample(s, mds.features)
		if err != nil {
			return 0, err
		}
		docs = append(docs, doc)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	err := mds.samplesCollection().Insert(docs...)
	if err != nil {
		return 0, err
	}
	return len(samples), nil
}

/*
Read takes a context and a dataset.Generator and returns a dataset built
with the generator from all the documents in the collection, in natural
order, or an error if they cannot be read or hold invalid values.
*/
func (mds *Store) Read(ctx context.Context, g dataset.Generator) (dataset.Dataset, error) {
	var samples []dataset.Sample
	var doc bson.M
	iter := mds.samplesCollection().Find(nil).Iter()
	for iter.Next(&doc) {
		if err := ctx.Err(); err != nil {
			iter.Close()
			return nil, err
		}
		s, err := sampleFromDoc(doc, mds.features)
		if err != nil {
			iter.Close()
			return nil, fmt.Errorf("reading sample %d: %v", len(samples)+1, err)
		}
		samples = append(samples, s)
		doc = nil
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return g(samples), nil
}

// Close closes the underlying session.
func (mds *Store) Close() error {
	mds.session.Close()
	return nil
}

func (mds *Store) ensureIndexes() error {
	for _, f := range mds.features {
		if err := validFieldName(f.Name()); err != nil {
			return err
		}
		index := mgo.Index{
			Key:        []string{f.Name()},
			Background: true,
			Sparse:     true,
		}
		err := mds.samplesCollection().EnsureIndex(index)
		if err != nil {
			return err
		}
	}
	return nil
}

func (mds *Store) samplesCollection() *mgo.Collection {
	return mds.session.DB("").C(samplesCollectionName)
}

func validFieldName(fName string) error {
	if fName == "_id" {
		return fmt.Errorf("invalid feature name %q: reserved collection field", "_id")
	}
	if strings.ContainsAny(fName, ".$") {
		return fmt.Errorf("invalid feature name %q: contains reserved characters %q or %q", fName, ".", "$")
	}
	return nil
}

func docFromSample(s dataset.Sample, features []feature.Feature) (bson.M, error) {
	doc := make(bson.M)
	for _, f := range features {
		value, err := s.ValueFor(f)
		if err != nil {
			return nil, err
		}
		if value != nil {
			doc[f.Name()] = value
		}
	}
	return doc, nil
}

func sampleFromDoc(doc bson.M, features []feature.Feature) (dataset.Sample, error) {
	values := make(map[string]interface{}, len(features))
	for _, f := range features {
		v, ok := doc[f.Name()]
		if !ok || v == nil {
			return nil, fmt.Errorf("missing value for feature %s", f.Name())
		}
		switch f.(type) {
		case *feature.ContinuousFeature:
			switch n := v.(type) {
			case int:
				v = float64(n)
			case int64:
				v = float64(n)
			}
		case *feature.DiscreteFeature:
			v = dataset.ValueKey(v)
		}
		if ok, err := f.Valid(v); !ok {
			return nil, fmt.Errorf("invalid value %v of type %T for feature %s: %v", v, v, f.Name(), err)
		}
		values[f.Name()] = v
	}
	return dataset.NewSample(values), nil
}
