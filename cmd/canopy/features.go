package main

import (
	"fmt"

	"github.com/pbanos/canopy/feature"
	"github.com/pbanos/canopy/feature/yaml"
)

/*
readFeatures reads the metadata file and splits its features into the
label, named by labelName, and the rest, in their declared order. All
features are returned too, as datasets need every column.
*/
func readFeatures(metadataPath, labelName string) (label feature.Feature, features, all []feature.Feature, err error) {
	all, err = yaml.ReadFeaturesFromFile(metadataPath)
	if err != nil {
		return nil, nil, nil, err
	}
	features = make([]feature.Feature, 0, len(all))
	for _, f := range all {
		if f.Name() == labelName {
			label = f
			continue
		}
		features = append(features, f)
	}
	if label == nil {
		return nil, nil, nil, fmt.Errorf("class feature '%s' is not defined", labelName)
	}
	return label, features, all, nil
}
