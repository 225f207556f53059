package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/pbanos/canopy/dataset"
	"github.com/pbanos/canopy/feature"
	"github.com/pbanos/canopy/feature/yaml"
	"github.com/spf13/cobra"
)

type datasetCmdConfig struct {
	*rootCmdConfig
	dataInput     string
	metadataInput string
	dataOutput    string
}

func datasetCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &datasetCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Manage datasets",
		Long:  `Copy a dataset between CSV files, SQLite3 files, PostgreSQL and MongoDB databases`,
		Run: func(cmd *cobra.Command, args []string) {
			config.load()
			err := config.Validate()
			if err != nil {
				exit(1, err)
			}
			features, err := config.features()
			if err != nil {
				exit(2, err)
			}
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()
			ds, err := readDataset(ctx, config.dataInput, features, dataset.New)
			if err != nil {
				exit(3, fmt.Errorf("reading input dataset: %v", err))
			}
			count, err := writeDataset(ctx, config.dataOutput, ds, features)
			if err != nil {
				exit(4, fmt.Errorf("writing output dataset: %v", err))
			}
			config.Logf("Done, %d samples written", count)
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.dataInput), "input", "i", "", "path to an input CSV (.csv) or SQLite3 (.db) file, or a PostgreSQL or MongoDB connection URL (defaults to STDIN, interpreted as CSV)")
	cmd.PersistentFlags().StringVarP(&(config.metadataInput), "metadata", "m", "", "path to a YML file with metadata describing the features available on the input (required)")
	cmd.PersistentFlags().StringVarP(&(config.dataOutput), "output", "o", "", "path to a CSV (.csv) or SQLite3 (.db) file, or a PostgreSQL or MongoDB connection URL to dump the output dataset (defaults to STDOUT in CSV)")
	cmd.AddCommand(splitCmd(config))
	return cmd
}

func (dcc *datasetCmdConfig) load() {
	dcc.dataInput = dcc.v.GetString("input")
	dcc.metadataInput = dcc.v.GetString("metadata")
	dcc.dataOutput = dcc.v.GetString("output")
}

func (dcc *datasetCmdConfig) Validate() error {
	if dcc.metadataInput == "" {
		return fmt.Errorf("required metadata flag was not set")
	}
	return nil
}

func (dcc *datasetCmdConfig) features() ([]feature.Feature, error) {
	dcc.Logf("Reading features from metadata at %s...", dcc.metadataInput)
	features, err := yaml.ReadFeaturesFromFile(dcc.metadataInput)
	if err != nil {
		return nil, err
	}
	dcc.Logf("Features from metadata read")
	return features, nil
}

type splitCmdConfig struct {
	*datasetCmdConfig
	splitOutput      string
	splitProbability int
	seed             int64
}

func splitCmd(datasetConfig *datasetCmdConfig) *cobra.Command {
	config := &splitCmdConfig{datasetCmdConfig: datasetConfig}
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split a dataset into two datasets",
		Long:  `Split a dataset into an output dataset and a split dataset, to grow trees on one and test them on the other`,
		Run: func(cmd *cobra.Command, args []string) {
			config.load()
			err := config.Validate()
			if err != nil {
				exit(1, err)
			}
			features, err := config.features()
			if err != nil {
				exit(2, err)
			}
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()
			ds, err := readDataset(ctx, config.dataInput, features, dataset.New)
			if err != nil {
				exit(3, fmt.Errorf("reading input dataset: %v", err))
			}
			samples, err := ds.Samples()
			if err != nil {
				exit(3, fmt.Errorf("reading input dataset: %v", err))
			}
			kept, split := splitSamples(samples, config.splitProbability, config.seed)
			_, err = writeDataset(ctx, config.dataOutput, dataset.New(kept), features)
			if err != nil {
				exit(4, fmt.Errorf("writing output dataset: %v", err))
			}
			_, err = writeDataset(ctx, config.splitOutput, dataset.New(split), features)
			if err != nil {
				exit(5, fmt.Errorf("writing split dataset: %v", err))
			}
			config.Logf("Input dataset with %d samples was split into datasets with %d and %d samples", len(samples), len(kept), len(split))
		},
	}
	cmd.Flags().IntVarP(&(config.splitProbability), "split-probability", "p", 20, "probability as percent integer that a sample of the dataset will be assigned to the split dataset")
	cmd.Flags().StringVarP(&(config.splitOutput), "split-output", "s", "", "path to a CSV (.csv) or SQLite3 (.db) file, or a PostgreSQL or MongoDB connection URL to dump the split dataset (required)")
	cmd.Flags().Int64Var(&(config.seed), "seed", 0, "seed for the random assignment of samples (defaults to the current time)")
	return cmd
}

func (scc *splitCmdConfig) load() {
	scc.datasetCmdConfig.load()
	scc.splitOutput = scc.v.GetString("split-output")
	scc.splitProbability = scc.v.GetInt("split-probability")
	scc.seed = scc.v.GetInt64("seed")
	if scc.seed == 0 {
		scc.seed = time.Now().UnixNano()
	}
}

func (scc *splitCmdConfig) Validate() error {
	err := scc.datasetCmdConfig.Validate()
	if err != nil {
		return err
	}
	if scc.splitOutput == "" {
		return fmt.Errorf("required split-output flag was not set")
	}
	if scc.splitProbability <= 0 || scc.splitProbability > 100 {
		return fmt.Errorf("split-probability flag was set to an invalid value: it must be set to an integer between 1 and 100")
	}
	return nil
}

// splitSamples assigns each sample to the split slice with the given
// percent probability.
func splitSamples(samples []dataset.Sample, probability int, seed int64) (kept, split []dataset.Sample) {
	randomizer := rand.New(rand.NewSource(seed))
	for _, s := range samples {
		if 100*randomizer.Float32() > float32(probability) {
			kept = append(kept, s)
		} else {
			split = append(split, s)
		}
	}
	return kept, split
}
