package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/pbanos/canopy/feature/yaml"
	"github.com/spf13/cobra"
)

type testCmdConfig struct {
	*rootCmdConfig
	treeSource
	dataInput          string
	metadataInput      string
	cpuIntensiveSet    bool
	memoryIntensiveSet bool
}

func testCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &testCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test the performance of a tree",
		Long:  `Test the performance of a tree against a test dataset`,
		Run: func(cmd *cobra.Command, args []string) {
			config.load()
			err := config.Validate()
			if err != nil {
				exit(1, err)
			}
			features, err := yaml.ReadFeaturesFromFile(config.metadataInput)
			if err != nil {
				exit(2, err)
			}
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()
			t, err := config.loadTree(ctx, features)
			if err != nil {
				exit(3, err)
			}
			ds, err := readDataset(ctx, config.dataInput, features, generator(config.memoryIntensiveSet, config.cpuIntensiveSet))
			if err != nil {
				exit(4, fmt.Errorf("reading testing set: %v", err))
			}
			count, err := ds.Count()
			if err != nil {
				exit(4, fmt.Errorf("counting testing set samples: %v", err))
			}
			config.Logf("Testing tree against testset with %d samples...", count)
			successRate, errorCount, err := t.Test(ds)
			if err != nil {
				exit(5, fmt.Errorf("testing the tree: %v", err))
			}
			config.Logf("Done")
			fmt.Printf("%f success rate, failed to make a prediction for %d samples\n", successRate, errorCount)
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.dataInput), "input", "i", "", "path to an input CSV (.csv) or SQLite3 (.db) file, or a PostgreSQL or MongoDB connection URL with data to test the tree (defaults to STDIN, interpreted as CSV)")
	cmd.PersistentFlags().StringVarP(&(config.metadataInput), "metadata", "m", "", "path to a YML file with metadata describing the features on the tree and the input (required)")
	cmd.PersistentFlags().StringVarP(&(config.classFeature), "class-feature", "c", "", "name of the feature the tree predicts (required for trees in redis)")
	cmd.PersistentFlags().BoolVar(&(config.memoryIntensiveSet), "memory-intensive", false, "force the use of memory-intensive subsetting to decrease time at the cost of increasing memory use")
	cmd.PersistentFlags().BoolVar(&(config.cpuIntensiveSet), "cpu-intensive", false, "force the use of cpu-intensive subsetting to decrease memory use at the cost of increasing time")
	config.flags(cmd.PersistentFlags())
	return cmd
}

func (tcc *testCmdConfig) load() {
	v := tcc.v
	tcc.treeSource.load(v)
	tcc.dataInput = v.GetString("input")
	tcc.metadataInput = v.GetString("metadata")
	tcc.memoryIntensiveSet = v.GetBool("memory-intensive")
	tcc.cpuIntensiveSet = v.GetBool("cpu-intensive")
}

func (tcc *testCmdConfig) Validate() error {
	if tcc.metadataInput == "" {
		return fmt.Errorf("required metadata flag was not set")
	}
	if tcc.cpuIntensiveSet && tcc.memoryIntensiveSet {
		return fmt.Errorf("cannot set both memory-intensive and cpu-intensive flags at the same time")
	}
	return tcc.treeSource.Validate()
}
