package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/pbanos/canopy"
	"github.com/pbanos/canopy/dataset"
	"github.com/pbanos/canopy/dataset/puzzle"
	"github.com/pbanos/canopy/feature"
	fjson "github.com/pbanos/canopy/feature/json"
	"github.com/pbanos/canopy/tree"
	tjson "github.com/pbanos/canopy/tree/json"
	"github.com/pbanos/canopy/tree/redisstore"
	"github.com/spf13/cobra"
)

const (
	autoFormat   = "auto"
	puzzleFormat = "puzzle"
)

type searchCmdConfig struct {
	*rootCmdConfig
	inputFormat        string
	dataInput          string
	metadataInput      string
	output             string
	classFeature       string
	size               string
	workers            int
	cpuIntensiveSet    bool
	memoryIntensiveSet bool
	redisAddr          string
	redisPassword      string
	redisDB            int
	redisPrefix        string
}

func searchCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &searchCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Find the feature subset that grows the tree with the lowest entropy",
		Long: `Grow a tree on every subset of features allowed by the size rule and
print the subset whose tree has the lowest total entropy, as the 1-based
ids of its features in the metadata (class feature excluded).`,
		Run: func(cmd *cobra.Command, args []string) {
			config.load()
			err := config.Validate()
			if err != nil {
				exit(1, err)
			}
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()
			in, err := config.input(ctx)
			if err != nil {
				exit(4, err)
			}
			count, err := in.ds.Count()
			if err != nil {
				exit(4, fmt.Errorf("counting dataset samples: %v", err))
			}
			combinations := canopy.NewCombinations(len(in.features), in.rule).Count()
			config.Logf("Searching %d subsets (%v) of %d features on %d samples to predict %s ...", combinations, in.rule, len(in.features), count, in.label.Name())
			result, err := canopy.Search(ctx, in.ds, in.label, in.features, in.rule,
				canopy.WithWorkers(config.workers),
				canopy.WithObserver(config.logEvaluation),
			)
			if err != nil {
				exit(5, fmt.Errorf("searching feature subsets: %v", err))
			}
			config.Logf("Done")
			config.Logf("%v", result.Tree)
			out := cmd.OutOrStdout()
			if config.inputFormat == puzzleFormat {
				fmt.Fprintln(out, result.Subset.IDs())
			} else {
				printResult(out, result)
			}
			if config.output != "" {
				err = config.writeTree(ctx, result.Tree, in.all)
				if err != nil {
					exit(6, err)
				}
			}
			if config.redisAddr != "" {
				rootID, err := config.storeTree(ctx, result.Tree, in.all)
				if err != nil {
					exit(7, err)
				}
				fmt.Fprintf(out, "tree: %s\n", rootID)
			}
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.inputFormat), "input-format", "f", autoFormat, "format of the input: auto (detected from the input location) or puzzle (sample count, feature count and subset size lines followed by index, species and feature values lines)")
	cmd.PersistentFlags().StringVarP(&(config.dataInput), "input", "i", "", "path to an input CSV (.csv) or SQLite3 (.db) file, or a PostgreSQL or MongoDB connection URL with data to grow the trees (defaults to STDIN, interpreted as CSV)")
	cmd.PersistentFlags().StringVarP(&(config.metadataInput), "metadata", "m", "", "path to a YML file with metadata describing the features available on the input, in the order that assigns their ids (required unless the input is a puzzle)")
	cmd.PersistentFlags().StringVarP(&(config.output), "output", "o", "", "path to a file to which the winning tree will be written in JSON format")
	cmd.PersistentFlags().StringVarP(&(config.classFeature), "class-feature", "c", "", "name of the feature the trees should predict (required unless the input is a puzzle)")
	cmd.PersistentFlags().StringVarP(&(config.size), "size", "k", "", "subset sizes to search: K or exactly:K, up-to:K, between:MIN:MAX (required unless the input is a puzzle, which gives K)")
	cmd.PersistentFlags().IntVarP(&(config.workers), "workers", "w", 1, "number of subsets evaluated concurrently")
	cmd.PersistentFlags().BoolVar(&(config.memoryIntensiveSet), "memory-intensive", false, "force the use of memory-intensive subsetting to decrease time at the cost of increasing memory use")
	cmd.PersistentFlags().BoolVar(&(config.cpuIntensiveSet), "cpu-intensive", false, "force the use of cpu-intensive subsetting to decrease memory use at the cost of increasing time")
	cmd.PersistentFlags().StringVar(&(config.redisAddr), "redis-addr", "", "address of a redis server in which to store the winning tree")
	cmd.PersistentFlags().StringVar(&(config.redisPassword), "redis-password", "", "password for the redis server")
	cmd.PersistentFlags().IntVar(&(config.redisDB), "redis-db", 0, "redis database number")
	cmd.PersistentFlags().StringVar(&(config.redisPrefix), "redis-prefix", "canopy", "prefix for the redis keys of the tree nodes")
	return cmd
}

func (scc *searchCmdConfig) load() {
	v := scc.v
	scc.inputFormat = v.GetString("input-format")
	scc.dataInput = v.GetString("input")
	scc.metadataInput = v.GetString("metadata")
	scc.output = v.GetString("output")
	scc.classFeature = v.GetString("class-feature")
	scc.size = v.GetString("size")
	scc.workers = v.GetInt("workers")
	scc.memoryIntensiveSet = v.GetBool("memory-intensive")
	scc.cpuIntensiveSet = v.GetBool("cpu-intensive")
	scc.redisAddr = v.GetString("redis-addr")
	scc.redisPassword = v.GetString("redis-password")
	scc.redisDB = v.GetInt("redis-db")
	scc.redisPrefix = v.GetString("redis-prefix")
}

func (scc *searchCmdConfig) Validate() error {
	switch scc.inputFormat {
	case puzzleFormat:
	case autoFormat, "":
		if scc.metadataInput == "" {
			return fmt.Errorf("required metadata flag was not set")
		}
		if scc.classFeature == "" {
			return fmt.Errorf("required class-feature flag was not set")
		}
		if scc.size == "" {
			return fmt.Errorf("required size flag was not set")
		}
	default:
		return fmt.Errorf("unknown input-format %q: expected %s or %s", scc.inputFormat, autoFormat, puzzleFormat)
	}
	if scc.workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", scc.workers)
	}
	if scc.cpuIntensiveSet && scc.memoryIntensiveSet {
		return fmt.Errorf("cannot set both memory-intensive and cpu-intensive flags at the same time")
	}
	return nil
}

// searchInput is what a search runs on.
type searchInput struct {
	ds       dataset.Dataset
	label    feature.Feature
	features []feature.Feature
	// features and label, as needed to encode trees
	all  []feature.Feature
	rule canopy.SizeRule
}

func (scc *searchCmdConfig) input(ctx context.Context) (*searchInput, error) {
	g := generator(scc.memoryIntensiveSet, scc.cpuIntensiveSet)
	if scc.inputFormat == puzzleFormat {
		scc.Logf("Reading puzzle from %s...", scc.dataInput)
		p, err := puzzle.ReadFromFilePath(scc.dataInput, g)
		if err != nil {
			return nil, fmt.Errorf("reading puzzle: %v", err)
		}
		rule := canopy.Exactly(p.Size)
		if scc.size != "" {
			rule, err = canopy.ParseSizeRule(scc.size)
			if err != nil {
				return nil, err
			}
		}
		all := append(append([]feature.Feature{}, p.Features...), p.Label)
		return &searchInput{p.Dataset, p.Label, p.Features, all, rule}, nil
	}
	rule, err := canopy.ParseSizeRule(scc.size)
	if err != nil {
		return nil, err
	}
	label, features, all, err := readFeatures(scc.metadataInput, scc.classFeature)
	if err != nil {
		return nil, err
	}
	ds, err := readDataset(ctx, scc.dataInput, all, g)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %v", err)
	}
	return &searchInput{ds, label, features, all, rule}, nil
}

func (scc *searchCmdConfig) logEvaluation(e canopy.Evaluation) {
	scc.log.Debugw("evaluated subset", "subset", e.Subset.String(), "entropy", e.Entropy)
}

func (scc *searchCmdConfig) writeTree(ctx context.Context, t *tree.Tree, features []feature.Feature) error {
	f, err := os.Create(scc.output)
	if err != nil {
		return fmt.Errorf("creating %s: %v", scc.output, err)
	}
	defer f.Close()
	ned := tjson.NewNodeEncodeDecoder(fjson.NewCriteriaEncodeDecoder(features))
	err = tjson.WriteJSONTree(ctx, t, ned, f)
	if err != nil {
		return fmt.Errorf("writing tree to %s: %v", scc.output, err)
	}
	return nil
}

func (scc *searchCmdConfig) storeTree(ctx context.Context, t *tree.Tree, features []feature.Feature) (string, error) {
	ned := tjson.NewNodeEncodeDecoder(fjson.NewCriteriaEncodeDecoder(features))
	ns, err := redisstore.Open(scc.redisAddr, scc.redisPassword, scc.redisDB, scc.redisPrefix, ned)
	if err != nil {
		return "", err
	}
	defer ns.Close(ctx)
	scc.Logf("Storing tree in redis at %s ...", scc.redisAddr)
	rootID, err := tree.Save(ctx, t, ns)
	if err != nil {
		return "", fmt.Errorf("storing tree in redis: %v", err)
	}
	return rootID, nil
}

func printResult(w io.Writer, r *canopy.Result) {
	names := make([]string, len(r.Features))
	for i, f := range r.Features {
		names[i] = f.Name()
	}
	fmt.Fprintln(w, r.Subset.IDs())
	fmt.Fprintf(w, "features: %s\n", strings.Join(names, ", "))
	fmt.Fprintf(w, "entropy: %v\n", r.Entropy)
	fmt.Fprintf(w, "evaluated: %d\n", r.Evaluated)
}
