package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/pbanos/canopy/feature"
	fjson "github.com/pbanos/canopy/feature/json"
	"github.com/pbanos/canopy/feature/yaml"
	"github.com/pbanos/canopy/tree"
	tjson "github.com/pbanos/canopy/tree/json"
	"github.com/pbanos/canopy/tree/redisstore"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// treeSource locates a tree in a JSON file or in redis.
type treeSource struct {
	treeInput     string
	redisAddr     string
	redisPassword string
	redisDB       int
	redisPrefix   string
	rootID        string
	classFeature  string
}

func (ts *treeSource) flags(fs *pflag.FlagSet) {
	fs.StringVarP(&(ts.treeInput), "tree", "t", "", "path to a file from which the tree will be read and parsed as JSON")
	fs.StringVar(&(ts.redisAddr), "redis-addr", "", "address of a redis server from which to read the tree instead")
	fs.StringVar(&(ts.redisPassword), "redis-password", "", "password for the redis server")
	fs.IntVar(&(ts.redisDB), "redis-db", 0, "redis database number")
	fs.StringVar(&(ts.redisPrefix), "redis-prefix", "canopy", "prefix for the redis keys of the tree nodes")
	fs.StringVar(&(ts.rootID), "root-id", "", "id of the root node of the tree in redis")
}

func (ts *treeSource) load(v *viper.Viper) {
	ts.treeInput = v.GetString("tree")
	ts.redisAddr = v.GetString("redis-addr")
	ts.redisPassword = v.GetString("redis-password")
	ts.redisDB = v.GetInt("redis-db")
	ts.redisPrefix = v.GetString("redis-prefix")
	ts.rootID = v.GetString("root-id")
	ts.classFeature = v.GetString("class-feature")
}

func (ts *treeSource) Validate() error {
	switch {
	case ts.treeInput != "" && ts.redisAddr != "":
		return fmt.Errorf("cannot set both tree and redis-addr flags at the same time")
	case ts.treeInput == "" && ts.redisAddr == "":
		return fmt.Errorf("either the tree or the redis-addr flag must be set")
	case ts.redisAddr != "" && ts.rootID == "":
		return fmt.Errorf("required root-id flag for trees in redis was not set")
	case ts.redisAddr != "" && ts.classFeature == "":
		return fmt.Errorf("required class-feature flag for trees in redis was not set")
	}
	return nil
}

func (ts *treeSource) loadTree(ctx context.Context, features []feature.Feature) (*tree.Tree, error) {
	ned := tjson.NewNodeEncodeDecoder(fjson.NewCriteriaEncodeDecoder(features))
	if ts.redisAddr != "" {
		label := feature.Find(features, ts.classFeature)
		if label == nil {
			return nil, fmt.Errorf("class feature '%s' is not defined", ts.classFeature)
		}
		ns, err := redisstore.Open(ts.redisAddr, ts.redisPassword, ts.redisDB, ts.redisPrefix, ned)
		if err != nil {
			return nil, err
		}
		defer ns.Close(ctx)
		t, err := tree.Load(ctx, ns, ts.rootID, label)
		if err != nil {
			return nil, fmt.Errorf("loading tree %s from redis: %v", ts.rootID, err)
		}
		return t, nil
	}
	f, err := os.Open(ts.treeInput)
	if err != nil {
		return nil, fmt.Errorf("reading tree in JSON from %s: %v", ts.treeInput, err)
	}
	defer f.Close()
	t, err := tjson.ReadJSONTree(ctx, ned, features, f)
	if err != nil {
		return nil, fmt.Errorf("parsing tree in JSON from %s: %v", ts.treeInput, err)
	}
	return t, nil
}

type treeCmdConfig struct {
	*rootCmdConfig
	treeSource
	metadataInput string
}

func treeCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &treeCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show a decision tree",
		Long:  `Show a decision tree grown by a search, read from JSON or redis`,
		Run: func(cmd *cobra.Command, args []string) {
			config.load()
			err := config.Validate()
			if err != nil {
				exit(1, err)
			}
			config.Logf("Reading features from metadata at %s...", config.metadataInput)
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
			fmt.Println(t)
			fmt.Printf("entropy: %v\n", t.Entropy())
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.metadataInput), "metadata", "m", "", "path to a YML file with metadata describing the features used on the tree (required)")
	cmd.PersistentFlags().StringVarP(&(config.classFeature), "class-feature", "c", "", "name of the feature the tree predicts (required for trees in redis)")
	config.flags(cmd.PersistentFlags())
	return cmd
}

func (tcc *treeCmdConfig) load() {
	tcc.treeSource.load(tcc.v)
	tcc.metadataInput = tcc.v.GetString("metadata")
}

func (tcc *treeCmdConfig) Validate() error {
	if tcc.metadataInput == "" {
		return fmt.Errorf("required metadata flag was not set")
	}
	return tcc.treeSource.Validate()
}
