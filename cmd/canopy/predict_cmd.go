package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/pbanos/canopy/dataset/inputsample"
	"github.com/pbanos/canopy/feature"
	"github.com/pbanos/canopy/feature/yaml"
	"github.com/pbanos/canopy/tree"
	"github.com/spf13/cobra"
)

type predictCmdConfig struct {
	*rootCmdConfig
	treeSource
	metadataInput  string
	undefinedValue string
}

type questionPrompter struct {
	w         io.Writer
	undefined string
}

func predictCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &predictCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict a value for a sample answering questions",
		Long:  `Use a tree to predict the class feature value for a sample answering only the questions about the features on its path`,
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
			prediction, err := predict(t, features, os.Stdin, &questionPrompter{os.Stdout, config.undefinedValue}, config.undefinedValue)
			if err != nil {
				exit(4, err)
			}
			fmt.Printf("Predicted values along their probabilities are %v\n", prediction)
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.metadataInput), "metadata", "m", "", "path to a YML file with metadata describing the features used on the tree (required)")
	cmd.PersistentFlags().StringVarP(&(config.classFeature), "class-feature", "c", "", "name of the feature the tree predicts (required for trees in redis)")
	cmd.PersistentFlags().StringVarP(&(config.undefinedValue), "undefined-value", "u", "?", "value to input to define a sample's value for a feature as undefined")
	config.flags(cmd.PersistentFlags())
	return cmd
}

func (pcc *predictCmdConfig) load() {
	pcc.treeSource.load(pcc.v)
	pcc.metadataInput = pcc.v.GetString("metadata")
	pcc.undefinedValue = pcc.v.GetString("undefined-value")
}

func (pcc *predictCmdConfig) Validate() error {
	if pcc.metadataInput == "" {
		return fmt.Errorf("required metadata flag was not set")
	}
	return pcc.treeSource.Validate()
}

func predict(t *tree.Tree, features []feature.Feature, r io.Reader, p inputsample.Prompter, undefined string) (*tree.Prediction, error) {
	return t.Predict(inputsample.New(r, features, p, undefined))
}

func (qp *questionPrompter) Ask(f feature.Feature) error {
	switch f := f.(type) {
	case *feature.DiscreteFeature:
		if len(f.AvailableValues()) == 0 {
			_, err := fmt.Fprintf(qp.w, "Please provide the sample's %s:\n(any value or %s if undefined)\n", f.Name(), qp.undefined)
			return err
		}
		_, err := fmt.Fprintf(qp.w, "Please provide the sample's %s:\n(valid values are %v or %s if undefined)\n", f.Name(), f.AvailableValues(), qp.undefined)
		return err
	case *feature.ContinuousFeature:
		_, err := fmt.Fprintf(qp.w, "Please provide the sample's %s:\n(valid values are real numbers or %s if undefined)\n", f.Name(), qp.undefined)
		return err
	}
	return fmt.Errorf("unknown feature type %T", f)
}

func (qp *questionPrompter) Reject(f feature.Feature, line string) error {
	_, err := fmt.Fprintf(qp.w, "%s is not a valid value for the sample's %s.\n", line, f.Name())
	if err != nil {
		return err
	}
	return qp.Ask(f)
}
