package cmd

import (
	"fmt"

	"github.com/ZacxDev/hotel-site/logging"
	"github.com/ZacxDev/hotel-site/scaffold"
	"github.com/spf13/cobra"
)

var variantCmd = &cobra.Command{
	Use:   "variant",
	Short: "Add or remove content variants",
}

var variantAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a variant by cloning the most recently edited one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newScaffolder()
		if err != nil {
			return err
		}
		path, err := s.Add(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
		return nil
	},
}

var variantRemoveCmd = &cobra.Command{
	Use:   "remove <names...>",
	Short: "Remove variants, or every variant except the named ones with --except",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		except, _ := cmd.Flags().GetBool("except")
		s, err := newScaffolder()
		if err != nil {
			return err
		}
		removed, err := s.Remove(args, except)
		if err != nil {
			return err
		}
		for _, key := range removed {
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", key)
		}
		return nil
	},
}

func newScaffolder() (*scaffold.Scaffolder, error) {
	root, manifest, err := loadSiteManifest()
	if err != nil {
		return nil, err
	}
	opts := manifest.GenerateOptions(root)
	opts.Logger = moduleLogger(logging.ScaffoldModule)
	return scaffold.New(scaffold.Options{GenerateOptions: opts}), nil
}

func init() {
	rootCmd.AddCommand(variantCmd)
	variantCmd.AddCommand(variantAddCmd, variantRemoveCmd)
	variantRemoveCmd.Flags().Bool("except", false, "Remove every variant except the named ones")
}
