package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/ragcore/internal/config"
	"github.com/kailas-cloud/ragcore/internal/version"
)

type globalFlags struct {
	env        string
	configPath string
	verbose    bool
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("flag"); name != "" {
			return name
		}
		return strings.ToLower(f.Name)
	})
	return v
}

func newRootCmd(open opener) *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:          "ragctl",
		Short:        "Operate a ragcore deployment from the command line",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flags.env, "env", config.GetEnv(), "environment name (selects config/<env>.yaml)")
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "explicit config file path")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newIngestCmd(open, flags),
		newAskCmd(open, flags),
		newStatusCmd(open, flags),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("ragctl version %s (%s, %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}

// check validates command options and reports failures by flag name.
func check(opts any) error {
	err := validate.Struct(opts)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("--%s must satisfy %s=%s", name, fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("--%s is %s", name, fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
