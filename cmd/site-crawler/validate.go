package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewValidateCmd creates the validate command.
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate a config file and print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := globalFlags(cmd)
			return asExitError(doValidate(configPath, cmd.OutOrStdout(), cmd.ErrOrStderr()))
		},
	}
}

// doValidate is the testable implementation of the validate command
func doValidate(configPath string, stdout, stderr io.Writer) int {
	appCfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}

	warnings, err := appCfg.Validate()
	for _, w := range warnings {
		fmt.Fprintf(stdout, "WARN: %s\n", w)
	}
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return exitFailure
	}

	effective, err := yaml.Marshal(appCfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error rendering config: %v\n", err)
		return exitFailure
	}
	fmt.Fprintf(stdout, "Effective configuration:\n%s", effective)
	fmt.Fprintf(stdout, "Configuration valid (%d warning(s))\n", len(warnings))
	return exitOK
}
