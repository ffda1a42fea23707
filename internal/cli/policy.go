package cli

import (
	"fmt"

	"github.com/agentx-labs/agentq/internal/config"
	"github.com/agentx-labs/agentq/internal/quality"
	"github.com/spf13/cobra"
)

var policyJSON bool

func init() {
	policyShowCmd.Flags().BoolVar(&policyJSON, "json", false, "Output in JSON format")
	policyCmd.AddCommand(policyShowCmd)
	policyCmd.AddCommand(policyValidateCmd)
	rootCmd.AddCommand(policyCmd)
}

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Inspect and validate scoring policies",
}

var policyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective scoring policy",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := quality.LoadPolicy(config.PolicyPath())
		if err != nil {
			return err
		}
		if policyJSON {
			return printJSON(cmd, p)
		}
		data, err := p.Marshal()
		if err != nil {
			return fmt.Errorf("marshaling policy: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var policyValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a policy file against the policy schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := quality.LoadPolicy(args[0])
		if err != nil {
			return err
		}
		if _, err := quality.NewScorer(p); err != nil {
			return err
		}
		checks := 0
		for _, d := range p.Dimensions {
			checks += len(d.Checks)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Policy %q is valid: %d dimensions, %d checks, %d tiers\n",
			p.Name, len(p.Dimensions), checks, len(p.Tiers))
		return nil
	},
}
