package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/vcfnp/internal/output"
	"github.com/inodb/vcfnp/internal/schema"
	"github.com/inodb/vcfnp/internal/vcf"
)

func newSchemaCmd() *cobra.Command {
	var (
		kind      string
		fields    []string
		decompose bool
	)

	cmd := &cobra.Command{
		Use:   "schema <file.vcf>",
		Short: "Print the column schema of a table",
		Example: `  vcfnp schema sample.vcf
  vcfnp schema --kind calls --fields GQ,DP sample.vcf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := schema.ParseTableKind(kind)
			if err != nil {
				return err
			}
			p, err := vcf.NewParser(args[0])
			if err != nil {
				return err
			}
			defer p.Close()

			reg, err := newRegistry(p.Header())
			if err != nil {
				return err
			}
			cols, err := reg.Columns(k, selectFields(k, fields), decompose || viper.GetBool("decompose"))
			if err != nil {
				return err
			}
			return output.WriteSchema(cmd.OutOrStdout(), cols)
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "variants", "table kind: variants, calls or info")
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "INFO or FORMAT fields to include (default all)")
	cmd.Flags().BoolVar(&decompose, "decompose", false, "one row per alternate allele")
	return cmd
}

// newRegistry builds a registry using the configured ploidy and overrides.
func newRegistry(h *vcf.Header) (*schema.Registry, error) {
	var overrides map[string]schema.Override
	if err := viper.UnmarshalKey("overrides", &overrides); err != nil {
		return nil, err
	}
	return schema.NewRegistry(h,
		schema.WithPloidy(viper.GetInt("ploidy")),
		schema.WithOverrides(overrides))
}

// selectFields returns the flag value, or the configured fields.<kind> list.
func selectFields(k schema.TableKind, flagFields []string) []string {
	if len(flagFields) > 0 {
		return flagFields
	}
	return viper.GetStringSlice("fields." + k.String())
}
