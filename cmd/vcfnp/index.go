package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inodb/vcfnp/internal/index"
)

func newIndexCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "index <file.vcf>",
		Short: "Build a region index for an uncompressed VCF file",
		Long: `Scan an uncompressed VCF file and record the byte offset of every record in
a SQLite index (<file.vcf>` + index.Extension + ` by default). The index enables
--region extraction.`,
		Example: `  vcfnp index sample.vcf
  vcfnp index -o /tmp/sample.vci sample.vcf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if output == "" {
				output = index.DefaultPath(path)
			}

			idx, err := index.Build(cmd.Context(), path, output, a.logger)
			if err != nil {
				return err
			}
			defer idx.Close()

			n, err := idx.Count()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d records on %d chromosomes (%s) into %s\n",
				n, len(idx.Chromosomes()), strings.Join(idx.Chromosomes(), ","), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "index file (default <file.vcf>"+index.Extension+")")
	return cmd
}
