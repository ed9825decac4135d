package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rawbytedev/flexus"
	"github.com/rawbytedev/flexus/schemafile"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load a schema document and report its layout",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sch, err := schemafile.Load(schemaPath)
		if err != nil {
			return err
		}
		for _, name := range sch.Names() {
			node, _ := sch.Field(name)
			size := "variable"
			if n := nodeLength(node); n >= 0 {
				size = fmt.Sprintf("%d bytes", n)
			}
			note := ""
			if sch.Elided(name) {
				note = "  (length link, hidden)"
			}
			fmt.Printf("  %-20s %s%s\n", name, size, note)
		}
		if n := sch.Length(); n >= 0 {
			fmt.Printf("total: %d fields, %d bytes\n", sch.NumFields(), n)
		} else {
			fmt.Printf("total: %d fields, variable size\n", sch.NumFields())
		}
		return nil
	},
}

// nodeLength is the static or declared size of a schema member, -1 when
// only a pass can resolve it.
func nodeLength(n flexus.Node) int {
	if sz := n.Size(); sz >= 0 {
		return sz
	}
	switch t := n.(type) {
	case *flexus.Field:
		return t.Codec().Length()
	case *flexus.Schema:
		return t.Length()
	}
	return -1
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
