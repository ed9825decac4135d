package cmd

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rawbytedev/flexus/schemafile"
)

var hexDump bool

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <data-file>",
	Short: "Decode a binary file against the schema and print its record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sch, err := schemafile.Load(schemaPath)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		rec, err := sch.Unpack(data)
		if err != nil {
			return err
		}
		if hexDump {
			fmt.Print(hex.Dump(data))
		}
		out, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	inspectCmd.Flags().BoolVar(&hexDump, "hex", false, "dump the raw bytes before the record")
	rootCmd.AddCommand(inspectCmd)
}
