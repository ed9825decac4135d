package cmd

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rawbytedev/flexus"
	"github.com/rawbytedev/flexus/schemafile"
)

var outPath string

// packCmd represents the pack command
var packCmd = &cobra.Command{
	Use:   "pack <record-json>",
	Short: "Encode a JSON record against the schema",
	Long: `Encode a JSON object as one record of the schema. Strings with a 0x
prefix become raw bytes; plain strings and integral numbers pass through
and the field codecs coerce them.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sch, err := schemafile.Load(schemaPath)
		if err != nil {
			return err
		}
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var obj map[string]any
		if err := json.Unmarshal(raw, &obj); err != nil {
			return err
		}
		out, err := sch.Pack(jsonRecord(obj))
		if err != nil {
			return err
		}
		if outPath == "" || outPath == "-" {
			_, err := os.Stdout.Write(out)
			return err
		}
		return os.WriteFile(outPath, out, 0o644)
	},
}

func jsonRecord(obj map[string]any) *flexus.Record {
	rec := flexus.NewRecord()
	for k, v := range obj {
		rec.Set(k, jsonValue(v))
	}
	return rec
}

func jsonValue(v any) any {
	switch t := v.(type) {
	case string:
		if len(t) > 2 && (strings.HasPrefix(t, "0x") || strings.HasPrefix(t, "0X")) {
			if b, err := hex.DecodeString(t[2:]); err == nil {
				return b
			}
		}
		return t
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = jsonValue(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = jsonValue(vv)
		}
		return out
	default:
		return v
	}
}

func init() {
	packCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file, - or empty for stdout")
	rootCmd.AddCommand(packCmd)
}
