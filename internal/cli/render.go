package cli

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
)

// renderDoc writes doc as an indented JSON document when the command runs
// with JSON output, and calls text otherwise.
func renderDoc(cmd *cobra.Command, doc any, text func(w io.Writer) error) error {
	w := cmd.OutOrStdout()
	if cc := GetCmdContext(cmd); cc != nil && cc.Fmt != nil && cc.Fmt.IsJSON() {
		return encodeDoc(w, doc)
	}
	return text(w)
}

func encodeDoc(w io.Writer, doc any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
