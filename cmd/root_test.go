package cmd

import (
	"testing"
	"unicode"

	"github.com/spf13/cobra"
)

func TestHelpTextIsASCII(t *testing.T) {
	cmds := append([]*cobra.Command{rootCmd}, rootCmd.Commands()...)
	for _, c := range cmds {
		t.Run(c.Name(), func(t *testing.T) {
			for field, text := range map[string]string{"Short": c.Short, "Long": c.Long} {
				for i, r := range text {
					if r > unicode.MaxASCII {
						t.Errorf("%s has non-ASCII %q at byte %d", field, r, i)
						break
					}
				}
			}
		})
	}
}
