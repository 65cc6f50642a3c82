package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/2beens/gymflow/pkg"
)

// newHashPasswordCmd prints the bcrypt hash the service expects in
// GYMFLOW_ADMIN_PASSWORD_HASH.
func newHashPasswordCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Hash the service admin password read from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(a.errOut, "password: ")
			line, err := bufio.NewReader(a.in).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read password: %w", err)
			}
			hash, err := pkg.HashPassword(strings.TrimRight(line, "\r\n"))
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			fmt.Fprintln(a.out, hash)
			return nil
		},
	}
}
