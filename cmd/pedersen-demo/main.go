// Command pedersen-demo runs a full session of Pedersen-shared arithmetic
// between in-process parties: input sharing, a verified multiplication, an
// opening, a coin toss and a reveal in the exponent.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var settings = viper.New()

var rootCmd = &cobra.Command{
	Use:   "pedersen-demo",
	Short: "Run a Pedersen VSS multiparty session in memory",
	Long: `pedersen-demo connects the configured number of parties over an
in-memory mesh and runs:

  - input sharing of two dealer values
  - a ZK-verified multiplication of the shared inputs
  - an opening of the product
  - a joint coin toss
  - a reveal in the exponent of a jointly random value

Every flag can also be set through a PEDERSEN_ environment variable,
for example PEDERSEN_THRESHOLD=3.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := loadOptions()
		if err != nil {
			return err
		}
		return run(cmd.Context(), opts, cmd.OutOrStdout())
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.String("group", "ed25519", "group (ed25519, secp256k1, bn254)")
	flags.Int("threshold", 2, "shares needed to reconstruct")
	flags.Int("parties", 3, "number of parties")
	flags.String("exclusion", "abort", "multiplication cheat policy (abort, exclude)")
	flags.String("hash", "sha512", "coin toss commitment hash")
	flags.Int64("a", 6, "input dealt by party 1")
	flags.Int64("b", 7, "input dealt by party 2")
	flags.Int("coin-bits", 128, "coin toss length in bits")
	flags.Duration("timeout", 30*time.Second, "per-protocol timeout")
	flags.Bool("encrypt", false, "seal every link with AES-GCM")
	flags.Float64("rate", 0, "messages per second per link, 0 disables limiting")
	flags.String("store-dir", "", "save each party's product share here")
	flags.String("password", "", "password for stored shares")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Bool("pretty", false, "human-readable logs")

	if err := settings.BindPFlags(flags); err != nil {
		panic(err)
	}
	settings.SetEnvPrefix("PEDERSEN")
	settings.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	settings.AutomaticEnv()
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
