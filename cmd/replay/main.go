// Command replay reproduces server-side session grading offline so client
// and server divergences can be diagnosed from a seed and a move log.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"bridgeguard/internal/config"
	"bridgeguard/internal/game"
)

var errSignatureMismatch = errors.New("signature does not match seed")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "replay",
		Short:         "Inspect seeded levels and re-grade recorded sessions",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(
		newSignCmd(),
		newVerifyCmd(),
		newPlatformsCmd(),
		newTraceCmd(),
	)
	return root
}

func newSignCmd() *cobra.Command {
	var secret string
	cmd := &cobra.Command{
		Use:   "sign [seed-hex]",
		Short: "Print the signature the server would issue for a seed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := game.DecodeHex32(args[0])
			if err != nil {
				return err
			}
			if secret == "" {
				return game.ErrEmptySecret
			}
			fmt.Fprintln(cmd.OutOrStdout(), game.SignSeed(seed, []byte(secret)))
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("SEED_SECRET"), "server signing secret")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	var secret string
	cmd := &cobra.Command{
		Use:   "verify [seed-hex] [signature-hex]",
		Short: "Check a seed/signature pair",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !game.VerifySeed(args[0], args[1], []byte(secret)) {
				return errSignatureMismatch
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("SEED_SECRET"), "server signing secret")
	return cmd
}

func newPlatformsCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "platforms [seed-hex]",
		Short: "Print the platforms and RNG draws generated for a seed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := game.DecodeHex32(args[0])
			if err != nil {
				return err
			}
			cfg, err := config.LoadGame()
			if err != nil {
				return err
			}
			platforms, draws := game.NewSeededGenerator(cfg).Generate(seed, count)
			return writeJSON(cmd.OutOrStdout(), game.DebugPayload{Platforms: platforms, Draws: draws})
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 10, "number of platforms after the start platform")
	return cmd
}

type traceReport struct {
	Result                   game.SessionValidationResult `json:"result"`
	StreakChallengeCompleted bool                         `json:"streakChallengeCompleted"`
	Debug                    *game.DebugPayload           `json:"debug"`
}

func newTraceCmd() *cobra.Command {
	var (
		secret      string
		sessionFile string
		rule        string
		blacklisted bool
	)
	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Re-grade a recorded session and print the full replay trace",
		Long: "Reads session JSON ({seed, signature, moves, usedItems}) from --session or stdin, " +
			"verifies the signature and prints the verdict with every replay step and RNG draw.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if sessionFile != "" && sessionFile != "-" {
				f, err := os.Open(sessionFile)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			var session game.SessionData
			if err := json.NewDecoder(in).Decode(&session); err != nil {
				return fmt.Errorf("decode session: %w", err)
			}

			cfg, err := config.LoadGame()
			if err != nil {
				return err
			}

			var challenge *game.DailyStreakChallenge
			if rule != "" {
				predicate, err := game.ParseChallengeRule(rule)
				if err != nil {
					return err
				}
				challenge = &game.DailyStreakChallenge{ID: rule, Predicate: predicate}
			}

			// inventory is unknown offline, so every used item counts as owned
			user := game.User{ID: "offline", IsBlackListed: blacklisted, Inventory: map[string]int{}}
			for _, item := range session.UsedItems {
				user.Inventory[item.ItemID]++
			}

			outcome, err := game.NewSessionService(cfg, nil, nil).ValidateSession(user, session, challenge, []byte(secret))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), traceReport{
				Result:                   outcome.Result,
				StreakChallengeCompleted: outcome.StreakChallengeCompleted,
				Debug:                    outcome.Debug(),
			})
		},
	}
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("SEED_SECRET"), "server signing secret")
	cmd.Flags().StringVarP(&sessionFile, "session", "s", "", "session JSON file (default stdin)")
	cmd.Flags().StringVar(&rule, "challenge", "", "challenge rule metric:op:value")
	cmd.Flags().BoolVar(&blacklisted, "blacklisted", false, "grade as a blacklisted user")
	return cmd
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
