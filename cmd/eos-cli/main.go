package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"time"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/spf13/cobra"

	"github.com/luxfi/eos/pkg/circuit"
	"github.com/luxfi/eos/pkg/delegation"
	"github.com/luxfi/eos/pkg/kzg"
	"github.com/luxfi/eos/pkg/party"
	"github.com/luxfi/eos/pkg/session"
	"github.com/luxfi/eos/pkg/sharing"
)

var (
	// Global flags
	parties   int
	threshold int
	modeName  string
	srsFile   string
	maxDegree int
	inputX    uint64
	inputY    uint64
	rounds    int

	rootCmd = &cobra.Command{
		Use:   "eos-cli",
		Short: "CLI tool for the EOS delegated proving engine",
		Long: `A command line tool for exercising the EOS delegation protocol:
trusted setup generation, end-to-end delegated evaluation over an in-memory
worker network, and benchmarking.`,
	}

	setupCmd = &cobra.Command{
		Use:   "setup",
		Short: "Generate a reference string",
		Long:  `Generate a KZG reference string and write it to a file. For testing only; production sessions should load a ceremony-produced SRS.`,
		RunE:  runSetup,
	}

	delegateCmd = &cobra.Command{
		Use:   "delegate",
		Short: "Run a delegated evaluation",
		Long:  `Run the demo circuit (x·x + y) through the full delegation sequence and print the decision.`,
		RunE:  runDelegate,
	}

	benchCmd = &cobra.Command{
		Use:   "bench",
		Short: "Benchmark delegated evaluation",
		RunE:  runBench,
	}
)

func init() {
	rootCmd.PersistentFlags().IntVarP(&parties, "parties", "n", 5, "number of workers")
	rootCmd.PersistentFlags().IntVarP(&threshold, "threshold", "t", 2, "sharing threshold")
	rootCmd.PersistentFlags().StringVarP(&modeName, "mode", "m", "collaboration", "multiplication mode (isolation|collaboration)")
	rootCmd.PersistentFlags().StringVar(&srsFile, "srs", "", "path to a stored reference string")
	rootCmd.PersistentFlags().IntVar(&maxDegree, "max-degree", 16, "KZG degree bound")

	delegateCmd.Flags().Uint64VarP(&inputX, "x", "x", 3, "private input x")
	delegateCmd.Flags().Uint64VarP(&inputY, "y", "y", 4, "private input y")
	benchCmd.Flags().IntVar(&rounds, "rounds", 10, "benchmark iterations")

	rootCmd.AddCommand(setupCmd, delegateCmd, benchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseMode() (session.Mode, error) {
	switch modeName {
	case "isolation":
		return session.Isolation, nil
	case "collaboration":
		return session.Collaboration, nil
	default:
		return 0, fmt.Errorf("unknown mode %q", modeName)
	}
}

func sessionParams(mode session.Mode) session.Params {
	return session.Params{
		N:            parties,
		T:            threshold,
		Scheme:       sharing.Shamir,
		Mode:         mode,
		SecurityBits: 128,
		MaxDegree:    maxDegree,
	}
}

func runSetup(_ *cobra.Command, _ []string) error {
	if srsFile == "" {
		return fmt.Errorf("setup requires --srs")
	}
	srs, err := kzg.Setup(maxDegree, rand.Reader)
	if err != nil {
		return err
	}
	data, err := srs.MarshalBinary()
	if err != nil {
		return err
	}
	if err := os.WriteFile(srsFile, data, 0o600); err != nil {
		return err
	}
	fmt.Printf("wrote SRS with degree bound %d to %s\n", srs.MaxDegree(), srsFile)
	return nil
}

func newDriver(mode session.Mode, circ *circuit.Circuit) (*delegation.Driver, error) {
	drv, err := delegation.New(sessionParams(mode), circ)
	if err != nil {
		return nil, err
	}
	if srsFile != "" {
		data, err := os.ReadFile(srsFile)
		if err != nil {
			return nil, err
		}
		var srs kzg.SRS
		if err := srs.UnmarshalBinary(data); err != nil {
			return nil, err
		}
		if err := drv.UseSRS(&srs); err != nil {
			return nil, err
		}
		return drv, nil
	}
	if err := drv.Preprocess(rand.Reader); err != nil {
		return nil, err
	}
	return drv, nil
}

func demoWitness(circ *circuit.Circuit) map[int]fr.Element {
	var x, y fr.Element
	x.SetUint64(inputX)
	y.SetUint64(inputY)
	return map[int]fr.Element{0: x, 1: y}
}

func runDelegate(_ *cobra.Command, _ []string) error {
	mode, err := parseMode()
	if err != nil {
		return err
	}
	circ := circuit.SquarePlus(party.ID(1), party.ID(2))
	drv, err := newDriver(mode, circ)
	if err != nil {
		return err
	}

	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return err
	}
	outcome, dec, err := drv.Run(context.Background(), demoWitness(circ), seed)
	if err != nil {
		return err
	}
	if dec.State != delegation.Accept {
		fmt.Printf("decision: reject (%s)\n", dec.Reason)
		return nil
	}
	fmt.Printf("decision: accept\n")
	fmt.Printf("output:   %s\n", outcome.Outputs[0].String())
	fmt.Printf("rounds:   %d, bytes: %d\n", outcome.Stats.Rounds, outcome.Stats.BytesSent)
	return nil
}

func runBench(_ *cobra.Command, _ []string) error {
	mode, err := parseMode()
	if err != nil {
		return err
	}
	circ := circuit.SquarePlus(party.ID(1), party.ID(2))

	var total time.Duration
	for i := 0; i < rounds; i++ {
		drv, err := newDriver(mode, circ)
		if err != nil {
			return err
		}
		seed := make([]byte, 32)
		if _, err := rand.Read(seed); err != nil {
			return err
		}
		start := time.Now()
		_, dec, err := drv.Run(context.Background(), demoWitness(circ), seed)
		if err != nil {
			return err
		}
		if dec.State != delegation.Accept {
			return fmt.Errorf("iteration %d rejected: %s", i, dec.Reason)
		}
		total += time.Since(start)
	}
	fmt.Printf("%d runs, avg %s\n", rounds, total/time.Duration(rounds))
	return nil
}
