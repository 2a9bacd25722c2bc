// Command matchverify checks match records and seals offline, without the
// service or its database.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v2"

	"match-integrity-system/engine"
	"match-integrity-system/fairness"
	"match-integrity-system/models"
	"match-integrity-system/seal"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func recordFlag() cli.Flag {
	return &cli.StringFlag{Name: "record", Aliases: []string{"r"}, Usage: "match record JSON file", Required: true}
}

func sealFlag() cli.Flag {
	return &cli.StringFlag{Name: "seal", Aliases: []string{"s"}, Usage: "seal JSON file", Required: true}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:      "matchverify",
		Usage:     "seal, verify and replay football match records",
		Writer:    out,
		ErrWriter: os.Stderr,
		Commands: []*cli.Command{
			{
				Name:  "seal",
				Usage: "compute the seal and proof string of a record",
				Flags: []cli.Flag{
					recordFlag(),
					&cli.StringFlag{Name: "algorithm", Value: seal.DefaultHash, Usage: "sha256, sha3-256 or blake2b-256"},
					&cli.Int64Flag{Name: "sealed-at", Usage: "seal timestamp in unix ms (default now)"},
				},
				Action: sealAction,
			},
			{
				Name:  "verify",
				Usage: "check a record against a seal",
				Flags: []cli.Flag{
					recordFlag(),
					sealFlag(),
					&cli.BoolFlag{Name: "shallow", Usage: "only compare the result fields"},
				},
				Action: verifyAction,
			},
			{
				Name:      "proof",
				Usage:     "parse a proof string, optionally checking it against a seal",
				ArgsUsage: "PROOF:<matchId>:<hashPrefix>:<home>-<away>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "seal", Aliases: []string{"s"}, Usage: "seal JSON file"},
				},
				Action: proofAction,
			},
			{
				Name:  "replay",
				Usage: "re-simulate a record from its setup and input log",
				Flags: []cli.Flag{recordFlag()},
				Action: func(c *cli.Context) error {
					rec, err := readRecord(c.String("record"))
					if err != nil {
						return err
					}
					return replay(c.App.Writer, rec)
				},
			},
			{
				Name:  "validate",
				Usage: "run the fairness checks on a record",
				Flags: []cli.Flag{recordFlag()},
				Action: func(c *cli.Context) error {
					rec, err := readRecord(c.String("record"))
					if err != nil {
						return err
					}
					v, err := fairness.NewValidator(fairness.DefaultConfig())
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, v.Validate(rec))
				},
			},
		},
	}
}

func sealAction(c *cli.Context) error {
	rec, err := readRecord(c.String("record"))
	if err != nil {
		return err
	}
	sealer, err := seal.NewSealer(c.String("algorithm"))
	if err != nil {
		return err
	}
	var sl *models.Seal
	if c.IsSet("sealed-at") {
		sl, err = sealer.SealAt(rec, c.Int64("sealed-at"))
	} else {
		sl, err = sealer.Seal(rec)
	}
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, map[string]any{
		"seal":  sl,
		"proof": seal.ProofString(sl, rec.FinalScore),
	})
}

func verifyAction(c *cli.Context) error {
	rec, err := readRecord(c.String("record"))
	if err != nil {
		return err
	}
	sl, err := readSeal(c.String("seal"))
	if err != nil {
		return err
	}
	if c.Bool("shallow") {
		sl = shallow(sl)
	}
	sealer, err := seal.NewSealer(sl.Algorithm)
	if err != nil {
		return err
	}
	res := sealer.Verify(rec, sl)
	if err := printJSON(c.App.Writer, res); err != nil {
		return err
	}
	if !res.Valid {
		return cli.Exit("record does not match seal", 1)
	}
	return nil
}

func proofAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("expected exactly one proof string", 2)
	}
	p, err := seal.ParseProof(c.Args().First())
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	if !c.IsSet("seal") {
		return printJSON(c.App.Writer, p)
	}
	sl, err := readSeal(c.String("seal"))
	if err != nil {
		return err
	}
	matches := seal.MatchesProof(p, sl, p.Score)
	if err := printJSON(c.App.Writer, map[string]any{"proof": p, "matches": matches}); err != nil {
		return err
	}
	if !matches {
		return cli.Exit("proof does not match seal", 1)
	}
	return nil
}

func replay(out io.Writer, rec *models.MatchRecord) error {
	sim, err := engine.NewSimulator(engine.ConfigForRecord(engine.DefaultConfig(), rec))
	if err != nil {
		return err
	}
	replayed, err := sim.ReplayRecord(rec)
	if err != nil {
		return err
	}
	sealer, err := seal.NewSealer(seal.DefaultHash)
	if err != nil {
		return err
	}
	want, err := sealer.SealAt(rec, 0)
	if err != nil {
		return err
	}
	res := sealer.Verify(replayed, want)
	if err := printJSON(out, map[string]any{
		"matchId":          rec.MatchID,
		"reproduced":       res.Valid,
		"mismatchedFields": res.MismatchedFields,
		"finalScore":       replayed.FinalScore,
	}); err != nil {
		return err
	}
	if !res.Valid {
		return cli.Exit("record does not reproduce", 1)
	}
	return nil
}

// shallow drops everything but the result-level hashes from a seal.
func shallow(sl *models.Seal) *models.Seal {
	out := *sl
	out.FullRecordHash = ""
	out.FieldHashes = make(map[string]string, len(seal.ResultFields))
	for _, f := range seal.ResultFields {
		if h, ok := sl.FieldHashes[f]; ok {
			out.FieldHashes[f] = h
		}
	}
	return &out
}

func readRecord(path string) (*models.MatchRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	rec, err := models.DecodeRecord(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rec, nil
}

func readSeal(path string) (*models.Seal, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sl models.Seal
	if err := json.Unmarshal(data, &sl); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &sl, nil
}

func printJSON(out io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
