package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-bench/internal/duckdb"
	"github.com/inodb/vibe-bench/internal/eval"
	"github.com/inodb/vibe-bench/internal/normalize"
	"github.com/inodb/vibe-bench/internal/output"
	"github.com/inodb/vibe-bench/internal/reference"
	"github.com/inodb/vibe-bench/internal/variant"
	"github.com/inodb/vibe-bench/internal/vcf"
)

// evalFlags are the eval options that are not also config keys.
type evalFlags struct {
	knownFP       string
	errVCF        string
	label         string
	normalize     bool
	genotypeAware bool
}

func newEvalCmd() *cobra.Command {
	var f evalFlags

	cmd := &cobra.Command{
		Use:   "eval <truth> <pred> [reference.fa]",
		Short: "Compare predicted calls against a truth set",
		Long: `Compare a predicted VCF against a truth VCF contig by contig.

Inputs are VCF or MAF files (detected by name or content), sorted and
grouped by contig. MAF indels need the reference. With a reference FASTA,
false negatives that the caller reported in a different representation are
rescued, and --normalize left-aligns both callsets first.`,
		Example: `  vibe-bench eval truth.vcf.gz pred.vcf.gz ref.fa
  vibe-bench eval --known-fp fp.vcf --err-vcf errors.vcf.gz truth.vcf pred.vcf ref.fa
  vibe-bench eval --output tsv --db ~/.vibe-bench/runs.duckdb truth.vcf pred.vcf`,
		Args: checkArgs(cobra.RangeArgs(2, 3)),
		RunE: func(cmd *cobra.Command, args []string) error {
			refPath := ""
			if len(args) == 3 {
				refPath = args[2]
			}
			logger, err := newLogger()
			if err != nil {
				return fmt.Errorf("creating logger: %w", err)
			}
			defer logger.Sync()
			return runEval(cmd.Context(), cmd.OutOrStdout(), logger, args[0], args[1], refPath, f)
		},
	}

	flags := cmd.Flags()
	flags.Int64P("window", "w", eval.DefaultWindow, "Half-width of the rescue window")
	flags.Int64("sv-bp", eval.DefaultEpsBp, "Maximum breakpoint distance for structural matches")
	flags.Int64("sv-len", eval.DefaultEpsLen, "Maximum length difference for structural matches")
	flags.Int("max-indel-len", variant.DefaultMaxIndelLen, "Largest length change still classified as an indel")
	flags.Float64("snp-err", 0, "Error rate of SNPs in the truth set")
	flags.Float64("indel-err", 0, "Error rate of indels in the truth set")
	flags.Float64("sv-err", 0, "Error rate of structural variants in the truth set")
	flags.StringP("output", "o", "text", "Report format: text, tsv, json")
	flags.String("db", "", "DuckDB file to record the run in")
	for _, key := range []string{"window", "sv-bp", "sv-len", "max-indel-len", "snp-err", "indel-err", "sv-err", "output", "db"} {
		viper.BindPFlag(key, flags.Lookup(key))
	}

	flags.StringVar(&f.knownFP, "known-fp", "", "VCF of known false-positive sites")
	flags.StringVar(&f.errVCF, "err-vcf", "", "Write classified calls to this VCF (BGZF when it ends in .gz)")
	flags.StringVar(&f.label, "label", "", "Label stored with the run in --db")
	flags.BoolVar(&f.normalize, "normalize", false, "Left-normalize both callsets against the reference first")
	flags.BoolVar(&f.genotypeAware, "genotype-aware", false, "Rescue het calls on their own haplotype")

	return cmd
}

// contigRef is the part of a reference the CLI needs besides bases.
type contigRef interface {
	reference.Reference
	ContigNames() []string
	Length(chrom string) int64
}

func runEval(ctx context.Context, out io.Writer, logger *zap.Logger, truthPath, predPath, refPath string, f evalFlags) (err error) {
	format := viper.GetString("output")
	switch format {
	case "text", "tsv", "json":
	default:
		return usagef("unknown output format %q", format)
	}
	if f.normalize && refPath == "" {
		return usagef("--normalize requires a reference")
	}

	opts := eval.Options{
		MaxIndelLen: viper.GetInt("max-indel-len"),
		EpsBp:       viper.GetInt64("sv-bp"),
		EpsLen:      viper.GetInt64("sv-len"),
	}

	var ref contigRef
	if refPath != "" {
		idx, err := reference.Open(refPath)
		if err != nil {
			return err
		}
		defer idx.Close()
		ref = idx
	}

	truth, err := openCallset(truthPath, ref)
	if err != nil {
		return fmt.Errorf("truth: %w", err)
	}
	defer truth.Close()
	pred, err := openCallset(predPath, ref)
	if err != nil {
		return fmt.Errorf("predicted: %w", err)
	}
	defer pred.Close()

	var knownStream eval.ContigStream
	if f.knownFP != "" {
		known, err := openCallset(f.knownFP, ref)
		if err != nil {
			return fmt.Errorf("known false positives: %w", err)
		}
		defer known.Close()
		knownStream = vcf.NewContigReader(known.parser)
	}

	var rescuer *eval.Rescuer
	if ref != nil {
		rescuer = eval.NewRescuer(ref, viper.GetInt64("window"))
		rescuer.GenotypeAware = f.genotypeAware
		rescuer.SetLogger(logger)
	}
	evaluator := eval.NewEvaluator(opts, rescuer)
	evaluator.SetLogger(logger)

	d := eval.NewDriver(evaluator)
	d.SetLogger(logger)
	switch {
	case ref != nil:
		d.Order = reference.NewOrder(ref.ContigNames())
	case len(truth.contigs) > 0:
		d.Order = reference.NewOrder(truth.contigs)
	}
	if f.normalize {
		d.Normalizer = normalize.New(ref, opts.MaxIndelLen)
		d.Normalizer.SetLogger(logger)
	}
	if f.errVCF != "" {
		aw, cerr := output.CreateAnnotated(f.errVCF, contigHeader(ref))
		if cerr != nil {
			return cerr
		}
		defer func() {
			if cerr := aw.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing %s: %w", f.errVCF, cerr)
			}
		}()
		d.Annotated = aw
	}

	stats, err := d.Run(ctx, vcf.NewContigReader(truth.parser), vcf.NewContigReader(pred.parser), knownStream)
	if err != nil {
		return err
	}
	if d.Normalizer != nil {
		logNormalizeStats(logger, d.Normalizer.Stats())
	}

	report := &output.Report{
		Stats: stats,
		Rates: output.ErrorRates{
			SNP:   viper.GetFloat64("snp-err"),
			Indel: viper.GetFloat64("indel-err"),
			SV:    viper.GetFloat64("sv-err"),
		},
		KnownFP: f.knownFP != "",
	}
	if err := writeReport(out, format, report); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	if dbPath := viper.GetString("db"); dbPath != "" {
		inputs := map[string]string{"truth": truthPath, "pred": predPath, "known_fp": f.knownFP, "reference": refPath}
		id, err := recordRun(ctx, dbPath, f.label, settingsSummary(opts, f), inputs, stats)
		if err != nil {
			return err
		}
		logger.Info("run recorded", zap.String("run_id", id), zap.String("db", dbPath))
	}
	return nil
}

func writeReport(w io.Writer, format string, r *output.Report) error {
	switch format {
	case "tsv":
		return output.WriteTSV(w, r)
	case "json":
		return output.WriteJSON(w, r)
	}
	return output.WriteText(w, r)
}

func contigHeader(ref contigRef) []string {
	if ref == nil {
		return nil
	}
	var lines []string
	for _, name := range ref.ContigNames() {
		lines = append(lines, fmt.Sprintf("##contig=<ID=%s,length=%d>", name, ref.Length(name)))
	}
	return lines
}

func settingsSummary(opts eval.Options, f evalFlags) string {
	return fmt.Sprintf("window=%d sv-bp=%d sv-len=%d max-indel-len=%d normalize=%t genotype-aware=%t",
		viper.GetInt64("window"), opts.EpsBp, opts.EpsLen, opts.MaxIndelLen, f.normalize, f.genotypeAware)
}

func recordRun(ctx context.Context, dbPath, label, settings string, paths map[string]string, stats *eval.Stats) (string, error) {
	store, err := duckdb.Open(dbPath)
	if err != nil {
		return "", err
	}
	defer store.Close()

	run := duckdb.Run{Label: label, Settings: settings}
	for _, role := range []string{"truth", "pred", "known_fp", "reference"} {
		path := paths[role]
		if path == "" {
			continue
		}
		fp, err := duckdb.StatFile(path)
		if err != nil {
			return "", fmt.Errorf("fingerprint %s: %w", path, err)
		}
		run.Inputs = append(run.Inputs, duckdb.Input{Role: role, FileFingerprint: fp})
	}

	id, err := store.RecordRun(ctx, run, stats)
	if err != nil {
		return "", fmt.Errorf("recording run: %w", err)
	}
	return id.String(), nil
}

func logNormalizeStats(logger *zap.Logger, st normalize.Stats) {
	logger.Info("normalization summary",
		zap.Int("seen", st.Seen),
		zap.Int("filtered", st.Filtered),
		zap.Int("normalized", st.Normalized),
		zap.Int("shifted", st.Shifted),
		zap.Float64("shifted_fraction", st.ShiftedFraction()),
		zap.Float64("mean_shift", st.MeanShift()),
		zap.Int64("max_shift", st.MaxShift),
		zap.Int("collision_shifts", st.CollisionShifts),
		zap.Int("collision_discards", st.CollisionDiscards),
		zap.Int("duplicate_discards", st.DuplicateDiscards),
	)
}
