package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/yanqian/derma-advisor/internal/domain/assessment"
	"github.com/yanqian/derma-advisor/internal/domain/recovery"
)

// ErrNotOK is returned when the service answered with a non-ok envelope.
var ErrNotOK = errors.New("assessment did not produce a structured result")

// ServiceFactory builds the assessment service on first use.
type ServiceFactory func(ctx context.Context) (assessment.Service, error)

type globalFlags struct {
	timeout time.Duration
	pretty  bool
}

// NewRootCmd wires the advisorctl command tree.
func NewRootCmd(factory ServiceFactory) *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "advisorctl",
		Short:         "Run mole assessments and skincare plans from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().DurationVar(&flags.timeout, "timeout", 90*time.Second, "overall request timeout")
	root.PersistentFlags().BoolVar(&flags.pretty, "pretty", false, "indent the JSON output")

	root.AddCommand(newMoleCommand(factory, flags))
	root.AddCommand(newPlanCommand(factory, flags))
	return root
}

func newMoleCommand(factory ServiceFactory, flags *globalFlags) *cobra.Command {
	var req assessment.MoleRequest
	cmd := &cobra.Command{
		Use:   "mole",
		Short: "Classify a mole from its ABCD observations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, factory, flags, func(ctx context.Context, svc assessment.Service) (recovery.Envelope, error) {
				return svc.AnalyzeMole(ctx, req)
			})
		},
	}
	cmd.Flags().StringVar(&req.Asymmetry, "asymmetry", "", "asymmetry observation")
	cmd.Flags().StringVar(&req.Border, "border", "", "border observation")
	cmd.Flags().StringVar(&req.Color, "color", "", "color observation")
	cmd.Flags().StringVar(&req.Diameter, "diameter", "", "diameter observation")
	return cmd
}

func newPlanCommand(factory ServiceFactory, flags *globalFlags) *cobra.Command {
	var (
		req assessment.PlanRequest
		age string
	)
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate a skincare plan for a profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Age = assessment.FlexString(age)
			return run(cmd, factory, flags, func(ctx context.Context, svc assessment.Service) (recovery.Envelope, error) {
				return svc.GenerateSkinCarePlan(ctx, req)
			})
		},
	}
	cmd.Flags().StringVar(&age, "age", "", "age of the person")
	cmd.Flags().StringVar(&req.Gender, "gender", "", "gender of the person")
	cmd.Flags().StringVar(&req.SkinType, "skin-type", "", "skin type, e.g. oily or dry")
	cmd.Flags().StringVar(&req.SkinIssues, "skin-issues", "", "optional skin issues")
	return cmd
}

type callFunc func(ctx context.Context, svc assessment.Service) (recovery.Envelope, error)

func run(cmd *cobra.Command, factory ServiceFactory, flags *globalFlags, call callFunc) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if flags.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flags.timeout)
		defer cancel()
	}

	svc, err := factory(ctx)
	if err != nil {
		return fmt.Errorf("init service: %w", err)
	}
	env, err := call(ctx, svc)
	if err != nil {
		return err
	}
	if err := writeEnvelope(cmd.OutOrStdout(), env, flags.pretty); err != nil {
		return err
	}
	if !env.OK() {
		return ErrNotOK
	}
	return nil
}

func writeEnvelope(out io.Writer, env recovery.Envelope, pretty bool) error {
	enc := json.NewEncoder(out)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(env)
}
