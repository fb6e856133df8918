package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hirudo/hirudo-etl/internal/etl"
)

var fixedCmd = &cobra.Command{
	Use:   "fixed",
	Short: "Scrape fixed donation points and publish them",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("fixed"); err != nil {
			return err
		}

		env, err := initEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := newFixedJob(cfg, env).Run(ctx)
		if err != nil {
			return err
		}
		printResult(cmd, etl.JobFixed, res)
		return nil
	},
}

var mobileCmd = &cobra.Command{
	Use:   "mobile",
	Short: "Scrape, geocode and publish mobile donation points",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("mobile"); err != nil {
			return err
		}

		env, err := initEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		job, err := newMobileJob(cfg, env)
		if err != nil {
			return err
		}
		res, err := job.Run(ctx)
		if err != nil {
			return err
		}
		printResult(cmd, etl.JobMobile, res)
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the fixed and mobile jobs in sequence",
	Long:  "Runs the fixed point import followed by the mobile point reconciliation. A fixed job failure is logged and does not prevent the mobile job unless --fail-fast is set.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("run"); err != nil {
			return err
		}

		failFast, _ := cmd.Flags().GetBool("fail-fast")
		log := zap.L().With(zap.String("command", "run"))

		env, err := initEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		fixedRes, fixedErr := newFixedJob(cfg, env).Run(ctx)
		if fixedErr != nil {
			if failFast {
				return fixedErr
			}
			log.Error("fixed job failed, continuing with mobile", zap.Error(fixedErr))
		} else {
			printResult(cmd, etl.JobFixed, fixedRes)
		}

		job, err := newMobileJob(cfg, env)
		if err != nil {
			return err
		}
		mobileRes, err := job.Run(ctx)
		if err != nil {
			return err
		}
		printResult(cmd, etl.JobMobile, mobileRes)

		return fixedErr
	},
}

func printResult(cmd *cobra.Command, job string, res *etl.RunResult) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rows published\n", job, res.Rows)
}

func init() {
	runCmd.Flags().Bool("fail-fast", false, "stop when the fixed job fails")
	rootCmd.AddCommand(fixedCmd, mobileCmd, runCmd)
}
