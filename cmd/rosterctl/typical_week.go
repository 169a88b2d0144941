package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"

	"planning-imset/internal/model"
)

func newTypicalWeekCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "typical-week",
		Aliases: []string{"tw"},
		Short:   "典型周模板",
	}

	apply := &cobra.Command{
		Use:   "apply <year> <even|odd>",
		Short: "将模板套用到全年对应奇偶周",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, parity, err := parseYearParity(args)
			if err != nil {
				return err
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			// Ctrl-C 时在当前周结束后停止
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			report, err := a.services().TypicalWeek.ApplyToYear(ctx, year, parity)
			if report != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "年份 %d (%s): %d 周，%d 个班次，套用 %d，拒绝 %d\n",
					report.Year, report.Parity, report.Weeks, report.Shifts, report.Applied, report.Rejected)
			}
			return err
		},
	}

	reset := &cobra.Command{
		Use:   "reset <year> <even|odd>",
		Short: "清空模板及对应周的 no-doctor 行",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, parity, err := parseYearParity(args)
			if err != nil {
				return err
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			report, err := a.services().TypicalWeek.ResetYear(cmd.Context(), year, parity)
			if report != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "删除模板 %d 项，重算 %d 个班次\n",
					report.TemplateRemoved, report.ShiftsNormalized)
			}
			return err
		},
	}

	cmd.AddCommand(apply, reset)
	return cmd
}

func parseYearParity(args []string) (int, string, error) {
	year, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, "", fmt.Errorf("年份无效: %q", args[0])
	}
	if !model.ValidWeekType(args[1]) {
		return 0, "", fmt.Errorf("周类型必须为 even 或 odd")
	}
	return year, args[1], nil
}
