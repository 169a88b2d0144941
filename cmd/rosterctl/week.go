package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newWeekCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "week",
		Short: "周验证状态",
	}

	var unset bool
	validate := &cobra.Command{
		Use:   "validate <year> <week>",
		Short: "标记周为已验证（--unset 取消）",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err1 := strconv.Atoi(args[0])
			week, err2 := strconv.Atoi(args[1])
			if err1 != nil || err2 != nil {
				return fmt.Errorf("年份与周次必须为整数")
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			w, err := a.services().Week.SetValidation(cmd.Context(), year, week, !unset)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d-W%02d validated=%v\n", w.Year, w.WeekNumber, w.IsValidated)
			return nil
		},
	}
	validate.Flags().BoolVar(&unset, "unset", false, "取消验证")

	list := &cobra.Command{
		Use:   "list <year>",
		Short: "列出已验证的周",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("年份无效: %q", args[0])
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			weeks, err := a.services().Week.ListValidated(cmd.Context(), year)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), weeks)
			return nil
		},
	}

	cmd.AddCommand(validate, list)
	return cmd
}
