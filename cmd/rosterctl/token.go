package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"planning-imset/pkg/jwt"
)

// newTokenCommand 为运维脚本签发 Token（线上由身份服务签发）
func newTokenCommand() *cobra.Command {
	var (
		userID   string
		role     string
		initials string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "签发访问 Token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !jwt.ValidRole(role) {
				return fmt.Errorf("未知角色 %q（admin | gestion | user）", role)
			}
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}

			token, err := jwt.NewManager(&cfg.Auth).GenerateAccessToken(userID, role, initials)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "ops", "user_id")
	cmd.Flags().StringVar(&role, "role", jwt.RoleAdmin, "角色")
	cmd.Flags().StringVar(&initials, "initials", "", "医生缩写（可选）")
	return cmd
}
