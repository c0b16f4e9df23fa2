package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/taigrr/orbitview/internal/config"
)

func newConfigCmd(o *config.Overrides) *cobra.Command {
	var write string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration, or write it with --write",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(o, nil)
			if err != nil {
				return err
			}
			switch write {
			case "":
				data, err := yaml.Marshal(cfg)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			case "-":
				if err := cfg.Save(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(config.ConfigDir(), "config.yaml"))
				return nil
			default:
				if err := cfg.SaveTo(write); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), write)
				return nil
			}
		},
	}
	cmd.Flags().StringVarP(&write, "write", "w", "", `write the config to a file ("-" for the user config directory)`)
	return cmd
}
