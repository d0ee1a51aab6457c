package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newCollectionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collection",
		Short: "Work with user collections",
	}
	cmd.AddCommand(newCollectionExportCmd())
	return cmd
}

func newCollectionExportCmd() *cobra.Command {
	var id, userID, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a collection's ZIP archive to disk",
		Example: `  mosaic-cli collection export --id 01HV... --user 5b0c... --out ./exports`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, log, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			archive, err := a.Collections.Export(cmd.Context(), userID, id)
			if err != nil {
				return err
			}

			path := out
			if info, err := os.Stat(out); err == nil && info.IsDir() {
				path = filepath.Join(out, archive.Filename)
			}
			if err := os.WriteFile(path, archive.Data, 0o644); err != nil {
				return err
			}

			res := archive.Result
			log.WithFields(logrus.Fields{
				"file":      path,
				"succeeded": res.Succeeded,
				"failed":    res.Failed,
				"outcome":   res.Outcome,
			}).Info("collection exported")
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Collection id")
	cmd.Flags().StringVar(&userID, "user", "", "Id of the collection owner")
	cmd.Flags().StringVarP(&out, "out", "o", ".", "Output file or directory")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
