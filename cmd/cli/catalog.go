package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wadjakorntonsri/mosaic-gallery/pkg/adapters/storage/s3store"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/gallery"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Dump, load and sync the image catalog",
	}
	cmd.AddCommand(newCatalogExportCmd(), newCatalogImportCmd(), newCatalogSyncCmd())
	return cmd
}

func newCatalogExportCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the catalog to stdout",
		Example: `  mosaic-cli catalog export > catalog.yaml
  mosaic-cli catalog export --format json > catalog.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, _, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			images, err := a.Repo.ListAllImages(cmd.Context())
			if err != nil {
				return err
			}
			return gallery.WriteCatalog(cmd.OutOrStdout(), format, images)
		},
	}

	cmd.Flags().StringVar(&format, "format", gallery.FormatYAML, "Output format: yaml or json")
	return cmd
}

func newCatalogImportCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Upsert images from a catalog dump",
		Long: `Upserts every image of a catalog dump. Images are matched by URL,
so importing the same file twice changes nothing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			images, err := gallery.ReadCatalog(f, gallery.FormatOf(file))
			if err != nil {
				return err
			}

			a, _, log, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := gallery.Import(cmd.Context(), a.Repo, images)
			if err != nil {
				return err
			}
			log.WithFields(logrus.Fields{"file": file, "images": n}).Info("catalog imported")
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Catalog file (.yaml, .yml or .json)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newCatalogSyncCmd() *cobra.Command {
	var bucket, prefix, baseURL string

	cmd := &cobra.Command{
		Use:   "sync-s3",
		Short: "Import the resized image ladders found in an S3 bucket",
		Long: `Lists the originalsWEBP/ and w{N}/ folders of the bucket and upserts one
image per file name, with the widths that actually exist as its variants.

Flags default to S3_BUCKET_NAME, S3_PREFIX and S3_BASE_URL.`,
		Example: `  mosaic-cli catalog sync-s3 --bucket photos --prefix gallery --base-url https://cdn.example.com/gallery`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cfg, log, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if bucket == "" {
				bucket = cfg.S3BucketName
			}
			if !cmd.Flags().Changed("prefix") {
				prefix = cfg.S3Prefix
			}
			if baseURL == "" {
				baseURL = cfg.S3BaseURL
			}
			if bucket == "" || baseURL == "" {
				return fmt.Errorf("--bucket and --base-url are required")
			}

			store, err := s3store.New(cmd.Context(), s3store.Options{
				Bucket:  bucket,
				Prefix:  prefix,
				BaseURL: baseURL,
				Log:     log,
			})
			if err != nil {
				return err
			}

			n, err := gallery.Sync(cmd.Context(), store, a.Repo)
			if err != nil {
				return err
			}
			log.WithFields(logrus.Fields{"bucket": bucket, "images": n}).Info("catalog synced")
			return nil
		},
	}

	cmd.Flags().StringVar(&bucket, "bucket", "", "S3 bucket holding the image ladders")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Key prefix of the ladder folders")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Public URL of the prefix")
	return cmd
}
