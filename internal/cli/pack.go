package cli

import (
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/reisxd/tizensign/internal/archive"
	"github.com/reisxd/tizensign/internal/models"
	"github.com/reisxd/tizensign/internal/scanner"
)

// NewPackCmd creates the pack command
func NewPackCmd() *cobra.Command {
	var config models.PackConfig

	cmd := &cobra.Command{
		Use:   "pack",
		Short: "Pack a directory into a signed package",
		Long: `Packs an application directory into a .wgt or .tpk archive and
signs it. The package type is detected from the manifest file present in
the directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.InputDir == "" {
				return &models.SignError{
					Type: models.ErrInvalidConfig,
					Err:  fmt.Errorf("input-dir is required"),
				}
			}

			logrus.Infof("Packing directory: %s", config.InputDir)
			return runPack(&config)
		},
	}

	cmd.Flags().StringVarP(&config.InputDir, "input-dir", "i", "", "Application directory to pack")
	cmd.Flags().StringVarP(&config.Output, "output", "o", "", "Output package file (default: <app id>.<ext>)")

	addKeyFlags(cmd, &config.AuthorKeyPath, &config.AuthorPassword, &config.DistKeyPath,
		&config.DistPassword, &config.ProfilesPath, &config.ProfileName)

	return cmd
}

// signConfigOf carries the pack key flags into the shared key-resolution
// path.
func signConfigOf(config *models.PackConfig) *models.SignConfig {
	return &models.SignConfig{
		AuthorKeyPath:  config.AuthorKeyPath,
		AuthorPassword: config.AuthorPassword,
		DistKeyPath:    config.DistKeyPath,
		DistPassword:   config.DistPassword,
		ProfilesPath:   config.ProfilesPath,
		ProfileName:    config.ProfileName,
	}
}

func runPack(config *models.PackConfig) error {
	pkgType, err := scanner.DetectDirType(config.InputDir)
	if err != nil {
		return &models.SignError{Type: models.ErrPackageParse, Package: config.InputDir, Err: err}
	}
	logrus.Debugf("Detected package type: %s", pkgType)

	entries, err := archive.ReadDir(config.InputDir)
	if err != nil {
		return err
	}
	logrus.Infof("Found %d content files", len(entries))

	pkgr, err := packagerFor(pkgType)
	if err != nil {
		return err
	}
	if err := pkgr.Validate(entries); err != nil {
		return err
	}
	info, err := pkgr.Metadata(entries)
	if err != nil {
		return err
	}
	logrus.Infof("Application: %s %s", info.ID, info.Version)

	if config.Output == "" {
		config.Output = filepath.Join(filepath.Dir(config.InputDir), info.ID+"."+pkgType.String())
	}

	author, dist, err := signingKeys(signConfigOf(config))
	if err != nil {
		return err
	}

	signed, err := signEntries(entries, author, dist)
	if err != nil {
		return err
	}

	if err := archive.WritePackage(config.Output, signed); err != nil {
		return err
	}

	logrus.Info("Package created successfully!")
	logrus.Infof("Output: %s", config.Output)
	return nil
}
