package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pingcap-inc/file2bq/pkg/bigquerysql"
	"github.com/pingcap-inc/file2bq/pkg/errno"
	"github.com/pingcap/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	KeyProjectID       = "project_id"
	KeyDatasetID       = "dataset_id"
	KeyCredentialsFile = "credentials_file"

	DefaultEnvFile         = ".env"
	DefaultCredentialsFile = "bq_service_account.json"
)

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"bq.project-id":         KeyProjectID,
	"bq.dataset-id":         KeyDatasetID,
	"credentials-file-path": KeyCredentialsFile,
}

// Load resolves the BigQuery configuration. Flags that were set win over
// environment variables (PROJECT_ID, DATASET_ID, CREDENTIALS_FILE), which win
// over the dotenv file at envFile. A missing dotenv file is not an error.
func Load(envFile string, flags *pflag.FlagSet) (*bigquerysql.BigQueryConfig, error) {
	v := viper.New()
	v.SetDefault(KeyCredentialsFile, DefaultCredentialsFile)
	v.AutomaticEnv()

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, errors.Annotatef(err, "failed to read %s", envFile)
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.Trace(err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.Trace(err)
				}
			}
		}
	}

	cfg := &bigquerysql.BigQueryConfig{
		ProjectID:           strings.TrimSpace(v.GetString(KeyProjectID)),
		DatasetID:           strings.TrimSpace(v.GetString(KeyDatasetID)),
		CredentialsFilePath: strings.TrimSpace(v.GetString(KeyCredentialsFile)),
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fails when a required value is missing or the credentials file
// cannot be read.
func Validate(cfg *bigquerysql.BigQueryConfig) error {
	var missing []string
	if cfg.ProjectID == "" {
		missing = append(missing, KeyProjectID)
	}
	if cfg.DatasetID == "" {
		missing = append(missing, KeyDatasetID)
	}
	if cfg.CredentialsFilePath == "" {
		missing = append(missing, KeyCredentialsFile)
	}
	if len(missing) > 0 {
		return errno.ErrInvalidConfig.GenWithStackByArgs(fmt.Sprintf("missing %s", strings.Join(missing, ", ")))
	}
	if _, err := os.Stat(cfg.CredentialsFilePath); err != nil {
		return errno.ErrInvalidConfig.GenWithStackByArgs(fmt.Sprintf("credentials file: %v", err))
	}
	return nil
}
