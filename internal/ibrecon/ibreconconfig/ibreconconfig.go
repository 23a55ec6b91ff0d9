// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package ibreconconfig provides configuration parsing and validation for ibrecon.
//
// Configuration is stored at <dir>/ibrecon.yaml. Selected fields can be
// overridden by IBRECON_ environment variables.
package ibreconconfig

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bufdev/ibrecon/internal/ibrecon/ibreconpath"
	"github.com/bufdev/ibrecon/internal/pkg/ibkrheader"
	"github.com/bufdev/ibrecon/internal/pkg/pnlrecon"
	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	// EnvPrefix is the prefix of the environment variables that override config fields.
	EnvPrefix = "IBRECON"
	// DefaultParallelism is the default number of statements parsed concurrently.
	DefaultParallelism = 4
)

// configTemplate is the default configuration file template with comments.
// yaml.v3 does not preserve comments, so we hardcode the template string.
const configTemplate = `# The configuration file version.
#
# Required. The only current valid version is v1.
version: v1
# Reconciliation configuration.
reconcile:
  # The maximum absolute P&L difference between the two sources that still
  # reconciles. A difference equal to the tolerance reconciles.
  #
  # Optional. Defaults to 0.01. Overridden by IBRECON_TOLERANCE.
  tolerance: 0.01
  # The authoritative P&L file in symbol,date,pnl format, relative to this directory.
  #
  # Optional. Defaults to pnl.csv.
  pnl_file: pnl.csv
# Activity Statement parsing configuration.
statements:
  # The maximum number of statements parsed concurrently.
  #
  # Optional. Defaults to 4. Overridden by IBRECON_PARALLELISM.
  parallelism: 4
  # Extra trade column aliases, mapping a column label to a canonical key:
  # symbol, quantity, price, closePrice, commissionFee, dateTime, proceeds,
  # basis, tradeCode, rawRealizedPL, mtmPL, currency, assetCategory,
  # description, or - to ignore the column.
  #
  # Optional.
  # trade_aliases:
  #   "Exec Px": price
  #   "Sym": symbol
`

var configValidator = validator.New(validator.WithRequiredStructEnabled())

// ExternalConfig is the YAML-serializable configuration file structure.
type ExternalConfig struct {
	// Version is the configuration file version (must be "v1").
	Version string `yaml:"version" validate:"required,eq=v1"`
	// Reconcile holds the reconciliation configuration.
	Reconcile ExternalReconcileConfig `yaml:"reconcile"`
	// Statements holds the statement parsing configuration.
	Statements ExternalStatementsConfig `yaml:"statements"`
}

// ExternalReconcileConfig holds reconciliation configuration.
type ExternalReconcileConfig struct {
	// Tolerance is the reconciliation tolerance, or nil for the default.
	Tolerance *float64 `yaml:"tolerance" validate:"omitempty,gte=0"`
	// PnLFile is the authoritative P&L file path.
	PnLFile string `yaml:"pnl_file"`
}

// ExternalStatementsConfig holds statement parsing configuration.
type ExternalStatementsConfig struct {
	// Parallelism is the maximum number of concurrent parses, or 0 for the default.
	Parallelism int `yaml:"parallelism" validate:"gte=0"`
	// TradeAliases maps column labels to canonical key names.
	TradeAliases map[string]string `yaml:"trade_aliases" validate:"dive,keys,required,endkeys,required"`
}

// externalEnvConfig holds the environment variable overrides.
type externalEnvConfig struct {
	Tolerance   *float64 `envconfig:"TOLERANCE"`
	Parallelism *int     `envconfig:"PARALLELISM"`
}

// Config is the validated runtime configuration.
type Config struct {
	// DirPath is the base directory the config was read from.
	DirPath string
	// Tolerance is the reconciliation tolerance.
	Tolerance float64
	// PnLFilePath is the resolved path of the authoritative P&L file.
	PnLFilePath string
	// Parallelism is the maximum number of statements parsed concurrently.
	Parallelism int
	// TradeAliases is the default trade alias table with the configured aliases layered on top.
	TradeAliases ibkrheader.AliasTable
}

// NewConfig validates an ExternalConfig and returns a runtime Config for the base directory.
func NewConfig(dirPath string, externalConfig ExternalConfig) (*Config, error) {
	if err := configValidator.Struct(externalConfig); err != nil {
		return nil, newValidationError(err)
	}
	tolerance := pnlrecon.DefaultTolerance
	if externalConfig.Reconcile.Tolerance != nil {
		tolerance = *externalConfig.Reconcile.Tolerance
	}
	parallelism := externalConfig.Statements.Parallelism
	if parallelism == 0 {
		parallelism = DefaultParallelism
	}
	pnlFile := externalConfig.Reconcile.PnLFile
	if pnlFile == "" {
		pnlFile = ibreconpath.DefaultPnLFileName
	}
	pnlFilePath, err := ibreconpath.ResolvePath(dirPath, pnlFile)
	if err != nil {
		return nil, err
	}
	tradeAliases, err := newTradeAliases(externalConfig.Statements.TradeAliases)
	if err != nil {
		return nil, err
	}
	return &Config{
		DirPath:      dirPath,
		Tolerance:    tolerance,
		PnLFilePath:  pnlFilePath,
		Parallelism:  parallelism,
		TradeAliases: tradeAliases,
	}, nil
}

// ReadConfig reads and validates the configuration file from the given base directory,
// then applies environment variable overrides.
//
// A missing configuration file yields the default configuration.
func ReadConfig(dirPath string) (*Config, error) {
	externalConfig, err := readExternalConfig(ibreconpath.ConfigFilePath(dirPath))
	if err != nil {
		return nil, err
	}
	if err := applyEnv(externalConfig); err != nil {
		return nil, err
	}
	return NewConfig(dirPath, *externalConfig)
}

// InitConfig creates a new configuration file with a documented template.
// Creates the base directory if it does not exist.
// Returns an error if the file already exists.
func InitConfig(dirPath string) error {
	filePath := ibreconpath.ConfigFilePath(dirPath)
	if _, err := os.Stat(filePath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", filePath)
	}
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	return os.WriteFile(filePath, []byte(configTemplate), 0o644)
}

// ValidateConfigFile reads and validates the configuration file at the given path.
func ValidateConfigFile(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	var externalConfig ExternalConfig
	if err := unmarshalYAMLStrict(data, &externalConfig); err != nil {
		return fmt.Errorf("parsing config file %s: %w", filePath, err)
	}
	_, err = NewConfig(".", externalConfig)
	return err
}

func readExternalConfig(filePath string) (*ExternalConfig, error) {
	externalConfig := &ExternalConfig{Version: "v1"}
	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return externalConfig, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	// The file must state its version.
	externalConfig.Version = ""
	if err := unmarshalYAMLStrict(data, externalConfig); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", filePath, err)
	}
	return externalConfig, nil
}

func applyEnv(externalConfig *ExternalConfig) error {
	var externalEnvConfig externalEnvConfig
	if err := envconfig.Process(EnvPrefix, &externalEnvConfig); err != nil {
		return fmt.Errorf("reading %s_ environment variables: %w", EnvPrefix, err)
	}
	if externalEnvConfig.Tolerance != nil {
		externalConfig.Reconcile.Tolerance = externalEnvConfig.Tolerance
	}
	if externalEnvConfig.Parallelism != nil {
		externalConfig.Statements.Parallelism = *externalEnvConfig.Parallelism
	}
	return nil
}

func newTradeAliases(tradeAliases map[string]string) (ibkrheader.AliasTable, error) {
	extra := make(map[string]ibkrheader.Key, len(tradeAliases))
	for column, keyName := range tradeAliases {
		key, err := ibkrheader.ParseKey(keyName)
		if err != nil {
			return ibkrheader.AliasTable{}, fmt.Errorf("statements.trade_aliases[%q]: %w", column, err)
		}
		extra[column] = key
	}
	return ibkrheader.DefaultTradeAliases().With(extra), nil
}

// newValidationError converts validator errors into one error naming the YAML fields.
func newValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	messages := make([]string, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		messages = append(
			messages,
			fmt.Sprintf("%s failed %q validation (value %v)", yamlFieldPath(fieldError.Namespace()), fieldError.Tag(), fieldError.Value()),
		)
	}
	sort.Strings(messages)
	return fmt.Errorf("invalid configuration: %s", strings.Join(messages, "; "))
}

// yamlFieldPath maps a validator namespace such as
// "ExternalConfig.Reconcile.Tolerance" to the YAML path "reconcile.tolerance".
func yamlFieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, part := range parts {
		if name, ok := yamlFieldNames[part]; ok {
			parts[i] = name
		}
	}
	return strings.Join(parts, ".")
}

var yamlFieldNames = map[string]string{
	"Version":      "version",
	"Reconcile":    "reconcile",
	"Tolerance":    "tolerance",
	"PnLFile":      "pnl_file",
	"Statements":   "statements",
	"Parallelism":  "parallelism",
	"TradeAliases": "trade_aliases",
}

// unmarshalYAMLStrict unmarshals the data as YAML with strict field checking.
// If the data length is 0, this is a no-op.
func unmarshalYAMLStrict(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	yamlDecoder := yaml.NewDecoder(bytes.NewReader(data))
	// Reject unknown fields.
	yamlDecoder.KnownFields(true)
	if err := yamlDecoder.Decode(v); err != nil {
		return fmt.Errorf("could not unmarshal as YAML: %w", err)
	}
	return nil
}
