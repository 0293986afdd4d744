package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePython()
	c.normalizeFastmail()
	c.normalizeOnePassword()
	c.normalizeServe()
	c.normalizeHistory()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.EnvBaseDir) == "" {
		c.Paths.EnvBaseDir = defaultEnvBaseDir
	}
	if c.Paths.EnvBaseDir, err = expandPath(c.Paths.EnvBaseDir); err != nil {
		return fmt.Errorf("paths.env_base_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DownloadDir) == "" {
		c.Paths.DownloadDir = defaultDownloadDir
	}
	if c.Paths.DownloadDir, err = expandPath(c.Paths.DownloadDir); err != nil {
		return fmt.Errorf("paths.download_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CertDir) == "" {
		c.Paths.CertDir = defaultCertDir
	}
	if c.Paths.CertDir, err = expandPath(c.Paths.CertDir); err != nil {
		return fmt.Errorf("paths.cert_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizePython() {
	c.Python.Binary = strings.TrimSpace(c.Python.Binary)
	if c.Python.Binary == "" {
		c.Python.Binary = defaultPythonBinary
	}
	if c.Python.CreateTimeoutSeconds <= 0 {
		c.Python.CreateTimeoutSeconds = defaultCreateTimeoutSeconds
	}
	if c.Python.InstallTimeoutSeconds <= 0 {
		c.Python.InstallTimeoutSeconds = defaultInstallTimeoutSeconds
	}
}

func (c *Config) normalizeFastmail() {
	c.Fastmail.APIToken = strings.TrimSpace(c.Fastmail.APIToken)
	if c.Fastmail.APIToken == "" {
		if value, ok := os.LookupEnv("PYKIT_FASTMAIL_TOKEN"); ok {
			c.Fastmail.APIToken = strings.TrimSpace(value)
		}
	}
	c.Fastmail.AccountID = strings.TrimSpace(c.Fastmail.AccountID)
}

func (c *Config) normalizeOnePassword() {
	c.OnePassword.Vault = strings.TrimSpace(c.OnePassword.Vault)
	if c.OnePassword.Vault == "" {
		c.OnePassword.Vault = "Private"
	}
	tags := make([]string, 0, len(c.OnePassword.Tags))
	for _, tag := range c.OnePassword.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	c.OnePassword.Tags = tags
}

func (c *Config) normalizeServe() {
	c.Serve.Bind = strings.TrimSpace(c.Serve.Bind)
	if c.Serve.Bind == "" {
		c.Serve.Bind = defaultServeBind
	}
	c.Serve.CommonName = strings.TrimSpace(c.Serve.CommonName)
	if c.Serve.CommonName == "" {
		c.Serve.CommonName = defaultServeCommonName
	}
	if c.Serve.ValidDays <= 0 {
		c.Serve.ValidDays = defaultServeValidDays
	}
}

func (c *Config) normalizeHistory() {
	if c.History.RetentionDays <= 0 {
		c.History.RetentionDays = defaultHistoryRetentionDays
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
