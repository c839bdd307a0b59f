package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeRecognizer(); err != nil {
		return err
	}
	c.normalizeOutput()
	if err := c.normalizeCatalog(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.WorkDir, err = expandPath(strings.TrimSpace(c.Paths.WorkDir)); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeRecognizer() error {
	c.Recognizer.Backend = strings.ToLower(strings.TrimSpace(c.Recognizer.Backend))
	if c.Recognizer.Backend == "" {
		c.Recognizer.Backend = defaultBackend
	}
	if value, ok := os.LookupEnv("SUBGEN_MODEL"); ok && strings.TrimSpace(value) != "" {
		c.Recognizer.Model = value
	}
	c.Recognizer.Model = strings.TrimSpace(c.Recognizer.Model)
	if c.Recognizer.Model == "" {
		c.Recognizer.Model = defaultModel
	}
	if value, ok := os.LookupEnv("SUBGEN_LANGUAGE"); ok && strings.TrimSpace(value) != "" {
		c.Recognizer.Language = value
	}
	c.Recognizer.Language = strings.ToLower(strings.TrimSpace(c.Recognizer.Language))
	if c.Recognizer.Language == "auto" {
		c.Recognizer.Language = ""
	}
	c.Recognizer.Binary = strings.TrimSpace(c.Recognizer.Binary)
	c.Recognizer.IndexURL = strings.TrimSpace(c.Recognizer.IndexURL)
	if c.Recognizer.IndexURL == "" {
		if c.Recognizer.CUDAEnabled {
			c.Recognizer.IndexURL = defaultWhisperXCUDA
		} else {
			c.Recognizer.IndexURL = defaultWhisperXIndex
		}
	}
	c.Recognizer.VADMethod = strings.ToLower(strings.TrimSpace(c.Recognizer.VADMethod))
	if c.Recognizer.VADMethod == "" {
		c.Recognizer.VADMethod = defaultVADMethod
	}
	c.Recognizer.HuggingFaceToken = strings.TrimSpace(c.Recognizer.HuggingFaceToken)
	for _, key := range []string{"HUGGING_FACE_HUB_TOKEN", "HF_TOKEN"} {
		if c.Recognizer.HuggingFaceToken != "" {
			break
		}
		c.Recognizer.HuggingFaceToken = strings.TrimSpace(os.Getenv(key))
	}
	var err error
	if c.Recognizer.ModelPath, err = expandPath(strings.TrimSpace(c.Recognizer.ModelPath)); err != nil {
		return fmt.Errorf("recognizer.model_path: %w", err)
	}
	if c.Recognizer.Threads <= 0 {
		c.Recognizer.Threads = min(runtime.NumCPU(), defaultThreads)
	}
	return nil
}

func (c *Config) normalizeOutput() {
	c.Output.Mode = strings.ToLower(strings.TrimSpace(c.Output.Mode))
	if c.Output.Mode == "" {
		c.Output.Mode = defaultOutputMode
	}
	c.Output.Format = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(c.Output.Format)), ".")
	if c.Output.Format == "" {
		c.Output.Format = defaultOutputFormat
	}
	c.Output.OnConflict = strings.ToLower(strings.TrimSpace(c.Output.OnConflict))
	if c.Output.OnConflict == "" {
		c.Output.OnConflict = defaultConflictPolicy
	}
}

func (c *Config) normalizeCatalog() error {
	var err error
	if strings.TrimSpace(c.Catalog.Path) == "" {
		c.Catalog.Path = defaultCatalogPath
	}
	if c.Catalog.Path, err = expandPath(strings.TrimSpace(c.Catalog.Path)); err != nil {
		return fmt.Errorf("catalog.path: %w", err)
	}
	if c.Catalog.KeywordsFile, err = expandPath(strings.TrimSpace(c.Catalog.KeywordsFile)); err != nil {
		return fmt.Errorf("catalog.keywords_file: %w", err)
	}
	exts := make([]string, 0, len(c.Catalog.Extensions))
	seen := make(map[string]struct{}, len(c.Catalog.Extensions))
	for _, ext := range c.Catalog.Extensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	if len(exts) == 0 {
		exts = append(exts, DefaultCatalogExtensions...)
	}
	c.Catalog.Extensions = exts
	return nil
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
