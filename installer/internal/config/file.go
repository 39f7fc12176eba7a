package config

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/antaressimulatorteam/antares-web-installer/util"
)

// FileName is the server configuration file kept in the installation root.
const FileName = "config.yaml"

// Load reads a YAML document. An empty file yields an empty document.
func Load(path string) (Document, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc Document
	if err := yaml.Unmarshal(bs, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

// Save writes doc to path atomically, keeping the mode of an existing file.
func Save(ctx context.Context, path string, doc Document) error {
	bs, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	perm := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	return util.WriteBytesAtomic(ctx, path, bs, perm)
}

// UpdateFile migrates the configuration file at path from the detected
// version to the latest schema and forces desktop mode.
func (m *Migrator) UpdateFile(ctx context.Context, path, detected string) ([]string, error) {
	doc, err := Load(path)
	if err != nil {
		return nil, err
	}

	applied, err := m.Migrate(doc, detected)
	if err != nil {
		return applied, err
	}
	EnableDesktopMode(doc)

	if err := Save(ctx, path, doc); err != nil {
		return applied, fmt.Errorf("write %s: %w", path, err)
	}

	if len(applied) == 0 {
		log.Infof("configuration already up to date for version %s", detected)
	}
	return applied, nil
}
