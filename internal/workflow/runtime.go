// Package workflow sequences the pipeline stages: intake crawls and
// fingerprints the sources, the classifier routes every entry, and the
// deploy stage pushes the plan to the content store. Each stage fully
// materializes its output before the next begins.
package workflow

import (
	"log/slog"

	"github.com/4jp/alchemia/internal/classifier"
	"github.com/4jp/alchemia/internal/intake"
	"github.com/4jp/alchemia/internal/registry"
	"github.com/4jp/alchemia/internal/rules"
	"github.com/4jp/alchemia/pkg/storage"
)

// Runtime bundles the dependencies the pipeline stages require. It is
// constructed by higher-level composition code from configuration and
// infrastructure systems.
type Runtime struct {
	Registry   *registry.Registry
	Tables     *rules.Tables
	Crawler    *intake.Crawler
	Classifier *classifier.Classifier
	Storage    storage.System
	Logger     *slog.Logger

	// ManifestPath is the optional manifest index table; empty disables
	// manifest cross-referencing.
	ManifestPath string
	// DryRun plans the deployment without pushing anything.
	DryRun bool
}
